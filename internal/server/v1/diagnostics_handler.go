package v1

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/nulzo/calx-web/internal/analytics"
	"github.com/nulzo/calx-web/pkg/api"
)

const maxStatsDays = 90

type DiagnosticsHandler struct {
	service analytics.Service
}

func NewDiagnosticsHandler(service analytics.Service) *DiagnosticsHandler {
	return &DiagnosticsHandler{
		service: service,
	}
}

// GET /api/diagnostics/fetches?days=7
func (h *DiagnosticsHandler) FetchStats(c *gin.Context) {
	days, err := strconv.Atoi(c.DefaultQuery("days", "7"))
	if err != nil || days < 1 || days > maxStatsDays {
		_ = c.Error(api.BadRequestError("Invalid 'days' parameter, expected 1 to 90"))
		return
	}

	stats, err := h.service.FetchStats(c.Request.Context(), days)
	if err != nil {
		_ = c.Error(api.InternalError("Failed to load fetch diagnostics", err))
		return
	}

	data := make([]api.FetchStats, 0, len(stats))
	for _, s := range stats {
		data = append(data, api.FetchStats{
			Date:       s.Date,
			ProviderID: s.ProviderID,
			Outcome:    s.Outcome,
			Attempts:   s.Attempts,
			AvgLatency: s.AvgLatency,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"object": "list",
		"data":   data,
	})
}
