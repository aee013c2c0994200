package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nulzo/calx-web/internal/modelfetch"
	"github.com/nulzo/calx-web/pkg/api"
)

const errFetchFieldsRequired = "Provider and API key are required"

type ModelHandler struct {
	service *modelfetch.Service
}

func NewModelHandler(service *modelfetch.Service) *ModelHandler {
	return &ModelHandler{service: service}
}

// Providers lists the vendors the AI config page can choose from.
//
// GET /api/providers
func (h *ModelHandler) Providers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"object": "list",
		"data":   h.service.Providers(),
	})
}

// FetchModels proxies a vendor's list-models call with the caller's key.
// The body keeps the dashboard's {models, warning?, error?} shape rather than a problem document.
//
// POST /api/fetch-models
func (h *ModelHandler) FetchModels(c *gin.Context) {
	var req api.FetchModelsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errFetchFieldsRequired})
		return
	}

	res := h.service.FetchModels(c.Request.Context(), req.Provider, req.APIKey)

	status := http.StatusOK
	if res.Kind == modelfetch.KindUnknownProvider {
		status = http.StatusBadRequest
	}
	c.JSON(status, res.ToList())
}
