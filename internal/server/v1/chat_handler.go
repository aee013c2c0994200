package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nulzo/calx-web/pkg/api"
)

type ChatHandler struct {
	backend Backend
}

func NewChatHandler(backend Backend) *ChatHandler {
	return &ChatHandler{backend: backend}
}

// Messages returns the conversation with a device. The page polls with ?since=.
//
// GET /web/chat/messages?device_id=&since=
func (h *ChatHandler) Messages(c *gin.Context) {
	deviceID, ok := deviceFor(c, c.Query("device_id"))
	if !ok {
		return
	}

	msgs, err := h.backend.Messages(c.Request.Context(), mustSession(c).Token, deviceID, c.Query("since"))
	if err != nil {
		_ = c.Error(backendProblem(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// POST /web/chat/send
func (h *ChatHandler) Send(c *gin.Context) {
	var req api.SendMessageRequest
	if !bindJSON(c, &req) {
		return
	}
	deviceID, ok := deviceFor(c, req.DeviceID)
	if !ok {
		return
	}

	msg, err := h.backend.SendMessage(c.Request.Context(), mustSession(c).Token, deviceID, req.Content)
	if err != nil {
		_ = c.Error(backendProblem(err))
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": msg})
}
