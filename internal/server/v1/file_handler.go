package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nulzo/calx-web/pkg/api"
)

type FileHandler struct {
	backend Backend
}

func NewFileHandler(backend Backend) *FileHandler {
	return &FileHandler{backend: backend}
}

// Upload replaces the notes file synced to the device.
//
// POST /web/file/upload
func (h *FileHandler) Upload(c *gin.Context) {
	var req api.UploadFileRequest
	if !bindJSON(c, &req) {
		return
	}
	deviceID, ok := deviceFor(c, req.DeviceID)
	if !ok {
		return
	}

	count, err := h.backend.UploadFile(c.Request.Context(), mustSession(c).Token, deviceID, req.Content)
	if err != nil {
		_ = c.Error(backendProblem(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"char_count": count, "max_chars": api.MaxFileChars})
}

// DELETE /web/file/:deviceId
func (h *FileHandler) Delete(c *gin.Context) {
	if err := h.backend.DeleteFile(c.Request.Context(), mustSession(c).Token, c.Param("deviceId")); err != nil {
		_ = c.Error(backendProblem(err))
		return
	}
	c.Status(http.StatusNoContent)
}
