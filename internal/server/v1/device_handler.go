package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nulzo/calx-web/internal/backend"
	"github.com/nulzo/calx-web/internal/server/middleware"
	"github.com/nulzo/calx-web/internal/session"
	"github.com/nulzo/calx-web/pkg/api"
)

type DeviceHandler struct {
	backend  Backend
	sessions *session.Manager
}

func NewDeviceHandler(backend Backend, sessions *session.Manager) *DeviceHandler {
	return &DeviceHandler{backend: backend, sessions: sessions}
}

// GET /web/device/list
func (h *DeviceHandler) List(c *gin.Context) {
	s := mustSession(c)
	devices, err := h.backend.ListDevices(c.Request.Context(), s.Token)
	if err != nil {
		_ = c.Error(backendProblem(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"devices":        devices,
		"current_device": s.DeviceID,
	})
}

// Bind pairs the device showing the code and makes it the current device.
//
// POST /web/bind/confirm
func (h *DeviceHandler) Bind(c *gin.Context) {
	var req api.BindRequest
	if !bindJSON(c, &req) {
		return
	}

	s := mustSession(c)
	res, err := h.backend.BindDevice(c.Request.Context(), s.Token, api.NormalizeBindCode(req.BindCode))
	if err != nil {
		_ = c.Error(backendProblem(err))
		return
	}

	if res.DeviceID != "" {
		if !h.selectDevice(c, s, res.DeviceID) {
			return
		}
	}

	c.JSON(http.StatusOK, res)
}

// PUT /web/device/current
func (h *DeviceHandler) SelectCurrent(c *gin.Context) {
	var req api.SelectDeviceRequest
	if !bindJSON(c, &req) {
		return
	}

	s := mustSession(c)
	if _, err := h.backend.FindDevice(c.Request.Context(), s.Token, req.DeviceID); err != nil {
		_ = c.Error(backendProblem(err))
		return
	}
	if !h.selectDevice(c, s, req.DeviceID) {
		return
	}

	c.JSON(http.StatusOK, mustSession(c).Info())
}

// GET /web/device/:id/activity
func (h *DeviceHandler) Activity(c *gin.Context) {
	activity, err := h.backend.DeviceActivity(c.Request.Context(), mustSession(c).Token, c.Param("id"))
	if err != nil {
		_ = c.Error(backendProblem(err))
		return
	}
	c.JSON(http.StatusOK, activity)
}

// RevokeToken signs the device out of the backend; it has to be paired again.
//
// POST /web/device/:id/revoke-token
func (h *DeviceHandler) RevokeToken(c *gin.Context) {
	if err := h.backend.RevokeDeviceToken(c.Request.Context(), mustSession(c).Token, c.Param("id")); err != nil {
		_ = c.Error(backendProblem(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// POST /web/device/settings
func (h *DeviceHandler) UpdateSettings(c *gin.Context) {
	var req api.DeviceSettings
	if !bindJSON(c, &req) {
		return
	}
	deviceID, ok := deviceFor(c, req.DeviceID)
	if !ok {
		return
	}
	req.DeviceID = deviceID

	h.saveSettings(c, req)
}

// POST /web/device/ai-config
func (h *DeviceHandler) UpdateAIConfig(c *gin.Context) {
	var req api.AIConfigRequest
	if !bindJSON(c, &req) {
		return
	}
	deviceID, ok := deviceFor(c, req.DeviceID)
	if !ok {
		return
	}
	req.DeviceID = deviceID

	h.saveSettings(c, req.Settings())
}

func (h *DeviceHandler) saveSettings(c *gin.Context, settings api.DeviceSettings) {
	if err := h.backend.UpdateSettings(c.Request.Context(), mustSession(c).Token, settings); err != nil {
		_ = c.Error(backendProblem(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "device_id": settings.DeviceID})
}

// GET /web/device/update/firmware
func (h *DeviceHandler) Firmware(c *gin.Context) {
	s := mustSession(c)
	firmware, err := h.backend.ListFirmware(c.Request.Context(), s.Token)
	if err != nil {
		_ = c.Error(backendProblem(err))
		return
	}

	status := api.FirmwareStatus{
		Firmware: firmware,
		Latest:   backend.LatestFirmware(firmware),
	}

	if s.DeviceID != "" {
		device, err := h.backend.FindDevice(c.Request.Context(), s.Token, s.DeviceID)
		var beErr *backend.Error
		switch {
		case errors.As(err, &beErr) && beErr.Status == http.StatusNotFound:
			// selected device was unbound or revoked; the catalogue is still useful
		case err != nil:
			_ = c.Error(backendProblem(err))
			return
		default:
			status.CurrentVersion = device.FirmwareVersion
			status.UpdateAvailable = backend.UpdateAvailable(device.FirmwareVersion, status.Latest)
		}
	}

	c.JSON(http.StatusOK, status)
}

// POST /web/device/update/trigger
func (h *DeviceHandler) TriggerUpdate(c *gin.Context) {
	var req api.TriggerOTARequest
	if !bindJSON(c, &req) {
		return
	}
	deviceID, ok := deviceFor(c, req.DeviceID)
	if !ok {
		return
	}

	jobID, err := h.backend.TriggerOTA(c.Request.Context(), mustSession(c).Token, deviceID, req.FirmwareID)
	if err != nil {
		_ = c.Error(backendProblem(err))
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"job_id": jobID})
}

func (h *DeviceHandler) selectDevice(c *gin.Context, s *session.Session, deviceID string) bool {
	updated, err := h.sessions.SetDevice(c.Request.Context(), s.ID, deviceID)
	if err != nil {
		_ = c.Error(api.InternalError("Failed to update session", err))
		return false
	}
	middleware.SetSession(c, updated)
	return true
}
