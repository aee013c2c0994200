package v1

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nulzo/calx-web/internal/backend"
	"github.com/nulzo/calx-web/internal/server/middleware"
	"github.com/nulzo/calx-web/internal/server/validator"
	"github.com/nulzo/calx-web/internal/session"
	"github.com/nulzo/calx-web/pkg/api"
)

// Backend is the subset of the CalX API the dashboard handlers use.
type Backend interface {
	Register(ctx context.Context, email, password string) (string, error)
	Login(ctx context.Context, email, password string) (*api.LoginResult, error)
	ListDevices(ctx context.Context, token string) ([]api.Device, error)
	FindDevice(ctx context.Context, token, deviceID string) (*api.Device, error)
	BindDevice(ctx context.Context, token, bindCode string) (*api.BindResult, error)
	DeviceActivity(ctx context.Context, token, deviceID string) (*api.DeviceActivity, error)
	RevokeDeviceToken(ctx context.Context, token, deviceID string) error
	UpdateSettings(ctx context.Context, token string, settings api.DeviceSettings) error
	Messages(ctx context.Context, token, deviceID, since string) ([]api.ChatMessage, error)
	SendMessage(ctx context.Context, token, deviceID, content string) (*api.ChatMessage, error)
	UploadFile(ctx context.Context, token, deviceID, content string) (int, error)
	DeleteFile(ctx context.Context, token, deviceID string) error
	TriggerOTA(ctx context.Context, token, deviceID, firmwareID string) (string, error)
	ListFirmware(ctx context.Context, token string) ([]api.Firmware, error)
}

var _ Backend = (*backend.Client)(nil)

// backendProblem maps a backend failure to a problem. Rejections keep their
// status and message; anything else is a bad gateway.
func backendProblem(err error) *api.Problem {
	var be *backend.Error
	if errors.As(err, &be) && !be.Temporary() {
		return api.NewError(be.Status, http.StatusText(be.Status), be.Message, api.WithLog(err))
	}
	if errors.Is(err, context.Canceled) {
		return api.NewError(499, "Client Closed Request", "The request was cancelled.")
	}
	return api.UpstreamError("The CalX service is unavailable, try again shortly.", err)
}

// mustSession is used behind RequireSession.
func mustSession(c *gin.Context) *session.Session {
	s, _ := middleware.CurrentSession(c)
	return s
}

// deviceFor resolves the device a request targets: the explicit id when given,
// else the session's current device.
func deviceFor(c *gin.Context, explicit string) (string, bool) {
	if explicit != "" {
		return explicit, true
	}
	if s := mustSession(c); s != nil && s.DeviceID != "" {
		return s.DeviceID, true
	}
	_ = c.Error(api.BadRequestError("No device selected. Pair or select a device first."))
	return "", false
}

func bindJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		_ = c.Error(api.ValidationError(validator.ParseValidationError(err)))
		return false
	}
	return true
}
