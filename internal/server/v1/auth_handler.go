package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nulzo/calx-web/internal/server/middleware"
	"github.com/nulzo/calx-web/internal/session"
	"github.com/nulzo/calx-web/pkg/api"
	"go.uber.org/zap"
)

// CookieConfig controls the session cookie.
type CookieConfig struct {
	Name   string
	Secure bool
}

type AuthHandler struct {
	backend  Backend
	sessions *session.Manager
	cookie   CookieConfig
	logger   *zap.Logger
}

func NewAuthHandler(backend Backend, sessions *session.Manager, cookie CookieConfig, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{backend: backend, sessions: sessions, cookie: cookie, logger: logger}
}

// POST /web/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req api.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	userID, err := h.backend.Register(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		_ = c.Error(backendProblem(err))
		return
	}

	c.JSON(http.StatusCreated, gin.H{"user_id": userID})
}

// Login signs in against the backend and starts a server-side session.
// The backend token stays on the server.
//
// POST /web/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req api.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := h.backend.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		_ = c.Error(backendProblem(err))
		return
	}

	s, err := h.sessions.Create(c.Request.Context(), res.Token, res.User)
	if err != nil {
		if errors.Is(err, session.ErrTokenExpired) {
			_ = c.Error(api.UnauthorizedError("The sign-in token has already expired."))
			return
		}
		_ = c.Error(api.InternalError("Failed to start session", err))
		return
	}

	// select the first device so device pages work straight away
	if devices, err := h.backend.ListDevices(c.Request.Context(), s.Token); err == nil && len(devices) > 0 {
		if updated, err := h.sessions.SetDevice(c.Request.Context(), s.ID, devices[0].ID); err == nil {
			s = updated
		}
	}

	h.setCookie(c, s.ID, int(s.ExpiresAt.Sub(s.CreatedAt).Seconds()))
	h.logger.Info("User signed in", zap.String("user_id", s.User.ID))
	c.JSON(http.StatusOK, s.Info())
}

// POST /web/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	if s, ok := middleware.CurrentSession(c); ok {
		if err := h.sessions.Destroy(c.Request.Context(), s.ID); err != nil {
			_ = c.Error(api.InternalError("Failed to end session", err))
			return
		}
	}
	h.setCookie(c, "", -1)
	c.Status(http.StatusNoContent)
}

// GET /web/session
func (h *AuthHandler) Session(c *gin.Context) {
	c.JSON(http.StatusOK, mustSession(c).Info())
}

func (h *AuthHandler) setCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, value, maxAge, "/", "", h.cookie.Secure, true)
}
