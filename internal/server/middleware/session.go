package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/nulzo/calx-web/internal/session"
	"github.com/nulzo/calx-web/pkg/api"
	"go.uber.org/zap"
)

const sessionKey = "session"

// Session loads the session named by the cookie, if any. It never rejects a request.
func Session(manager *session.Manager, cookieName string, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := c.Cookie(cookieName)
		if err != nil || id == "" {
			c.Next()
			return
		}

		s, err := manager.Get(c.Request.Context(), id)
		switch {
		case err == nil:
			c.Set(sessionKey, s)
		case errors.Is(err, session.ErrNotFound):
			// stale cookie, the browser will be asked to sign in again
		default:
			logger.Error("Failed to load session", zap.Error(err))
		}

		c.Next()
	}
}

// RequireSession rejects requests without a live session.
func RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentSession(c); !ok {
			_ = c.Error(api.UnauthorizedError("Sign in to continue."))
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentSession returns the session loaded by Session.
func CurrentSession(c *gin.Context) (*session.Session, bool) {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil, false
	}
	s, ok := v.(*session.Session)
	return s, ok
}

// SetSession replaces the request's session, e.g. after login or device selection.
func SetSession(c *gin.Context, s *session.Session) {
	c.Set(sessionKey, s)
}
