package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nulzo/calx-web/pkg/api"
	"go.uber.org/zap"
)

// ErrorHandler renders the last error pushed with c.Error as an RFC 9457 problem.
func ErrorHandler(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err

		var problem *api.Problem
		if errors.As(err, &problem) {
			if problem.Log != nil {
				logger.Error("Request failed",
					zap.Int("status", problem.Status),
					zap.String("path", c.Request.URL.Path),
					zap.Error(problem.Log),
				)
			}
			problem.Instance = c.Request.URL.Path
			c.AbortWithStatusJSON(problem.Status, problem)
			return
		}

		logger.Error("Unhandled error", zap.String("path", c.Request.URL.Path), zap.Error(err))
		c.AbortWithStatusJSON(http.StatusInternalServerError, api.NewError(
			http.StatusInternalServerError,
			"Internal Server Error",
			"An unexpected error occurred.",
		))
	}
}
