package server

import (
	"net/http"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/nulzo/calx-web/internal/analytics"
	"github.com/nulzo/calx-web/internal/config"
	"github.com/nulzo/calx-web/internal/modelfetch"
	"github.com/nulzo/calx-web/internal/server/middleware"
	v1 "github.com/nulzo/calx-web/internal/server/v1"
	"github.com/nulzo/calx-web/internal/server/validator"
	"github.com/nulzo/calx-web/internal/session"
	"go.uber.org/zap"
)

// Deps are the services the HTTP layer is built on.
type Deps struct {
	Fetcher   *modelfetch.Service
	Analytics analytics.Service
	Backend   v1.Backend
	Sessions  *session.Manager
}

type Server struct {
	router  *gin.Engine
	config  *config.Config
	logger  *zap.Logger
	deps    Deps
	limiter *middleware.RateLimiter
}

func New(cfg *config.Config, logger *zap.Logger, deps Deps) *Server {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	validator.InitValidator()

	engine := gin.New()
	engine.Use(ginzap.RecoveryWithZap(logger, true))
	engine.Use(middleware.Logger(logger))
	if cfg.Tracing.Enabled {
		engine.Use(middleware.Tracing(cfg.Tracing.ServiceName))
	}

	s := &Server{
		router:  engine,
		config:  cfg,
		logger:  logger,
		deps:    deps,
		limiter: middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst, logger),
	}

	s.SetupRoutes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// PruneLimiter drops idle rate limit buckets every interval until done is closed.
func (s *Server) PruneLimiter(interval time.Duration, done <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if n := s.limiter.Prune(interval); n > 0 {
				s.logger.Debug("Pruned idle rate limiters", zap.Int("count", n))
			}
		case <-done:
			return
		}
	}
}
