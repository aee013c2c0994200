package server

import (
	"github.com/nulzo/calx-web/internal/server/middleware"
	v1 "github.com/nulzo/calx-web/internal/server/v1"
)

func (s *Server) SetupRoutes() {
	s.router.Use(middleware.CORS(s.config.Server.AllowedOrigins))
	s.router.Use(middleware.ErrorHandler(s.logger))
	s.router.Use(middleware.Session(s.deps.Sessions, s.config.Session.CookieName, s.logger))

	healthHandler := v1.NewHealthHandler()
	s.router.GET("/health", healthHandler.Health)

	// dashboard API
	api := s.router.Group("/api")
	{
		modelHandler := v1.NewModelHandler(s.deps.Fetcher)
		api.GET("/providers", modelHandler.Providers)

		fetch := api.Group("")
		fetch.Use(s.limiter.Middleware())
		if s.config.Fetch.RequireSession {
			fetch.Use(middleware.RequireSession())
		}
		fetch.POST("/fetch-models", modelHandler.FetchModels)

		diagnosticsHandler := v1.NewDiagnosticsHandler(s.deps.Analytics)
		api.GET("/diagnostics/fetches", middleware.RequireSession(), diagnosticsHandler.FetchStats)
	}

	// CalX backend proxy
	web := s.router.Group("/web")
	{
		authHandler := v1.NewAuthHandler(s.deps.Backend, s.deps.Sessions, v1.CookieConfig{
			Name:   s.config.Session.CookieName,
			Secure: s.config.Session.Secure,
		}, s.logger)

		auth := web.Group("/auth")
		auth.Use(s.limiter.Middleware())
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/logout", authHandler.Logout)

		signedIn := web.Group("")
		signedIn.Use(middleware.RequireSession())

		signedIn.GET("/session", authHandler.Session)

		deviceHandler := v1.NewDeviceHandler(s.deps.Backend, s.deps.Sessions)
		signedIn.GET("/device/list", deviceHandler.List)
		signedIn.POST("/bind/confirm", deviceHandler.Bind)
		signedIn.PUT("/device/current", deviceHandler.SelectCurrent)
		signedIn.GET("/device/:id/activity", deviceHandler.Activity)
		signedIn.POST("/device/:id/revoke-token", deviceHandler.RevokeToken)
		signedIn.POST("/device/settings", deviceHandler.UpdateSettings)
		signedIn.POST("/device/ai-config", deviceHandler.UpdateAIConfig)
		signedIn.GET("/device/update/firmware", deviceHandler.Firmware)
		signedIn.POST("/device/update/trigger", deviceHandler.TriggerUpdate)

		chatHandler := v1.NewChatHandler(s.deps.Backend)
		signedIn.GET("/chat/messages", chatHandler.Messages)
		signedIn.POST("/chat/send", chatHandler.Send)

		fileHandler := v1.NewFileHandler(s.deps.Backend)
		signedIn.POST("/file/upload", fileHandler.Upload)
		signedIn.DELETE("/file/:deviceId", fileHandler.Delete)
	}
}
