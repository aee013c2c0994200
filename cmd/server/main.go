package main

import (
	"context"
	"errors"
	"expvar"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nulzo/calx-web/internal/analytics"
	"github.com/nulzo/calx-web/internal/backend"
	"github.com/nulzo/calx-web/internal/catalog"
	"github.com/nulzo/calx-web/internal/config"
	"github.com/nulzo/calx-web/internal/modelfetch"
	"github.com/nulzo/calx-web/internal/platform/logger"
	"github.com/nulzo/calx-web/internal/platform/otel"
	"github.com/nulzo/calx-web/internal/server"
	"github.com/nulzo/calx-web/internal/session"
	"github.com/nulzo/calx-web/internal/store"
	"github.com/nulzo/calx-web/internal/store/cache"
	"github.com/nulzo/calx-web/internal/store/sqlite"
	"github.com/nulzo/calx-web/internal/version"
	"go.uber.org/zap"
)

func main() {
	logger.Initialize(logger.DefaultConfig())
	defer logger.Sync()
	log := logger.Get()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Tracing.Enabled {
		shutdown, err := otel.InitTracer(otel.Config{
			ServiceName: cfg.Tracing.ServiceName,
			Version:     version.Version,
			Environment: cfg.Server.Env,
			SampleRatio: cfg.Tracing.SampleRatio,
			Pretty:      !cfg.IsProduction(),
		}, log, os.Stdout)
		if err != nil {
			log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		defer func() {
			_ = shutdown(context.Background())
		}()
	}

	// fetch diagnostics
	var repo store.Repository
	ingestor := analytics.NewNopIngestor()
	if cfg.Database.Enabled {
		repo, err = sqlite.NewSQLiteStorage(cfg.Database.DSN, log)
		if err != nil {
			log.Fatal("Failed to open database", zap.Error(err))
		}
		defer repo.Close()
		ingestor = analytics.NewIngestor(log, repo, analytics.Options{})
	}
	ingestor.Start(ctx)
	defer ingestor.Stop()

	// sessions
	var sessionStore cache.CacheService = cache.NewMemoryCache()
	if cfg.Session.Store == "redis" {
		client, err := cache.NewRedisClient(cache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.Fatal("Failed to connect to redis", zap.Error(err))
		}
		defer client.Close()
		sessionStore = cache.NewRedisCache(client, "calx:")
	}

	fetcher := modelfetch.NewService(
		catalog.NewRegistry(cfg.Fetch.Providers),
		&http.Client{Timeout: cfg.Fetch.Timeout},
		log,
		ingestor,
	)

	srv := server.New(cfg, log, server.Deps{
		Fetcher:   fetcher,
		Analytics: analytics.NewService(repo),
		Backend:   backend.NewClient(cfg.Backend.BaseURL, &http.Client{Timeout: cfg.Backend.Timeout}),
		Sessions:  session.NewManager(sessionStore, cfg.Session.TTL),
	})
	go srv.PruneLimiter(10*time.Minute, ctx.Done())

	if cfg.UpdateCheck.Enabled {
		go version.NewChecker(cfg.UpdateCheck.Repo, nil).CheckForUpdates(ctx, log)
	}

	if cfg.Server.DebugAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/debug/vars", expvar.Handler())
			if err := http.ListenAndServe(cfg.Server.DebugAddr, mux); err != nil {
				log.Warn("Debug listener stopped", zap.Error(err))
			}
		}()
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("Starting CalX web API",
			zap.String("port", cfg.Server.Port),
			zap.String("env", cfg.Server.Env),
			zap.String("version", version.Version),
			zap.String("backend", cfg.Backend.BaseURL),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("Graceful shutdown failed", zap.Error(err))
	}
}
