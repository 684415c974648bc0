package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tileproxy/internal/fetch"
	v1 "tileproxy/internal/infrastructure/http/v1"
	"tileproxy/internal/infrastructure/http/v1/handler"
	"tileproxy/internal/limiter"
	"tileproxy/internal/registry"
	"tileproxy/internal/repository/cache"
	"tileproxy/internal/usecase"
	"tileproxy/pkg/config"
	"tileproxy/pkg/logger"
	"tileproxy/pkg/telemetry"
)

func Run(cfg *config.Config) {
	l := logger.NewZapLogger(cfg.Logger.Level)

	l.Info("starting tile proxy", "config", cfg)

	if cfg.Telemetry.Enabled {
		shutdownTelemetry, err := telemetry.InitTracer(telemetry.Config{
			ServiceName:    cfg.Telemetry.ServiceName,
			ServiceVersion: cfg.Telemetry.ServiceVersion,
			Environment:    cfg.Telemetry.Environment,
			OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		}, l)
		if err != nil {
			l.Fatal("failed to initialize telemetry", "error", err)
		}
		defer func() {
			if err := shutdownTelemetry(context.Background()); err != nil {
				l.Error("failed to shutdown telemetry", "error", err)
			}
		}()
		l.Info("telemetry initialized", "service", cfg.Telemetry.ServiceName)
	}

	reg, err := loadRegistry(cfg)
	if err != nil {
		l.Fatal("failed to load map registry", "error", err)
	}
	l.Info("map registry loaded", "maps", reg.IDs())

	pools := limiter.NewPools(cfg.Limits.Concurrency, cfg.Limits.RatePerSecond, cfg.Limits.AcquireTimeout)

	fetcher := fetch.New(pools, fetch.Options{
		FetchTimeout: cfg.Upstream.FetchTimeout,
		MaxRetries:   cfg.Upstream.MaxRetries,
		RetryBackoff: cfg.Upstream.RetryBackoff,
		UserAgent:    cfg.Upstream.UserAgent,
	}, l)

	var tileCache cache.TileCache
	if cfg.Cache.Enabled {
		tileCache = cache.NewMapCache(cfg.Cache.TTL)
		l.Info("in-memory tile cache enabled", "ttl", cfg.Cache.TTL)
	}

	tileUseCase := usecase.NewTileUseCase(reg, fetcher, tileCache, cfg.HTTP.Timeout, l)

	h := handler.NewHandler(tileUseCase)
	router := v1.NewRouter(h, l, cfg.Telemetry.Enabled)

	server := &http.Server{
		Addr:         ":" + cfg.HTTP.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.Server.ReadTimeout,
		WriteTimeout: cfg.HTTP.Server.WriteTimeout,
		IdleTimeout:  cfg.HTTP.Server.IdleTimeout,
	}

	go func() {
		l.Info("starting http server", "port", cfg.HTTP.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Fatal("failed to start server", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	l.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		l.Fatal("server forced to shutdown", "error", err)
	}

	l.Info("server stopped")
}

func loadRegistry(cfg *config.Config) (*registry.Registry, error) {
	var (
		configs []*registry.MapConfig
		err     error
	)

	switch cfg.Registry.Source {
	case "file":
		configs, err = registry.LoadFile(cfg.Registry.Path)
	case "redis":
		configs, err = registry.LoadRedis(context.Background(), registry.RedisConfig{
			Addr:       cfg.Registry.Redis.Addr,
			Password:   cfg.Registry.Redis.Password,
			DB:         cfg.Registry.Redis.DB,
			KeyPattern: cfg.Registry.KeyPattern,
		})
	default:
		return nil, fmt.Errorf("unknown registry source %q", cfg.Registry.Source)
	}
	if err != nil {
		return nil, err
	}

	return registry.New(configs)
}
