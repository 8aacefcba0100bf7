// Package main is the entry point for the trendzportal API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"trendzportal/internal/app"
	v1 "trendzportal/internal/infrastructure/http/v1"
	"trendzportal/internal/infrastructure/http/v1/handlers"
	"trendzportal/internal/infrastructure/http/v1/middleware"
	"trendzportal/pkg/logger"
)

func main() {
	cfg, err := app.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log, err := cfg.Logger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = logger.WithLogger(ctx, log)

	rt, err := app.NewRuntime(ctx, cfg, log)
	if err != nil {
		log.Fatalw("failed to build runtime", "error", err)
	}
	defer rt.Close()

	if cfg.Storage == app.StorageMemory {
		seedDevSite(ctx, rt)
	}

	rc := v1.RouterConfig{
		Services:     rt.Services,
		Sites:        rt.Sites,
		Logger:       log,
		HealthChecks: map[string]handlers.Pinger{},
		Debug:        !cfg.IsProduction(),
	}
	if rt.Idempotency != nil {
		rc.Idempotency = rt.Idempotency
	}
	if rt.Jobs != nil {
		rc.BarcodeQueue = rt.Jobs
	}
	if rt.Pool != nil {
		rc.HealthChecks["postgres"] = handlers.PingerFunc(rt.Pool.Ping)
	}
	if rt.Redis != nil {
		rc.HealthChecks["redis"] = handlers.PingerFunc(func(ctx context.Context) error {
			return rt.Redis.Ping(ctx).Err()
		})
	}

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      v1.NewRouter(rc),
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "addr", cfg.AppAddr, "storage", cfg.Storage)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down server...")

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}
	log.Info("server stopped")
}

// seedDevSite gives an in-memory server a site and an admin to call it with.
func seedDevSite(ctx context.Context, rt *app.Runtime) {
	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		password = "changeme1"
	}
	res, err := app.Seed(ctx, rt.Sites, rt.Services, app.SeedInput{
		Slug:          "dev",
		DisplayName:   "Development",
		AdminUsername: "admin",
		AdminPassword: password,
		Demo:          true,
	})
	if err != nil {
		rt.Log.Fatalw("failed to seed development site", "error", err)
	}
	rt.Log.Infow("development site ready",
		middleware.TenantHeader, res.Site.ID,
		"username", res.Admin.Username,
		"token", res.Token,
	)
}
