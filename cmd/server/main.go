// Command server runs the feedhub API.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"feedhub/internal/bootstrap"
	"feedhub/internal/config"
	"feedhub/internal/middleware"
	"feedhub/internal/observability"
	"feedhub/internal/server"
)

// @title feedhub API
// @version 1.0
// @description Social feed API with hashtags, likes, comments, profiles and connections

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	seedDemo := flag.Bool("seed-demo", false, "Seed an empty development database with demo data")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		middleware.Logger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	middleware.SetLogger(middleware.NewLogger(cfg.Env, os.Stdout))
	middleware.InitMiddleware(cfg)

	shutdownTracing, err := observability.InitTracing(observability.TracingConfig{
		ServiceName:    "feedhub-api",
		ServiceVersion: "1.0.0",
		Environment:    cfg.Env,
		Enabled:        cfg.TracingEnabled,
		Exporter:       cfg.TracingExporter,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SamplerRatio:   cfg.TracingSamplerRatio,
	})
	if err != nil {
		middleware.Logger.Error("failed to initialize tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx := context.Background()
	db, rdb, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{SeedDemo: *seedDemo})
	if err != nil {
		middleware.Logger.Error("failed to initialize runtime", slog.String("error", err.Error()))
		os.Exit(1)
	}

	srv, err := server.NewServerWithDeps(cfg, db, rdb)
	if err != nil {
		middleware.Logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		middleware.Logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			middleware.Logger.Error("server shutdown error", slog.String("error", err.Error()))
		}
		if err := shutdownTracing(shutdownCtx); err != nil {
			middleware.Logger.Error("tracing shutdown error", slog.String("error", err.Error()))
		}
	}()

	if err := srv.Start(); err != nil {
		middleware.Logger.Error("server stopped", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
