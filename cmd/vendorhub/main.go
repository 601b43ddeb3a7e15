package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vendorhub/internal/infra/config"
	"vendorhub/internal/infra/grpcserver"
	ginserver "vendorhub/internal/infra/http/gin"
	"vendorhub/internal/infra/obs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		obs.NewLogger(os.Getenv("APP_ENV"), os.Getenv("LOG_LEVEL")).Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger := obs.NewLogger(cfg.Env, cfg.LogLevel)

	shutdownTracer, err := obs.InitTracer(ctx, "vendorhub", cfg.Env, cfg.OTLPEndpoint)
	if err != nil {
		logger.Warn("tracing disabled", "error", err)
		shutdownTracer = func(context.Context) error { return nil }
	}

	app, err := buildApplication(ctx, cfg, logger)
	if err != nil {
		logger.Error("application wiring failed", "error", err)
		os.Exit(1)
	}

	readiness := obs.HealthHandlers{Checks: app.checks}
	server := ginserver.NewServer(cfg.HTTPAddr, cfg.Env, obs.Middleware{Logger: logger}, readiness, app.handlers)

	for _, bg := range app.background {
		go func(name string, run func(context.Context) error) {
			if err := run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("background worker stopped", "worker", name, "error", err)
			}
		}(bg.name, bg.run)
	}

	health := grpcserver.NewHealthServer(cfg.GRPCAddr, readiness.Ready, logger)
	go func() {
		if err := health.Run(ctx); err != nil {
			logger.Error("grpc health server failed", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
		app.close(shutdownCtx, logger)
		if err := shutdownTracer(shutdownCtx); err != nil {
			logger.Warn("tracer shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "storage", cfg.StorageMode, "gateway", cfg.GatewayMode)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	<-ctx.Done()
	logger.Info("HTTP server stopped")
}
