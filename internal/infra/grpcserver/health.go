package grpcserver

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the name probes query in addition to the overall "" service.
const ServiceName = "vendorhub.Ledger"

// HealthServer serves grpc.health.v1 and mirrors the readiness check into the serving status.
type HealthServer struct {
	Addr   string
	Ready  func(ctx context.Context) error
	Every  time.Duration
	Logger *slog.Logger

	server *grpc.Server
	health *health.Server
}

func NewHealthServer(addr string, ready func(ctx context.Context) error, logger *slog.Logger) *HealthServer {
	h := &HealthServer{Addr: addr, Ready: ready, Logger: logger, health: health.NewServer()}
	h.server = grpc.NewServer()
	healthpb.RegisterHealthServer(h.server, h.health)
	return h
}

// Run listens on Addr until ctx is done.
func (h *HealthServer) Run(ctx context.Context) error {
	lis, err := net.Listen("tcp", h.Addr)
	if err != nil {
		return err
	}
	go h.watch(ctx)
	go func() {
		<-ctx.Done()
		h.health.Shutdown()
		h.server.GracefulStop()
	}()
	h.logger().Info("grpc health listening", "addr", h.Addr)
	if err := h.server.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}

// Check evaluates readiness once and publishes the result.
func (h *HealthServer) Check(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	status := healthpb.HealthCheckResponse_SERVING
	if h.Ready != nil {
		if err := h.Ready(ctx); err != nil {
			status = healthpb.HealthCheckResponse_NOT_SERVING
			h.logger().Warn("readiness check failed", "error", err)
		}
	}
	h.health.SetServingStatus("", status)
	h.health.SetServingStatus(ServiceName, status)
	return status
}

func (h *HealthServer) watch(ctx context.Context) {
	every := h.Every
	if every <= 0 {
		every = 10 * time.Second
	}
	h.Check(ctx)
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.Check(ctx)
		}
	}
}

func (h *HealthServer) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}
