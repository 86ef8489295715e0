package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the grpc.health.v1 service name reported by the worker.
const ServiceName = "devlog.ai.Worker"

// GRPCHealthServer exposes grpc.health.v1 with the status mirrored from the
// HTTP readiness probe.
type GRPCHealthServer struct {
	addr     string
	logger   *slog.Logger
	ready    *HealthServer
	interval time.Duration
	health   *health.Server
	server   *grpc.Server
}

// NewGRPCHealthServer creates a gRPC health server that polls ready every interval.
func NewGRPCHealthServer(addr string, ready *HealthServer, interval time.Duration, logger *slog.Logger) *GRPCHealthServer {
	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)

	srv := grpc.NewServer()
	healthpb.RegisterHealthServer(srv, hs)

	return &GRPCHealthServer{
		addr:     addr,
		logger:   logger,
		ready:    ready,
		interval: interval,
		health:   hs,
		server:   srv,
	}
}

// Sync copies the current readiness into the serving status.
func (g *GRPCHealthServer) Sync(ctx context.Context) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if ok, _ := g.ready.Ready(ctx); ok {
		status = healthpb.HealthCheckResponse_SERVING
	}
	g.health.SetServingStatus("", status)
	g.health.SetServingStatus(ServiceName, status)
}

// Serve serves on lis until ctx is done.
func (g *GRPCHealthServer) Serve(ctx context.Context, lis net.Listener) error {
	errChan := make(chan error, 1)
	go func() {
		g.logger.Info("grpc health server starting", slog.String("addr", lis.Addr().String()))
		errChan <- g.server.Serve(lis)
	}()

	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()
	g.Sync(ctx)

	for {
		select {
		case <-ctx.Done():
			g.health.Shutdown()
			g.server.GracefulStop()
			g.logger.Info("grpc health server stopped")
			return nil
		case <-ticker.C:
			g.Sync(ctx)
		case err := <-errChan:
			if errors.Is(err, grpc.ErrServerStopped) {
				return nil
			}
			return fmt.Errorf("grpc health server: %w", err)
		}
	}
}

// Start listens on the configured address and serves until ctx is done.
func (g *GRPCHealthServer) Start(ctx context.Context) error {
	lis, err := net.Listen("tcp", g.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", g.addr, err)
	}
	return g.Serve(ctx, lis)
}
