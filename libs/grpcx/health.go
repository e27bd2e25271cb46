package grpcx

import (
	"context"
	"log/slog"
	"net"
	"time"

	"github.com/salonbook/salonbook/libs/runtime"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// HealthServer exposes grpc.health.v1 for a service. Its status follows the
// service's ready checks.
type HealthServer struct {
	name   string
	checks []runtime.ReadyCheck
	health *health.Server
	srv    *grpc.Server
	logger *slog.Logger
	every  time.Duration
}

func NewHealthServer(name string, logger *slog.Logger, checks ...runtime.ReadyCheck) *HealthServer {
	hs := health.NewServer()
	srv := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(UnaryServerRequestIDInterceptor()),
	)
	healthpb.RegisterHealthServer(srv, hs)
	return &HealthServer{name: name, checks: checks, health: hs, srv: srv, logger: logger, every: 10 * time.Second}
}

// Refresh runs the ready checks once and publishes the result for both the
// named service and the server as a whole ("").
func (h *HealthServer) Refresh(ctx context.Context) bool {
	status := healthpb.HealthCheckResponse_SERVING
	if failures := runtime.RunChecks(ctx, h.checks); len(failures) > 0 {
		status = healthpb.HealthCheckResponse_NOT_SERVING
		h.logger.Warn("grpc health not serving", "failures", failures)
	}
	h.health.SetServingStatus(h.name, status)
	h.health.SetServingStatus("", status)
	return status == healthpb.HealthCheckResponse_SERVING
}

// Serve listens on addr until ctx is cancelled.
func (h *HealthServer) Serve(ctx context.Context, addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return h.ServeListener(ctx, lis)
}

func (h *HealthServer) ServeListener(ctx context.Context, lis net.Listener) error {
	h.Refresh(ctx)
	go func() {
		ticker := time.NewTicker(h.every)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				h.health.Shutdown()
				h.srv.GracefulStop()
				return
			case <-ticker.C:
				h.Refresh(ctx)
			}
		}
	}()
	h.logger.Info("grpc health listening", "addr", lis.Addr().String())
	return h.srv.Serve(lis)
}
