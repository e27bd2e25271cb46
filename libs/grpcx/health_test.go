package grpcx

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/salonbook/salonbook/libs/runtime"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func TestRefreshFollowsReadyChecks(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	healthy := true
	h := NewHealthServer("booking", logger, runtime.ReadyCheck{
		Name: "db",
		Check: func(context.Context) error {
			if healthy {
				return nil
			}
			return errors.New("down")
		},
	})

	ctx := context.Background()
	if !h.Refresh(ctx) {
		t.Fatal("expected serving")
	}
	resp, err := h.health.Check(ctx, &healthpb.HealthCheckRequest{Service: "booking"})
	if err != nil || resp.Status != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("unexpected status %v err=%v", resp, err)
	}

	healthy = false
	if h.Refresh(ctx) {
		t.Fatal("expected not serving")
	}
	resp, err = h.health.Check(ctx, &healthpb.HealthCheckRequest{Service: ""})
	if err != nil || resp.Status != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Fatalf("unexpected status %v err=%v", resp, err)
	}
}
