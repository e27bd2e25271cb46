package cache

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"testing"
	"time"
)

type memBackend struct {
	data map[string]string
	fail bool
}

func (m *memBackend) Get(_ context.Context, key string) (string, error) {
	if m.fail {
		return "", errors.New("connection refused")
	}
	v, ok := m.data[key]
	if !ok {
		return "", ErrMiss
	}
	return v, nil
}

func (m *memBackend) Set(_ context.Context, key, value string, _ time.Duration) error {
	m.data[key] = value
	return nil
}

func (m *memBackend) Incr(_ context.Context, key string) (int64, error) {
	n, _ := strconv.ParseInt(m.data[key], 10, 64)
	n++
	m.data[key] = strconv.FormatInt(n, 10)
	return n, nil
}

type report struct {
	Total float64 `json:"total"`
}

func TestFetchCachesUntilInvalidated(t *testing.T) {
	backend := &memBackend{data: map[string]string{}}
	c := New(backend, time.Minute, "test", slog.New(slog.NewJSONHandler(io.Discard, nil)))
	ctx := context.Background()

	calls := 0
	load := func(context.Context) (report, error) {
		calls++
		return report{Total: float64(calls) * 10}, nil
	}

	first, _ := Fetch(ctx, c, Key("overview"), load)
	second, _ := Fetch(ctx, c, Key("overview"), load)
	if calls != 1 || first != second || second.Total != 10 {
		t.Fatalf("expected cached value, calls=%d first=%v second=%v", calls, first, second)
	}

	if err := c.Invalidate(ctx); err != nil {
		t.Fatalf("Invalidate failed: %v", err)
	}
	third, _ := Fetch(ctx, c, Key("overview"), load)
	if calls != 2 || third.Total != 20 {
		t.Fatalf("expected recompute after invalidation, calls=%d third=%v", calls, third)
	}

	_, _ = Fetch(ctx, c, Key("overview", "2024-01-01"), load)
	if calls != 3 {
		t.Fatalf("expected distinct params to miss, calls=%d", calls)
	}
}

func TestFetchFallsBackWhenBackendFails(t *testing.T) {
	c := New(&memBackend{data: map[string]string{}, fail: true}, time.Minute, "", slog.New(slog.NewJSONHandler(io.Discard, nil)))
	got, err := Fetch(context.Background(), c, "k", func(context.Context) (report, error) { return report{Total: 1}, nil })
	if err != nil || got.Total != 1 {
		t.Fatalf("expected computed value, got %v %v", got, err)
	}
}

func TestFetchWithoutCacheAndLoadErrors(t *testing.T) {
	boom := errors.New("boom")
	if _, err := Fetch(context.Background(), nil, "k", func(context.Context) (report, error) { return report{}, boom }); !errors.Is(err, boom) {
		t.Fatalf("expected load error, got %v", err)
	}
	backend := &memBackend{data: map[string]string{}}
	c := New(backend, time.Minute, "test", slog.New(slog.NewJSONHandler(io.Discard, nil)))
	if _, err := Fetch(context.Background(), c, "k", func(context.Context) (report, error) { return report{}, boom }); !errors.Is(err, boom) {
		t.Fatalf("expected load error, got %v", err)
	}
	if len(backend.data) != 0 {
		t.Fatalf("failed loads must not be cached: %v", backend.data)
	}
}
