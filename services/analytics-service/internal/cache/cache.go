// Package cache keeps rendered JSON reports in Redis. Keys embed a generation
// counter; bumping it orphans every cached report at once.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrMiss = errors.New("cache miss")

// Backend is the slice of Redis the cache needs.
type Backend interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Incr(ctx context.Context, key string) (int64, error)
}

type redisBackend struct {
	rdb redis.Cmdable
}

func NewRedisBackend(rdb redis.Cmdable) Backend {
	return redisBackend{rdb: rdb}
}

func (b redisBackend) Get(ctx context.Context, key string) (string, error) {
	v, err := b.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrMiss
	}
	return v, err
}

func (b redisBackend) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return b.rdb.Set(ctx, key, value, ttl).Err()
}

func (b redisBackend) Incr(ctx context.Context, key string) (int64, error) {
	return b.rdb.Incr(ctx, key).Result()
}

type Cache struct {
	backend Backend
	ttl     time.Duration
	prefix  string
	logger  *slog.Logger
}

func New(backend Backend, ttl time.Duration, prefix string, logger *slog.Logger) *Cache {
	if prefix == "" {
		prefix = "analytics"
	}
	return &Cache{backend: backend, ttl: ttl, prefix: prefix, logger: logger}
}

func (c *Cache) generationKey() string { return c.prefix + ":gen" }

func (c *Cache) generation(ctx context.Context) (string, error) {
	v, err := c.backend.Get(ctx, c.generationKey())
	if errors.Is(err, ErrMiss) {
		return "0", nil
	}
	return v, err
}

// Invalidate drops every cached report.
func (c *Cache) Invalidate(ctx context.Context) error {
	_, err := c.backend.Incr(ctx, c.generationKey())
	return err
}

// Fetch returns the cached value for key or computes, stores and returns it.
// A nil *Cache always computes. Redis failures fall back to load.
func Fetch[T any](ctx context.Context, c *Cache, key string, load func(context.Context) (T, error)) (T, error) {
	if c == nil {
		return load(ctx)
	}
	gen, err := c.generation(ctx)
	if err != nil {
		c.logger.Warn("report cache unavailable", "err", err)
		return load(ctx)
	}
	fullKey := c.prefix + ":" + gen + ":" + key

	if raw, err := c.backend.Get(ctx, fullKey); err == nil {
		var out T
		if err := json.Unmarshal([]byte(raw), &out); err == nil {
			return out, nil
		}
	} else if !errors.Is(err, ErrMiss) {
		c.logger.Warn("report cache read failed", "err", err, "key", key)
	}

	out, err := load(ctx)
	if err != nil {
		return out, err
	}
	if raw, err := json.Marshal(out); err == nil {
		if err := c.backend.Set(ctx, fullKey, string(raw), c.ttl); err != nil {
			c.logger.Warn("report cache write failed", "err", err, "key", key)
		}
	}
	return out, nil
}

// Key joins a report name with its parameters.
func Key(report string, params ...string) string {
	key := report
	for _, p := range params {
		key += "|" + p
	}
	return key
}
