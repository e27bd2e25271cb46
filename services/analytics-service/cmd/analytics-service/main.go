package main

import (
	"context"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/salonbook/salonbook/libs/config"
	"github.com/salonbook/salonbook/libs/db"
	"github.com/salonbook/salonbook/libs/grpcx"
	"github.com/salonbook/salonbook/libs/httpx"
	"github.com/salonbook/salonbook/libs/kafkax"
	otelx "github.com/salonbook/salonbook/libs/otel"
	"github.com/salonbook/salonbook/libs/runtime"
	"github.com/salonbook/salonbook/services/analytics-service/internal/cache"
	"github.com/salonbook/salonbook/services/analytics-service/internal/consumer"
	"github.com/salonbook/salonbook/services/analytics-service/internal/handlers"
	"github.com/salonbook/salonbook/services/analytics-service/internal/inbox"
	"github.com/salonbook/salonbook/services/analytics-service/internal/reports"
	"github.com/salonbook/salonbook/services/analytics-service/internal/storage"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type serviceConfig struct {
	Name           string `envconfig:"SERVICE_NAME" default:"analytics-service"`
	Port           string `envconfig:"PORT" default:"8086"`
	GRPCPort       string `envconfig:"GRPC_PORT"`
	DatabaseURL    string `envconfig:"DATABASE_URL" required:"true"`
	ReportTimezone string `envconfig:"REPORT_TIMEZONE" default:"UTC"`
	KafkaBrokers   string `envconfig:"KAFKA_BROKERS"`
	KafkaGroupID   string `envconfig:"KAFKA_GROUP_ID" default:"analytics-service"`
	RedisAddr      string `envconfig:"REDIS_ADDR"`
	RedisPassword  string `envconfig:"REDIS_PASSWORD"`
	RedisDB        int    `envconfig:"REDIS_DB" default:"0"`
	CacheTTL       int    `envconfig:"REPORT_CACHE_TTL_SECONDS" default:"60"`
	CachePrefix    string `envconfig:"REPORT_CACHE_PREFIX" default:"analytics"`
}

func main() {
	var cfg serviceConfig
	if err := config.Process(&cfg); err != nil {
		panic(err)
	}
	if err := config.ValidatePort("PORT", cfg.Port); err != nil {
		panic(err)
	}
	if err := config.ValidateOptionalPort("GRPC_PORT", cfg.GRPCPort); err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(cfg.Name)

	loc, err := time.LoadLocation(cfg.ReportTimezone)
	if err != nil {
		panic(err)
	}

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(cfg.Name))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	pool, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	checks := []runtime.ReadyCheck{{Name: "db", Check: db.ReadyCheck(pool)}}

	brokers := kafkax.SplitBrokers(cfg.KafkaBrokers)
	var reportCache *cache.Cache
	if ok, reason := cacheEnabled(cfg, brokers); ok {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer func() { _ = rdb.Close() }()
		reportCache = cache.New(cache.NewRedisBackend(rdb), time.Duration(cfg.CacheTTL)*time.Second, cfg.CachePrefix, logger)
		checks = append(checks, runtime.ReadyCheck{Name: "redis", Check: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}})
		logger.Info("report cache enabled", "redis_addr", cfg.RedisAddr, "ttl_seconds", cfg.CacheTTL)

		reader := consumer.NewReader(consumer.Config{Brokers: brokers, GroupID: cfg.KafkaGroupID, Topics: consumer.BookingTopics})
		bookingConsumer := consumer.New(logger, reader, inbox.NewRepository(pool, cfg.KafkaGroupID), consumer.InvalidateReports(reportCache, logger))
		go bookingConsumer.Run(ctx)
		checks = append(checks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(brokers)})
	} else if cfg.RedisAddr != "" {
		logger.Warn("report cache disabled", "reason", reason)
	} else {
		logger.Info("report cache disabled", "reason", reason)
	}

	if cfg.GRPCPort != "" {
		health := grpcx.NewHealthServer(cfg.Name, logger, checks...)
		go func() {
			if err := health.Serve(ctx, ":"+cfg.GRPCPort); err != nil {
				logger.Error("grpc health server error", "err", err)
			}
		}()
	}

	engine := reports.NewEngine(storage.NewSource(pool), loc, time.Now)
	mux := runtime.NewBaseMuxWithReady(checks...)
	handlers.NewAnalyticsHandler(engine, reportCache, logger).Register(mux)

	handler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithRecover(logger),
	)
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           otelhttp.NewHandler(handler, "analytics"),
		ReadHeaderTimeout: 5 * time.Second,
	}
	if err := runtime.Serve(ctx, srv, logger); err != nil {
		logger.Error("http server error", "err", err)
	}
}

// cacheEnabled reports whether reports may be cached. Without booking events
// nothing invalidates the cache, so it stays off.
func cacheEnabled(cfg serviceConfig, brokers []string) (bool, string) {
	switch {
	case cfg.RedisAddr == "":
		return false, "REDIS_ADDR not set"
	case cfg.CacheTTL <= 0:
		return false, "REPORT_CACHE_TTL_SECONDS is not positive"
	case len(brokers) == 0:
		return false, "KAFKA_BROKERS not set, cached reports could not be invalidated"
	}
	return true, ""
}
