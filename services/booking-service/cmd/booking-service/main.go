package main

import (
	"context"
	"net/http"
	"time"

	"github.com/salonbook/salonbook/libs/config"
	"github.com/salonbook/salonbook/libs/db"
	"github.com/salonbook/salonbook/libs/grpcx"
	"github.com/salonbook/salonbook/libs/httpx"
	"github.com/salonbook/salonbook/libs/kafkax"
	otelx "github.com/salonbook/salonbook/libs/otel"
	"github.com/salonbook/salonbook/libs/runtime"
	"github.com/salonbook/salonbook/services/booking-service/internal/availability"
	"github.com/salonbook/salonbook/services/booking-service/internal/handlers"
	"github.com/salonbook/salonbook/services/booking-service/internal/outbox"
	"github.com/salonbook/salonbook/services/booking-service/internal/storage"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type serviceConfig struct {
	Name               string        `envconfig:"SERVICE_NAME" default:"booking-service"`
	Port               string        `envconfig:"PORT" default:"8083"`
	GRPCPort           string        `envconfig:"GRPC_PORT"`
	DatabaseURL        string        `envconfig:"DATABASE_URL" required:"true"`
	KafkaBrokers       string        `envconfig:"KAFKA_BROKERS"`
	ReportTimezone     string        `envconfig:"REPORT_TIMEZONE" default:"UTC"`
	UnknownMaster      string        `envconfig:"AVAILABILITY_UNKNOWN_MASTER" default:"available"`
	OutboxPollInterval time.Duration `envconfig:"OUTBOX_POLL_INTERVAL" default:"2s"`
	BodyLimitBytes     int64         `envconfig:"HTTP_BODY_LIMIT_BYTES" default:"1048576"`
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
	policy, err := availability.ParsePolicy(cfg.UnknownMaster)
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

	outboxRepo := outbox.NewRepository()
	repo := storage.NewBookingRepository(pool, outboxRepo, loc)
	checks := []runtime.ReadyCheck{{Name: "db", Check: db.ReadyCheck(pool)}}

	if brokers := kafkax.SplitBrokers(cfg.KafkaBrokers); len(brokers) > 0 {
		writer := kafkax.NewWriter(brokers)
		defer writer.Close()
		publisher := outbox.NewPublisher(pool, outboxRepo, writer, logger, outbox.PublisherConfig{PollEvery: cfg.OutboxPollInterval})
		go publisher.Run(ctx)
		checks = append(checks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(brokers)})
	} else {
		logger.Warn("outbox publisher disabled (no kafka brokers configured)")
	}

	if cfg.GRPCPort != "" {
		health := grpcx.NewHealthServer(cfg.Name, logger, checks...)
		go func() {
			if err := health.Serve(ctx, ":"+cfg.GRPCPort); err != nil {
				logger.Error("grpc health server error", "err", err)
			}
		}()
	}

	calc := availability.NewCalculator(repo, loc, policy)
	mux := runtime.NewBaseMuxWithReady(checks...)
	handlers.NewBookingHandler(repo, calc, logger, loc).Register(mux)

	handler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithRecover(logger),
		httpx.WithBodyLimit(cfg.BodyLimitBytes),
	)
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           otelhttp.NewHandler(handler, "booking"),
		ReadHeaderTimeout: 5 * time.Second,
	}
	if err := runtime.Serve(ctx, srv, logger); err != nil {
		logger.Error("http server error", "err", err)
	}
}
