package main

import (
	"context"
	"net/http"
	"time"

	"github.com/salonbook/salonbook/libs/config"
	"github.com/salonbook/salonbook/libs/db"
	"github.com/salonbook/salonbook/libs/grpcx"
	"github.com/salonbook/salonbook/libs/httpx"
	otelx "github.com/salonbook/salonbook/libs/otel"
	"github.com/salonbook/salonbook/libs/runtime"
	"github.com/salonbook/salonbook/services/auth-service/internal/handlers"
	"github.com/salonbook/salonbook/services/auth-service/internal/storage"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type serviceConfig struct {
	Name           string `envconfig:"SERVICE_NAME" default:"auth-service"`
	Port           string `envconfig:"PORT" default:"8081"`
	GRPCPort       string `envconfig:"GRPC_PORT"`
	DatabaseURL    string `envconfig:"DATABASE_URL" required:"true"`
	JWTSecret      string `envconfig:"JWT_SECRET" default:"dev-secret"`
	JWTTTLMinutes  int    `envconfig:"JWT_TTL_MINUTES" default:"60"`
	BodyLimitBytes int64  `envconfig:"HTTP_BODY_LIMIT_BYTES" default:"1048576"`
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
	if cfg.JWTSecret == "dev-secret" {
		logger.Warn("JWT_SECRET not set, using development secret")
	}
	if cfg.JWTTTLMinutes <= 0 {
		logger.Error("invalid jwt ttl", "minutes", cfg.JWTTTLMinutes)
		panic("JWT_TTL_MINUTES must be positive")
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
	if cfg.GRPCPort != "" {
		health := grpcx.NewHealthServer(cfg.Name, logger, checks...)
		go func() {
			if err := health.Serve(ctx, ":"+cfg.GRPCPort); err != nil {
				logger.Error("grpc health server error", "err", err)
			}
		}()
	}

	mux := runtime.NewBaseMuxWithReady(checks...)
	authHandler := handlers.NewAuthHandler(
		handlers.NewHS256Signer(cfg.JWTSecret),
		storage.NewUserRepository(pool),
		time.Duration(cfg.JWTTTLMinutes)*time.Minute,
		logger,
	)
	authHandler.Routes(mux)

	handler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithRecover(logger),
		httpx.WithBodyLimit(cfg.BodyLimitBytes),
	)
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           otelhttp.NewHandler(handler, "auth"),
		ReadHeaderTimeout: 5 * time.Second,
	}
	if err := runtime.Serve(ctx, srv, logger); err != nil {
		logger.Error("http server error", "err", err)
	}
}
