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
	"github.com/salonbook/salonbook/services/salon-service/internal/handlers"
	"github.com/salonbook/salonbook/services/salon-service/internal/storage"
	"github.com/salonbook/salonbook/services/salon-service/internal/uploads"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type serviceConfig struct {
	Name             string `envconfig:"SERVICE_NAME" default:"salon-service"`
	Port             string `envconfig:"PORT" default:"8082"`
	GRPCPort         string `envconfig:"GRPC_PORT"`
	DatabaseURL      string `envconfig:"DATABASE_URL" required:"true"`
	UploadDir        string `envconfig:"UPLOAD_DIR" default:"uploads"`
	UploadMaxBytes   int64  `envconfig:"UPLOAD_MAX_BYTES" default:"5242880"`
	CloudinaryURL    string `envconfig:"CLOUDINARY_URL"`
	CloudinaryFolder string `envconfig:"CLOUDINARY_FOLDER" default:"salonbook"`
	BodyLimitBytes   int64  `envconfig:"HTTP_BODY_LIMIT_BYTES" default:"1048576"`
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
	mux := runtime.NewBaseMuxWithReady(checks...)

	var uploadStore uploads.Store
	if cfg.CloudinaryURL != "" {
		cld, err := uploads.NewCloudinaryStore(cfg.CloudinaryURL, cfg.CloudinaryFolder)
		if err != nil {
			logger.Error("cloudinary setup failed", "err", err)
			panic(err)
		}
		uploadStore = cld
		logger.Info("uploads stored in cloudinary", "folder", cfg.CloudinaryFolder)
	} else {
		local, err := uploads.NewLocalStore(cfg.UploadDir, "/uploads/")
		if err != nil {
			logger.Error("upload dir setup failed", "err", err, "dir", cfg.UploadDir)
			panic(err)
		}
		uploadStore = local
		mux.Handle("/uploads/", http.StripPrefix("/uploads/", http.FileServer(http.Dir(local.Dir()))))
		logger.Info("uploads stored on disk", "dir", local.Dir())
	}

	if cfg.GRPCPort != "" {
		health := grpcx.NewHealthServer(cfg.Name, logger, checks...)
		go func() {
			if err := health.Serve(ctx, ":"+cfg.GRPCPort); err != nil {
				logger.Error("grpc health server error", "err", err)
			}
		}()
	}

	repo := storage.NewRepository(pool)
	handlers.New(repo, uploadStore, cfg.UploadMaxBytes, logger).Register(mux)

	// Uploads carry their own limit, so the body cap applies to everything else.
	limited := httpx.WithBodyLimit(cfg.BodyLimitBytes)(mux)
	root := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/uploads" {
			mux.ServeHTTP(w, r)
			return
		}
		limited.ServeHTTP(w, r)
	})

	handler := httpx.Chain(root,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithRecover(logger),
	)
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           otelhttp.NewHandler(handler, "salon"),
		ReadHeaderTimeout: 5 * time.Second,
	}
	if err := runtime.Serve(ctx, srv, logger); err != nil {
		logger.Error("http server error", "err", err)
	}
}
