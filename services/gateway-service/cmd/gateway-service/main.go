package main

import (
	"context"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/salonbook/salonbook/libs/auth"
	"github.com/salonbook/salonbook/libs/config"
	"github.com/salonbook/salonbook/libs/domain"
	"github.com/salonbook/salonbook/libs/httpx"
	otelx "github.com/salonbook/salonbook/libs/otel"
	"github.com/salonbook/salonbook/libs/runtime"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	headerUserID = "X-User-ID"
	headerRole   = "X-Role"
)

type serviceConfig struct {
	Name               string `envconfig:"SERVICE_NAME" default:"gateway-service"`
	Port               string `envconfig:"PORT" default:"8080"`
	JWTSecret          string `envconfig:"JWT_SECRET" default:"dev-secret"`
	AuthURL            string `envconfig:"AUTH_URL" default:"http://auth-service:8081"`
	SalonURL           string `envconfig:"SALON_URL" default:"http://salon-service:8082"`
	BookingURL         string `envconfig:"BOOKING_URL" default:"http://booking-service:8083"`
	AnalyticsURL       string `envconfig:"ANALYTICS_URL" default:"http://analytics-service:8086"`
	BodyLimitBytes     int64  `envconfig:"REQUEST_BODY_LIMIT_BYTES" default:"6291456"`
	TimeoutSeconds     int    `envconfig:"REQUEST_TIMEOUT_SECONDS" default:"10"`
	RateLimitPerMinute int    `envconfig:"RATE_LIMIT_PER_MINUTE" default:"120"`
	RateLimitPrefix    string `envconfig:"RATE_LIMIT_PREFIX" default:"rl"`
	RateLimitFailOpen  bool   `envconfig:"RATE_LIMIT_FAIL_OPEN" default:"true"`
	RedisAddr          string `envconfig:"REDIS_ADDR"`
	RedisPassword      string `envconfig:"REDIS_PASSWORD"`
	RedisDB            int    `envconfig:"REDIS_DB" default:"0"`
	CORSOrigins        string `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:5173,http://localhost:3000"`
	CORSMaxAgeSeconds  int    `envconfig:"CORS_MAX_AGE_SECONDS" default:"600"`
}

// upstreams are the backend base URLs the gateway proxies to.
type upstreams struct {
	auth, salon, booking, analytics *url.URL
}

func main() {
	var cfg serviceConfig
	if err := config.Process(&cfg); err != nil {
		panic(err)
	}
	if err := config.ValidatePort("PORT", cfg.Port); err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(cfg.Name)
	if cfg.JWTSecret == "dev-secret" {
		logger.Warn("JWT_SECRET is using the development default")
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

	mux := runtime.NewBaseMuxWithReady()
	registerRoutes(mux, upstreams{
		auth:      mustParseURL(cfg.AuthURL),
		salon:     mustParseURL(cfg.SalonURL),
		booking:   mustParseURL(cfg.BookingURL),
		analytics: mustParseURL(cfg.AnalyticsURL),
	}, cfg.JWTSecret)

	var rateLimitMW httpx.Middleware
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer func() { _ = rdb.Close() }()

		rl := httpx.NewRedisRateLimiter(rdb, cfg.RateLimitPerMinute, time.Minute, cfg.RateLimitPrefix)
		rateLimitMW = rl.Middleware(logger, cfg.RateLimitFailOpen)
		logger.Info("rate limiting enabled (redis)", "per_minute", cfg.RateLimitPerMinute, "redis_addr", cfg.RedisAddr)
	} else {
		rl := httpx.NewRateLimiter(cfg.RateLimitPerMinute, time.Minute)
		rateLimitMW = rl.Middleware()
		logger.Info("rate limiting enabled (in-memory)", "per_minute", cfg.RateLimitPerMinute)
	}

	cors := httpx.DefaultCORSPolicy(config.SplitList(cfg.CORSOrigins))
	cors.AllowedHeaders = append(cors.AllowedHeaders, "X-Idempotency-Key")
	if cfg.CORSMaxAgeSeconds > 0 {
		cors.MaxAge = time.Duration(cfg.CORSMaxAgeSeconds) * time.Second
	}

	handler := httpx.Chain(mux,
		httpx.WithCORS(cors),
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithRecover(logger),
		httpx.WithBodyLimit(cfg.BodyLimitBytes),
		httpx.WithTimeout(time.Duration(cfg.TimeoutSeconds)*time.Second),
		rateLimitMW,
	)
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           otelhttp.NewHandler(handler, "gateway"),
		ReadHeaderTimeout: 5 * time.Second,
	}
	if err := runtime.Serve(ctx, srv, logger); err != nil {
		logger.Error("http server error", "err", err)
	}
}

func registerRoutes(mux *http.ServeMux, up upstreams, jwtSecret string) {
	authProxy := newProxy(up.auth)
	salonProxy := newProxy(up.salon)
	bookingProxy := newProxy(up.booking)
	analyticsProxy := newProxy(up.analytics)

	// Catalog reads are public; writes need an admin token.
	catalog := adminWrites(salonProxy, jwtSecret)

	registerProxy(mux, "/api/v1/auth", optionalAuth(authProxy, jwtSecret))
	registerProxy(mux, "/api/v1/users", requireAuth(authProxy, jwtSecret))
	registerProxy(mux, "/api/v1/salons", catalog)
	registerProxy(mux, "/api/v1/masters", catalog)
	mux.Handle("/api/v1/masters/{id}/available-slots", optionalAuth(bookingProxy, jwtSecret))
	mux.Handle("/api/v1/services-with-prices", optionalAuth(salonProxy, jwtSecret))
	registerProxy(mux, "/api/v1/clients", requireAuth(salonProxy, jwtSecret))
	registerProxy(mux, "/api/v1/uploads", requireAuth(salonProxy, jwtSecret))
	mux.Handle("/uploads/", optionalAuth(salonProxy, jwtSecret))
	registerProxy(mux, "/api/v1/appointments", requireAuth(bookingProxy, jwtSecret))
	registerProxy(mux, "/api/v1/analytics", requireAuth(requireRole(analyticsProxy, string(domain.RoleAdmin)), jwtSecret))
}

func newProxy(target *url.URL) *httputil.ReverseProxy {
	proxy := httputil.NewSingleHostReverseProxy(target)
	proxy.Transport = otelhttp.NewTransport(http.DefaultTransport)
	return proxy
}

func registerProxy(mux *http.ServeMux, prefix string, handler http.Handler) {
	if !strings.HasSuffix(prefix, "/") {
		mux.Handle(prefix, handler)
		mux.Handle(prefix+"/", handler)
		return
	}
	mux.Handle(prefix, handler)
}

func mustParseURL(raw string) *url.URL {
	u, err := url.Parse(raw)
	if err != nil {
		panic(err)
	}
	return u
}

// verify returns the claims of a valid bearer token or nil.
func verify(r *http.Request, jwtSecret string) *auth.Claims {
	token, ok := auth.BearerToken(r)
	if !ok {
		return nil
	}
	claims, err := auth.ParseAndVerifyHS256(token, jwtSecret)
	if err != nil {
		return nil
	}
	return claims
}

// setIdentity replaces any client-supplied identity headers.
func setIdentity(r *http.Request, claims *auth.Claims) {
	r.Header.Del(headerUserID)
	r.Header.Del(headerRole)
	if claims == nil {
		return
	}
	r.Header.Set(headerUserID, claims.Sub)
	r.Header.Set(headerRole, claims.Role)
}

func requireAuth(next http.Handler, jwtSecret string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := auth.BearerToken(r); !ok {
			setIdentity(r, nil)
			http.Error(w, "missing or invalid Authorization header", http.StatusUnauthorized)
			return
		}
		claims := verify(r, jwtSecret)
		if claims == nil {
			setIdentity(r, nil)
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		setIdentity(r, claims)
		next.ServeHTTP(w, r)
	})
}

// optionalAuth forwards anonymous requests, attaching identity only for a valid token.
func optionalAuth(next http.Handler, jwtSecret string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		setIdentity(r, verify(r, jwtSecret))
		next.ServeHTTP(w, r)
	})
}

func requireRole(next http.Handler, roles ...string) http.Handler {
	allowed := map[string]struct{}{}
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		role := r.Header.Get(headerRole)
		if _, ok := allowed[role]; !ok {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func adminWrites(next http.Handler, jwtSecret string) http.Handler {
	public := optionalAuth(next, jwtSecret)
	admin := requireAuth(requireRole(next, string(domain.RoleAdmin)), jwtSecret)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			public.ServeHTTP(w, r)
		default:
			admin.ServeHTTP(w, r)
		}
	})
}
