package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/target/food-identity-gateway/config"
	domainauth "github.com/target/food-identity-gateway/internal/domain/auth"
	httpx "github.com/target/food-identity-gateway/internal/http"
	"github.com/target/food-identity-gateway/internal/observability/statsd"
	"github.com/target/food-identity-gateway/internal/service/identity"
)

// RouterConfig contains everything BuildRouter needs.
type RouterConfig struct {
	Config  *config.AppConfig
	Auth    AuthBundle
	Metrics statsd.Sink
	// DB and Redis back the readiness checks. Either may be nil.
	DB     *sql.DB
	Redis  redis.UniversalClient
	Logger *slog.Logger
}

// BuildRouter assembles the gateway handler from configuration.
func BuildRouter(cfg RouterConfig) (http.Handler, error) {
	if cfg.Config == nil {
		return nil, errors.New("router: config is required")
	}
	if cfg.Auth.Service == nil {
		return nil, errors.New("router: auth service is required")
	}
	app := cfg.Config

	return httpx.NewRouter(httpx.RouterServices{
		Auth:    cfg.Auth.Service,
		Routes:  domainauth.DefaultRoutes(),
		Cookies: httpx.Cookies{Domain: app.HTTP.CookieDomain},
		Entry: httpx.EntryConfig{
			APIBaseURL:    app.APIBaseURL(),
			PublicBaseURL: app.HTTP.BaseURL,
			APITimeout:    app.Identity.APITimeout,
			Orchestrator: identity.Config{
				AppID:           app.Identity.SDKAppID,
				FallbackTimeout: app.Identity.FallbackTimeout,
				MaxLoadAttempts: app.Identity.SDKMaxLoadAttempts,
				LoadRetryDelay:  app.Identity.SDKLoadRetryDelay,
				InitBackoff:     app.Identity.SDKInitBackoff,
			},
			Fetcher:  cfg.Auth.Fetcher,
			Detector: domainauth.EnvironmentDetector{UserAgentSignature: app.Identity.EmbeddedUASignature},
			Metrics:  cfg.Metrics,
		},
		RateLimit: httpx.RateLimitConfig{
			PerSecond:         app.Auth.LoginRateLimit,
			Burst:             app.Auth.LoginRateBurst,
			TrustForwardedFor: app.Auth.TrustForwardedFor,
			Logger:            cfg.Logger,
		},
		Readiness:      readinessChecks(cfg.DB, cfg.Redis),
		DevAccessToken: cfg.Auth.DevAccessToken,
		Logger:         cfg.Logger,
	})
}

func readinessChecks(db *sql.DB, rdb redis.UniversalClient) map[string]httpx.ReadinessCheck {
	checks := make(map[string]httpx.ReadinessCheck, 2)
	if db != nil {
		checks["postgres"] = db.PingContext
	}
	if rdb != nil {
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}
	return checks
}

// NewHTTPServer returns a server for handler. Addr defaults to :8080.
func NewHTTPServer(addr string, handler http.Handler) *http.Server {
	// Guard against empty addr to avoid listening on Go default
	if addr == "" {
		addr = ":8080"
	}
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// The entry route may wait for a full fallback window plus identity API calls.
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
}

// ShutdownHTTPServer gracefully shuts down the HTTP server within timeout.
func ShutdownHTTPServer(ctx context.Context, server *http.Server, timeout time.Duration, logger *slog.Logger) error {
	if server == nil {
		return nil
	}
	if logger != nil {
		logger.InfoContext(ctx, "shutting down HTTP server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if logger != nil {
		logger.InfoContext(ctx, "HTTP server stopped")
	}
	return nil
}
