package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/target/food-identity-gateway/config"
	redisadapter "github.com/target/food-identity-gateway/internal/adapters/redis"
	"github.com/target/food-identity-gateway/internal/data"
	"github.com/target/food-identity-gateway/internal/observability/statsd"
)

// ServiceContainer holds the gateway's long-lived services.
type ServiceContainer struct {
	Auth     AuthBundle
	Sessions *redisadapter.SessionStore
	Metrics  *statsd.Client
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// NewServices wires the auth service and metrics sink over the shared connections.
func NewServices(deps *ServiceDeps) (ServiceContainer, error) {
	if deps == nil || deps.Config == nil {
		return ServiceContainer{}, errors.New("services: config is required")
	}
	if deps.DB == nil || deps.RedisClient == nil {
		return ServiceContainer{}, errors.New("services: database and redis are required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	sessions := redisadapter.NewSessionStoreWithPrefix(deps.RedisClient, deps.Config.Redis.KeyPrefix)
	auth, err := BuildAuthService(AuthConfig{
		Auth:        deps.Config.Auth,
		Identity:    deps.Config.Identity,
		Sessions:    sessions,
		Users:       data.NewUserRepo(deps.DB),
		Restaurants: data.NewRestaurantRepo(deps.DB),
		Logger:      logger,
	})
	if err != nil {
		return ServiceContainer{}, err
	}

	return ServiceContainer{
		Auth:     auth,
		Sessions: sessions,
		Metrics:  buildMetrics(logger, deps.Config.Observability.Metrics),
	}, nil
}

// buildMetrics never fails startup; an unreachable sink degrades to a no-op client.
func buildMetrics(logger *slog.Logger, cfg config.ObservabilityMetricsConfig) *statsd.Client {
	client, err := statsd.NewClient(statsd.Config{
		Enabled: cfg.IsEnabled(),
		Address: cfg.StatsdAddress,
		Prefix:  cfg.Prefix,
		Logger:  logger,
	})
	if err != nil {
		logger.Warn("statsd unavailable, metrics disabled", "error", err)
		client, _ = statsd.NewClient(statsd.Config{Prefix: cfg.Prefix, Logger: logger})
	}
	return client
}

// RunConfig contains everything RunWithShutdown needs.
type RunConfig struct {
	Config   *config.AppConfig
	Services ServiceContainer
	DB       *sql.DB
	Redis    redis.UniversalClient
	Logger   *slog.Logger
}

// RunWithShutdown serves HTTP until SIGINT/SIGTERM or a server failure, then shuts down gracefully.
func RunWithShutdown(ctx context.Context, cfg *RunConfig) error {
	if cfg == nil || cfg.Config == nil {
		return errors.New("run: config is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	handler, err := BuildRouter(RouterConfig{
		Config:  cfg.Config,
		Auth:    cfg.Services.Auth,
		Metrics: cfg.Services.Metrics,
		DB:      cfg.DB,
		Redis:   cfg.Redis,
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("build router: %w", err)
	}
	server := NewHTTPServer(cfg.Config.HTTP.Addr, handler)

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(sigCtx)
	g.Go(func() error {
		logger.InfoContext(gctx, "starting HTTP server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		return ShutdownHTTPServer(gctx, server, cfg.Config.HTTP.ShutdownTimeout, logger)
	})

	err = g.Wait()
	if cerr := cfg.Services.Metrics.Close(); cerr != nil {
		logger.Warn("close metrics client", "error", cerr)
	}
	return err
}
