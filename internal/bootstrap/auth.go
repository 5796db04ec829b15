package bootstrap

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/target/food-identity-gateway/config"
	"github.com/target/food-identity-gateway/internal/adapters/authroles"
	"github.com/target/food-identity-gateway/internal/adapters/devauth"
	"github.com/target/food-identity-gateway/internal/adapters/liff"
	"github.com/target/food-identity-gateway/internal/adapters/line"
	"github.com/target/food-identity-gateway/internal/adapters/oidc"
	domainauth "github.com/target/food-identity-gateway/internal/domain/auth"
	httpx "github.com/target/food-identity-gateway/internal/http"
	"github.com/target/food-identity-gateway/internal/ports"
	"github.com/target/food-identity-gateway/internal/service"
)

// AuthConfig contains configuration for the auth service.
type AuthConfig struct {
	Auth     config.AuthConfig
	Identity config.IdentityConfig
	// Sessions, Users and Restaurants are required.
	Sessions    ports.SessionStore
	Users       ports.UserRepository
	Restaurants ports.RestaurantDirectory
	// HTTPClient is used for LINE Platform and LINE Login calls. Optional.
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// AuthBundle is the auth service plus the mode-specific pieces the router needs.
type AuthBundle struct {
	Service *service.AuthService
	// Fetcher supplies the client SDK to the entry route.
	Fetcher httpx.SDKFetcherFactory
	// DevAccessToken is set only in mock mode and enables the dev login route.
	DevAccessToken string
}

// BuildAuthService wires the auth service for the configured mode.
// Line mode verifies tokens against the LINE Platform; manual login is enabled only when the
// LINE Login channel secret is configured. Mock mode uses the dev identity for everything.
func BuildAuthService(cfg AuthConfig) (AuthBundle, error) {
	if cfg.Sessions == nil || cfg.Users == nil || cfg.Restaurants == nil {
		return AuthBundle{}, errors.New("auth: sessions, users and restaurants are required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	opts := service.AuthServiceOptions{
		Sessions:    cfg.Sessions,
		Users:       cfg.Users,
		Restaurants: cfg.Restaurants,
		Roles:       authroles.StaticRoleMapper{AdminUserIDs: cfg.Auth.AdminUserIDs},
		Routes:      domainauth.DefaultRoutes(),
		SessionTTL:  cfg.Auth.SessionTTL,
		Logger:      logger.With("component", "auth"),
	}

	switch cfg.Auth.Mode {
	case config.AuthModeMock:
		return buildDevAuth(cfg, opts)
	case config.AuthModeLine, "":
		return buildLineAuth(cfg, opts, logger)
	default:
		return AuthBundle{}, fmt.Errorf("auth: unsupported mode %q", cfg.Auth.Mode)
	}
}

func devConfig(cfg config.DevAuthConfig) devauth.Config {
	return devauth.Config{
		UserID:      cfg.UserID,
		DisplayName: cfg.DisplayName,
		PictureURL:  cfg.PictureURL,
		AccessToken: cfg.AccessToken,
		LoggedOut:   cfg.LoggedOut,
	}
}

func buildDevAuth(cfg AuthConfig, opts service.AuthServiceOptions) (AuthBundle, error) {
	devCfg := devConfig(cfg.Auth.DevAuth)
	prov, err := devauth.NewProvider(devCfg)
	if err != nil {
		return AuthBundle{}, fmt.Errorf("dev auth provider: %w", err)
	}
	opts.Provider = prov
	opts.Verifier = prov

	token := devCfg.AccessToken
	if token == "" {
		token = devauth.DefaultAccessToken
	}
	return AuthBundle{
		Service:        service.NewAuthService(opts),
		Fetcher:        func(*http.Request) ports.SDKFetcher { return &devauth.Fetcher{Config: devCfg} },
		DevAccessToken: token,
	}, nil
}

func buildLineAuth(cfg AuthConfig, opts service.AuthServiceOptions, logger *slog.Logger) (AuthBundle, error) {
	client, err := line.NewClient(line.ClientOptions{
		BaseURL:    cfg.Auth.APIBaseURL,
		HTTPClient: cfg.HTTPClient,
		Logger:     logger.With("component", "line"),
	})
	if err != nil {
		return AuthBundle{}, err
	}

	channelID := cfg.Auth.ChannelID
	if channelID == "" {
		channelID = domainauth.ChannelIDFromAppID(cfg.Identity.SDKAppID)
	}
	verifier, err := line.NewVerifier(client, channelID)
	if err != nil {
		return AuthBundle{}, err
	}
	opts.Verifier = verifier

	if secret := cfg.Auth.OAuth.ChannelSecret; secret != "" {
		prov, err := oidc.NewProvider(oidc.ProviderConfig{
			ChannelID:     channelID,
			ChannelSecret: secret,
			RedirectURL:   cfg.Auth.OAuth.RedirectURL,
			Scope:         cfg.Auth.OAuth.Scope,
			DiscoveryURL:  cfg.Auth.OAuth.DiscoveryURL,
			BotPrompt:     cfg.Auth.OAuth.BotPrompt,
			HTTPClient:    cfg.HTTPClient,
		})
		if err != nil {
			return AuthBundle{}, fmt.Errorf("line login provider: %w", err)
		}
		opts.Provider = prov
	} else {
		logger.Warn("manual LINE login disabled: OAUTH_CHANNEL_SECRET not set")
	}

	sdkCfg := liff.Config{
		Client:             client,
		ChannelID:          channelID,
		LoginBase:          cfg.Identity.SDKLoginBase,
		UserAgentSignature: cfg.Identity.EmbeddedUASignature,
	}
	return AuthBundle{
		Service: service.NewAuthService(opts),
		Fetcher: func(r *http.Request) ports.SDKFetcher { return liff.FetcherFromRequest(sdkCfg, r) },
	}, nil
}
