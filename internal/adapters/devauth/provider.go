package devauth

// Package devauth provides config-driven identity adapters for local development: a manual
// login provider, a token verifier and an embedded client SDK that never leave the machine.

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	domainauth "github.com/target/food-identity-gateway/internal/domain/auth"
	"github.com/target/food-identity-gateway/internal/ports"
)

// DefaultAccessToken is the token the dev SDK hands out when none is configured.
const DefaultAccessToken = "dev-access-token"

// Config controls the dev adapters.
// UserID and DisplayName are required.
type Config struct {
	UserID          string
	DisplayName     string
	PictureURL      string
	AccessToken     string
	SessionDuration time.Duration // default 8h when zero
	// LoggedOut makes the dev SDK report a logged-out user so the automatic login path can be exercised.
	LoggedOut bool
}

// ErrInvalidToken is returned by Verify for any token other than the configured one.
var ErrInvalidToken = errors.New("dev auth: invalid access token")

// Provider implements ports.AuthProvider and ports.TokenVerifier for local development.
// Begin redirects straight back to our own callback; Exchange ignores the code.
type Provider struct {
	cfg Config

	mu       sync.Mutex
	identity domainauth.Identity
}

// NewProvider constructs a dev auth provider from Config.
func NewProvider(cfg Config) (*Provider, error) {
	if cfg.UserID == "" {
		return nil, errors.New("dev auth: UserID is required")
	}
	if cfg.DisplayName == "" {
		return nil, errors.New("dev auth: DisplayName is required")
	}
	if cfg.SessionDuration == 0 {
		cfg.SessionDuration = 8 * time.Hour
	}
	if cfg.AccessToken == "" {
		cfg.AccessToken = DefaultAccessToken
	}
	return &Provider{
		cfg: cfg,
		identity: domainauth.Identity{
			UserID:      cfg.UserID,
			DisplayName: cfg.DisplayName,
			PictureURL:  cfg.PictureURL,
			ExpiresAt:   time.Now().Add(cfg.SessionDuration),
		},
	}, nil
}

// Begin returns a local callback URL and cryptographically secure state and nonce.
func (p *Provider) Begin(_ context.Context, _ ports.BeginInput) (string, string, string, error) {
	state, err := randomString(24)
	if err != nil {
		return "", "", "", fmt.Errorf("generate state: %w", err)
	}
	nonce, err := randomString(24)
	if err != nil {
		return "", "", "", fmt.Errorf("generate nonce: %w", err)
	}
	q := url.Values{"code": {"dev"}, "state": {state}}
	return "/auth/callback?" + q.Encode(), state, nonce, nil
}

// Exchange returns the dev identity.
func (p *Provider) Exchange(_ context.Context, _ ports.ExchangeInput) (domainauth.Identity, error) {
	return p.current(), nil
}

// Verify accepts only the configured access token.
func (p *Provider) Verify(_ context.Context, accessToken string) (domainauth.Identity, error) {
	if subtle.ConstantTimeCompare([]byte(accessToken), []byte(p.cfg.AccessToken)) != 1 {
		return domainauth.Identity{}, ErrInvalidToken
	}
	return p.current(), nil
}

// current refreshes the expiry when it is close.
func (p *Provider) current() domainauth.Identity {
	p.mu.Lock()
	defer p.mu.Unlock()
	if time.Until(p.identity.ExpiresAt) < 5*time.Minute {
		p.identity.ExpiresAt = time.Now().Add(p.cfg.SessionDuration)
	}
	return p.identity
}

func randomString(n int) (string, error) {
	if n <= 0 {
		return "", nil
	}
	b := make([]byte, (n*3+3)/4+1)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b)[:n], nil
}
