// Package liff exposes the embedded messaging client SDK to the server-side orchestrator.
// The in-app page forwards the LIFF access token it holds; the SDK answers from that token
// and the LINE Platform API.
package liff

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/target/food-identity-gateway/internal/adapters/line"
	domainauth "github.com/target/food-identity-gateway/internal/domain/auth"
	"github.com/target/food-identity-gateway/internal/ports"
)

const (
	// TokenHeader carries the forwarded LIFF access token.
	TokenHeader = "X-Liff-Access-Token"
	// TokenCookie is the cookie fallback for TokenHeader.
	TokenCookie = "liff_access_token"
	// DefaultLoginBase hosts LIFF app URLs.
	DefaultLoginBase = "https://liff.line.me"
)

var (
	_ ports.ClientSDK  = (*SDK)(nil)
	_ ports.SDKFetcher = (*Fetcher)(nil)
)

// PlatformClient is the subset of the LINE Platform API the SDK needs.
type PlatformClient interface {
	VerifyToken(ctx context.Context, accessToken string) (line.TokenInfo, error)
	Profile(ctx context.Context, accessToken string) (ports.Profile, error)
}

// Config is shared by every page load.
type Config struct {
	Client    PlatformClient
	ChannelID string
	// LoginBase defaults to DefaultLoginBase.
	LoginBase string
	// UserAgentSignature defaults to domainauth.DefaultUserAgentSignature.
	UserAgentSignature string
}

// SDK is the per-page-load client SDK backed by a forwarded access token.
type SDK struct {
	cfg       Config
	token     string
	userAgent string

	mu          sync.Mutex
	appID       string
	initialized bool
	verified    *bool
}

// NewSDK returns an SDK for one page load.
func NewSDK(cfg Config, token, userAgent string) *SDK {
	return &SDK{cfg: cfg, token: token, userAgent: userAgent}
}

// Init binds the SDK to appID. The app id must belong to the configured channel.
func (s *SDK) Init(_ context.Context, cfg ports.SDKConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.initialized {
		return ports.ErrSDKAlreadyInitialized
	}
	channel := domainauth.ChannelIDFromAppID(cfg.AppID)
	if channel == "" || (s.cfg.ChannelID != "" && channel != s.cfg.ChannelID) {
		return fmt.Errorf("%w: %q", ports.ErrSDKInvalidAppID, cfg.AppID)
	}
	s.appID = cfg.AppID
	s.initialized = true
	return nil
}

// IsLoggedIn reports whether the forwarded token is live for our channel.
// A platform outage is an error, not a logout.
func (s *SDK) IsLoggedIn(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.verified != nil {
		return *s.verified, nil
	}
	if s.token == "" {
		return false, nil
	}
	info, err := s.cfg.Client.VerifyToken(ctx, s.token)
	switch {
	case errors.Is(err, line.ErrInvalidToken):
		ok := false
		s.verified = &ok
		return false, nil
	case err != nil:
		return false, fmt.Errorf("%w: %w", ports.ErrSDKNetwork, err)
	}
	ok := info.ExpiresIn > 0 && (s.cfg.ChannelID == "" || info.ClientID == s.cfg.ChannelID)
	s.verified = &ok
	return ok, nil
}

// Login returns the LIFF URL that reopens the app with login. The redirect path travels in liff.state.
func (s *SDK) Login(_ context.Context, opts ports.LoginOptions) (string, error) {
	s.mu.Lock()
	appID := s.appID
	s.mu.Unlock()
	if appID == "" {
		return "", errors.New("liff: login before init")
	}
	base := s.cfg.LoginBase
	if base == "" {
		base = DefaultLoginBase
	}
	target := strings.TrimSuffix(base, "/") + "/" + url.PathEscape(appID)
	if state := statePath(opts.RedirectURI); state != "" {
		target += "?" + url.Values{"liff.state": {state}}.Encode()
	}
	return target, nil
}

func (s *SDK) GetAccessToken(context.Context) (string, error) { return s.token, nil }

func (s *SDK) GetProfile(ctx context.Context) (ports.Profile, error) {
	if s.token == "" {
		return ports.Profile{}, errors.New("liff: no access token")
	}
	return s.cfg.Client.Profile(ctx, s.token)
}

func (s *SDK) IsInClient(context.Context) (bool, error) {
	sig := s.cfg.UserAgentSignature
	if sig == "" {
		sig = domainauth.DefaultUserAgentSignature
	}
	return strings.Contains(s.userAgent, sig), nil
}

// statePath keeps only the path and query of a redirect URI.
func statePath(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	p := u.EscapedPath()
	if p == "" {
		p = "/"
	}
	if u.RawQuery != "" {
		p += "?" + u.RawQuery
	}
	return p
}

// Fetcher hands the SDK to one page load.
type Fetcher struct {
	Config    Config
	Token     string
	UserAgent string
}

// FetcherFromRequest reads the forwarded token from r.
func FetcherFromRequest(cfg Config, r *http.Request) *Fetcher {
	return &Fetcher{Config: cfg, Token: TokenFromRequest(r), UserAgent: r.UserAgent()}
}

// Fetch fails with ports.ErrSDKUnavailable when no platform client is configured.
func (f *Fetcher) Fetch(context.Context) (ports.ClientSDK, error) {
	if f.Config.Client == nil {
		return nil, ports.ErrSDKUnavailable
	}
	return NewSDK(f.Config, f.Token, f.UserAgent), nil
}

// TokenFromRequest returns the forwarded LIFF access token, header first.
func TokenFromRequest(r *http.Request) string {
	if v := strings.TrimSpace(r.Header.Get(TokenHeader)); v != "" {
		return v
	}
	if c, err := r.Cookie(TokenCookie); err == nil {
		return c.Value
	}
	return ""
}
