package devauth

import (
	"context"
	"net/url"
	"sync"

	"github.com/target/food-identity-gateway/internal/ports"
)

var (
	_ ports.ClientSDK     = (*SDK)(nil)
	_ ports.SDKFetcher    = (*Fetcher)(nil)
	_ ports.TokenVerifier = (*Provider)(nil)
	_ ports.AuthProvider  = (*Provider)(nil)
)

// SDK is an in-process stand-in for the embedded client SDK.
type SDK struct {
	cfg Config

	mu          sync.Mutex
	initialized bool
}

// NewSDK returns a dev SDK for cfg.
func NewSDK(cfg Config) *SDK {
	if cfg.AccessToken == "" {
		cfg.AccessToken = DefaultAccessToken
	}
	return &SDK{cfg: cfg}
}

func (s *SDK) Init(_ context.Context, cfg ports.SDKConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.initialized {
		return ports.ErrSDKAlreadyInitialized
	}
	if cfg.AppID == "" {
		return ports.ErrSDKInvalidAppID
	}
	s.initialized = true
	return nil
}

func (s *SDK) IsLoggedIn(context.Context) (bool, error) { return !s.cfg.LoggedOut, nil }

// Login points at the local callback with the dev code, mirroring the manual shortcut.
func (s *SDK) Login(_ context.Context, opts ports.LoginOptions) (string, error) {
	q := url.Values{"code": {"dev"}}
	if opts.RedirectURI != "" {
		q.Set("redirect", opts.RedirectURI)
	}
	return "/auth/dev-login?" + q.Encode(), nil
}

func (s *SDK) GetAccessToken(context.Context) (string, error) {
	if s.cfg.LoggedOut {
		return "", nil
	}
	return s.cfg.AccessToken, nil
}

func (s *SDK) GetProfile(context.Context) (ports.Profile, error) {
	return ports.Profile{
		UserID:      s.cfg.UserID,
		DisplayName: s.cfg.DisplayName,
		PictureURL:  s.cfg.PictureURL,
	}, nil
}

func (s *SDK) IsInClient(context.Context) (bool, error) { return true, nil }

// Fetcher hands out a fresh dev SDK per page load.
type Fetcher struct {
	Config Config
}

func (f *Fetcher) Fetch(context.Context) (ports.ClientSDK, error) {
	return NewSDK(f.Config), nil
}
