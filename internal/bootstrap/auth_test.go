package bootstrap

import (
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/target/food-identity-gateway/config"
	"github.com/target/food-identity-gateway/internal/adapters/devauth"
	"github.com/target/food-identity-gateway/internal/adapters/liff"
	mockauth "github.com/target/food-identity-gateway/internal/mocks/auth"
)

const testAppID = "1234567890-AbCdEfGh"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func authDeps(auth config.AuthConfig) AuthConfig {
	return AuthConfig{
		Auth:        auth,
		Identity:    config.IdentityConfig{SDKAppID: testAppID},
		Sessions:    mockauth.NewMemorySessionStore(),
		Users:       mockauth.NewMemoryUserRepository(),
		Restaurants: &mockauth.StaticRestaurantDirectory{IDs: map[string]bool{"42": true}},
		Logger:      discardLogger(),
	}
}

func TestBuildAuthService_RequiresStores(t *testing.T) {
	if _, err := BuildAuthService(AuthConfig{Auth: config.AuthConfig{Mode: config.AuthModeMock}}); err == nil {
		t.Fatalf("BuildAuthService() without stores should fail")
	}
}

func TestBuildAuthService_MockMode(t *testing.T) {
	bundle, err := BuildAuthService(authDeps(config.AuthConfig{
		Mode:    config.AuthModeMock,
		DevAuth: config.DevAuthConfig{UserID: "Udev", DisplayName: "Dev Diner"},
	}))
	if err != nil {
		t.Fatalf("BuildAuthService() error = %v", err)
	}
	if bundle.Service == nil {
		t.Fatalf("expected an auth service")
	}
	if bundle.DevAccessToken != devauth.DefaultAccessToken {
		t.Fatalf("DevAccessToken = %q, want %q", bundle.DevAccessToken, devauth.DefaultAccessToken)
	}
	if _, ok := bundle.Fetcher(httptest.NewRequest("GET", "/entry", nil)).(*devauth.Fetcher); !ok {
		t.Fatalf("mock mode should hand out the dev SDK")
	}
}

func TestBuildAuthService_MockModeNeedsIdentity(t *testing.T) {
	_, err := BuildAuthService(authDeps(config.AuthConfig{Mode: config.AuthModeMock}))
	if err == nil {
		t.Fatalf("expected an error without a dev user id")
	}
}

func TestBuildAuthService_LineMode(t *testing.T) {
	bundle, err := BuildAuthService(authDeps(config.AuthConfig{
		Mode:       config.AuthModeLine,
		APIBaseURL: "https://api.line.example",
	}))
	if err != nil {
		t.Fatalf("BuildAuthService() error = %v", err)
	}
	if bundle.DevAccessToken != "" {
		t.Fatalf("line mode must not enable dev login")
	}

	req := httptest.NewRequest("GET", "/entry", nil)
	req.Header.Set(liff.TokenHeader, "forwarded")
	f, ok := bundle.Fetcher(req).(*liff.Fetcher)
	if !ok {
		t.Fatalf("line mode should hand out the LIFF SDK")
	}
	if f.Token != "forwarded" || f.Config.ChannelID != "1234567890" {
		t.Fatalf("unexpected fetcher: token=%q channel=%q", f.Token, f.Config.ChannelID)
	}
}

func TestBuildAuthService_Errors(t *testing.T) {
	tests := []struct {
		name   string
		auth   config.AuthConfig
		mutate func(*AuthConfig)
	}{
		{
			name: "unsupported mode",
			auth: config.AuthConfig{Mode: "saml"},
		},
		{
			name:   "line without channel",
			auth:   config.AuthConfig{Mode: config.AuthModeLine},
			mutate: func(c *AuthConfig) { c.Identity.SDKAppID = "" },
		},
		{
			name: "bad api base url",
			auth: config.AuthConfig{Mode: config.AuthModeLine, APIBaseURL: "not a url"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps := authDeps(tt.auth)
			if tt.mutate != nil {
				tt.mutate(&deps)
			}
			if _, err := BuildAuthService(deps); err == nil {
				t.Fatalf("BuildAuthService() error = nil, want error")
			}
		})
	}
}
