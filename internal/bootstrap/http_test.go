package bootstrap

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/target/food-identity-gateway/config"
)

func testAppConfig() *config.AppConfig {
	cfg := &config.AppConfig{
		Identity: config.IdentityConfig{SDKAppID: testAppID},
		Auth: config.AuthConfig{
			Mode:    config.AuthModeMock,
			DevAuth: config.DevAuthConfig{UserID: "Udev", DisplayName: "Dev Diner"},
		},
		HTTP: config.HTTPConfig{BaseURL: "http://gateway.test"},
	}
	cfg.Sanitize()
	return cfg
}

func TestBuildRouter_MockMode(t *testing.T) {
	cfg := testAppConfig()
	bundle, err := BuildAuthService(authDeps(cfg.Auth))
	if err != nil {
		t.Fatalf("BuildAuthService() error = %v", err)
	}

	h, err := BuildRouter(RouterConfig{Config: cfg, Auth: bundle, Logger: discardLogger()})
	if err != nil {
		t.Fatalf("BuildRouter() error = %v", err)
	}

	tests := []struct {
		path string
		want int
	}{
		{path: "/healthz", want: http.StatusOK},
		{path: "/readyz", want: http.StatusOK},
		{path: "/login", want: http.StatusOK},
		{path: "/auth/dev-login?code=dev&redirect=/entry", want: http.StatusFound},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
		if rec.Code != tt.want {
			t.Errorf("GET %s = %d, want %d", tt.path, rec.Code, tt.want)
		}
	}
}

func TestBuildRouter_RequiresAuth(t *testing.T) {
	if _, err := BuildRouter(RouterConfig{Config: testAppConfig()}); err == nil {
		t.Fatalf("BuildRouter() without auth should fail")
	}
	if _, err := BuildRouter(RouterConfig{}); err == nil {
		t.Fatalf("BuildRouter() without config should fail")
	}
}

func TestReadinessChecks_SkipsMissingDeps(t *testing.T) {
	if got := readinessChecks(nil, nil); len(got) != 0 {
		t.Fatalf("readinessChecks(nil, nil) = %d checks, want 0", len(got))
	}
}

func TestNewHTTPServer_Defaults(t *testing.T) {
	srv := NewHTTPServer("", http.NotFoundHandler())
	if srv.Addr != ":8080" {
		t.Fatalf("Addr = %q, want :8080", srv.Addr)
	}
	if srv.ReadHeaderTimeout != 10*time.Second {
		t.Fatalf("ReadHeaderTimeout = %v", srv.ReadHeaderTimeout)
	}
}

func TestShutdownHTTPServer_NilServer(t *testing.T) {
	if err := ShutdownHTTPServer(t.Context(), nil, time.Second, nil); err != nil {
		t.Fatalf("ShutdownHTTPServer(nil) error = %v", err)
	}
}

func TestBuildMetrics_DisabledIsNoop(t *testing.T) {
	c := buildMetrics(discardLogger(), config.ObservabilityMetricsConfig{})
	if c.Enabled() {
		t.Fatalf("metrics should be disabled")
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
}
