package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/target/food-identity-gateway/internal/adapters/devauth"
	domainauth "github.com/target/food-identity-gateway/internal/domain/auth"
	mockauth "github.com/target/food-identity-gateway/internal/mocks/auth"
	"github.com/target/food-identity-gateway/internal/ports"
	"github.com/target/food-identity-gateway/internal/service"
	"github.com/target/food-identity-gateway/internal/service/identity"
)

const (
	testAppID      = "1234567890-AbCdEfGh"
	testLineUserID = "U0123456789abcdef0123456789abcdef"
)

func testLogger() *slog.Logger { return slog.New(slog.DiscardHandler) }

// gateway is a running router backed by a real AuthService and in-memory ports.
type gateway struct {
	srv      *httptest.Server
	client   *http.Client
	svc      *service.AuthService
	sessions *mockauth.MemorySessionStore
	users    *mockauth.MemoryUserRepository
	verifier *mockauth.MockTokenVerifier
	dev      devauth.Config
}

type gatewayOption func(*RouterServices, *gateway)

func withDevConfig(mut func(*devauth.Config)) gatewayOption {
	return func(_ *RouterServices, g *gateway) { mut(&g.dev) }
}

func withRouter(mut func(*RouterServices)) gatewayOption {
	return func(rs *RouterServices, _ *gateway) { mut(rs) }
}

func newGateway(t *testing.T, opts ...gatewayOption) *gateway {
	t.Helper()

	g := &gateway{
		sessions: mockauth.NewMemorySessionStore(),
		users:    mockauth.NewMemoryUserRepository(),
		verifier: &mockauth.MockTokenVerifier{Tokens: map[string]domainauth.Identity{
			devauth.DefaultAccessToken: {
				UserID:      testLineUserID,
				DisplayName: "Dev Diner",
				ExpiresAt:   time.Now().Add(time.Hour),
			},
		}},
		dev: devauth.Config{UserID: testLineUserID, DisplayName: "Dev Diner"},
	}
	g.svc = service.NewAuthService(service.AuthServiceOptions{
		Provider:    mockauth.NewMockAuthProvider(),
		Verifier:    g.verifier,
		Sessions:    g.sessions,
		Users:       g.users,
		Restaurants: &mockauth.StaticRestaurantDirectory{IDs: map[string]bool{"42": true}},
		Roles:       mockauth.StaticRoleMapper{},
		SessionTTL:  time.Hour,
		Logger:      testLogger(),
	})

	var handler http.Handler
	g.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handler.ServeHTTP(w, r)
	}))
	t.Cleanup(g.srv.Close)

	rs := RouterServices{
		Auth:           g.svc,
		Routes:         domainauth.DefaultRoutes(),
		DevAccessToken: devauth.DefaultAccessToken,
		RateLimit:      RateLimitConfig{PerSecond: 100, Burst: 100},
		Logger:         testLogger(),
		Entry: EntryConfig{
			APIBaseURL: g.srv.URL + "/api",
			Orchestrator: identity.Config{
				AppID:           testAppID,
				FallbackTimeout: 2 * time.Second,
				MaxLoadAttempts: 1,
			},
		},
	}
	for _, o := range opts {
		o(&rs, g)
	}
	if rs.Entry.Fetcher == nil {
		rs.Entry.Fetcher = func(*http.Request) ports.SDKFetcher { return &devauth.Fetcher{Config: g.dev} }
	}

	var err error
	handler, err = NewRouter(rs)
	require.NoError(t, err)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	g.client = &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
		Timeout: 10 * time.Second,
	}
	return g
}

func (g *gateway) url(path string) string { return g.srv.URL + path }

func (g *gateway) get(t *testing.T, path string, hdr ...string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, g.url(path), nil)
	require.NoError(t, err)
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}
	resp, err := g.client.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func (g *gateway) postForm(t *testing.T, path string, form url.Values) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, g.url(path), strings.NewReader(form.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := g.client.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func (g *gateway) cookie(name string) string {
	u, _ := url.Parse(g.srv.URL)
	for _, c := range g.client.Jar.Cookies(u) {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

// signIn opens a session for testLineUserID directly through the service.
func (g *gateway) signIn(t *testing.T, role domainauth.Role) domainauth.Session {
	t.Helper()
	ctx := context.Background()
	res, err := g.svc.LoginWithAccessToken(ctx, service.LoginInput{AccessToken: devauth.DefaultAccessToken})
	require.NoError(t, err)
	sess := res.Session
	if role != "" {
		updated, err := g.svc.SelectRole(ctx, sess.ID, role)
		require.NoError(t, err)
		sess = *updated
	}
	u, _ := url.Parse(g.srv.URL)
	g.client.Jar.SetCookies(u, []*http.Cookie{{Name: SessionCookieName, Value: sess.ID, Path: "/"}})
	return sess
}

func responseCookie(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}
