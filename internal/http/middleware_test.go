package httpx

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/target/food-identity-gateway/internal/domain/auth"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireSession(t *testing.T) {
	missing := &mockAuthService{getSessionFunc: func(context.Context, string) (*domainauth.Session, error) {
		return nil, errors.New("session not found")
	}}

	tests := []struct {
		name     string
		svc      *mockAuthService
		pattern  string
		target   string
		cookie   string
		wantCode int
		wantLoc  string
	}{
		{name: "valid session", svc: &mockAuthService{}, pattern: "GET /", target: "/", cookie: "sid", wantCode: http.StatusOK},
		{name: "page without cookie", svc: &mockAuthService{}, pattern: "GET /", target: "/", wantCode: http.StatusSeeOther, wantLoc: "/entry"},
		{
			name: "menu carries restaurant", svc: missing, pattern: "GET /restaurants/{id}/menu",
			target: "/restaurants/42/menu", cookie: "stale", wantCode: http.StatusSeeOther, wantLoc: "/entry?restaurantId=42",
		},
		{
			name: "query restaurant", svc: &mockAuthService{}, pattern: "GET /select-role",
			target: "/select-role?restaurantId=7", wantCode: http.StatusSeeOther, wantLoc: "/entry?restaurantId=7",
		},
		{name: "api request", svc: missing, pattern: "GET /api/me", target: "/api/me", cookie: "stale", wantCode: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen *domainauth.Session
			mux := http.NewServeMux()
			mux.Handle(tt.pattern, RequireSession(tt.svc, DefaultEntryPath)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen, _ = GetUserSessionFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			})))

			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: tt.cookie})
			}
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantLoc, rec.Header().Get("Location"))
			if tt.wantCode == http.StatusOK {
				require.NotNil(t, seen)
				assert.Equal(t, tt.cookie, seen.ID)
			}
		})
	}
}

func TestRequireRoleSelected(t *testing.T) {
	routes := domainauth.DefaultRoutes()
	tests := []struct {
		name     string
		session  *domainauth.Session
		target   string
		wantCode int
		wantLoc  string
	}{
		{name: "role chosen", session: &domainauth.Session{ID: "s", Role: domainauth.RoleCustomer}, target: "/", wantCode: http.StatusOK},
		{name: "new user", session: &domainauth.Session{ID: "s", Role: domainauth.RoleGuest, IsNewUser: true}, target: "/", wantCode: http.StatusSeeOther, wantLoc: "/select-role"},
		{
			name: "new user with restaurant", session: &domainauth.Session{ID: "s", IsNewUser: true},
			target: "/?restaurantId=42", wantCode: http.StatusSeeOther, wantLoc: "/select-role?restaurantId=42",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			req = req.WithContext(SetSessionInContext(req.Context(), tt.session))
			rec := httptest.NewRecorder()

			RequireRoleSelected(routes)(okHandler()).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantLoc, rec.Header().Get("Location"))
		})
	}
}

func TestRecover_ConvertsPanicTo500(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	h := Recover(logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/entry", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, buf.String(), `"msg":"panic"`)
	assert.Contains(t, buf.String(), "boom")
}

func TestLogging_RecordsStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	h := Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	out := buf.String()
	assert.Contains(t, out, `"status":418`)
	assert.Contains(t, out, `"path":"/healthz"`)
}

func TestSafeRedirectPath(t *testing.T) {
	tests := map[string]string{
		"":                         "/",
		"/entry?restaurantId=42":   "/entry?restaurantId=42",
		"https://evil.example/":    "/",
		"//evil.example/":          "/",
		"relative/path":            "/",
		"javascript:alert(1)":      "/",
		"/restaurants/42/menu#top": "/restaurants/42/menu#top",
	}
	for in, want := range tests {
		assert.Equal(t, want, safeRedirectPath(in), in)
	}
}

func TestEntryURL(t *testing.T) {
	assert.Equal(t, "/entry", entryURL("/entry", ""))
	assert.Equal(t, "/entry?restaurantId=a+b", entryURL("/entry", "a b"))
	assert.True(t, strings.HasPrefix(entryURL("/entry", "42"), "/entry?"))
}
