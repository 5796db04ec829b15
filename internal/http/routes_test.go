package httpx

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouter_Health(t *testing.T) {
	g := newGateway(t, withRouter(func(rs *RouterServices) {
		rs.Readiness = map[string]ReadinessCheck{
			"redis": func(context.Context) error { return errors.New("connection refused") },
		}
	}))

	assert.Equal(t, http.StatusOK, g.get(t, "/healthz").StatusCode)

	ready := g.get(t, "/readyz")
	body := readBody(t, ready)
	assert.Equal(t, http.StatusServiceUnavailable, ready.StatusCode)
	assert.Contains(t, body, `"redis":"unavailable"`)
	assert.NotContains(t, body, "connection refused")
}

func TestRouter_DevLoginOnlyWhenConfigured(t *testing.T) {
	g := newGateway(t, withRouter(func(rs *RouterServices) { rs.DevAccessToken = "" }))

	resp := g.get(t, "/auth/dev-login?code=dev")

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRouter_TokenLoginIsRateLimited(t *testing.T) {
	g := newGateway(t, withRouter(func(rs *RouterServices) {
		rs.RateLimit = RateLimitConfig{PerSecond: 0.001, Burst: 2}
	}))

	post := func() *http.Response {
		resp, err := g.client.Post(g.url("/api/login"), "application/json", strings.NewReader(`{"accessToken":"nope"}`))
		require.NoError(t, err)
		t.Cleanup(func() { _ = resp.Body.Close() })
		return resp
	}

	assert.Equal(t, http.StatusUnauthorized, post().StatusCode)
	assert.Equal(t, http.StatusUnauthorized, post().StatusCode)
	limited := post()
	assert.Equal(t, http.StatusTooManyRequests, limited.StatusCode)
	assert.NotEmpty(t, limited.Header.Get("Retry-After"))
}

func TestRouter_SessionAPIRoundTrip(t *testing.T) {
	g := newGateway(t)

	resp, err := g.client.Post(g.url("/api/login"), "application/json",
		strings.NewReader(`{"accessToken":"dev-access-token","restaurantId":"42"}`))
	require.NoError(t, err)
	body := readBody(t, resp)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Contains(t, body, `"isNewUser":true`)
	assert.Contains(t, body, `"redirectUrl":"/select-role"`)

	session := g.get(t, "/api/session")
	assert.Equal(t, http.StatusOK, session.StatusCode)
	assert.Contains(t, readBody(t, session), `"authenticated":true`)

	req, err := http.NewRequest(http.MethodDelete, g.url("/api/session"), nil)
	require.NoError(t, err)
	del, err := g.client.Do(req)
	require.NoError(t, err)
	_ = del.Body.Close()
	assert.Equal(t, http.StatusNoContent, del.StatusCode)

	assert.Equal(t, http.StatusUnauthorized, g.get(t, "/api/session").StatusCode)
}
