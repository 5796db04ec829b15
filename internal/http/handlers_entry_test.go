package httpx

import (
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/food-identity-gateway/internal/adapters/devauth"
	domainauth "github.com/target/food-identity-gateway/internal/domain/auth"
	"github.com/target/food-identity-gateway/internal/service/identity"
)

const lineUserAgent = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) Line/13.20.0"

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func TestEntry_BrowserWithoutSessionGoesToLogin(t *testing.T) {
	g := newGateway(t)

	resp := g.get(t, "/entry?restaurantId=42")

	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login?restaurantId=42", resp.Header.Get("Location"))
	assert.Nil(t, responseCookie(resp, AutoLoginCookieName))
}

func TestEntry_ExistingSessionSkipsPlatform(t *testing.T) {
	g := newGateway(t)
	g.signIn(t, domainauth.RoleCustomer)

	resp := g.get(t, "/entry?restaurantId=42")

	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/restaurants/42/menu", resp.Header.Get("Location"))
	assert.Equal(t, []string{devauth.DefaultAccessToken}, g.verifier.Calls(), "only the sign-in fixture verifies a token")
}

func TestEntry_EmbeddedNewUserExchangesToken(t *testing.T) {
	g := newGateway(t)

	resp := g.get(t, "/entry?restaurantId=42&embedded=1")

	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/select-role", resp.Header.Get("Location"))

	sessionID := g.cookie(SessionCookieName)
	require.NotEmpty(t, sessionID, "session cookie propagated from the identity API")
	sess, err := g.svc.GetSession(t.Context(), sessionID)
	require.NoError(t, err)
	assert.True(t, sess.IsNewUser)
	assert.True(t, sess.EmbeddedOrigin)
}

func TestEntry_LineUserAgentReturningCustomer(t *testing.T) {
	g := newGateway(t)
	old := g.signIn(t, domainauth.RoleCustomer)

	resp := g.get(t, "/entry?restaurantId=42&forceReauth=1", "User-Agent", lineUserAgent)

	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/liff/restaurants/42", resp.Header.Get("Location"))
	assert.NotEqual(t, old.ID, g.cookie(SessionCookieName), "reauthentication opens a new session")
}

func TestEntry_AutoLoginRunsOncePerBrowserSession(t *testing.T) {
	g := newGateway(t, withDevConfig(func(c *devauth.Config) { c.LoggedOut = true }))

	first := g.get(t, "/entry?restaurantId=42&embedded=1")
	require.Equal(t, http.StatusSeeOther, first.StatusCode)
	loc, err := url.Parse(first.Header.Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/auth/dev-login", loc.Path)
	assert.Equal(t, g.url("/entry?restaurantId=42"), loc.Query().Get("redirect"))
	assert.Equal(t, "1", g.cookie(AutoLoginCookieName))

	// The platform login did not stick: the second load must not loop back into it.
	second := g.get(t, "/entry?restaurantId=42&embedded=1")
	assert.Equal(t, http.StatusSeeOther, second.StatusCode)
	assert.Equal(t, "/login?restaurantId=42", second.Header.Get("Location"))

	// An explicit retry clears the flag and tries the platform login again.
	retry := g.get(t, "/entry?restaurantId=42&embedded=1&retry=1")
	assert.Equal(t, http.StatusSeeOther, retry.StatusCode)
	assert.True(t, strings.HasPrefix(retry.Header.Get("Location"), "/auth/dev-login?"))
}

func TestEntry_AutoLoginReturnCompletesSignIn(t *testing.T) {
	g := newGateway(t, withDevConfig(func(c *devauth.Config) { c.LoggedOut = true }))

	first := g.get(t, "/entry?restaurantId=42&embedded=1")
	require.Equal(t, http.StatusSeeOther, first.StatusCode)

	back := g.get(t, first.Header.Get("Location"))
	require.Equal(t, http.StatusFound, back.StatusCode)
	assert.Equal(t, "/select-role", back.Header.Get("Location"))
	assert.NotEmpty(t, g.cookie(SessionCookieName))

	again := g.get(t, "/entry?restaurantId=42")
	assert.Equal(t, "/select-role", again.Header.Get("Location"))
	assert.Empty(t, g.cookie(AutoLoginCookieName), "resolved identity clears the auto-login flag")
}

func TestEntry_FailuresRenderRetryPage(t *testing.T) {
	tests := []struct {
		name       string
		opts       []gatewayOption
		wantText   string
		wantManual string
	}{
		{
			name:       "exchange rejected",
			opts:       []gatewayOption{withDevConfig(func(c *devauth.Config) { c.AccessToken = "revoked-token" })},
			wantText:   domainauth.DisplayMessage(domainauth.ErrorExchangeRejected, http.StatusUnauthorized),
			wantManual: "error=exchange_rejected",
		},
		{
			name: "malformed app id",
			opts: []gatewayOption{withRouter(func(rs *RouterServices) {
				rs.Entry.Orchestrator.AppID = "not-an-app-id"
			})},
			wantText:   domainauth.DisplayMessage(domainauth.ErrorFatalConfig, 0),
			wantManual: "error=fatal_config",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newGateway(t, tt.opts...)

			resp := g.get(t, "/entry?restaurantId=42&embedded=1")
			body := readBody(t, resp)

			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))
			assert.Contains(t, body, "Sign-in failed")
			assert.Contains(t, body, tt.wantText)
			assert.Contains(t, body, "/entry?embedded=1&amp;restaurantId=42&amp;retry=1")
			assert.Contains(t, body, tt.wantManual)
			assert.Empty(t, g.cookie(SessionCookieName))
		})
	}
}

func TestEntry_StaleSessionCookieIsCleared(t *testing.T) {
	g := newGateway(t)
	u, _ := url.Parse(g.srv.URL)
	g.client.Jar.SetCookies(u, []*http.Cookie{{Name: SessionCookieName, Value: "ghost", Path: "/"}})

	resp := g.get(t, "/entry")

	assert.Equal(t, "/login", resp.Header.Get("Location"))
	ck := responseCookie(resp, SessionCookieName)
	require.NotNil(t, ck)
	assert.Negative(t, ck.MaxAge)
}

func TestEntry_EmbeddedLoginWithCookieDomain(t *testing.T) {
	g := newGateway(t, withRouter(func(rs *RouterServices) { rs.Cookies = Cookies{Domain: "example.com"} }))

	resp := g.get(t, "/entry?restaurantId=42&embedded=1")

	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/select-role", resp.Header.Get("Location"))
	ck := responseCookie(resp, SessionCookieName)
	require.NotNil(t, ck, "session cookie re-issued on the page response")
	assert.Equal(t, "example.com", ck.Domain)
	assert.Equal(t, 1, g.sessions.Len())

	sess, err := g.svc.GetSession(t.Context(), ck.Value)
	require.NoError(t, err)
	assert.True(t, sess.EmbeddedOrigin)
}

func TestEntry_TokenExchangesAreLimitedPerVisitor(t *testing.T) {
	g := newGateway(t, withRouter(func(rs *RouterServices) {
		rs.RateLimit = RateLimitConfig{PerSecond: 0.001, Burst: 2, TrustForwardedFor: true}
	}))
	visit := func(client string) *http.Response {
		jar, err := cookiejar.New(nil)
		require.NoError(t, err)
		g.client.Jar = jar
		return g.get(t, "/entry?embedded=1", "X-Forwarded-For", client)
	}

	for i := 1; i <= 4; i++ {
		resp := visit(fmt.Sprintf("203.0.113.%d", i))
		assert.Equal(t, http.StatusSeeOther, resp.StatusCode, "client %d", i)
		assert.Equal(t, "/select-role", resp.Header.Get("Location"), "client %d", i)
	}

	// One visitor still runs out of its own burst.
	visit("198.51.100.7")
	visit("198.51.100.7")
	limited := visit("198.51.100.7")
	assert.Equal(t, http.StatusOK, limited.StatusCode)
	assert.Contains(t, readBody(t, limited), "Sign-in failed")
}

func TestEntry_InvalidRestaurantIDIsDropped(t *testing.T) {
	g := newGateway(t)

	resp := g.get(t, "/entry?restaurantId=%3Cscript%3E")

	assert.Equal(t, "/login", resp.Header.Get("Location"))
}

func TestRecordingNavigator_KeepsFirstTarget(t *testing.T) {
	n := &recordingNavigator{}
	require.NoError(t, n.Navigate(t.Context(), "/first"))
	require.NoError(t, n.Navigate(t.Context(), "/second"))
	assert.Equal(t, "/first", n.target())
}

func TestProgressLog_Last(t *testing.T) {
	p := &progressLog{}
	assert.Empty(t, p.last())
	p.add(identity.MessageCheckingSession)
	p.add(identity.MessageRedirecting)
	assert.Equal(t, identity.MessageRedirecting, p.last())
}
