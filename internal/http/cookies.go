package httpx

import (
	"net/http"
	"strings"
	"time"

	domainauth "github.com/target/food-identity-gateway/internal/domain/auth"
)

// Cookie names used by the gateway.
const (
	SessionCookieName   = "session_id"
	AutoLoginCookieName = "auto_login"

	oauthStateCookie   = "oauth_state"
	oauthNonceCookie   = "oauth_nonce"
	postLoginCookie    = "post_login_redirect"
	oauthCookieMaxAge  = 600 // 10 minutes
	autoLoginCookieVal = "1"
)

// Cookies writes gateway cookies with consistent attributes.
// Domain is empty to scope cookies to the request host.
type Cookies struct {
	Domain string
}

// isSecureRequest reports whether the request reached us over TLS, directly or via a proxy.
func isSecureRequest(r *http.Request) bool {
	return r.TLS != nil || isForwardedHTTPS(r)
}

// isForwardedHTTPS checks if the request was forwarded over HTTPS.
// Handles comma-separated values in X-Forwarded-Proto header.
func isForwardedHTTPS(r *http.Request) bool {
	for _, proto := range strings.Split(r.Header.Get("X-Forwarded-Proto"), ",") {
		if strings.EqualFold(strings.TrimSpace(proto), "https") {
			return true
		}
	}
	return false
}

func (c Cookies) set(w http.ResponseWriter, r *http.Request, name, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   c.Domain,
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	})
}

// Clear expires a cookie. It mirrors the attributes used when setting cookies so browsers
// match and drop it.
func (c Cookies) Clear(w http.ResponseWriter, r *http.Request, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Domain:   c.Domain,
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		MaxAge:   -1,
		Expires:  time.Unix(0, 0).UTC(),
		SameSite: http.SameSiteLaxMode,
	})
}

// SetSession writes the session cookie based on the session's expiry.
func (c Cookies) SetSession(w http.ResponseWriter, r *http.Request, s domainauth.Session) {
	c.setSessionID(w, r, s.ID, time.Until(s.ExpiresAt))
}

func (c Cookies) setSessionID(w http.ResponseWriter, r *http.Request, id string, ttl time.Duration) {
	maxAge := int(ttl.Seconds())
	if maxAge <= 0 {
		c.Clear(w, r, SessionCookieName)
		return
	}
	c.set(w, r, SessionCookieName, id, maxAge)
}

// MarkAutoLogin remembers for the rest of the browser session that an automatic login was tried.
func (c Cookies) MarkAutoLogin(w http.ResponseWriter, r *http.Request) {
	c.set(w, r, AutoLoginCookieName, autoLoginCookieVal, 0)
}

// oauthCookieParams groups values needed to set OAuth cookies (≤3 params rule).
type oauthCookieParams struct {
	State       string
	Nonce       string
	RedirectURI string
}

// setOAuth stores OAuth state, nonce, and the post-login redirect for the callback.
func (c Cookies) setOAuth(w http.ResponseWriter, r *http.Request, p oauthCookieParams) {
	c.set(w, r, oauthStateCookie, p.State, oauthCookieMaxAge)
	c.set(w, r, oauthNonceCookie, p.Nonce, oauthCookieMaxAge)
	c.set(w, r, postLoginCookie, p.RedirectURI, oauthCookieMaxAge)
}

func (c Cookies) clearOAuth(w http.ResponseWriter, r *http.Request) {
	c.Clear(w, r, oauthStateCookie)
	c.Clear(w, r, oauthNonceCookie)
	c.Clear(w, r, postLoginCookie)
}

func cookieValue(r *http.Request, name string) string {
	ck, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return ck.Value
}

func autoLoginAttempted(r *http.Request) bool {
	return cookieValue(r, AutoLoginCookieName) == autoLoginCookieVal
}
