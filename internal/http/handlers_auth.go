package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	domainauth "github.com/target/food-identity-gateway/internal/domain/auth"
	"github.com/target/food-identity-gateway/internal/service"
)

// AuthServiceInterface defines the interface for auth service operations.
type AuthServiceInterface interface {
	BeginLogin(ctx context.Context, redirectURL string) (*service.BeginLoginResult, error)
	CompleteLogin(ctx context.Context, input service.CompleteLoginInput) (*service.LoginResult, error)
	LoginWithAccessToken(ctx context.Context, in service.LoginInput) (*service.LoginResult, error)
	GetSession(ctx context.Context, sessionID string) (*domainauth.Session, error)
	Logout(ctx context.Context, sessionID string) error
	SelectRole(ctx context.Context, sessionID string, role domainauth.Role) (*domainauth.Session, error)
}

var _ AuthServiceInterface = (*service.AuthService)(nil)

// AuthHandlers serves the manual (browser) login flow.
type AuthHandlers struct {
	Svc     AuthServiceInterface
	Cookies Cookies
	Logger  *slog.Logger
	// DevAccessToken enables GET /auth/dev-login, the local stand-in for the platform login page.
	DevAccessToken string
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// Login starts the manual login flow.
// GET /auth/login?redirect_uri=<optional_redirect>.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	redirectURI := safeRedirectPath(r.URL.Query().Get("redirect_uri"))

	result, err := h.Svc.BeginLogin(r.Context(), redirectURI)
	if err != nil {
		if errors.Is(err, service.ErrLoginUnavailable) {
			WriteError(w, ErrorParams{Code: http.StatusNotFound, ErrCode: "login_unavailable", Err: err})
			return
		}
		h.logger().ErrorContext(r.Context(), "begin login failed", "error", err)
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "login_failed",
			Err:     errors.New("could not start login"),
		})
		return
	}

	h.Cookies.setOAuth(w, r, oauthCookieParams{State: result.State, Nonce: result.Nonce, RedirectURI: redirectURI})
	http.Redirect(w, r, result.AuthURL, http.StatusFound)
}

// Callback completes the manual login flow.
// GET /auth/callback?code=<code>&state=<state>.
func (h *AuthHandlers) Callback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	if code == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "missing_code",
			Err:     errors.New("authorization code is required"),
		})
		return
	}
	if state == "" || cookieValue(r, oauthStateCookie) != state {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "invalid_state",
			Err:     errors.New("invalid or missing state parameter"),
		})
		return
	}
	nonce := cookieValue(r, oauthNonceCookie)
	if nonce == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "missing_nonce",
			Err:     errors.New("missing nonce parameter"),
		})
		return
	}

	redirectURI := safeRedirectPath(cookieValue(r, postLoginCookie))
	result, err := h.Svc.CompleteLogin(r.Context(), service.CompleteLoginInput{
		Code:         code,
		State:        state,
		Nonce:        nonce,
		RestaurantID: restaurantFromRedirect(redirectURI),
	})
	if err != nil {
		h.logger().WarnContext(r.Context(), "login completion failed", "error", err)
		WriteError(w, ErrorParams{
			Code:    http.StatusUnauthorized,
			ErrCode: "login_completion_failed",
			Err:     errors.New("login could not be completed"),
		})
		return
	}

	h.Cookies.SetSession(w, r, result.Session)
	h.Cookies.clearOAuth(w, r)
	h.Cookies.Clear(w, r, AutoLoginCookieName)
	http.Redirect(w, r, postLoginTarget(redirectURI, result.Hint), http.StatusFound)
}

// DevLogin stands in for the platform login page during local development: it signs in with
// the dev access token and returns to the page that asked for the login.
// GET /auth/dev-login?code=dev&redirect=<uri>.
func (h *AuthHandlers) DevLogin(w http.ResponseWriter, r *http.Request) {
	if h.DevAccessToken == "" {
		http.NotFound(w, r)
		return
	}
	redirectURI := safeRedirectPath(localPath(r.URL.Query().Get("redirect")))

	result, err := h.Svc.LoginWithAccessToken(r.Context(), service.LoginInput{
		AccessToken:  h.DevAccessToken,
		RestaurantID: restaurantFromRedirect(redirectURI),
	})
	if err != nil {
		h.logger().WarnContext(r.Context(), "dev login failed", "error", err)
		WriteAppError(w, err)
		return
	}
	h.Cookies.SetSession(w, r, result.Session)
	http.Redirect(w, r, postLoginTarget(redirectURI, result.Hint), http.StatusFound)
}

// Logout ends the session.
// POST /auth/logout.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	if id := cookieValue(r, SessionCookieName); id != "" {
		if err := h.Svc.Logout(r.Context(), id); err != nil {
			h.logger().WarnContext(r.Context(), "logout failed", "error", err)
		}
	}
	h.Cookies.Clear(w, r, SessionCookieName)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// postLoginTarget prefers the page the user was on, unless that is the root and the service
// computed a more specific destination.
func postLoginTarget(redirectURI string, hint domainauth.RedirectHint) string {
	if hint.IsNewUser && hint.RedirectURL != "" {
		return hint.RedirectURL
	}
	if redirectURI == "/" && hint.RedirectURL != "" {
		return safeRedirectPath(hint.RedirectURL)
	}
	return redirectURI
}

func restaurantFromRedirect(redirectURI string) string {
	u, err := url.Parse(redirectURI)
	if err != nil {
		return ""
	}
	return u.Query().Get(domainauth.RestaurantQueryParam)
}

// localPath reduces an absolute URL to its path and query so the redirect stays on this origin.
func localPath(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() {
		return raw
	}
	return u.RequestURI()
}
