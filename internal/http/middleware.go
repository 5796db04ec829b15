package httpx

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"runtime/debug"
	"strings"
	"time"

	domainauth "github.com/target/food-identity-gateway/internal/domain/auth"
)

// Logging returns a middleware that logs HTTP requests and responses.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			const defaultHTTPStatus = 200
			ww := &respWriter{ResponseWriter: w, status: defaultHTTPStatus}
			next.ServeHTTP(ww, r)
			logger.InfoContext(r.Context(), "http",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

type respWriter struct {
	http.ResponseWriter
	status int
}

func (w *respWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Recover returns a middleware that recovers from panics and logs them.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.ErrorContext(r.Context(), "panic",
						slog.Any("error", err),
						slog.String("path", r.URL.Path),
						slog.String("method", r.Method),
						slog.String("stack", string(debug.Stack())))
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// RequireSession returns a middleware that requires a server session.
// API requests get a 401 JSON response; page requests are sent to the entry route, which
// resolves the identity and returns the user here. The restaurant in the path, if any, is
// carried along.
func RequireSession(authSvc AuthServiceInterface, entryPath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session := getSessionFromRequest(r, authSvc)
			if session == nil {
				if isAPIRequest(r) {
					WriteError(w, ErrorParams{
						Code:    http.StatusUnauthorized,
						ErrCode: "authentication_required",
						Err:     errors.New("authentication required"),
					})
					return
				}
				http.Redirect(w, r, entryURL(entryPath, restaurantFromRequest(r)), http.StatusSeeOther)
				return
			}

			ctx := SetSessionInContext(r.Context(), session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRoleSelected sends users who have not chosen a role to the role-selection screen.
// It must run after RequireSession.
func RequireRoleSelected(routes domainauth.Routes) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !NeedsRoleSelection(r.Context()) {
				next.ServeHTTP(w, r)
				return
			}
			target := routes.RoleSelection
			if id := restaurantFromRequest(r); id != "" {
				target += "?" + url.Values{domainauth.RestaurantQueryParam: {id}}.Encode()
			}
			http.Redirect(w, r, target, http.StatusSeeOther)
		})
	}
}

// getSessionFromRequest retrieves and validates a session from the request.
func getSessionFromRequest(r *http.Request, authSvc AuthServiceInterface) *domainauth.Session {
	id := cookieValue(r, SessionCookieName)
	if id == "" {
		return nil
	}
	session, err := authSvc.GetSession(r.Context(), id)
	if err != nil {
		return nil
	}
	return session
}

func isAPIRequest(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/api/")
}

// restaurantFromRequest returns the restaurant context of a page request: the {id} path
// segment of menu routes, else the restaurantId query parameter.
func restaurantFromRequest(r *http.Request) string {
	if id := r.PathValue("id"); id != "" {
		return id
	}
	return r.URL.Query().Get(domainauth.RestaurantQueryParam)
}

func entryURL(entryPath, restaurantID string) string {
	if restaurantID == "" {
		return entryPath
	}
	return entryPath + "?" + url.Values{domainauth.RestaurantQueryParam: {restaurantID}}.Encode()
}

// safeRedirectPath ensures the provided redirect is a same-origin relative path
// starting with "/" and not an absolute URL. Returns "/" when invalid.
func safeRedirectPath(candidate string) string {
	if candidate == "" {
		return "/"
	}
	u, err := url.Parse(candidate)
	if err != nil || u.IsAbs() || u.Host != "" || !strings.HasPrefix(u.Path, "/") || strings.HasPrefix(u.Path, "//") {
		return "/"
	}
	return candidate
}
