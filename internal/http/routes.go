package httpx

import (
	"log/slog"
	"net/http"

	domainauth "github.com/target/food-identity-gateway/internal/domain/auth"
)

// RouterServices holds everything the HTTP router needs.
type RouterServices struct {
	Auth      AuthServiceInterface
	Routes    domainauth.Routes
	Cookies   Cookies
	Entry     EntryConfig
	RateLimit RateLimitConfig
	// Readiness checks are reported by GET /readyz; an empty map is always ready.
	Readiness map[string]ReadinessCheck
	// DevAccessToken enables the local login stand-in; leave empty in production.
	DevAccessToken string
	Logger         *slog.Logger
}

// NewRouter creates the gateway's HTTP handler.
func NewRouter(services RouterServices) (http.Handler, error) {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}
	routes := services.Routes
	if routes == (domainauth.Routes{}) {
		routes = domainauth.DefaultRoutes()
	}
	pages, err := NewPages(logger)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", healthHandler)
	mux.HandleFunc("HEAD /healthz", healthHandler)
	mux.Handle("GET /readyz", readinessHandler(services.Readiness, logger))

	limiter := NewRateLimiter(withLogger(services.RateLimit, logger))
	entry := &EntryHandler{
		Cfg:            services.Entry,
		Routes:         routes,
		Cookies:        services.Cookies,
		Pages:          pages,
		Logger:         logger,
		Path:           DefaultEntryPath,
		VisitorHeaders: limiter.VisitorHeaders,
	}
	mux.HandleFunc("GET "+DefaultEntryPath, entry.Entry)

	registerIdentityAPIRoutes(mux, &IdentityAPIHandlers{
		Svc:     services.Auth,
		Cookies: services.Cookies,
		Logger:  logger,
	}, limiter)

	registerAuthRoutes(mux, &AuthHandlers{
		Svc:            services.Auth,
		Cookies:        services.Cookies,
		Logger:         logger,
		DevAccessToken: services.DevAccessToken,
	}, services.Cookies.Domain)

	registerPageRoutes(mux, &PageHandlers{
		Svc:       services.Auth,
		Pages:     pages,
		Routes:    routes,
		EntryPath: DefaultEntryPath,
		Logger:    logger,
	}, services)

	return Recover(logger)(Logging(logger)(mux)), nil
}

func withLogger(cfg RateLimitConfig, logger *slog.Logger) RateLimitConfig {
	if cfg.Logger == nil {
		cfg.Logger = logger
	}
	return cfg
}

func registerIdentityAPIRoutes(mux *http.ServeMux, h *IdentityAPIHandlers, limiter *RateLimiter) {
	mux.HandleFunc("GET /api/session", h.Session)
	mux.HandleFunc("DELETE /api/session", h.DeleteSession)
	mux.Handle("POST /api/login", limiter.Middleware(http.HandlerFunc(h.Login)))
}

func registerAuthRoutes(mux *http.ServeMux, h *AuthHandlers, cookieDomain string) {
	csrf := CSRFProtection(CSRFConfig{CookieDomain: cookieDomain})
	mux.HandleFunc("GET /auth/login", h.Login)
	mux.HandleFunc("GET /auth/callback", h.Callback)
	mux.Handle("POST /auth/logout", csrf(http.HandlerFunc(h.Logout)))
	if h.DevAccessToken != "" {
		mux.HandleFunc("GET /auth/dev-login", h.DevLogin)
	}
}

func registerPageRoutes(mux *http.ServeMux, h *PageHandlers, services RouterServices) {
	csrf := CSRFProtection(CSRFConfig{CookieDomain: services.Cookies.Domain})
	session := RequireSession(services.Auth, h.EntryPath)
	app := func(fn http.HandlerFunc) http.Handler {
		return csrf(session(RequireRoleSelected(h.Routes)(fn)))
	}

	mux.HandleFunc("GET "+h.Routes.Login, h.LoginScreen)
	mux.Handle("GET "+h.Routes.RoleSelection, csrf(session(http.HandlerFunc(h.SelectRole))))
	mux.Handle("POST "+h.Routes.RoleSelection, csrf(session(http.HandlerFunc(h.SubmitRole))))

	landing := h.Routes.Landing
	if landing == "/" {
		landing = "/{$}"
	}
	mux.Handle("GET "+landing, app(h.Landing))
	mux.Handle("GET "+h.Routes.EmbeddedMenu, app(h.Menu))
	mux.Handle("GET "+h.Routes.BrowserMenu, app(h.Menu))
}
