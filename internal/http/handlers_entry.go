package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/target/food-identity-gateway/internal/adapters/identityapi"
	domainauth "github.com/target/food-identity-gateway/internal/domain/auth"
	"github.com/target/food-identity-gateway/internal/domain/model"
	"github.com/target/food-identity-gateway/internal/observability/statsd"
	"github.com/target/food-identity-gateway/internal/ports"
	"github.com/target/food-identity-gateway/internal/service/identity"
)

// DefaultEntryPath is where the embedded client app and browsers start.
const DefaultEntryPath = "/entry"

// SDKFetcherFactory returns the client SDK source for one page load.
type SDKFetcherFactory func(r *http.Request) ports.SDKFetcher

// EntryConfig configures the entry route.
type EntryConfig struct {
	// APIBaseURL is the identity API root the orchestrator talks to, e.g. http://localhost:8080/api.
	APIBaseURL string
	// PublicBaseURL is the externally visible origin used for the automatic login return address.
	PublicBaseURL string
	APITimeout    time.Duration
	// APITransport defaults to http.DefaultTransport.
	APITransport http.RoundTripper
	Orchestrator identity.Config
	Fetcher      SDKFetcherFactory
	Detector     domainauth.EnvironmentDetector
	Metrics      statsd.Sink
}

// EntryHandler runs one identity resolution attempt per page load.
type EntryHandler struct {
	Cfg     EntryConfig
	Routes  domainauth.Routes
	Cookies Cookies
	Pages   *Pages
	Logger  *slog.Logger
	Path    string
	// VisitorHeaders are added to the identity API calls made for a request.
	VisitorHeaders func(r *http.Request) http.Header
}

func (h *EntryHandler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

func (h *EntryHandler) path() string {
	if h.Path != "" {
		return h.Path
	}
	return DefaultEntryPath
}

// recordingNavigator captures the navigation the orchestrator commits so it can become a redirect.
type recordingNavigator struct {
	mu  sync.Mutex
	url string
}

func (n *recordingNavigator) Navigate(_ context.Context, target string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.url == "" {
		n.url = target
	}
	return nil
}

func (n *recordingNavigator) target() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.url
}

// progressLog collects loading messages; the orchestrator may report from more than one goroutine.
type progressLog struct {
	mu   sync.Mutex
	msgs []string
}

func (p *progressLog) add(msg string) {
	p.mu.Lock()
	p.msgs = append(p.msgs, msg)
	p.mu.Unlock()
}

func (p *progressLog) last() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.msgs) == 0 {
		return ""
	}
	return p.msgs[len(p.msgs)-1]
}

// Entry resolves the visitor's identity and redirects to where they belong.
// GET /entry?restaurantId=<id>[&retry=1][&forceReauth=1].
func (h *EntryHandler) Entry(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	restaurantID := q.Get(domainauth.RestaurantQueryParam)
	if !model.ValidRestaurantID(restaurantID) {
		restaurantID = ""
	}
	retry := q.Get("retry") == "1"

	var header http.Header
	if h.VisitorHeaders != nil {
		header = h.VisitorHeaders(r)
	}
	api, err := identityapi.NewClient(identityapi.Options{
		BaseURL:   h.Cfg.APIBaseURL,
		Timeout:   h.Cfg.APITimeout,
		Transport: h.Cfg.APITransport,
		Logger:    h.logger(),
		Cookies:   r.Cookies(),
		Header:    header,
	})
	if err != nil {
		h.logger().ErrorContext(r.Context(), "identity api client unavailable", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var fetcher ports.SDKFetcher
	if h.Cfg.Fetcher != nil {
		fetcher = h.Cfg.Fetcher(r)
	}
	nav := &recordingNavigator{}
	progress := &progressLog{}

	orch := identity.NewOrchestrator(h.Cfg.Orchestrator, identity.Deps{
		Sessions:  api,
		Exchanger: api,
		Fetcher:   fetcher,
		Navigator: nav,
		Detector:  h.Cfg.Detector,
		Routes:    h.Routes,
		Metrics:   h.Cfg.Metrics,
		Logger:    h.logger(),
	})
	out := orch.Run(r.Context(), identity.Options{
		RestaurantID:       restaurantID,
		ForceReauth:        q.Get("forceReauth") == "1",
		AutoLoginAttempted: !retry && autoLoginAttempted(r),
		PageURL:            r.URL,
		UserAgent:          r.UserAgent(),
		LoginRedirectURI:   h.loginRedirectURI(r, restaurantID),
		OnProgress:         progress.add,
	})

	h.propagateSession(w, r, api.Issued())
	switch {
	case out.Identity != nil:
		if cookieValue(r, AutoLoginCookieName) != "" {
			h.Cookies.Clear(w, r, AutoLoginCookieName)
		}
	case out.Attempt.AutoLoginAttempted:
		h.Cookies.MarkAutoLogin(w, r)
	case retry:
		h.Cookies.Clear(w, r, AutoLoginCookieName)
	}

	if target := nav.target(); target != "" {
		http.Redirect(w, r, target, http.StatusSeeOther)
		return
	}

	data := entryPageData{
		Title:    "Signing in",
		Message:  progress.last(),
		RetryURL: h.retryURL(restaurantID, out.Environment.Embedded),
	}
	if out.Failure != nil {
		data.Failure = out.Failure.Display
		if out.FailureTarget != nil {
			data.ManualURL = out.FailureTarget.URL
		}
	}
	if data.Message == "" {
		data.Message = identity.MessageRedirecting
	}
	h.Pages.render(w, r, http.StatusOK, "entry", data)
}

// propagateSession re-issues a session cookie set or cleared by the identity API on the page
// response. It reads the API's Set-Cookie headers rather than the jar, which drops cookies scoped
// to a domain other than the API host.
func (h *EntryHandler) propagateSession(w http.ResponseWriter, r *http.Request, issued []*http.Cookie) {
	var c *http.Cookie
	for _, ck := range issued {
		if ck.Name == SessionCookieName {
			c = ck
		}
	}
	switch {
	case c == nil:
		return
	case c.Value == "" || c.MaxAge < 0:
		if cookieValue(r, SessionCookieName) != "" {
			h.Cookies.Clear(w, r, SessionCookieName)
		}
	case c.Value != cookieValue(r, SessionCookieName):
		h.Cookies.set(w, r, SessionCookieName, c.Value, max(c.MaxAge, 0))
	}
}

func (h *EntryHandler) loginRedirectURI(r *http.Request, restaurantID string) string {
	base := strings.TrimSuffix(h.Cfg.PublicBaseURL, "/")
	if base == "" {
		scheme := "http"
		if isSecureRequest(r) {
			scheme = "https"
		}
		base = scheme + "://" + r.Host
	}
	return base + entryURL(h.path(), restaurantID)
}

func (h *EntryHandler) retryURL(restaurantID string, embedded bool) string {
	v := url.Values{"retry": {"1"}}
	if restaurantID != "" {
		v.Set(domainauth.RestaurantQueryParam, restaurantID)
	}
	if embedded {
		v.Set("embedded", "1")
	}
	return h.path() + "?" + v.Encode()
}
