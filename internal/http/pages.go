package httpx

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	domainauth "github.com/target/food-identity-gateway/internal/domain/auth"
)

//go:embed templates/*.html
var templateFS embed.FS

// Pages renders the gateway's HTML pages.
type Pages struct {
	t      *template.Template
	logger *slog.Logger
}

// NewPages parses the embedded templates.
func NewPages(logger *slog.Logger) (*Pages, error) {
	t, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pages{t: t, logger: logger}, nil
}

// render executes name into a buffer first so a template error never leaves a half-written page.
func (p *Pages) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	var buf bytes.Buffer
	if err := p.t.ExecuteTemplate(&buf, name, data); err != nil {
		p.logger.ErrorContext(r.Context(), "template render failed", "template", name, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		return
	}
}

type entryPageData struct {
	Title     string
	Message   string
	Failure   string
	RetryURL  string
	ManualURL string
}

type loginPageData struct {
	Title        string
	Error        string
	RestaurantID string
	LoginURL     string
}

type selectRolePageData struct {
	Title        string
	DisplayName  string
	RestaurantID string
	Action       string
	CSRFToken    string
	Error        string
}

type appPageData struct {
	Title        string
	Heading      string
	Session      *domainauth.Session
	RestaurantID string
	CSRFToken    string
}
