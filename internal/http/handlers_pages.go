package httpx

import (
	"log/slog"
	"net/http"
	"net/url"

	domainauth "github.com/target/food-identity-gateway/internal/domain/auth"
	"github.com/target/food-identity-gateway/internal/domain/model"
	apperrors "github.com/target/food-identity-gateway/internal/errors"
)

// PageHandlers serves the manual login screen, role selection and the placeholder target pages.
type PageHandlers struct {
	Svc       AuthServiceInterface
	Pages     *Pages
	Routes    domainauth.Routes
	EntryPath string
	Logger    *slog.Logger
}

func (h *PageHandlers) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// LoginScreen renders the manual login screen.
// GET /login?restaurantId=<id>&error=<kind>.
func (h *PageHandlers) LoginScreen(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	restaurantID := q.Get(domainauth.RestaurantQueryParam)
	if !model.ValidRestaurantID(restaurantID) {
		restaurantID = ""
	}

	entry := entryURL(h.EntryPath, restaurantID)
	if getSessionFromRequest(r, h.Svc) != nil {
		http.Redirect(w, r, entry, http.StatusSeeOther)
		return
	}

	data := loginPageData{
		Title:        "Sign in",
		RestaurantID: restaurantID,
		LoginURL:     "/auth/login?" + url.Values{"redirect_uri": {entry}}.Encode(),
	}
	if kind := domainauth.ErrorKind(q.Get("error")); kind != "" && !kind.Silent() {
		data.Error = domainauth.DisplayMessage(kind, 0)
	}
	h.Pages.render(w, r, http.StatusOK, "login", data)
}

// SelectRole renders the role-selection form for new users.
// GET /select-role.
func (h *PageHandlers) SelectRole(w http.ResponseWriter, r *http.Request) {
	sess, _ := GetUserSessionFromContext(r.Context())
	restaurantID := r.URL.Query().Get(domainauth.RestaurantQueryParam)
	if !sess.IsNewUser {
		http.Redirect(w, r, h.next(sess, restaurantID), http.StatusSeeOther)
		return
	}
	h.renderSelectRole(w, r, http.StatusOK, sess, restaurantID, "")
}

// SubmitRole stores the chosen role and continues to the page the user was headed for.
// POST /select-role.
func (h *PageHandlers) SubmitRole(w http.ResponseWriter, r *http.Request) {
	sess, _ := GetUserSessionFromContext(r.Context())
	restaurantID := r.PostFormValue(domainauth.RestaurantQueryParam)
	role := domainauth.Role(r.PostFormValue("role"))

	updated, err := h.Svc.SelectRole(r.Context(), sess.ID, role)
	if err != nil {
		status := apperrors.HTTPStatus(err)
		if status >= http.StatusInternalServerError {
			h.logger().ErrorContext(r.Context(), "select role failed", "error", err)
		}
		h.renderSelectRole(w, r, status, sess, restaurantID, apperrors.PublicMessage(err))
		return
	}
	http.Redirect(w, r, h.next(updated, restaurantID), http.StatusSeeOther)
}

func (h *PageHandlers) renderSelectRole(w http.ResponseWriter, r *http.Request, status int, sess *domainauth.Session, restaurantID, msg string) {
	if !model.ValidRestaurantID(restaurantID) {
		restaurantID = ""
	}
	h.Pages.render(w, r, status, "select_role", selectRolePageData{
		Title:        "Choose your role",
		DisplayName:  sess.DisplayName,
		RestaurantID: restaurantID,
		Action:       h.Routes.RoleSelection,
		CSRFToken:    GetCSRFToken(r),
		Error:        msg,
	})
}

// next computes where a signed-in user goes from the role-selection screen.
func (h *PageHandlers) next(sess *domainauth.Session, restaurantID string) string {
	if !model.ValidRestaurantID(restaurantID) {
		restaurantID = ""
	}
	identity := sess.Identity()
	target := h.Routes.Decide(domainauth.DecisionInput{
		Identity:     &identity,
		Env:          domainauth.Environment{Embedded: sess.EmbeddedOrigin},
		RestaurantID: restaurantID,
	})
	return target.URL
}

// Landing is the default page for signed-in users.
// GET /.
func (h *PageHandlers) Landing(w http.ResponseWriter, r *http.Request) {
	sess, _ := GetUserSessionFromContext(r.Context())
	h.Pages.render(w, r, http.StatusOK, "app", appPageData{
		Title:     "Home",
		Heading:   "Welcome back",
		Session:   sess,
		CSRFToken: GetCSRFToken(r),
	})
}

// Menu is the restaurant menu entry point for both embedded and browser routes.
// GET /liff/restaurants/{id}, GET /restaurants/{id}/menu.
func (h *PageHandlers) Menu(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !model.ValidRestaurantID(id) {
		http.NotFound(w, r)
		return
	}
	sess, _ := GetUserSessionFromContext(r.Context())
	h.Pages.render(w, r, http.StatusOK, "app", appPageData{
		Title:        "Menu",
		Heading:      "Menu",
		Session:      sess,
		RestaurantID: id,
		CSRFToken:    GetCSRFToken(r),
	})
}
