package auth

import (
	"net/url"
	"strings"
)

// RedirectReason explains why a RedirectTarget was chosen.
type RedirectReason string

const (
	ReasonAlreadyAuthenticated RedirectReason = "already-authenticated"
	ReasonNewUser              RedirectReason = "new-user"
	ReasonRestaurantContext    RedirectReason = "restaurant-context"
	ReasonLoginRequired        RedirectReason = "login-required"
	ReasonFatalError           RedirectReason = "fatal-error"
)

// RedirectTarget is the navigation computed for an attempt. It is an immutable value.
type RedirectTarget struct {
	URL    string         `json:"url"`
	Reason RedirectReason `json:"reason"`
}

// RedirectHint is what the token exchange reported about where the user should go.
type RedirectHint struct {
	IsNewUser                  bool   `json:"isNewUser"`
	ProfileUpdated             bool   `json:"profileUpdated"`
	ShouldRedirectToRestaurant bool   `json:"shouldRedirectToRestaurant"`
	RestaurantID               string `json:"restaurantId,omitempty"`
	RedirectURL                string `json:"redirectUrl,omitempty"`
}

// RestaurantQueryParam carries restaurant context through the login screen and the entry route.
const RestaurantQueryParam = "restaurantId"

// Routes holds the application paths the decision engine chooses between.
// EmbeddedMenu and BrowserMenu must contain a single "{id}" placeholder.
type Routes struct {
	Login         string
	RoleSelection string
	Landing       string
	EmbeddedMenu  string
	BrowserMenu   string
}

// DefaultRoutes returns the routes served by the gateway.
func DefaultRoutes() Routes {
	return Routes{
		Login:         "/login",
		RoleSelection: "/select-role",
		Landing:       "/",
		EmbeddedMenu:  "/liff/restaurants/{id}",
		BrowserMenu:   "/restaurants/{id}/menu",
	}
}

// DecisionInput groups the inputs of Decide.
type DecisionInput struct {
	Identity *ResolvedIdentity
	Env      Environment
	Hint     *RedirectHint
	// RestaurantID is the explicit restaurant context supplied by the caller, if any.
	RestaurantID string
}

// Decide computes the next navigation target. It is pure; first match wins:
// no identity, new user, restaurant context, default landing.
func (r Routes) Decide(in DecisionInput) RedirectTarget {
	if in.Identity == nil {
		return RedirectTarget{URL: r.loginURL(in.RestaurantID, ""), Reason: ReasonLoginRequired}
	}

	if in.Identity.IsNewUser || (in.Hint != nil && in.Hint.IsNewUser) {
		return RedirectTarget{URL: r.RoleSelection, Reason: ReasonNewUser}
	}

	if id := restaurantFor(in); id != "" {
		return RedirectTarget{URL: r.MenuURL(id, in.Env.Embedded), Reason: ReasonRestaurantContext}
	}

	return RedirectTarget{URL: r.Landing, Reason: ReasonAlreadyAuthenticated}
}

// Failure builds the fatal-error target: the manual login screen annotated with the error kind.
func (r Routes) Failure(kind ErrorKind, restaurantID string) RedirectTarget {
	return RedirectTarget{URL: r.loginURL(restaurantID, string(kind)), Reason: ReasonFatalError}
}

// MenuURL returns the restaurant menu entry point; only the entry route differs between
// embedded and browser contexts.
func (r Routes) MenuURL(restaurantID string, embedded bool) string {
	tmpl := r.BrowserMenu
	if embedded {
		tmpl = r.EmbeddedMenu
	}
	return strings.Replace(tmpl, "{id}", url.PathEscape(restaurantID), 1)
}

func (r Routes) loginURL(restaurantID, errKind string) string {
	q := url.Values{}
	if restaurantID != "" {
		q.Set(RestaurantQueryParam, restaurantID)
	}
	if errKind != "" {
		q.Set("error", errKind)
	}
	if len(q) == 0 {
		return r.Login
	}
	return r.Login + "?" + q.Encode()
}

func restaurantFor(in DecisionInput) string {
	if in.Hint != nil && in.Hint.ShouldRedirectToRestaurant && in.Hint.RestaurantID != "" {
		return in.Hint.RestaurantID
	}
	return in.RestaurantID
}
