package httpx

import (
	"log/slog"
	"net/http"

	"github.com/target/food-identity-gateway/internal/adapters/identityapi"
	apperrors "github.com/target/food-identity-gateway/internal/errors"
	"github.com/target/food-identity-gateway/internal/service"
)

// IdentityAPIHandlers serves the identity API the orchestrator talks to: /api/session and /api/login.
type IdentityAPIHandlers struct {
	Svc     AuthServiceInterface
	Cookies Cookies
	Logger  *slog.Logger
}

func (h *IdentityAPIHandlers) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// Session reports the current server session.
// GET /api/session.
func (h *IdentityAPIHandlers) Session(w http.ResponseWriter, r *http.Request) {
	id := cookieValue(r, SessionCookieName)
	if id == "" {
		WriteJSON(w, http.StatusUnauthorized, identityapi.SessionResponse{Authenticated: false})
		return
	}
	sess, err := h.Svc.GetSession(r.Context(), id)
	if err != nil {
		h.Cookies.Clear(w, r, SessionCookieName)
		WriteJSON(w, http.StatusUnauthorized, identityapi.SessionResponse{Authenticated: false})
		return
	}
	user := identityapi.UserFromIdentity(sess.Identity())
	WriteJSON(w, http.StatusOK, identityapi.SessionResponse{Authenticated: true, User: &user})
}

// DeleteSession logs out.
// DELETE /api/session.
func (h *IdentityAPIHandlers) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if id := cookieValue(r, SessionCookieName); id != "" {
		if err := h.Svc.Logout(r.Context(), id); err != nil {
			h.logger().ErrorContext(r.Context(), "logout failed", "error", err)
			WriteAppError(w, apperrors.Wrap(err, apperrors.ErrCodeInternal, "logout failed"))
			return
		}
	}
	h.Cookies.Clear(w, r, SessionCookieName)
	h.Cookies.Clear(w, r, AutoLoginCookieName)
	w.WriteHeader(http.StatusNoContent)
}

// Login exchanges a client-SDK access token for a server session.
// POST /api/login {accessToken, restaurantId?}.
func (h *IdentityAPIHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req identityapi.LoginRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	res, err := h.Svc.LoginWithAccessToken(r.Context(), service.LoginInput{
		AccessToken:  req.AccessToken,
		RestaurantID: req.RestaurantID,
	})
	if err != nil {
		status := apperrors.HTTPStatus(err)
		if status >= http.StatusInternalServerError {
			h.logger().ErrorContext(r.Context(), "token login failed", "error", err)
		} else {
			h.logger().InfoContext(r.Context(), "token login rejected", "status", status, "error", err)
		}
		WriteJSON(w, status, identityapi.LoginResponse{Success: false, Error: apperrors.PublicMessage(err)})
		return
	}

	h.Cookies.SetSession(w, r, res.Session)
	user := identityapi.UserFromIdentity(res.Session.Identity())
	WriteJSON(w, http.StatusOK, identityapi.LoginResponse{
		Success:                    true,
		User:                       &user,
		IsNewUser:                  res.Hint.IsNewUser,
		ProfileUpdated:             res.Hint.ProfileUpdated,
		ShouldRedirectToRestaurant: res.Hint.ShouldRedirectToRestaurant,
		RestaurantID:               res.Hint.RestaurantID,
		RedirectURL:                res.Hint.RedirectURL,
	})
}
