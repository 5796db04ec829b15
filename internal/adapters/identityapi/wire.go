// Package identityapi is the client side of the gateway's identity API (/api/session, /api/login).
// The wire types here are shared with the HTTP handlers that serve them.
package identityapi

import (
	domainauth "github.com/target/food-identity-gateway/internal/domain/auth"
)

// User is the user object of session and login responses.
type User struct {
	ID             string          `json:"id"`
	DisplayName    string          `json:"displayName"`
	PictureURL     string          `json:"pictureUrl,omitempty"`
	Role           domainauth.Role `json:"role"`
	IsNewUser      bool            `json:"isNewUser"`
	EmbeddedOrigin bool            `json:"embeddedOrigin"`
}

// UserFromIdentity converts a resolved identity into its wire form.
func UserFromIdentity(id domainauth.ResolvedIdentity) User {
	return User{
		ID:             id.UserID,
		DisplayName:    id.DisplayName,
		PictureURL:     id.PictureURL,
		Role:           id.Role,
		IsNewUser:      id.IsNewUser,
		EmbeddedOrigin: id.EmbeddedOrigin,
	}
}

func (u User) identity(src domainauth.Source) domainauth.ResolvedIdentity {
	return domainauth.ResolvedIdentity{
		Source:         src,
		UserID:         u.ID,
		DisplayName:    u.DisplayName,
		PictureURL:     u.PictureURL,
		Role:           u.Role,
		IsNewUser:      u.IsNewUser,
		EmbeddedOrigin: u.EmbeddedOrigin,
	}
}

// SessionResponse is the body of GET /session.
type SessionResponse struct {
	Authenticated bool  `json:"authenticated"`
	User          *User `json:"user,omitempty"`
}

// LoginRequest is the body of POST /login.
type LoginRequest struct {
	AccessToken  string `json:"accessToken"`
	RestaurantID string `json:"restaurantId,omitempty"`
}

// LoginResponse is the body of POST /login.
type LoginResponse struct {
	Success                    bool   `json:"success"`
	User                       *User  `json:"user,omitempty"`
	IsNewUser                  bool   `json:"isNewUser"`
	ProfileUpdated             bool   `json:"profileUpdated"`
	ShouldRedirectToRestaurant bool   `json:"shouldRedirectToRestaurant"`
	RestaurantID               string `json:"restaurantId,omitempty"`
	RedirectURL                string `json:"redirectUrl,omitempty"`
	Error                      string `json:"error,omitempty"`
}

// Hint extracts the redirect hint.
func (r LoginResponse) Hint() domainauth.RedirectHint {
	return domainauth.RedirectHint{
		IsNewUser:                  r.IsNewUser,
		ProfileUpdated:             r.ProfileUpdated,
		ShouldRedirectToRestaurant: r.ShouldRedirectToRestaurant,
		RestaurantID:               r.RestaurantID,
		RedirectURL:                r.RedirectURL,
	}
}
