package auth

// Package auth contains domain-level types for identity resolution and sessions.
// It is pure and free of framework/adapter concerns.

import "time"

// Role represents an application's authorization role.
// Keep string form for easy persistence and cookies.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleRestaurant Role = "restaurant"
	RoleCustomer   Role = "customer"
	// RoleGuest is held by users who have not picked a role yet.
	RoleGuest Role = "guest"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleRestaurant, RoleCustomer, RoleGuest:
		return true
	default:
		return false
	}
}

// Selectable reports whether a new user may pick r on the role-selection screen.
func (r Role) Selectable() bool {
	return r == RoleCustomer || r == RoleRestaurant
}

// Source identifies where a ResolvedIdentity came from.
type Source string

const (
	SourceSession Source = "session"
	SourceSDK     Source = "sdk"
)

// Identity is the profile returned by the messaging platform after an access token
// or an OIDC code has been verified. Adapters map provider-specific claims into this shape.
type Identity struct {
	UserID        string // platform user id (LINE "sub")
	DisplayName   string
	PictureURL    string
	StatusMessage string
	ExpiresAt     time.Time // absolute expiry of the verified token
}

// ResolvedIdentity is the identity of record for one page load.
// Values are never mutated, only replaced.
type ResolvedIdentity struct {
	Source         Source `json:"source"`
	UserID         string `json:"userId"`
	DisplayName    string `json:"displayName"`
	PictureURL     string `json:"pictureUrl,omitempty"`
	Role           Role   `json:"role"`
	IsNewUser      bool   `json:"isNewUser"`
	EmbeddedOrigin bool   `json:"embeddedOrigin"`
	// RawAccessToken is only set for SourceSDK and is never persisted.
	RawAccessToken string `json:"-"`
}

// Session is the server-side record we persist for an authenticated user.
// ID is an opaque session identifier.
type Session struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	LineUserID     string    `json:"line_user_id"`
	DisplayName    string    `json:"display_name"`
	PictureURL     string    `json:"picture_url,omitempty"`
	Role           Role      `json:"role"`
	IsNewUser      bool      `json:"is_new_user"`
	EmbeddedOrigin bool      `json:"embedded_origin"`
	ExpiresAt      time.Time `json:"expires_at"`
}

// IsGuest returns true if the session role is guest.
func (s Session) IsGuest() bool { return s.Role == RoleGuest }

// Identity converts the session into a session-sourced ResolvedIdentity.
func (s Session) Identity() ResolvedIdentity {
	return ResolvedIdentity{
		Source:         SourceSession,
		UserID:         s.UserID,
		DisplayName:    s.DisplayName,
		PictureURL:     s.PictureURL,
		Role:           s.Role,
		IsNewUser:      s.IsNewUser,
		EmbeddedOrigin: s.EmbeddedOrigin,
	}
}

// User is the persisted account for a platform user.
type User struct {
	ID            string    `db:"id"`
	LineUserID    string    `db:"line_user_id"`
	DisplayName   string    `db:"display_name"`
	PictureURL    string    `db:"picture_url"`
	StatusMessage string    `db:"status_message"`
	Role          Role      `db:"role"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
	LastLoginAt   time.Time `db:"last_login_at"`
}

// NeedsRoleSelection reports whether the user still has to choose a role.
func (u User) NeedsRoleSelection() bool { return u.Role == RoleGuest || u.Role == "" }
