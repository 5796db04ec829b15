package ports

// Package ports defines interfaces (hexagonal ports) for identity-related behavior.
// Implementations live in internal/adapters; orchestration in internal/service.

import (
	"context"
	"errors"

	domainauth "github.com/target/food-identity-gateway/internal/domain/auth"
)

// BeginInput carries inputs for initiating the manual (browser) login flow.
type BeginInput struct {
	RedirectURL string
}

// AuthProvider initiates and completes the manual login flow against the platform's OIDC endpoint.
type AuthProvider interface {
	// Begin starts the login flow and returns the provider auth URL, an opaque state, and a nonce.
	Begin(ctx context.Context, in BeginInput) (authURL, state, nonce string, err error)

	// Exchange completes the login flow, verifying state and nonce, and returns the authenticated identity.
	Exchange(ctx context.Context, in ExchangeInput) (domainauth.Identity, error)
}

// ExchangeInput groups parameters for the code/token exchange.
type ExchangeInput struct {
	Code  string
	State string
	Nonce string
}

// TokenVerifier verifies a client-SDK access token with the platform and returns its owner.
type TokenVerifier interface {
	Verify(ctx context.Context, accessToken string) (domainauth.Identity, error)
}

var (
	// ErrSessionNotFound is returned by SessionStore.Get for unknown or expired sessions.
	ErrSessionNotFound = errors.New("session not found")
	// ErrPlatformUnavailable means the messaging platform could not be reached. Verifiers wrap it.
	ErrPlatformUnavailable = errors.New("identity platform unavailable")
)

// SessionStore persists and retrieves user sessions.
type SessionStore interface {
	Save(ctx context.Context, sess domainauth.Session) error
	Get(ctx context.Context, id string) (domainauth.Session, error)
	Delete(ctx context.Context, id string) error
}

// UpsertResult reports how an upsert changed the stored user.
type UpsertResult struct {
	User           domainauth.User
	Created        bool
	ProfileUpdated bool
}

// UserRepository stores platform users.
type UserRepository interface {
	UpsertByLineID(ctx context.Context, identity domainauth.Identity) (UpsertResult, error)
	GetByID(ctx context.Context, id string) (domainauth.User, error)
	SetRole(ctx context.Context, id string, role domainauth.Role) (domainauth.User, error)
}

// RestaurantDirectory is the catalog service as seen by identity resolution.
type RestaurantDirectory interface {
	Exists(ctx context.Context, restaurantID string) (bool, error)
}

// RoleMapper maps a stored user to the application role carried by the session.
type RoleMapper interface {
	Map(user domainauth.User) domainauth.Role
}
