package auth

// Package auth contains simple hand-written test doubles for identity ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	domainauth "github.com/target/food-identity-gateway/internal/domain/auth"
	"github.com/target/food-identity-gateway/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.AuthProvider        = (*MockAuthProvider)(nil)
	_ ports.TokenVerifier       = (*MockTokenVerifier)(nil)
	_ ports.SessionStore        = (*MemorySessionStore)(nil)
	_ ports.UserRepository      = (*MemoryUserRepository)(nil)
	_ ports.RestaurantDirectory = (*StaticRestaurantDirectory)(nil)
	_ ports.RoleMapper          = StaticRoleMapper{}
)

// DefaultIdentity is the platform user returned by the doubles unless overridden.
func DefaultIdentity() domainauth.Identity {
	return domainauth.Identity{
		UserID:      "U0123456789abcdef0123456789abcdef",
		DisplayName: "Mock User",
		PictureURL:  "https://profile.example.com/mock.png",
		ExpiresAt:   time.Now().Add(time.Hour),
	}
}

// MockAuthProvider simulates the platform's OIDC login with deterministic state/nonce handling.
type MockAuthProvider struct {
	BeginFunc    func(ctx context.Context, in ports.BeginInput) (authURL, state, nonce string, err error)
	ExchangeFunc func(ctx context.Context, in ports.ExchangeInput) (domainauth.Identity, error)

	AuthURL     string
	StatePrefix string
	NoncePrefix string
	DefaultUser domainauth.Identity

	mu        sync.Mutex
	callCount int
}

// NewMockAuthProvider creates a MockAuthProvider with sensible defaults.
func NewMockAuthProvider() *MockAuthProvider {
	return &MockAuthProvider{
		AuthURL:     "https://access.line.example/oauth2/v2.1/authorize",
		StatePrefix: "state",
		NoncePrefix: "nonce",
		DefaultUser: DefaultIdentity(),
	}
}

func (m *MockAuthProvider) Begin(ctx context.Context, in ports.BeginInput) (string, string, string, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx, in)
	}

	m.mu.Lock()
	m.callCount++
	n := m.callCount
	m.mu.Unlock()

	authURL := m.AuthURL
	if authURL == "" {
		authURL = "https://access.line.example/oauth2/v2.1/authorize"
	}
	statePrefix := m.StatePrefix
	if statePrefix == "" {
		statePrefix = "state"
	}
	noncePrefix := m.NoncePrefix
	if noncePrefix == "" {
		noncePrefix = "nonce"
	}
	return authURL, fmt.Sprintf("%s-%d", statePrefix, n), fmt.Sprintf("%s-%d", noncePrefix, n), nil
}

func (m *MockAuthProvider) Exchange(ctx context.Context, in ports.ExchangeInput) (domainauth.Identity, error) {
	if m.ExchangeFunc != nil {
		return m.ExchangeFunc(ctx, in)
	}
	user := m.DefaultUser
	if user.UserID == "" {
		user = DefaultIdentity()
	}
	user.ExpiresAt = time.Now().Add(time.Hour)
	return user, nil
}

// MockTokenVerifier verifies tokens from a fixed table.
type MockTokenVerifier struct {
	VerifyFunc func(ctx context.Context, accessToken string) (domainauth.Identity, error)
	// Tokens maps accepted access tokens to their owners.
	Tokens map[string]domainauth.Identity

	mu    sync.Mutex
	calls []string
}

// ErrInvalidToken is returned by MockTokenVerifier for unknown tokens.
var ErrInvalidToken = errors.New("invalid access token")

func (m *MockTokenVerifier) Verify(ctx context.Context, accessToken string) (domainauth.Identity, error) {
	m.mu.Lock()
	m.calls = append(m.calls, accessToken)
	m.mu.Unlock()

	if m.VerifyFunc != nil {
		return m.VerifyFunc(ctx, accessToken)
	}
	id, ok := m.Tokens[accessToken]
	if !ok {
		return domainauth.Identity{}, ErrInvalidToken
	}
	return id, nil
}

// Calls returns the tokens passed to Verify.
func (m *MockTokenVerifier) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// MemorySessionStore is an in-memory session store for unit tests.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]domainauth.Session
}

// NewMemorySessionStore creates a new in-memory session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]domainauth.Session)}
}

func (m *MemorySessionStore) Save(_ context.Context, sess domainauth.Session) error {
	if sess.ID == "" {
		return errors.New("session ID cannot be empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sess.ID] = sess
	return nil
}

func (m *MemorySessionStore) Get(_ context.Context, id string) (domainauth.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[id]
	if id == "" || !ok {
		return domainauth.Session{}, ports.ErrSessionNotFound
	}
	return sess, nil
}

func (m *MemorySessionStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// Len returns the number of stored sessions.
func (m *MemorySessionStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// ErrNotFound is returned by mocks when an entity is not present.
type notFoundError struct{}

func (notFoundError) Error() string { return "not found" }

var ErrNotFound error = notFoundError{}

// MemoryUserRepository keeps users in memory keyed by platform user id.
type MemoryUserRepository struct {
	mu     sync.Mutex
	byID   map[string]domainauth.User
	byLine map[string]string
	Now    func() time.Time
}

// NewMemoryUserRepository creates an empty repository.
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		byID:   make(map[string]domainauth.User),
		byLine: make(map[string]string),
		Now:    time.Now,
	}
}

func (m *MemoryUserRepository) UpsertByLineID(_ context.Context, id domainauth.Identity) (ports.UpsertResult, error) {
	if id.UserID == "" {
		return ports.UpsertResult{}, errors.New("line user id is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.Now()

	if uid, ok := m.byLine[id.UserID]; ok {
		u := m.byID[uid]
		updated := u.DisplayName != id.DisplayName || u.PictureURL != id.PictureURL || u.StatusMessage != id.StatusMessage
		u.DisplayName, u.PictureURL, u.StatusMessage = id.DisplayName, id.PictureURL, id.StatusMessage
		u.LastLoginAt = now
		if updated {
			u.UpdatedAt = now
		}
		m.byID[uid] = u
		return ports.UpsertResult{User: u, ProfileUpdated: updated}, nil
	}

	u := domainauth.User{
		ID:            uuid.NewString(),
		LineUserID:    id.UserID,
		DisplayName:   id.DisplayName,
		PictureURL:    id.PictureURL,
		StatusMessage: id.StatusMessage,
		CreatedAt:     now,
		UpdatedAt:     now,
		LastLoginAt:   now,
	}
	m.byID[u.ID] = u
	m.byLine[id.UserID] = u.ID
	return ports.UpsertResult{User: u, Created: true}, nil
}

func (m *MemoryUserRepository) GetByID(_ context.Context, id string) (domainauth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return domainauth.User{}, ErrNotFound
	}
	return u, nil
}

func (m *MemoryUserRepository) SetRole(_ context.Context, id string, role domainauth.Role) (domainauth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return domainauth.User{}, ErrNotFound
	}
	u.Role = role
	u.UpdatedAt = m.Now()
	m.byID[id] = u
	return u, nil
}

// StaticRestaurantDirectory knows a fixed set of restaurants.
type StaticRestaurantDirectory struct {
	IDs map[string]bool
	Err error
}

func (d *StaticRestaurantDirectory) Exists(_ context.Context, id string) (bool, error) {
	if d.Err != nil {
		return false, d.Err
	}
	return d.IDs[id], nil
}

// StaticRoleMapper returns the stored role, or Guest when none has been selected.
// Admins lists platform user ids that are always admins.
type StaticRoleMapper struct {
	Admins []string
}

func (m StaticRoleMapper) Map(user domainauth.User) domainauth.Role {
	for _, a := range m.Admins {
		if a != "" && a == user.LineUserID {
			return domainauth.RoleAdmin
		}
	}
	if user.Role.Valid() {
		return user.Role
	}
	return domainauth.RoleGuest
}
