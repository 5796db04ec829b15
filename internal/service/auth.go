package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	domainauth "github.com/target/food-identity-gateway/internal/domain/auth"
	apperrors "github.com/target/food-identity-gateway/internal/errors"
	"github.com/target/food-identity-gateway/internal/ports"
)

// DefaultSessionTTL is the lifetime of a server session when none is configured.
const DefaultSessionTTL = 7 * 24 * time.Hour

// AuthServiceOptions groups dependencies for AuthService.
type AuthServiceOptions struct {
	// Provider drives the manual LINE Login flow. Optional.
	Provider ports.AuthProvider
	// Verifier checks access tokens forwarded by the embedded client SDK.
	Verifier    ports.TokenVerifier
	Sessions    ports.SessionStore
	Users       ports.UserRepository
	Restaurants ports.RestaurantDirectory
	Roles       ports.RoleMapper
	Routes      domainauth.Routes
	SessionTTL  time.Duration
	Logger      *slog.Logger
	Now         func() time.Time
}

// AuthService establishes server sessions from verified platform identities.
type AuthService struct {
	provider    ports.AuthProvider
	verifier    ports.TokenVerifier
	sessions    ports.SessionStore
	users       ports.UserRepository
	restaurants ports.RestaurantDirectory
	roles       ports.RoleMapper
	routes      domainauth.Routes
	ttl         time.Duration
	logger      *slog.Logger
	now         func() time.Time
}

var (
	errSessionExpired = errors.New("session expired")
	// ErrLoginUnavailable is returned by BeginLogin and CompleteLogin when no provider is configured.
	ErrLoginUnavailable = errors.New("manual login is not configured")
)

// NewAuthService constructs a new AuthService.
func NewAuthService(opts AuthServiceOptions) *AuthService {
	ttl := opts.SessionTTL
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	routes := opts.Routes
	if routes == (domainauth.Routes{}) {
		routes = domainauth.DefaultRoutes()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &AuthService{
		provider:    opts.Provider,
		verifier:    opts.Verifier,
		sessions:    opts.Sessions,
		users:       opts.Users,
		restaurants: opts.Restaurants,
		roles:       opts.Roles,
		routes:      routes,
		ttl:         ttl,
		logger:      logger.With("component", "auth_service"),
		now:         now,
	}
}

// LoginInput is the body of a token login.
type LoginInput struct {
	AccessToken  string
	RestaurantID string
}

// LoginResult is a freshly established session and where the user should go next.
type LoginResult struct {
	Session domainauth.Session
	Hint    domainauth.RedirectHint
}

// LoginWithAccessToken verifies an embedded-SDK access token, upserts the user and opens a session.
func (s *AuthService) LoginWithAccessToken(ctx context.Context, in LoginInput) (*LoginResult, error) {
	if in.AccessToken == "" {
		return nil, apperrors.ValidationField("accessToken", "access token is required")
	}
	if s.verifier == nil {
		return nil, apperrors.Wrap(ErrLoginUnavailable, apperrors.ErrCodeUnavailable, "token login is not configured")
	}

	identity, err := s.verifier.Verify(ctx, in.AccessToken)
	if err != nil {
		return nil, s.verifyError(ctx, err)
	}
	return s.establish(ctx, identity, in.RestaurantID, true)
}

// BeginLoginResult contains the result of beginning a login flow.
type BeginLoginResult struct {
	AuthURL string
	State   string
	Nonce   string
}

// BeginLogin initiates the manual LINE Login flow and returns the provider auth URL with state and nonce.
func (s *AuthService) BeginLogin(ctx context.Context, redirectURL string) (*BeginLoginResult, error) {
	if s.provider == nil {
		return nil, ErrLoginUnavailable
	}
	if redirectURL == "" {
		return nil, errors.New("redirect URL is required")
	}

	authURL, state, nonce, err := s.provider.Begin(ctx, ports.BeginInput{RedirectURL: redirectURL})
	if err != nil {
		return nil, fmt.Errorf("begin auth flow: %w", err)
	}
	return &BeginLoginResult{AuthURL: authURL, State: state, Nonce: nonce}, nil
}

// CompleteLoginInput groups parameters for completing a login flow.
type CompleteLoginInput struct {
	Code         string
	State        string
	Nonce        string
	RestaurantID string
}

// CompleteLogin exchanges the authorization code for an identity and opens a browser session.
func (s *AuthService) CompleteLogin(ctx context.Context, input CompleteLoginInput) (*LoginResult, error) {
	if s.provider == nil {
		return nil, ErrLoginUnavailable
	}
	if input.Code == "" {
		return nil, errors.New("authorization code is required")
	}
	if input.State == "" {
		return nil, errors.New("state parameter is required")
	}
	if input.Nonce == "" {
		return nil, errors.New("nonce parameter is required")
	}

	identity, err := s.provider.Exchange(ctx, ports.ExchangeInput{
		Code:  input.Code,
		State: input.State,
		Nonce: input.Nonce,
	})
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}
	return s.establish(ctx, identity, input.RestaurantID, false)
}

// GetSession retrieves a session by ID. Expired sessions are removed.
func (s *AuthService) GetSession(ctx context.Context, sessionID string) (*domainauth.Session, error) {
	if sessionID == "" {
		return nil, errors.New("session ID is required")
	}

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	if !s.now().Before(session.ExpiresAt) {
		if deleteErr := s.sessions.Delete(ctx, sessionID); deleteErr != nil {
			return nil, errors.Join(errSessionExpired, fmt.Errorf("delete session: %w", deleteErr))
		}
		return nil, errSessionExpired
	}
	return &session, nil
}

// Logout removes a session.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// SelectRole stores the role a new user picked and refreshes their session in place.
func (s *AuthService) SelectRole(ctx context.Context, sessionID string, role domainauth.Role) (*domainauth.Session, error) {
	if !role.Selectable() {
		return nil, apperrors.ValidationField("role", "role must be customer or restaurant")
	}
	sess, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, apperrors.Unauthorized("session required", err)
	}

	user, err := s.users.SetRole(ctx, sess.UserID, role)
	if err != nil {
		return nil, fmt.Errorf("set role: %w", err)
	}

	updated := *sess
	updated.Role = s.roles.Map(user)
	updated.IsNewUser = updated.Role == domainauth.RoleGuest
	if err := s.sessions.Save(ctx, updated); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	s.logger.InfoContext(ctx, "role selected", "user_id", user.ID, "role", updated.Role)
	return &updated, nil
}

// establish persists the user and a new session, then computes the redirect hint.
func (s *AuthService) establish(ctx context.Context, identity domainauth.Identity, restaurantID string, embedded bool) (*LoginResult, error) {
	up, err := s.users.UpsertByLineID(ctx, identity)
	if apperrors.IsConflict(err) {
		// A concurrent first login created the row between our read and insert.
		up, err = s.users.UpsertByLineID(ctx, identity)
	}
	if err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}

	role := s.roles.Map(up.User)
	sess := domainauth.Session{
		ID:             uuid.NewString(),
		UserID:         up.User.ID,
		LineUserID:     up.User.LineUserID,
		DisplayName:    up.User.DisplayName,
		PictureURL:     up.User.PictureURL,
		Role:           role,
		IsNewUser:      role == domainauth.RoleGuest,
		EmbeddedOrigin: embedded,
		ExpiresAt:      s.now().Add(s.ttl),
	}
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	restaurantID = s.knownRestaurant(ctx, restaurantID)
	identityOut := sess.Identity()
	target := s.routes.Decide(domainauth.DecisionInput{
		Identity:     &identityOut,
		Env:          domainauth.Environment{Embedded: embedded},
		RestaurantID: restaurantID,
	})
	hint := domainauth.RedirectHint{
		IsNewUser:                  sess.IsNewUser,
		ProfileUpdated:             up.ProfileUpdated,
		ShouldRedirectToRestaurant: target.Reason == domainauth.ReasonRestaurantContext,
		RestaurantID:               restaurantID,
		RedirectURL:                target.URL,
	}

	s.logger.InfoContext(ctx, "session established",
		"user_id", sess.UserID,
		"role", sess.Role,
		"created", up.Created,
		"embedded", embedded,
		"redirect_reason", target.Reason,
	)
	return &LoginResult{Session: sess, Hint: hint}, nil
}

// knownRestaurant drops restaurant context that does not resolve to an active restaurant.
func (s *AuthService) knownRestaurant(ctx context.Context, id string) string {
	if id == "" || s.restaurants == nil {
		return id
	}
	ok, err := s.restaurants.Exists(ctx, id)
	if err != nil {
		s.logger.WarnContext(ctx, "restaurant lookup failed; dropping restaurant context", "restaurant_id", id, "error", err)
		return ""
	}
	if !ok {
		s.logger.InfoContext(ctx, "unknown restaurant in login context", "restaurant_id", id)
		return ""
	}
	return id
}

func (s *AuthService) verifyError(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.Wrap(err, apperrors.ErrCodeTimeout, "token verification timed out")
	case errors.Is(err, context.Canceled):
		return apperrors.Wrap(err, apperrors.ErrCodeCanceled, "request was canceled")
	case errors.Is(err, ports.ErrPlatformUnavailable):
		s.logger.WarnContext(ctx, "platform unavailable during token verification", "error", err)
		return apperrors.Wrap(err, apperrors.ErrCodeUnavailable, "LINE is temporarily unavailable")
	default:
		return apperrors.Unauthorized("invalid access token", err)
	}
}
