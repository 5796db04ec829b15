package config

import (
	"fmt"
	"strings"
	"time"
)

// AuthMode represents the authentication mode for the application.
type AuthMode string

const (
	// AuthModeLine verifies identities against the LINE Platform.
	AuthModeLine AuthMode = "line"
	// AuthModeMock uses the dev identity (for development only).
	AuthModeMock AuthMode = "mock"
)

// UnmarshalText implements encoding.TextUnmarshaler for AuthMode.
func (a *AuthMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(string(text))
	switch v {
	case "line", "mock":
		*a = AuthMode(v)
		return nil
	default:
		return fmt.Errorf("invalid AuthMode: %q (valid options: line, mock)", v)
	}
}

// OAuthConfig configures LINE Login (OIDC) for the manual login screen.
// Manual login is disabled when ChannelSecret is empty.
type OAuthConfig struct {
	ChannelSecret string `env:"CHANNEL_SECRET"`
	RedirectURL   string `env:"REDIRECT_URL"   envDefault:"http://localhost:8080/auth/callback"`
	Scope         string `env:"SCOPE"          envDefault:"openid profile"`
	DiscoveryURL  string `env:"DISCOVERY_URL"  envDefault:"https://access.line.me"`
	BotPrompt     string `env:"BOT_PROMPT"`
}

// DevAuthConfig controls the dev identity used when AUTH_MODE=mock.
type DevAuthConfig struct {
	UserID      string `env:"USER_ID"      envDefault:"Udev000000000000000000000000000000"`
	DisplayName string `env:"DISPLAY_NAME" envDefault:"Dev Diner"`
	PictureURL  string `env:"PICTURE_URL"`
	AccessToken string `env:"ACCESS_TOKEN" envDefault:"dev-access-token"`
	// LoggedOut makes the dev SDK report a logged-out user.
	LoggedOut bool `env:"LOGGED_OUT" envDefault:"false"`
}

// AuthConfig groups all authentication-related configuration.
type AuthConfig struct {
	Mode AuthMode `env:"AUTH_MODE" envDefault:"line"`

	// ChannelID is the LINE Login channel; access tokens issued to other channels are rejected.
	ChannelID  string `env:"LINE_CHANNEL_ID"`
	APIBaseURL string `env:"LINE_API_BASE_URL" envDefault:"https://api.line.me"`

	OAuth   OAuthConfig   `envPrefix:"OAUTH_"`
	DevAuth DevAuthConfig `envPrefix:"DEV_AUTH_"`

	// AdminUserIDs are platform user ids that always receive the admin role.
	AdminUserIDs []string `env:"ADMIN_USER_IDS" envSeparator:","`

	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"168h"`

	LoginRateLimit    float64 `env:"LOGIN_RATE_LIMIT"    envDefault:"1"`
	LoginRateBurst    int     `env:"LOGIN_RATE_BURST"    envDefault:"5"`
	TrustForwardedFor bool    `env:"TRUST_FORWARDED_FOR" envDefault:"false"`
}

// Sanitize trims ids and clamps limits.
func (c *AuthConfig) Sanitize() {
	c.ChannelID = strings.TrimSpace(c.ChannelID)
	c.APIBaseURL = strings.TrimSuffix(strings.TrimSpace(c.APIBaseURL), "/")

	ids := c.AdminUserIDs[:0]
	for _, id := range c.AdminUserIDs {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	c.AdminUserIDs = ids

	if c.SessionTTL <= 0 {
		c.SessionTTL = 7 * 24 * time.Hour
	}
	if c.LoginRateLimit <= 0 {
		c.LoginRateLimit = 1
	}
	if c.LoginRateBurst < 1 {
		c.LoginRateBurst = 1
	}
}

// ManualLoginEnabled reports whether the LINE Login screen flow is configured.
func (c *AuthConfig) ManualLoginEnabled() bool {
	return c.Mode == AuthModeMock || (c.ChannelID != "" && c.OAuth.ChannelSecret != "")
}
