package config

import (
	"os"
	"strings"
)

// AppConfig is the gateway configuration, composed from one struct per concern.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See the individual files for the
// available variables:
//   - identity.go: identity resolution and client SDK settings
//   - auth.go: platform login, dev auth and sessions
//   - database.go: PostgreSQL and Redis
//   - http.go: HTTP server
//   - observability.go: logging and metrics
type AppConfig struct {
	// IsDev enables development behavior such as the dev login stand-in.
	// Set DEV=true or NODE_ENV=development.
	IsDev bool `env:"DEV" envDefault:"false"`

	Identity IdentityConfig `envPrefix:"IDENTITY_"`
	Auth     AuthConfig

	Postgres DBConfig    `envPrefix:"DB_"`
	Redis    RedisConfig `envPrefix:"REDIS_"`

	HTTP          HTTPConfig
	Observability ObservabilityConfig
}

// Sanitize applies guardrails to configuration values loaded from env.
// Call it after parsing.
func (c *AppConfig) Sanitize() {
	c.Identity.Sanitize()
	c.Auth.Sanitize()
	c.HTTP.Sanitize()
	c.Observability.Sanitize()

	c.detectDevMode()
}

// detectDevMode falls back to NODE_ENV when DEV is unset, since the client app tooling sets it.
func (c *AppConfig) detectDevMode() {
	if !c.IsDev {
		nodeEnv := strings.ToLower(os.Getenv("NODE_ENV"))
		c.IsDev = nodeEnv == "development" || nodeEnv == "dev"
	}
}

// APIBaseURL returns the identity API root the entry route calls, defaulting to the
// gateway's own /api.
func (c *AppConfig) APIBaseURL() string {
	if c.Identity.APIBaseURL != "" {
		return c.Identity.APIBaseURL
	}
	return strings.TrimSuffix(c.HTTP.BaseURL, "/") + "/api"
}
