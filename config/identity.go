package config

import (
	"strings"
	"time"
)

// IdentityConfig controls the per-page-load identity resolution attempt.
type IdentityConfig struct {
	// SDKAppID is the client SDK app id, "<channel id>-<suffix>".
	SDKAppID string `env:"SDK_APP_ID,required"`

	// FallbackTimeout bounds a whole attempt; expiry routes to the manual login screen.
	FallbackTimeout    time.Duration `env:"FALLBACK_TIMEOUT"      envDefault:"3s"`
	SDKMaxLoadAttempts int           `env:"SDK_MAX_LOAD_ATTEMPTS" envDefault:"3"`
	SDKLoadRetryDelay  time.Duration `env:"SDK_LOAD_RETRY_DELAY"  envDefault:"500ms"`
	SDKInitBackoff     time.Duration `env:"SDK_INIT_BACKOFF"      envDefault:"1s"`

	// APIBaseURL is the identity API root. Empty means APP_BASE_URL + "/api".
	APIBaseURL string        `env:"API_BASE_URL" envDefault:"http://localhost:8080/api"`
	APITimeout time.Duration `env:"API_TIMEOUT"  envDefault:"10s"`

	// SDKLoginBase hosts the client app login URLs.
	SDKLoginBase        string `env:"SDK_LOGIN_BASE"        envDefault:"https://liff.line.me"`
	EmbeddedUASignature string `env:"EMBEDDED_UA_SIGNATURE" envDefault:"Line/"`
}

// Sanitize clamps timings and trims URLs.
func (c *IdentityConfig) Sanitize() {
	c.SDKAppID = strings.TrimSpace(c.SDKAppID)
	c.APIBaseURL = strings.TrimSuffix(strings.TrimSpace(c.APIBaseURL), "/")
	c.SDKLoginBase = strings.TrimSuffix(strings.TrimSpace(c.SDKLoginBase), "/")

	if c.FallbackTimeout <= 0 {
		c.FallbackTimeout = 3 * time.Second
	}
	if c.SDKMaxLoadAttempts < 1 {
		c.SDKMaxLoadAttempts = 1
	}
	if c.SDKMaxLoadAttempts > 10 {
		c.SDKMaxLoadAttempts = 10
	}
	if c.SDKLoadRetryDelay < 0 {
		c.SDKLoadRetryDelay = 0
	}
	if c.SDKInitBackoff < 0 {
		c.SDKInitBackoff = 0
	}
	if c.APITimeout <= 0 {
		c.APITimeout = 10 * time.Second
	}
	if c.EmbeddedUASignature == "" {
		c.EmbeddedUASignature = "Line/"
	}
}
