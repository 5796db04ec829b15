package ports

import (
	"context"
	"errors"

	domainauth "github.com/target/food-identity-gateway/internal/domain/auth"
)

// SDKConfig is passed to ClientSDK.Init.
type SDKConfig struct {
	AppID string
}

// LoginOptions is passed to ClientSDK.Login.
type LoginOptions struct {
	// RedirectURI is where the platform returns the user after login.
	RedirectURI string
}

// Profile is the platform profile exposed by the client SDK.
type Profile struct {
	UserID        string `json:"userId"`
	DisplayName   string `json:"displayName"`
	PictureURL    string `json:"pictureUrl,omitempty"`
	StatusMessage string `json:"statusMessage,omitempty"`
}

// ClientSDK is the capability set of the embedded messaging client SDK.
// Every call is issued through the graceful wrapper, so implementations may fail freely.
type ClientSDK interface {
	Init(ctx context.Context, cfg SDKConfig) error
	IsLoggedIn(ctx context.Context) (bool, error)
	// Login returns the URL the page must navigate to. Navigating ends the current page load.
	Login(ctx context.Context, opts LoginOptions) (string, error)
	GetAccessToken(ctx context.Context) (string, error)
	GetProfile(ctx context.Context) (Profile, error)
	IsInClient(ctx context.Context) (bool, error)
}

// SDKFetcher fetches and attaches the client SDK for one page load.
type SDKFetcher interface {
	Fetch(ctx context.Context) (ClientSDK, error)
}

// Sentinel errors SDK implementations use so the initializer can classify init failures.
var (
	ErrSDKAlreadyInitialized = errors.New("sdk already initialized")
	ErrSDKInvalidAppID       = errors.New("invalid sdk app id")
	ErrSDKNetwork            = errors.New("sdk network error")

	// ErrSDKUnavailable means the host environment cannot provide the SDK at all.
	ErrSDKUnavailable = errors.New("sdk unavailable")
)

// Navigator commits a navigation. Implementations may assume at most one call per attempt.
type Navigator interface {
	Navigate(ctx context.Context, url string) error
}

// ExchangeContext is the context sent with a token exchange.
type ExchangeContext struct {
	RestaurantID string
}

// ExchangeResult is the tagged result of a token exchange.
type ExchangeResult struct {
	Success  bool
	Identity *domainauth.ResolvedIdentity
	Hint     domainauth.RedirectHint
	Status   int
	Error    string
}

// SessionChecker queries the server-side session. It returns nil when no session exists
// or the check failed; it never returns an error.
type SessionChecker interface {
	Check(ctx context.Context) *domainauth.ResolvedIdentity
}

// TokenExchanger submits a client-SDK access token to the backend.
type TokenExchanger interface {
	Exchange(ctx context.Context, accessToken string, ec ExchangeContext) ExchangeResult
}
