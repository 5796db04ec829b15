package auth

import (
	"context"
	"sync"
	"sync/atomic"

	domainauth "github.com/target/food-identity-gateway/internal/domain/auth"
	"github.com/target/food-identity-gateway/internal/ports"
)

var (
	_ ports.ClientSDK      = (*FakeClientSDK)(nil)
	_ ports.SDKFetcher     = (*FakeSDKFetcher)(nil)
	_ ports.SessionChecker = (*FakeSessionChecker)(nil)
	_ ports.TokenExchanger = (*FakeTokenExchanger)(nil)
	_ ports.Navigator      = (*RecordingNavigator)(nil)
)

// FakeClientSDK is a scriptable client SDK. Unset funcs succeed with the configured fields.
type FakeClientSDK struct {
	InitFunc           func(ctx context.Context, cfg ports.SDKConfig) error
	IsLoggedInFunc     func(ctx context.Context) (bool, error)
	LoginFunc          func(ctx context.Context, opts ports.LoginOptions) (string, error)
	GetAccessTokenFunc func(ctx context.Context) (string, error)
	GetProfileFunc     func(ctx context.Context) (ports.Profile, error)

	LoggedIn    bool
	AccessToken string
	LoginURL    string
	Profile     ports.Profile
	InClient    bool

	InitCalls  atomic.Int32
	LoginCalls atomic.Int32
}

func (f *FakeClientSDK) Init(ctx context.Context, cfg ports.SDKConfig) error {
	f.InitCalls.Add(1)
	if f.InitFunc != nil {
		return f.InitFunc(ctx, cfg)
	}
	return nil
}

func (f *FakeClientSDK) IsLoggedIn(ctx context.Context) (bool, error) {
	if f.IsLoggedInFunc != nil {
		return f.IsLoggedInFunc(ctx)
	}
	return f.LoggedIn, nil
}

func (f *FakeClientSDK) Login(ctx context.Context, opts ports.LoginOptions) (string, error) {
	f.LoginCalls.Add(1)
	if f.LoginFunc != nil {
		return f.LoginFunc(ctx, opts)
	}
	return f.LoginURL, nil
}

func (f *FakeClientSDK) GetAccessToken(ctx context.Context) (string, error) {
	if f.GetAccessTokenFunc != nil {
		return f.GetAccessTokenFunc(ctx)
	}
	return f.AccessToken, nil
}

func (f *FakeClientSDK) GetProfile(ctx context.Context) (ports.Profile, error) {
	if f.GetProfileFunc != nil {
		return f.GetProfileFunc(ctx)
	}
	return f.Profile, nil
}

func (f *FakeClientSDK) IsInClient(context.Context) (bool, error) { return f.InClient, nil }

// FakeSDKFetcher returns SDK, or the scripted FetchFunc result.
type FakeSDKFetcher struct {
	FetchFunc func(ctx context.Context, attempt int) (ports.ClientSDK, error)
	SDK       ports.ClientSDK

	calls atomic.Int32
}

func (f *FakeSDKFetcher) Fetch(ctx context.Context) (ports.ClientSDK, error) {
	n := int(f.calls.Add(1))
	if f.FetchFunc != nil {
		return f.FetchFunc(ctx, n)
	}
	return f.SDK, nil
}

// Calls returns the number of Fetch calls.
func (f *FakeSDKFetcher) Calls() int { return int(f.calls.Load()) }

// FakeSessionChecker returns Identity, optionally after a delay controlled by CheckFunc.
type FakeSessionChecker struct {
	CheckFunc func(ctx context.Context) *domainauth.ResolvedIdentity
	Identity  *domainauth.ResolvedIdentity

	calls atomic.Int32
}

func (f *FakeSessionChecker) Check(ctx context.Context) *domainauth.ResolvedIdentity {
	f.calls.Add(1)
	if f.CheckFunc != nil {
		return f.CheckFunc(ctx)
	}
	return f.Identity
}

// Calls returns the number of Check calls.
func (f *FakeSessionChecker) Calls() int { return int(f.calls.Load()) }

// FakeTokenExchanger records exchanged tokens and returns Result.
type FakeTokenExchanger struct {
	ExchangeFunc func(ctx context.Context, token string, ec ports.ExchangeContext) ports.ExchangeResult
	Result       ports.ExchangeResult

	mu     sync.Mutex
	tokens []string
}

func (f *FakeTokenExchanger) Exchange(ctx context.Context, token string, ec ports.ExchangeContext) ports.ExchangeResult {
	f.mu.Lock()
	f.tokens = append(f.tokens, token)
	f.mu.Unlock()
	if f.ExchangeFunc != nil {
		return f.ExchangeFunc(ctx, token, ec)
	}
	return f.Result
}

// Tokens returns the exchanged tokens in call order.
func (f *FakeTokenExchanger) Tokens() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.tokens...)
}

// RecordingNavigator records navigations.
type RecordingNavigator struct {
	Err error

	mu   sync.Mutex
	urls []string
}

func (n *RecordingNavigator) Navigate(_ context.Context, url string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.urls = append(n.urls, url)
	return n.Err
}

// URLs returns every navigation in order.
func (n *RecordingNavigator) URLs() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.urls...)
}
