package liff

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/food-identity-gateway/internal/adapters/line"
	"github.com/target/food-identity-gateway/internal/ports"
)

const (
	testChannel = "1234567890"
	testAppID   = "1234567890-AbCdEfGh"
)

type stubPlatform struct {
	info        line.TokenInfo
	verifyErr   error
	profile     ports.Profile
	verifyCalls int
}

func (p *stubPlatform) VerifyToken(context.Context, string) (line.TokenInfo, error) {
	p.verifyCalls++
	return p.info, p.verifyErr
}

func (p *stubPlatform) Profile(context.Context, string) (ports.Profile, error) {
	return p.profile, nil
}

func TestSDK_Init(t *testing.T) {
	ctx := context.Background()
	cfg := Config{Client: &stubPlatform{}, ChannelID: testChannel}

	sdk := NewSDK(cfg, "", "")
	require.NoError(t, sdk.Init(ctx, ports.SDKConfig{AppID: testAppID}))
	assert.ErrorIs(t, sdk.Init(ctx, ports.SDKConfig{AppID: testAppID}), ports.ErrSDKAlreadyInitialized)

	other := NewSDK(cfg, "", "")
	assert.ErrorIs(t, other.Init(ctx, ports.SDKConfig{AppID: "9999999999-AbCdEfGh"}), ports.ErrSDKInvalidAppID)
	assert.ErrorIs(t, other.Init(ctx, ports.SDKConfig{AppID: "nope"}), ports.ErrSDKInvalidAppID)
}

func TestSDK_IsLoggedIn(t *testing.T) {
	tests := []struct {
		name     string
		token    string
		platform *stubPlatform
		want     bool
		wantErr  error
	}{
		{"no token", "", &stubPlatform{}, false, nil},
		{"live token", "tok", &stubPlatform{info: line.TokenInfo{ClientID: testChannel, ExpiresIn: 60}}, true, nil},
		{"other channel", "tok", &stubPlatform{info: line.TokenInfo{ClientID: "1", ExpiresIn: 60}}, false, nil},
		{"expired", "tok", &stubPlatform{info: line.TokenInfo{ClientID: testChannel}}, false, nil},
		{"rejected", "tok", &stubPlatform{verifyErr: &line.APIError{Status: http.StatusBadRequest}}, false, nil},
		{"outage", "tok", &stubPlatform{verifyErr: line.ErrUpstream}, false, ports.ErrSDKNetwork},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sdk := NewSDK(Config{Client: tt.platform, ChannelID: testChannel}, tt.token, "")
			got, err := sdk.IsLoggedIn(context.Background())
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSDK_IsLoggedIn_CachesVerdict(t *testing.T) {
	p := &stubPlatform{info: line.TokenInfo{ClientID: testChannel, ExpiresIn: 60}}
	sdk := NewSDK(Config{Client: p, ChannelID: testChannel}, "tok", "")
	for range 3 {
		ok, err := sdk.IsLoggedIn(context.Background())
		require.NoError(t, err)
		assert.True(t, ok)
	}
	assert.Equal(t, 1, p.verifyCalls)
}

func TestSDK_Login(t *testing.T) {
	ctx := context.Background()
	sdk := NewSDK(Config{Client: &stubPlatform{}, ChannelID: testChannel}, "", "")

	_, err := sdk.Login(ctx, ports.LoginOptions{})
	require.Error(t, err, "login requires init")

	require.NoError(t, sdk.Init(ctx, ports.SDKConfig{AppID: testAppID}))
	raw, err := sdk.Login(ctx, ports.LoginOptions{RedirectURI: "https://food.example/entry?restaurantId=7"})
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "liff.line.me", u.Host)
	assert.Equal(t, "/"+testAppID, u.Path)
	assert.Equal(t, "/entry?restaurantId=7", u.Query().Get("liff.state"))
}

func TestSDK_IsInClient(t *testing.T) {
	cfg := Config{Client: &stubPlatform{}}
	in, _ := NewSDK(cfg, "", "Mozilla/5.0 Line/13.20.0").IsInClient(context.Background())
	assert.True(t, in)
	in, _ = NewSDK(cfg, "", "Mozilla/5.0 Chrome/120").IsInClient(context.Background())
	assert.False(t, in)
}

func TestFetcher(t *testing.T) {
	_, err := (&Fetcher{}).Fetch(context.Background())
	assert.True(t, errors.Is(err, ports.ErrSDKUnavailable))

	r := httptest.NewRequest(http.MethodGet, "/entry", nil)
	r.AddCookie(&http.Cookie{Name: TokenCookie, Value: "from-cookie"})
	assert.Equal(t, "from-cookie", TokenFromRequest(r))

	r.Header.Set(TokenHeader, "from-header")
	r.Header.Set("User-Agent", "Line/13.0")
	f := FetcherFromRequest(Config{Client: &stubPlatform{}}, r)
	assert.Equal(t, "from-header", f.Token)

	sdk, err := f.Fetch(context.Background())
	require.NoError(t, err)
	tok, _ := sdk.GetAccessToken(context.Background())
	assert.Equal(t, "from-header", tok)
}
