package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mockauth "github.com/target/food-identity-gateway/internal/mocks/auth"
	"github.com/target/food-identity-gateway/internal/ports"
)

func newTestLoader(fetcher ports.SDKFetcher, state *SDKState) *Loader {
	return NewLoader(LoaderOptions{Fetcher: fetcher, State: state, RetryDelay: time.Millisecond})
}

func TestLoader_Load(t *testing.T) {
	sdk := &mockauth.FakeClientSDK{}
	errFetch := errors.New("script blocked")

	tests := []struct {
		name         string
		fetch        func(ctx context.Context, attempt int) (ports.ClientSDK, error)
		maxAttempts  int
		wantSuccess  bool
		wantCalls    int
		wantUnavail  bool
		wantErrMatch string
	}{
		{
			name:        "first attempt succeeds",
			fetch:       func(context.Context, int) (ports.ClientSDK, error) { return sdk, nil },
			maxAttempts: 3,
			wantSuccess: true,
			wantCalls:   1,
		},
		{
			name: "succeeds on third attempt",
			fetch: func(_ context.Context, n int) (ports.ClientSDK, error) {
				if n < 3 {
					return nil, errFetch
				}
				return sdk, nil
			},
			maxAttempts: 3,
			wantSuccess: true,
			wantCalls:   3,
		},
		{
			name:         "gives up after max attempts",
			fetch:        func(context.Context, int) (ports.ClientSDK, error) { return nil, errFetch },
			maxAttempts:  3,
			wantCalls:    3,
			wantErrMatch: "after 3 attempt(s)",
		},
		{
			name:        "default attempts when non-positive",
			fetch:       func(context.Context, int) (ports.ClientSDK, error) { return nil, errFetch },
			maxAttempts: 0,
			wantCalls:   DefaultMaxLoadAttempts,
		},
		{
			name:        "unavailable is not retried",
			fetch:       func(context.Context, int) (ports.ClientSDK, error) { return nil, ports.ErrSDKUnavailable },
			maxAttempts: 3,
			wantCalls:   1,
			wantUnavail: true,
		},
		{
			name:        "nil handle counts as failure",
			fetch:       func(context.Context, int) (ports.ClientSDK, error) { return nil, nil },
			maxAttempts: 2,
			wantCalls:   2,
		},
		{
			name:        "panic counts as failure",
			fetch:       func(context.Context, int) (ports.ClientSDK, error) { panic("loader bug") },
			maxAttempts: 2,
			wantCalls:   2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fetcher := &mockauth.FakeSDKFetcher{FetchFunc: tt.fetch}
			state := NewSDKState(nil)
			res := newTestLoader(fetcher, state).Load(context.Background(), tt.maxAttempts)

			assert.Equal(t, tt.wantSuccess, res.Success)
			assert.Equal(t, tt.wantCalls, fetcher.Calls())
			assert.Equal(t, tt.wantUnavail, res.Unavailable)
			assert.Equal(t, tt.wantSuccess, state.Status().Loaded)
			if tt.wantErrMatch != "" {
				assert.Contains(t, res.Error, tt.wantErrMatch)
			}
		})
	}
}

func TestLoader_AlreadyLoadedSkipsFetch(t *testing.T) {
	fetcher := &mockauth.FakeSDKFetcher{}
	state := NewSDKState(&mockauth.FakeClientSDK{})

	res := newTestLoader(fetcher, state).Load(context.Background(), 3)
	require.True(t, res.Success)
	assert.Equal(t, 0, fetcher.Calls())
}

func TestLoader_NoFetcherIsUnavailable(t *testing.T) {
	res := newTestLoader(nil, nil).Load(context.Background(), 3)
	assert.False(t, res.Success)
	assert.True(t, res.Unavailable)
}

func TestLoader_StopsWhenContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	fetcher := &mockauth.FakeSDKFetcher{FetchFunc: func(context.Context, int) (ports.ClientSDK, error) {
		cancel()
		return nil, errors.New("offline")
	}}
	loader := NewLoader(LoaderOptions{Fetcher: fetcher, RetryDelay: time.Hour})

	done := make(chan LoadResult, 1)
	go func() { done <- loader.Load(ctx, 3) }()

	select {
	case res := <-done:
		assert.False(t, res.Success)
		assert.Equal(t, 1, fetcher.Calls())
	case <-time.After(2 * time.Second):
		t.Fatal("Load did not return after cancellation")
	}
}
