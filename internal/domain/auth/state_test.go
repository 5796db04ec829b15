package auth

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func walk(t *testing.T, events ...Event) State {
	t.Helper()
	s := StateInit
	for _, ev := range events {
		next, err := Transition(s, ev)
		require.NoError(t, err, "event %s from %s", ev, s)
		s = next
	}
	return s
}

func TestTransition_Paths(t *testing.T) {
	tests := []struct {
		name   string
		events []Event
		want   State
	}{
		{
			name:   "session short circuit",
			events: []Event{EventStart, EventSessionFound, EventRedirect, EventNavigated},
			want:   StateDone,
		},
		{
			name:   "browser flow",
			events: []Event{EventStart, EventSessionAbsent, EventBrowser, EventRedirect, EventNavigated},
			want:   StateDone,
		},
		{
			name: "embedded flow resolved",
			events: []Event{
				EventStart, EventSessionAbsent, EventEmbedded, EventLoadSDK, EventSDKLoaded,
				EventSDKInitialized, EventLoggedIn, EventExchangeSucceeded, EventRedirect, EventNavigated,
			},
			want: StateDone,
		},
		{
			name: "embedded flow awaits sdk login",
			events: []Event{
				EventStart, EventSessionAbsent, EventEmbedded, EventLoadSDK, EventSDKLoaded,
				EventSDKInitialized, EventNotLoggedIn, EventNavigated,
			},
			want: StateDone,
		},
		{
			name:   "sdk load failure",
			events: []Event{EventStart, EventSessionAbsent, EventEmbedded, EventLoadSDK, EventFailure},
			want:   StateFailed,
		},
		{
			name: "exchange failure",
			events: []Event{
				EventStart, EventSessionAbsent, EventEmbedded, EventLoadSDK, EventSDKLoaded,
				EventSDKInitialized, EventLoggedIn, EventFailure,
			},
			want: StateFailed,
		},
		{
			name: "sdk unavailable falls back to browser flow",
			events: []Event{
				EventStart, EventSessionAbsent, EventEmbedded, EventLoadSDK, EventSDKUnavailable, EventRedirect,
			},
			want: StateRedirecting,
		},
		{
			name:   "fallback timer during sdk init",
			events: []Event{EventStart, EventSessionAbsent, EventEmbedded, EventLoadSDK, EventSDKLoaded, EventFallbackTimeout},
			want:   StateRedirecting,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, walk(t, tt.events...))
		})
	}
}

func TestTransition_TerminalStatesAreIdempotent(t *testing.T) {
	all := []Event{
		EventStart, EventSessionFound, EventSessionAbsent, EventBrowser, EventEmbedded, EventLoadSDK,
		EventSDKLoaded, EventSDKInitialized, EventSDKUnavailable, EventNotLoggedIn, EventLoggedIn,
		EventExchangeSucceeded, EventFailure, EventFallbackTimeout, EventRedirect, EventNavigated,
	}
	for _, terminal := range []State{StateDone, StateFailed} {
		for _, ev := range all {
			next, err := Transition(terminal, ev)
			require.NoError(t, err)
			assert.Equal(t, terminal, next)
		}
	}
}

func TestTransition_Invalid(t *testing.T) {
	_, err := Transition(StateInit, EventRedirect)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidTransition))

	// The fallback timer cannot interrupt a redirect that is already underway.
	_, err = Transition(StateRedirecting, EventFallbackTimeout)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	// Nor can it interrupt a platform login that has started.
	_, err = Transition(StateAwaitingSDKLogin, EventFallbackTimeout)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	// A browser flow never reaches the SDK.
	_, err = Transition(StateBrowserFlow, EventLoadSDK)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestDisplayMessage(t *testing.T) {
	assert.Empty(t, DisplayMessage(ErrorSDKUnavailable, 0))
	assert.Contains(t, DisplayMessage(ErrorExchangeRejected, 401), "expired")
	assert.Contains(t, DisplayMessage(ErrorExchangeRejected, 429), "Too many")
	assert.NotEqual(t, DisplayMessage(ErrorExchangeRejected, 500), DisplayMessage(ErrorExchangeRejected, 400))

	fe := NewFlowError(ErrorFatalConfig, 0, "bad app id")
	assert.Equal(t, "fatal_config: bad app id", fe.Error())
	assert.NotEmpty(t, fe.Display)
	assert.True(t, ErrorSDKUnavailable.Silent())
}
