package auth

import (
	"errors"
	"fmt"
)

// State is a step of the identity orchestration state machine.
type State string

const (
	StateInit             State = "INIT"
	StateCheckingSession  State = "CHECKING_SESSION"
	StateAuthenticated    State = "AUTHENTICATED"
	StateCheckingEnv      State = "CHECKING_ENV"
	StateBrowserFlow      State = "BROWSER_FLOW"
	StateEmbeddedFlow     State = "EMBEDDED_FLOW"
	StateSDKLoading       State = "SDK_LOADING"
	StateSDKInit          State = "SDK_INIT"
	StateLoginCheck       State = "LOGIN_CHECK"
	StateAwaitingSDKLogin State = "AWAITING_SDK_LOGIN"
	StateExchangingToken  State = "EXCHANGING_TOKEN"
	StateResolved         State = "RESOLVED"
	StateFailed           State = "FAILED"
	StateRedirecting      State = "REDIRECTING"
	StateDone             State = "DONE"
)

// Terminal reports whether no further transition can leave s.
func (s State) Terminal() bool { return s == StateDone || s == StateFailed }

// Event drives a transition.
type Event string

const (
	EventStart             Event = "start"
	EventSessionFound      Event = "session_found"
	EventSessionAbsent     Event = "session_absent"
	EventBrowser           Event = "env_browser"
	EventEmbedded          Event = "env_embedded"
	EventLoadSDK           Event = "load_sdk"
	EventSDKLoaded         Event = "sdk_loaded"
	EventSDKInitialized    Event = "sdk_initialized"
	EventSDKUnavailable    Event = "sdk_unavailable"
	EventNotLoggedIn       Event = "not_logged_in"
	EventLoggedIn          Event = "logged_in"
	EventExchangeSucceeded Event = "exchange_succeeded"
	EventFailure           Event = "failure"
	EventFallbackTimeout   Event = "fallback_timeout"
	EventRedirect          Event = "redirect"
	EventNavigated         Event = "navigated"
)

// ErrInvalidTransition is returned when an event is not accepted in the current state.
var ErrInvalidTransition = errors.New("invalid state transition")

type transitionKey struct {
	from State
	ev   Event
}

var transitions = map[transitionKey]State{
	{StateInit, EventStart}: StateCheckingSession,

	{StateCheckingSession, EventSessionFound}:  StateAuthenticated,
	{StateCheckingSession, EventSessionAbsent}: StateCheckingEnv,
	{StateAuthenticated, EventRedirect}:        StateRedirecting,

	{StateCheckingEnv, EventBrowser}:  StateBrowserFlow,
	{StateCheckingEnv, EventEmbedded}: StateEmbeddedFlow,
	{StateBrowserFlow, EventRedirect}: StateRedirecting,

	{StateEmbeddedFlow, EventLoadSDK}:        StateSDKLoading,
	{StateEmbeddedFlow, EventSDKUnavailable}: StateBrowserFlow,

	{StateSDKLoading, EventSDKLoaded}:      StateSDKInit,
	{StateSDKLoading, EventFailure}:        StateFailed,
	{StateSDKLoading, EventSDKUnavailable}: StateBrowserFlow,

	{StateSDKInit, EventSDKInitialized}: StateLoginCheck,
	{StateSDKInit, EventFailure}:        StateFailed,
	{StateSDKInit, EventSDKUnavailable}: StateBrowserFlow,

	{StateLoginCheck, EventNotLoggedIn}:    StateAwaitingSDKLogin,
	{StateLoginCheck, EventLoggedIn}:       StateExchangingToken,
	{StateLoginCheck, EventSDKUnavailable}: StateBrowserFlow,
	{StateLoginCheck, EventFailure}:        StateFailed,

	{StateAwaitingSDKLogin, EventNavigated}:      StateDone,
	{StateAwaitingSDKLogin, EventSDKUnavailable}: StateBrowserFlow,

	{StateExchangingToken, EventExchangeSucceeded}: StateResolved,
	{StateExchangingToken, EventFailure}:           StateFailed,

	{StateResolved, EventRedirect}: StateRedirecting,

	{StateRedirecting, EventNavigated}: StateDone,
}

// fallbackSources are the states the fallback timer may interrupt: everything between the
// session check and a terminal state, except a redirect or platform login already underway.
var fallbackSources = map[State]bool{
	StateCheckingEnv:     true,
	StateEmbeddedFlow:    true,
	StateSDKLoading:      true,
	StateSDKInit:         true,
	StateLoginCheck:      true,
	StateExchangingToken: true,
	StateResolved:        true,
}

// Transition returns the state reached from s on ev. It is pure.
// Terminal states absorb every event without error, so re-entering a finished attempt is a no-op.
func Transition(s State, ev Event) (State, error) {
	if s.Terminal() {
		return s, nil
	}
	if ev == EventFallbackTimeout {
		if fallbackSources[s] {
			return StateRedirecting, nil
		}
		return s, fmt.Errorf("%w: %s on %s", ErrInvalidTransition, ev, s)
	}
	next, ok := transitions[transitionKey{from: s, ev: ev}]
	if !ok {
		return s, fmt.Errorf("%w: %s on %s", ErrInvalidTransition, ev, s)
	}
	return next, nil
}
