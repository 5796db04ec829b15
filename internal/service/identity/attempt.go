package identity

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	domainauth "github.com/target/food-identity-gateway/internal/domain/auth"
)

// AttemptSnapshot is a copy of an AuthAttempt for logging and rendering.
type AttemptSnapshot struct {
	ID                  string                `json:"id"`
	StartedAt           time.Time             `json:"startedAt"`
	State               domainauth.State      `json:"state"`
	AutoLoginAttempted  bool                  `json:"autoLoginAttempted"`
	AutoLoginInProgress bool                  `json:"autoLoginInProgress"`
	RedirectFired       bool                  `json:"redirectFired"`
	LastErrorKind       *domainauth.ErrorKind `json:"lastErrorKind,omitempty"`
	LoadingMessage      string                `json:"loadingMessage"`
}

// AuthAttempt is the per-page-load record of one orchestration. Every field is written under mu;
// the embedded flow and the fallback timer both go through it.
type AuthAttempt struct {
	mu sync.Mutex

	id                  string
	startedAt           time.Time
	state               domainauth.State
	autoLoginAttempted  bool
	autoLoginInProgress bool
	redirectFired       bool
	lastErrorKind       *domainauth.ErrorKind
	loadingMessage      string

	onProgress   func(string)
	onTransition func(from, to domainauth.State, ev domainauth.Event)
}

func newAttempt(now time.Time, autoLoginAttempted bool) *AuthAttempt {
	return &AuthAttempt{
		id:                 uuid.NewString(),
		startedAt:          now,
		state:              domainauth.StateInit,
		autoLoginAttempted: autoLoginAttempted,
	}
}

// ID returns the attempt identifier.
func (a *AuthAttempt) ID() string { return a.id }

// State returns the current state.
func (a *AuthAttempt) State() domainauth.State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Snapshot returns a copy of the attempt.
func (a *AuthAttempt) Snapshot() AttemptSnapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	s := AttemptSnapshot{
		ID:                  a.id,
		StartedAt:           a.startedAt,
		State:               a.state,
		AutoLoginAttempted:  a.autoLoginAttempted,
		AutoLoginInProgress: a.autoLoginInProgress,
		RedirectFired:       a.redirectFired,
		LoadingMessage:      a.loadingMessage,
	}
	if a.lastErrorKind != nil {
		k := *a.lastErrorKind
		s.LastErrorKind = &k
	}
	return s
}

// advance applies ev. It reports false when the event was rejected, which is how the embedded
// flow learns that the fallback timer has taken over.
func (a *AuthAttempt) advance(ev domainauth.Event) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.advanceLocked(ev)
}

func (a *AuthAttempt) advanceLocked(ev domainauth.Event) bool {
	from := a.state
	if from.Terminal() {
		return false
	}
	next, err := domainauth.Transition(from, ev)
	if errors.Is(err, domainauth.ErrInvalidTransition) {
		return false
	}
	a.state = next
	if a.onTransition != nil {
		a.onTransition(from, next, ev)
	}
	return true
}

// claimRedirect moves to REDIRECTING via ev and claims the single navigation, atomically.
// It refuses while an automatic login is in progress; that branch owns the navigation.
func (a *AuthAttempt) claimRedirect(ev domainauth.Event) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.redirectFired || a.autoLoginInProgress {
		return false
	}
	if !a.advanceLocked(ev) || a.state != domainauth.StateRedirecting {
		return false
	}
	a.redirectFired = true
	return true
}

// beginAutoLogin enters AWAITING_SDK_LOGIN and marks the automatic login as used.
func (a *AuthAttempt) beginAutoLogin() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.advanceLocked(domainauth.EventNotLoggedIn) {
		return false
	}
	a.autoLoginAttempted = true
	a.autoLoginInProgress = true
	return true
}

// claimLoginNavigation claims the single navigation for the platform login page.
func (a *AuthAttempt) claimLoginNavigation() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.redirectFired || a.state != domainauth.StateAwaitingSDKLogin {
		return false
	}
	a.redirectFired = true
	return true
}

// cancelAutoLogin clears the in-progress flag after the login could not be started.
func (a *AuthAttempt) cancelAutoLogin() {
	a.mu.Lock()
	a.autoLoginInProgress = false
	a.mu.Unlock()
}

func (a *AuthAttempt) wasAutoLoginAttempted() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.autoLoginAttempted
}

func (a *AuthAttempt) recordError(kind domainauth.ErrorKind) {
	a.mu.Lock()
	a.lastErrorKind = &kind
	a.mu.Unlock()
}

func (a *AuthAttempt) progress(msg string) {
	a.mu.Lock()
	a.loadingMessage = msg
	fn := a.onProgress
	a.mu.Unlock()
	if fn != nil {
		fn(msg)
	}
}
