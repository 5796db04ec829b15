package identity

import (
	"sync"

	domainauth "github.com/target/food-identity-gateway/internal/domain/auth"
	"github.com/target/food-identity-gateway/internal/ports"
)

// SDKState tracks the client SDK for one page load. It is owned by the orchestrator and shared
// with the loader and initializer; all access is serialized.
type SDKState struct {
	mu          sync.RWMutex
	handle      ports.ClientSDK
	initialized bool
	loggedIn    domainauth.LoginState
}

// NewSDKState returns an empty state. A non-nil handle marks the SDK as already loaded, as when
// the host page exposes it before the flow starts.
func NewSDKState(handle ports.ClientSDK) *SDKState {
	return &SDKState{handle: handle, loggedIn: domainauth.LoginUnknown}
}

// Handle returns the loaded SDK, or nil.
func (s *SDKState) Handle() ports.ClientSDK {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.handle
}

// Initialized reports whether Init has completed.
func (s *SDKState) Initialized() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.initialized
}

// Status returns a copy of the state.
func (s *SDKState) Status() domainauth.SDKStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domainauth.SDKStatus{
		Loaded:      s.handle != nil,
		Initialized: s.initialized,
		LoggedIn:    s.loggedIn,
	}
}

// attach records a loaded handle unless one is already present, and returns the handle in effect.
func (s *SDKState) attach(h ports.ClientSDK) ports.ClientSDK {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.handle == nil {
		s.handle = h
	}
	return s.handle
}

func (s *SDKState) markInitialized() {
	s.mu.Lock()
	s.initialized = true
	s.mu.Unlock()
}

func (s *SDKState) setLoggedIn(v domainauth.LoginState) {
	s.mu.Lock()
	s.loggedIn = v
	s.mu.Unlock()
}
