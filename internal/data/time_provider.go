package data

import (
	"sync"
	"time"
)

// TimeProvider supplies the timestamps repositories write, so tests can pin them.
type TimeProvider interface {
	Now() time.Time
}

// RealTimeProvider reads the wall clock.
type RealTimeProvider struct{}

func (*RealTimeProvider) Now() time.Time { return time.Now() }

// FixedTimeProvider returns a settable instant. Safe for concurrent use.
type FixedTimeProvider struct {
	mu  sync.Mutex
	now time.Time
}

// NewFixedTimeProvider returns a provider frozen at t.
func NewFixedTimeProvider(t time.Time) *FixedTimeProvider {
	return &FixedTimeProvider{now: t}
}

func (f *FixedTimeProvider) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// AddTime moves the frozen instant forward by d.
func (f *FixedTimeProvider) AddTime(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}
