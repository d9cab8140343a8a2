package testutil

import (
	"time"
)

// MockClock is a manually advanced wall clock for rate limiter tests that
// run without a scheduler.
type MockClock struct {
	now time.Time
}

// NewMockClock creates a new MockClock starting at the given time.
// If zero time is provided, uses 2000-01-01 UTC so results are reproducible.
func NewMockClock(start time.Time) *MockClock {
	if start.IsZero() {
		start = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	return &MockClock{now: start}
}

// Now returns the current mock time.
func (m *MockClock) Now() time.Time {
	return m.now
}

// Advance moves the mock clock forward by the given duration.
func (m *MockClock) Advance(d time.Duration) {
	m.now = m.now.Add(d)
}
