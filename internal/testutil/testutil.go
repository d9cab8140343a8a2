package testutil

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"
)

// TestTimeout is the default timeout for tests that talk to external services
const TestTimeout = 5 * time.Second

// WithTimeout creates a context with the default test timeout
func WithTimeout(t *testing.T) (context.Context, context.CancelFunc) {
	t.Helper()
	return context.WithTimeout(context.Background(), TestTimeout)
}

// AssertNoError fails the test if err is not nil
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// AssertEqual fails the test if got != want
func AssertEqual[T comparable](t *testing.T, got, want T) {
	t.Helper()
	if got != want {
		t.Fatalf("got %v, want %v", got, want)
	}
}

// AssertSliceEqual fails the test if the slices differ in length or any element
func AssertSliceEqual[T comparable](t *testing.T, got, want []T) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %v (len %d), want %v (len %d)", got, len(got), want, len(want))
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("index %d: got %v, want %v (full: %v vs %v)", i, got[i], want[i], got, want)
		}
	}
}

// OrderLog records labelled events together with the virtual time they
// happened at. Tests use it to assert execution order.
type OrderLog struct {
	now    func() int64
	events []string
	times  []int64
}

// NewOrderLog creates an OrderLog reading the time from now. A nil now
// records every event at time 0.
func NewOrderLog(now func() int64) *OrderLog {
	if now == nil {
		now = func() int64 { return 0 }
	}
	return &OrderLog{now: now}
}

// Add records label at the current time.
func (l *OrderLog) Add(label string) {
	l.events = append(l.events, label)
	l.times = append(l.times, l.now())
}

// Func returns an action that records label and succeeds.
func (l *OrderLog) Func(label string) func() error {
	return func() error {
		l.Add(label)
		return nil
	}
}

// Labels returns the recorded labels in order.
func (l *OrderLog) Labels() []string {
	return append([]string(nil), l.events...)
}

// Times returns the virtual times of the recorded events in order.
func (l *OrderLog) Times() []int64 {
	return append([]int64(nil), l.times...)
}

// String renders the log as "label@time" pairs.
func (l *OrderLog) String() string {
	parts := make([]string, len(l.events))
	for i := range l.events {
		parts[i] = fmt.Sprintf("%s@%d", l.events[i], l.times[i])
	}
	return strings.Join(parts, " ")
}
