package trace

import (
	"context"
	"fmt"
	"strings"
)

// Kind tells which tier an executed action came from.
type Kind string

const (
	// KindTimer marks an action that fired from the timer queue.
	KindTimer Kind = "timer"
	// KindDeferred marks an action drained from the deferred tier.
	KindDeferred Kind = "deferred"
)

// Entry describes one executed action.
type Entry struct {
	Handle uint64 `json:"handle"`
	FireAt int64  `json:"fire_at"`
	Seq    uint64 `json:"seq"`
	Kind   Kind   `json:"kind"`
	Err    string `json:"err,omitempty"`
}

func (e Entry) String() string {
	s := fmt.Sprintf("%s#%d@%d", e.Kind, e.Handle, e.FireAt)
	if e.Err != "" {
		s += "!"
	}
	return s
}

// Recorder receives an Entry for every executed action, in execution order.
type Recorder interface {
	Record(ctx context.Context, e Entry) error
}

// MemoryRecorder keeps entries in a slice.
type MemoryRecorder struct {
	entries []Entry
}

// NewMemoryRecorder creates an empty in-memory recorder.
func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{}
}

// Record appends e.
func (m *MemoryRecorder) Record(_ context.Context, e Entry) error {
	m.entries = append(m.entries, e)
	return nil
}

// Entries returns a copy of the recorded entries.
func (m *MemoryRecorder) Entries() []Entry {
	return append([]Entry(nil), m.entries...)
}

// Reset discards all entries.
func (m *MemoryRecorder) Reset() {
	m.entries = nil
}

// Handles returns the handle of each entry in order.
func Handles(entries []Entry) []uint64 {
	out := make([]uint64, len(entries))
	for i, e := range entries {
		out[i] = e.Handle
	}
	return out
}

// Diff returns a description of the first difference between two traces,
// or "" when they are identical.
func Diff(a, b []Entry) string {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return fmt.Sprintf("entry %d: %s != %s", i, a[i], b[i])
		}
	}
	if len(a) != len(b) {
		return fmt.Sprintf("length %d != %d", len(a), len(b))
	}
	return ""
}

// Format renders a trace on one line, mainly for test failure messages.
func Format(entries []Entry) string {
	parts := make([]string, len(entries))
	for i, e := range entries {
		parts[i] = e.String()
	}
	return strings.Join(parts, " ")
}
