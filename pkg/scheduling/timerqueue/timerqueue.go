package timerqueue

import (
	"container/heap"
	"sort"
)

// Time is an absolute instant on the virtual clock, measured in ticks.
type Time int64

// ID identifies a task for its whole life. IDs are assigned by the caller
// and double as cancellation handles.
type ID uint64

// Action is the unit of work carried by a Task.
type Action func() error

// Task is one deferred unit of work.
type Task struct {
	ID     ID
	FireAt Time
	Seq    uint64
	Action Action

	cancelled bool
	index     int // heap position, -1 once popped
}

// Cancelled reports whether the task was cancelled while pending.
func (t *Task) Cancelled() bool {
	return t.cancelled
}

// before is the queue order: FireAt first, Seq breaks ties.
func (t *Task) before(o *Task) bool {
	if t.FireAt != o.FireAt {
		return t.FireAt < o.FireAt
	}
	return t.Seq < o.Seq
}

// compactThreshold is the minimum number of cancelled entries before the
// queue considers rebuilding its heap.
const compactThreshold = 64

// Queue holds pending tasks ordered by (FireAt, Seq).
// Cancellation is lazy: a cancelled task stays in the heap until it reaches
// the head or a compaction runs.
// A Queue is not safe for concurrent use.
type Queue struct {
	heap      taskHeap
	pending   map[ID]*Task
	cancelled int
}

// New creates an empty queue.
func New() *Queue {
	return &Queue{pending: make(map[ID]*Task)}
}

// Insert adds a task in O(log n). Any FireAt is accepted. Inserting a nil
// task or reusing the ID of a pending task is ignored.
func (q *Queue) Insert(t *Task) {
	if t == nil {
		return
	}
	if _, exists := q.pending[t.ID]; exists {
		return
	}
	t.cancelled = false
	heap.Push(&q.heap, t)
	q.pending[t.ID] = t
}

// PeekNextFireTime returns the smallest FireAt among non-cancelled tasks.
// The boolean is false when no such task exists.
func (q *Queue) PeekNextFireTime() (Time, bool) {
	q.dropCancelledHead()
	if len(q.heap) == 0 {
		return 0, false
	}
	return q.heap[0].FireAt, true
}

// PopDueBefore removes and returns, in (FireAt, Seq) order, every
// non-cancelled task with FireAt <= limit. Cancelled tasks met on the way
// are discarded. The result is empty, never nil-with-error, when nothing is due.
func (q *Queue) PopDueBefore(limit Time) []*Task {
	var due []*Task
	for len(q.heap) > 0 && q.heap[0].FireAt <= limit {
		t := heap.Pop(&q.heap).(*Task)
		if t.cancelled {
			q.cancelled--
			continue
		}
		delete(q.pending, t.ID)
		due = append(due, t)
	}
	if due == nil {
		return []*Task{}
	}
	return due
}

// Cancel marks the pending task with the given id as cancelled. Unknown,
// fired and already cancelled ids are a no-op. It reports whether the call
// changed anything.
func (q *Queue) Cancel(id ID) bool {
	t, ok := q.pending[id]
	if !ok {
		return false
	}
	delete(q.pending, id)
	t.cancelled = true
	q.cancelled++
	q.maybeCompact()
	return true
}

// Get returns the pending task with the given id.
func (q *Queue) Get(id ID) (*Task, bool) {
	t, ok := q.pending[id]
	return t, ok
}

// Contains reports whether id is pending.
func (q *Queue) Contains(id ID) bool {
	_, ok := q.pending[id]
	return ok
}

// Len returns the number of pending, non-cancelled tasks.
func (q *Queue) Len() int {
	return len(q.pending)
}

// Tasks returns the pending tasks in firing order. The slice is a copy; the
// tasks themselves must be treated as read-only.
func (q *Queue) Tasks() []*Task {
	out := make([]*Task, 0, len(q.pending))
	for _, t := range q.pending {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].before(out[j]) })
	return out
}

// Clear cancels every pending task and returns them in firing order.
func (q *Queue) Clear() []*Task {
	tasks := q.Tasks()
	for _, t := range tasks {
		t.cancelled = true
	}
	q.heap = q.heap[:0]
	q.pending = make(map[ID]*Task)
	q.cancelled = 0
	return tasks
}

// Compact drops every cancelled entry and rebuilds the heap. It returns the
// number of entries removed.
func (q *Queue) Compact() int {
	removed := q.cancelled
	if removed == 0 {
		return 0
	}
	live := q.heap[:0]
	for _, t := range q.heap {
		if !t.cancelled {
			live = append(live, t)
		}
	}
	for i := len(live); i < len(q.heap); i++ {
		q.heap[i] = nil
	}
	q.heap = live
	for i, t := range q.heap {
		t.index = i
	}
	heap.Init(&q.heap)
	q.cancelled = 0
	return removed
}

func (q *Queue) maybeCompact() {
	if q.cancelled >= compactThreshold && q.cancelled > len(q.pending) {
		q.Compact()
	}
}

func (q *Queue) dropCancelledHead() {
	for len(q.heap) > 0 && q.heap[0].cancelled {
		heap.Pop(&q.heap)
		q.cancelled--
	}
}

// taskHeap implements heap.Interface ordered by (FireAt, Seq).
type taskHeap []*Task

func (h taskHeap) Len() int           { return len(h) }
func (h taskHeap) Less(i, j int) bool { return h[i].before(h[j]) }

func (h taskHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *taskHeap) Push(x interface{}) {
	t := x.(*Task)
	t.index = len(*h)
	*h = append(*h, t)
}

func (h *taskHeap) Pop() interface{} {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*h = old[:n-1]
	return t
}
