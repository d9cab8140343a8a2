/*
Package timerqueue provides the ordered pending-task store behind the
virtual-clock scheduler.

Tasks are kept in a binary min-heap keyed by the composite (FireAt, Seq).
FireAt is the absolute virtual time at which a task becomes due; Seq is an
insertion counter that only breaks ties, so two tasks due at the same
instant always come out in the order they were inserted:

	q := timerqueue.New()
	q.Insert(&timerqueue.Task{ID: 1, FireAt: 200, Seq: 1, Action: a})
	q.Insert(&timerqueue.Task{ID: 2, FireAt: 0, Seq: 2, Action: c})

	next, ok := q.PeekNextFireTime() // 0, true
	due := q.PopDueBefore(next)      // [task 2]

Cancellation only flags the task. Flagged tasks are skipped by
PeekNextFireTime and silently dropped by PopDueBefore; once cancelled
entries outnumber live ones the heap is compacted.

The queue does not own a clock and never runs actions. It is not safe for
concurrent use.
*/
package timerqueue
