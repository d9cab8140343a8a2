/*
Package scheduling groups the virtual-clock scheduling packages.

  - timerqueue: Min-heap of pending tasks keyed by (FireAt, Seq) with lazy cancellation
  - scheduler: The driver loop and the public facade
  - timers: Helpers built only on Schedule, Cancel and Now

Timer Queue:

The queue owns ordering. Tasks due at the same instant come out in the order
they were inserted:

	q := timerqueue.New()
	q.Insert(&timerqueue.Task{ID: 1, FireAt: 200, Seq: 1, Action: a})
	q.Insert(&timerqueue.Task{ID: 2, FireAt: 0, Seq: 2, Action: b})
	due := q.PopDueBefore(100) // [task 2]

Scheduler:

The scheduler owns the clock. It advances to the next fire time, drains
everything due at that instant, then looks again:

	s := scheduler.New()
	s.Schedule(300, first)
	s.RunFor(1000)

Timers:

	timers.LimitedInterval(s, 100, 550, tick)  // 100, 200, 300, 400, 500
	timers.RunInOrder(s, fns, waits)           // each step after the previous one
	ticker, _ := timers.Every(s, 1000, beat)   // until ticker.Stop()

All three are single-threaded. Call them from the goroutine that drives the
scheduler, or from inside actions.
*/
package scheduling
