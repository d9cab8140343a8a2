/*
Package scheduler provides a deterministic, single-threaded task scheduler
driven by a virtual clock.

Nothing happens in real time. Actions are queued with a delay measured in
ticks and run only when the caller drives the clock with RunUntilIdle or
RunFor. Two schedulers given the same calls always run the same actions in
the same order at the same virtual times.

Basic Usage:

	s := scheduler.New()

	s.Schedule(200, func() error { fmt.Println("A"); return nil })
	s.Schedule(500, func() error { fmt.Println("B"); return nil })
	s.Schedule(0, func() error { fmt.Println("C"); return nil })
	s.Schedule(350, func() error { fmt.Println("D"); return nil })

	if err := s.RunUntilIdle(); err != nil {
		log.Fatal(err)
	}
	// Prints C, A, D, B. s.Now() is 500.

Ordering:

Tasks fire in ascending fire time (now + delay at the moment of Schedule).
Tasks due at the same instant fire in the order they were scheduled. A task
scheduled while the loop is draining an instant, even with delay 0, is only
picked up on the next pass.

Driving the clock:

  - RunUntilIdle runs until no timer task or deferred action is left and
    leaves the clock at the time of the last task that fired.
  - RunFor(d) never runs a task due after Now()+d. On success the clock is
    parked at exactly Now()+d, so a later call resumes from there.

Both return an error when called from inside a running action.

Deferred actions:

Defer queues work on a second FIFO tier. The deferred tier is drained after
every timer action, before the next one runs and before the clock moves:

	s.Schedule(0, func() error {
		s.Defer(func() error { fmt.Println("deferred"); return nil })
		fmt.Println("timer")
		return nil
	})

Cancellation:

Cancel(handle) stops a pending task. Handles that are unknown, already fired
or already cancelled are ignored. An action may cancel a task due at the same
instant as itself, as long as that task has not run yet. Cancelling any
occurrence of a cron series cancels the series.

Errors:

A negative delay fails with an error matching errors.ErrInvalidDelay and
leaves the queue unchanged. An action that returns an error or panics does
not stop the other tasks due at the same instant; after that instant the
run method returns the failure as an *ActionError and later tasks stay queued
for another call:

	err := s.RunUntilIdle()
	var actionErr *scheduler.ActionError
	if errors.As(err, &actionErr) {
		log.Printf("task %d failed at t=%d: %v", actionErr.Handle, actionErr.FireAt, actionErr.Err)
	}

Cron:

ScheduleCron evaluates a six-field cron expression (seconds first) against
the wall-clock image of virtual time, Epoch + t*Unit:

	s := scheduler.NewWithConfig(scheduler.Config{Unit: time.Millisecond})
	h, _ := s.ScheduleCron("0/5 * * * * *", report) // t=5000, 10000, ...
	s.RunFor(60_000)
	s.Cancel(h)

Configuration:

	s := scheduler.NewWithConfig(scheduler.Config{
		Name:     "replay",
		MaxTasks: 10_000,
		Logger:   &logger,
		Recorder: trace.NewMemoryRecorder(),
		Metrics:  metrics.NewRegistry(prometheus.DefaultRegisterer),
		OnTaskExecuted: func(task scheduler.TaskInfo, err error) {
			if err != nil {
				logger.Warn().Uint64("handle", uint64(task.Handle)).Err(err).Msg("task failed")
			}
		},
	})

Thread Safety:

A Scheduler is not safe for concurrent use. Call it from one goroutine, or
from the actions it runs.
*/
package scheduler
