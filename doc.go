/*
Package tickloop provides a deterministic, single-threaded task scheduler
that runs callbacks against a virtual clock.

Scheduling (pkg/scheduling):
  - timerqueue: Pending tasks ordered by fire time and insertion order
  - scheduler: Schedule, Cancel, RunUntilIdle, RunFor, a deferred tier and cron
  - timers: Staggered calls, bounded intervals, ordered chains, tickers, throttling

Rate Limiting (pkg/ratelimit):
  - bucket: Token bucket that reads time from an injected clock

Observability:
  - metrics: Prometheus instrumentation for schedulers and limiters
  - trace: Execution traces in memory or in a Redis list

Example usage:

	import (
		"github.com/vnykmshr/tickloop/pkg/scheduling/scheduler"
		"github.com/vnykmshr/tickloop/pkg/scheduling/timers"
	)

	s := scheduler.New()
	timers.DelayEach(s, []scheduler.Duration{200, 500, 0, 350}, func(i int) error {
		fmt.Println("element", i, "at", s.Now())
		return nil
	})
	if err := s.RunUntilIdle(); err != nil {
		log.Fatal(err)
	}

Nothing runs until the clock is driven, and the same calls always produce
the same order.

See package documentation for detailed usage.
*/
package tickloop
