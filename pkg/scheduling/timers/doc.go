/*
Package timers builds common timing patterns on top of a scheduler:
staggered calls, delivery of a bound value, bounded repetition, ordered
chains, tickers and rate-limited calls.

Every helper is written against Schedule, Cancel and Now, so it obeys the
scheduler's ordering rules and runs only when the clock is driven.

	s := scheduler.New()

	// Fires fn(2), fn(0), fn(3), fn(1).
	timers.DelayEach(s, []scheduler.Duration{200, 500, 0, 350}, fn)

	// Fires at 100, 200, 300, 400, 500.
	timers.LimitedInterval(s, 100, 550, tick)

	// Fires at 200, 300, 600.
	timers.RunInOrder(s, []scheduler.Action{hi, bye, howdy}, []scheduler.Duration{200, 100, 300})

	s.RunUntilIdle()
*/
package timers
