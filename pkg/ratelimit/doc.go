/*
Package ratelimit provides rate limiting primitives that run on an injected
clock.

  - bucket: Token bucket rate limiter allowing burst traffic

A limiter driven by a scheduler's wall clock refills in virtual time, so
rate-limited work is as reproducible as the rest of the schedule:

	s := scheduler.New()
	limiter, _ := bucket.NewSafe(bucket.Every(100*time.Millisecond), 1, s.WallClock())

	send := timers.Throttle(s, limiter, sendRequest)
	send() // t=0
	send() // t=100
	s.RunUntilIdle()

There is no blocking Wait. Callers take a Reservation and schedule the work
for its TimeToAct instead.
*/
package ratelimit
