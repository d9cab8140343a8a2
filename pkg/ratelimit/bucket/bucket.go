package bucket

import (
	"math"
	"time"
)

func (tb *tokenBucket) Allow() bool {
	return tb.AllowN(1)
}

func (tb *tokenBucket) AllowN(n int) bool {
	return tb.reserveN(tb.clock.Now(), n, 0).ok
}

func (tb *tokenBucket) Reserve() *Reservation {
	return tb.ReserveN(1)
}

func (tb *tokenBucket) ReserveN(n int) *Reservation {
	return tb.reserveN(tb.clock.Now(), n, math.MaxInt64)
}

func (tb *tokenBucket) SetLimit(newLimit Limit) {
	tb.advance(tb.clock.Now())
	tb.limit = newLimit
}

func (tb *tokenBucket) SetBurst(newBurst int) {
	if newBurst <= 0 {
		panic("burst must be positive")
	}
	tb.advance(tb.clock.Now())
	tb.burst = newBurst
	if tb.tokens > float64(newBurst) {
		tb.tokens = float64(newBurst)
	}
}

func (tb *tokenBucket) Limit() Limit {
	return tb.limit
}

func (tb *tokenBucket) Burst() int {
	return tb.burst
}

func (tb *tokenBucket) Tokens() float64 {
	tb.advance(tb.clock.Now())
	return tb.tokens
}

// reserveN takes n tokens at now, going into debt for at most maxWait.
func (tb *tokenBucket) reserveN(now time.Time, n int, maxWait time.Duration) *Reservation {
	r := &Reservation{timeToAct: now, tokens: n, lim: tb}

	switch {
	case n <= 0:
		r.ok = true
		r.tokens = 0
		return r
	case tb.limit == Inf:
		r.ok = true
		return r
	case n > tb.burst:
		return r
	}

	tb.advance(now)
	if tb.tokens >= float64(n) {
		tb.tokens -= float64(n)
		r.ok = true
		return r
	}

	// Zero rate never refills.
	if tb.limit == 0 {
		return r
	}

	wait := tb.durationFor(float64(n) - tb.tokens)
	if wait > maxWait {
		return r
	}

	tb.tokens -= float64(n)
	r.ok = true
	r.timeToAct = now.Add(wait)
	return r
}

// durationFor is the time needed to earn tokens, rounded up to the
// nanosecond so a reservation never comes due early.
func (tb *tokenBucket) durationFor(tokens float64) time.Duration {
	return time.Duration(math.Ceil(tokens * float64(time.Second) / float64(tb.limit)))
}

// advance refills the bucket for the time elapsed since the last update.
func (tb *tokenBucket) advance(now time.Time) {
	if tb.limit == Inf {
		tb.tokens = float64(tb.burst)
		tb.lastUpdate = now
		return
	}

	elapsed := now.Sub(tb.lastUpdate)
	if elapsed <= 0 {
		return
	}
	tb.lastUpdate = now
	if tb.limit == 0 {
		return
	}

	tb.tokens = math.Min(tb.tokens+elapsed.Seconds()*float64(tb.limit), float64(tb.burst))
}

// cancelReservation gives back the tokens of r if it is still in the future.
func (tb *tokenBucket) cancelReservation(r *Reservation) {
	now := tb.clock.Now()
	if !r.timeToAct.After(now) {
		return
	}
	tb.advance(now)
	tb.tokens = math.Min(tb.tokens+float64(r.tokens), float64(tb.burst))
}
