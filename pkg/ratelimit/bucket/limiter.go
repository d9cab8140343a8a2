// Package bucket provides a token bucket rate limiter that reads time from an
// injected Clock, so it can run on a scheduler's virtual clock.
package bucket

import (
	"math"
	"time"

	tlerrors "github.com/vnykmshr/tickloop/pkg/common/errors"
)

// Limit is a rate of events per second. A zero Limit allows only the
// tokens already in the bucket. Use Inf for no limit.
type Limit float64

// Inf is the infinite rate limit; it allows all events.
var Inf = Limit(math.Inf(1))

// Every converts a minimum interval between events to a Limit.
func Every(interval time.Duration) Limit {
	if interval <= 0 {
		return Inf
	}
	return Limit(time.Second) / Limit(interval)
}

// Limiter is a token bucket. Tokens refill at Limit per second of clock
// time up to Burst; each event takes one token.
//
// There is no blocking Wait. A caller that has to wait takes a Reservation
// and schedules the work for Reservation.TimeToAct on its own clock.
type Limiter interface {
	// Allow reports whether an event may happen now and takes a token if so.
	Allow() bool

	// AllowN reports whether n events may happen now and takes n tokens if so.
	AllowN(n int) bool

	// Reserve takes a token now or in the future.
	Reserve() *Reservation

	// ReserveN takes n tokens now or in the future. The reservation is not
	// OK when n exceeds the burst or the rate is zero and the bucket is
	// short.
	ReserveN(n int) *Reservation

	// SetLimit changes the refill rate. Tokens earned so far are kept.
	SetLimit(limit Limit)

	// SetBurst changes the capacity. It panics on a non-positive burst.
	SetBurst(burst int)

	Limit() Limit
	Burst() int

	// Tokens returns the tokens available now. It is negative while
	// reservations are outstanding.
	Tokens() float64
}

// Clock provides the current time. Under a scheduler this is the wall
// image of the virtual clock (scheduler.WallClock).
type Clock interface {
	Now() time.Time
}

// Reservation is a promise of tokens at a point in time.
type Reservation struct {
	ok        bool
	timeToAct time.Time
	tokens    int
	canceled  bool
	lim       *tokenBucket
}

// OK reports whether the limiter can provide the tokens. A reservation
// that is not OK holds nothing.
func (r *Reservation) OK() bool {
	return r.ok
}

// TimeToAct is the instant the reserved tokens become available.
func (r *Reservation) TimeToAct() time.Time {
	return r.timeToAct
}

// DelayFrom returns how long after now the caller must wait. It returns 0
// when the reservation is due or not OK.
func (r *Reservation) DelayFrom(now time.Time) time.Duration {
	if !r.ok {
		return 0
	}
	delay := r.timeToAct.Sub(now)
	if delay < 0 {
		return 0
	}
	return delay
}

// Cancel returns the tokens of a reservation whose time has not come yet.
// Cancelling a due, spent or already cancelled reservation does nothing.
func (r *Reservation) Cancel() {
	if !r.ok || r.canceled {
		return
	}
	r.canceled = true
	r.lim.cancelReservation(r)
}

// Config holds configuration options for creating a new Limiter.
type Config struct {
	// Rate is the number of tokens added per second.
	Rate Limit

	// Burst is the maximum number of tokens that can be stored.
	Burst int

	// Clock provides the current time. Required.
	Clock Clock

	// InitialTokens is the number of tokens to start with.
	// If negative, starts with full capacity.
	InitialTokens int
}

// tokenBucket implements Limiter. It is not safe for concurrent use; like
// the scheduler that drives it, it lives on one goroutine.
type tokenBucket struct {
	limit      Limit
	burst      int
	tokens     float64
	lastUpdate time.Time
	clock      Clock
}

// NewSafe creates a limiter that starts full.
func NewSafe(rate Limit, burst int, clock Clock) (Limiter, error) {
	return NewWithConfigSafe(Config{
		Rate:          rate,
		Burst:         burst,
		Clock:         clock,
		InitialTokens: -1,
	})
}

// NewWithConfigSafe validates config and creates a limiter.
func NewWithConfigSafe(config Config) (Limiter, error) {
	if config.Rate < 0 {
		return nil, tlerrors.NewValidationError("bucket", "rate", config.Rate, "rate cannot be negative").
			WithHint("use 0 to allow only the initial tokens, or Inf for no limit")
	}
	if config.Burst <= 0 {
		return nil, tlerrors.NewValidationError("bucket", "burst", config.Burst, "burst must be positive").
			WithHint("burst determines how many tokens can be consumed instantly")
	}
	if config.Clock == nil {
		return nil, tlerrors.NewValidationError("bucket", "clock", nil, "cannot be nil").
			WithHint("pass scheduler.WallClock() or another Clock")
	}

	initialTokens := float64(config.InitialTokens)
	if config.InitialTokens < 0 || config.InitialTokens > config.Burst {
		initialTokens = float64(config.Burst)
	}

	return &tokenBucket{
		limit:      config.Rate,
		burst:      config.Burst,
		tokens:     initialTokens,
		lastUpdate: config.Clock.Now(),
		clock:      config.Clock,
	}, nil
}
