package timers

import (
	"errors"
	"fmt"
	"time"

	tlerrors "github.com/vnykmshr/tickloop/pkg/common/errors"
	"github.com/vnykmshr/tickloop/pkg/common/validation"
	"github.com/vnykmshr/tickloop/pkg/ratelimit/bucket"
	"github.com/vnykmshr/tickloop/pkg/scheduling/scheduler"
)

// ErrStop ends an Every ticker when returned by its function.
var ErrStop = errors.New("timers: stop")

// Scheduler is the part of *scheduler.Scheduler the helpers need.
type Scheduler interface {
	Schedule(delay scheduler.Duration, action scheduler.Action) (scheduler.Handle, error)
	Cancel(h scheduler.Handle)
	Now() scheduler.Time
}

// ClockScheduler is a Scheduler that can convert between ticks and wall time.
type ClockScheduler interface {
	Scheduler
	Wall(t scheduler.Time) time.Time
	Ticks(d time.Duration) scheduler.Duration
}

// DelayEach schedules fn(i) delays[i] ticks from now for every index. All
// delays are checked before anything is scheduled.
func DelayEach(s Scheduler, delays []scheduler.Duration, fn func(i int) error) ([]scheduler.Handle, error) {
	if fn == nil {
		return nil, nilFunc("fn")
	}
	for _, d := range delays {
		if err := validation.ValidateDelay("timers", d); err != nil {
			return nil, err
		}
	}

	handles := make([]scheduler.Handle, 0, len(delays))
	for i, d := range delays {
		i := i
		h, err := s.Schedule(d, func() error { return fn(i) })
		if err != nil {
			cancelAll(s, handles)
			return nil, err
		}
		handles = append(handles, h)
	}
	return handles, nil
}

// Deliver calls fn(value) after delay. The value is bound when Deliver is
// called.
func Deliver[T any](s Scheduler, delay scheduler.Duration, value T, fn func(T) error) (scheduler.Handle, error) {
	if fn == nil {
		return 0, nilFunc("fn")
	}
	return s.Schedule(delay, func() error { return fn(value) })
}

// LimitedInterval runs fn once every wait ticks for as long as the next run
// falls within limit ticks from now: floor(limit/wait) runs at wait,
// 2*wait, and so on.
func LimitedInterval(s Scheduler, wait, limit scheduler.Duration, fn scheduler.Action) ([]scheduler.Handle, error) {
	if err := validation.ValidatePositive("timers", "wait", wait); err != nil {
		return nil, err
	}
	if err := validation.ValidateNonNegative("timers", "limit", limit); err != nil {
		return nil, err
	}
	if fn == nil {
		return nil, nilFunc("fn")
	}

	runs := limit / wait
	handles := make([]scheduler.Handle, 0, runs)
	for k := scheduler.Duration(1); k <= runs; k++ {
		h, err := s.Schedule(k*wait, fn)
		if err != nil {
			cancelAll(s, handles)
			return nil, err
		}
		handles = append(handles, h)
	}
	return handles, nil
}

// Chain runs functions one after another, each waiting its own delay after
// the previous one fired.
type Chain struct {
	s       Scheduler
	fns     []scheduler.Action
	waits   []scheduler.Duration
	next    int
	current scheduler.Handle
	stopped bool
}

// RunInOrder starts a chain: fns[0] fires waits[0] ticks from now, and each
// later fns[i] is scheduled from inside fns[i-1] to fire waits[i] ticks
// after it. A function that fails ends the chain.
func RunInOrder(s Scheduler, fns []scheduler.Action, waits []scheduler.Duration) (*Chain, error) {
	if len(fns) != len(waits) {
		return nil, tlerrors.NewValidationError("timers", "waits", len(waits),
			fmt.Sprintf("expected %d delays, one per function", len(fns)))
	}
	for i, fn := range fns {
		if fn == nil {
			return nil, nilFunc(fmt.Sprintf("fns[%d]", i))
		}
	}
	for _, w := range waits {
		if err := validation.ValidateDelay("timers", w); err != nil {
			return nil, err
		}
	}

	c := &Chain{s: s, fns: fns, waits: waits}
	if err := c.scheduleNext(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Chain) scheduleNext() error {
	if c.next >= len(c.fns) {
		return nil
	}
	i := c.next
	h, err := c.s.Schedule(c.waits[i], func() error {
		c.next++
		if err := c.fns[i](); err != nil {
			c.stopped = true
			return err
		}
		if c.stopped {
			return nil
		}
		return c.scheduleNext()
	})
	if err != nil {
		return err
	}
	c.current = h
	return nil
}

// Stop cancels the pending step. Steps that already fired are unaffected.
func (c *Chain) Stop() {
	c.stopped = true
	c.s.Cancel(c.current)
}

// Fired returns the number of steps that have run.
func (c *Chain) Fired() int {
	return c.next
}

// Done reports whether every step has run.
func (c *Chain) Done() bool {
	return c.next == len(c.fns)
}

// Ticker runs a function at a fixed interval until stopped.
type Ticker struct {
	s        Scheduler
	interval scheduler.Duration
	fn       scheduler.Action
	pending  scheduler.Handle
	runs     int
	stopped  bool
}

// Every runs fn every interval ticks, first at now+interval. The next run
// is scheduled before fn is called, so an error from fn is reported without
// stopping the ticker. fn returns ErrStop to end it.
func Every(s Scheduler, interval scheduler.Duration, fn scheduler.Action) (*Ticker, error) {
	if err := validation.ValidatePositive("timers", "interval", interval); err != nil {
		return nil, err
	}
	if fn == nil {
		return nil, nilFunc("fn")
	}

	t := &Ticker{s: s, interval: interval, fn: fn}
	if err := t.arm(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Ticker) arm() error {
	h, err := t.s.Schedule(t.interval, t.tick)
	if err != nil {
		return err
	}
	t.pending = h
	return nil
}

func (t *Ticker) tick() error {
	if t.stopped {
		return nil
	}
	if err := t.arm(); err != nil {
		t.stopped = true
		return err
	}

	t.runs++
	err := t.fn()
	if errors.Is(err, ErrStop) {
		t.Stop()
		return nil
	}
	return err
}

// Stop cancels the next run. It is safe to call more than once and from
// inside the ticker's own function.
func (t *Ticker) Stop() {
	t.stopped = true
	t.s.Cancel(t.pending)
}

// Runs returns how many times the function has been called.
func (t *Ticker) Runs() int {
	return t.runs
}

// Throttle returns a function that queues fn under limiter. Each call takes
// a token: when one is available fn is scheduled with delay 0, otherwise at
// the reservation's time. A call the limiter can never satisfy fails with
// an error matching errors.ErrRateLimited.
//
// limiter must read time from s, e.g. bucket.NewSafe(rate, burst, s.WallClock()).
func Throttle(s ClockScheduler, limiter bucket.Limiter, fn scheduler.Action) func() (scheduler.Handle, error) {
	return func() (scheduler.Handle, error) {
		if fn == nil {
			return 0, nilFunc("fn")
		}
		r := limiter.Reserve()
		if !r.OK() {
			return 0, tlerrors.NewOperationError("timers", "Throttle", tlerrors.ErrRateLimited).
				WithContext(fmt.Sprintf("limit %v, burst %d", limiter.Limit(), limiter.Burst()))
		}

		delay := s.Ticks(r.DelayFrom(s.Wall(s.Now())))
		h, err := s.Schedule(delay, fn)
		if err != nil {
			r.Cancel()
			return 0, err
		}
		return h, nil
	}
}

func cancelAll(s Scheduler, handles []scheduler.Handle) {
	for _, h := range handles {
		s.Cancel(h)
	}
}

func nilFunc(field string) error {
	return tlerrors.NewValidationError("timers", field, nil, "cannot be nil").
		WithHint("provide a function")
}
