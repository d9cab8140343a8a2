package scheduler

import (
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	tlerrors "github.com/vnykmshr/tickloop/pkg/common/errors"
	"github.com/vnykmshr/tickloop/pkg/common/validation"
)

var errNoNextOccurrence = errors.New("cron expression has no next occurrence")

// cronSeries is a self re-arming timer task driven by a cron schedule.
type cronSeries struct {
	handle   Handle // handle returned to the caller; never changes
	current  Handle // id of the pending occurrence
	expr     string
	schedule cron.Schedule
	action   Action
	runs     int
}

// ScheduleCron runs action at every occurrence of a cron expression,
// evaluated on the wall-clock image of the virtual clock (see WallClock).
// Expressions take six fields with seconds first, or a descriptor such as
// "@every 2s" or "@hourly":
//
//	"*/5 * * * * *"   - every 5 seconds
//	"0 30 9 * * MON"  - 09:30:00 every Monday
//	"@every 2s"       - every 2 seconds (cron rounds @every to whole seconds)
//
// The returned handle cancels the whole series. An occurrence that fails
// is reported like any other action failure; the series keeps running.
func (s *Scheduler) ScheduleCron(expr string, action Action) (Handle, error) {
	if err := validation.ValidateNotEmpty("scheduler", "cron", expr); err != nil {
		return 0, err
	}
	if action == nil {
		return 0, tlerrors.NewValidationError("scheduler", "action", nil, "cannot be nil").
			WithHint("provide a func() error")
	}

	schedule, err := s.cronParser.Parse(expr)
	if err != nil {
		return 0, tlerrors.NewValidationError("scheduler", "cron", expr, err.Error()).
			WithHint("use six fields (seconds first) or a descriptor like @every 1s")
	}

	series := &cronSeries{expr: expr, schedule: schedule, action: action}
	if err := s.armCron(series); err != nil {
		return 0, err
	}
	s.cronSeries[series.handle] = series

	s.log.Debug().
		Uint64("handle", uint64(series.handle)).
		Str("expr", expr).
		Msg("cron series scheduled")
	return series.handle, nil
}

// CronNext returns the virtual time of the next occurrence of a cron series.
func (s *Scheduler) CronNext(h Handle) (Time, bool) {
	series, ok := s.cronSeries[h]
	if !ok {
		return 0, false
	}
	t, ok := s.queue.Get(series.current)
	if !ok {
		return 0, false
	}
	return t.FireAt, true
}

// CronRuns returns how many occurrences of a series have fired so far.
func (s *Scheduler) CronRuns(h Handle) int {
	if series, ok := s.cronSeries[h]; ok {
		return series.runs
	}
	return 0
}

func (s *Scheduler) armCron(series *cronSeries) error {
	next := series.schedule.Next(s.Wall(s.now).In(s.location))
	if next.IsZero() {
		return tlerrors.NewOperationError("scheduler", "ScheduleCron", errNoNextOccurrence).
			WithContext(fmt.Sprintf("expression %s", series.expr))
	}

	delay := Duration(s.timeAt(next) - s.now)
	t, err := s.newTask(delay, func() error { return s.fireCron(series) })
	if err != nil {
		return err
	}

	if series.handle == 0 {
		series.handle = t.ID
	}
	series.current = t.ID
	s.cronTasks[t.ID] = series.handle
	s.insert(t)
	return nil
}

func (s *Scheduler) fireCron(series *cronSeries) error {
	delete(s.cronTasks, series.current)
	series.runs++

	err := invoke(series.action)

	// The action may have cancelled its own series.
	if _, live := s.cronSeries[series.handle]; !live {
		return err
	}
	if armErr := s.armCron(series); armErr != nil {
		delete(s.cronSeries, series.handle)
		s.log.Warn().Err(armErr).Uint64("handle", uint64(series.handle)).Msg("cron series stopped")
		return errors.Join(err, armErr)
	}
	return err
}

// Wall maps a virtual instant to wall-clock time: Epoch + t*Unit.
func (s *Scheduler) Wall(t Time) time.Time {
	return s.epoch.Add(time.Duration(t) * s.unit)
}

// Ticks converts a wall-clock duration to virtual ticks, rounding up so
// that a converted delay never fires early. Non-positive durations map to 0.
func (s *Scheduler) Ticks(d time.Duration) Duration {
	if d <= 0 {
		return 0
	}
	ticks := d / s.unit
	if d%s.unit != 0 {
		ticks++
	}
	return Duration(ticks)
}

// timeAt returns the first virtual instant whose wall image is not before w.
func (s *Scheduler) timeAt(w time.Time) Time {
	return Time(s.Ticks(w.Sub(s.epoch)))
}

// Clock is a wall-clock view of a scheduler's virtual time. It satisfies
// the Clock interface of the bucket rate limiter.
type Clock struct {
	s *Scheduler
}

// Now returns the wall-clock image of the scheduler's current virtual time.
func (c Clock) Now() time.Time {
	return c.s.Wall(c.s.now)
}

// WallClock returns a Clock bound to s.
func (s *Scheduler) WallClock() Clock {
	return Clock{s: s}
}
