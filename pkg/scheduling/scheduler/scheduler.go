package scheduler

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime/debug"
	"time"

	"github.com/eapache/queue"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	tlerrors "github.com/vnykmshr/tickloop/pkg/common/errors"
	"github.com/vnykmshr/tickloop/pkg/common/validation"
	"github.com/vnykmshr/tickloop/pkg/metrics"
	"github.com/vnykmshr/tickloop/pkg/scheduling/timerqueue"
	"github.com/vnykmshr/tickloop/pkg/trace"
)

// Time is an absolute instant on the virtual clock, in ticks.
type Time = timerqueue.Time

// Duration is a span of virtual time, in ticks.
type Duration = int64

// Handle identifies a scheduled task and is used to cancel it.
type Handle = timerqueue.ID

// Action is a unit of work run by the scheduler. Arguments are bound by
// closing over them when the action is built.
type Action = timerqueue.Action

// TaskInfo is a read-only snapshot of a pending task.
type TaskInfo struct {
	Handle Handle
	FireAt Time
	Seq    uint64
	Cron   bool
}

// Stats reports scheduler counters.
type Stats struct {
	TotalScheduled   int64
	TotalExecuted    int64
	TotalFailed      int64
	TotalCanceled    int64
	TotalDeferred    int64
	CurrentScheduled int
	CurrentDeferred  int
	Now              Time
}

// ActionError reports an action that returned an error or panicked.
// It matches errors.ErrActionFailed as well as the action's own error.
type ActionError struct {
	Handle   Handle // zero for deferred actions
	FireAt   Time
	Deferred bool
	Err      error
}

func (e *ActionError) Error() string {
	if e.Deferred {
		return fmt.Sprintf("scheduler: deferred action at t=%d failed: %v", e.FireAt, e.Err)
	}
	return fmt.Sprintf("scheduler: action %d at t=%d failed: %v", e.Handle, e.FireAt, e.Err)
}

// Unwrap exposes both the failure sentinel and the action's error.
func (e *ActionError) Unwrap() []error {
	return []error{tlerrors.ErrActionFailed, e.Err}
}

// Config holds scheduler configuration.
type Config struct {
	// Name labels log lines and metrics (default: "default").
	Name string

	// Start is the initial virtual time (default: 0).
	Start Time

	// Unit is the wall-clock length of one tick (default: time.Millisecond).
	// It only matters for cron expressions and WallClock.
	Unit time.Duration

	// Epoch is the wall-clock instant virtual time 0 maps to
	// (default: 2000-01-01T00:00:00Z).
	Epoch time.Time

	// Location is used to evaluate cron expressions (default: time.UTC).
	Location *time.Location

	// MaxTasks caps the number of pending timer tasks (0 = unlimited).
	MaxTasks int

	// Logger receives debug and warning events (default: disabled).
	Logger *zerolog.Logger

	// Recorder receives one entry per executed action.
	Recorder trace.Recorder

	// Metrics enables Prometheus instrumentation under Name.
	Metrics *metrics.Registry

	// OnTaskScheduled is called after a timer task is queued.
	OnTaskScheduled func(task TaskInfo)

	// OnTaskExecuted is called after a timer task's action returns.
	OnTaskExecuted func(task TaskInfo, err error)

	// OnTaskCanceled is called when a pending task is cancelled.
	OnTaskCanceled func(task TaskInfo)
}

// DefaultEpoch is the wall-clock instant virtual time 0 maps to by default.
var DefaultEpoch = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// Scheduler runs actions in virtual-time order on a single logical thread.
// It is not safe for concurrent use: every method must be called from the
// goroutine that drives it, or from actions it is running.
type Scheduler struct {
	name     string
	unit     time.Duration
	epoch    time.Time
	location *time.Location
	maxTasks int

	log      zerolog.Logger
	obs      *metrics.Observer
	recorder trace.Recorder

	onScheduled func(TaskInfo)
	onExecuted  func(TaskInfo, error)
	onCanceled  func(TaskInfo)

	queue    *timerqueue.Queue
	deferred *queue.Queue
	now      Time
	nextID   Handle
	nextSeq  uint64
	running  bool

	// Tasks of the instant being drained that have not run yet.
	batch  []*timerqueue.Task
	popped map[Handle]*timerqueue.Task

	cronParser cron.Parser
	cronSeries map[Handle]*cronSeries // series handle -> state
	cronTasks  map[Handle]Handle      // live task id -> series handle

	stats Stats
}

// New creates a scheduler with default configuration.
func New() *Scheduler {
	return NewWithConfig(Config{})
}

// NewWithConfig creates a scheduler with custom configuration. Invalid
// values are replaced by defaults; use NewWithConfigSafe to reject them.
func NewWithConfig(cfg Config) *Scheduler {
	name := cfg.Name
	if name == "" {
		name = "default"
	}

	unit := cfg.Unit
	if unit <= 0 {
		unit = time.Millisecond
	}

	epoch := cfg.Epoch
	if epoch.IsZero() {
		epoch = DefaultEpoch
	}

	location := cfg.Location
	if location == nil {
		location = time.UTC
	}

	start := cfg.Start
	if start < 0 {
		start = 0
	}

	maxTasks := cfg.MaxTasks
	if maxTasks < 0 {
		maxTasks = 0
	}

	logger := zerolog.Nop()
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	s := &Scheduler{
		name:        name,
		unit:        unit,
		epoch:       epoch,
		location:    location,
		maxTasks:    maxTasks,
		log:         logger.With().Str("component", "scheduler").Str("scheduler", name).Logger(),
		obs:         cfg.Metrics.For(name),
		recorder:    cfg.Recorder,
		onScheduled: cfg.OnTaskScheduled,
		onExecuted:  cfg.OnTaskExecuted,
		onCanceled:  cfg.OnTaskCanceled,
		queue:       timerqueue.New(),
		deferred:    queue.New(),
		popped:      make(map[Handle]*timerqueue.Task),
		now:         start,
		cronParser:  cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
		cronSeries:  make(map[Handle]*cronSeries),
		cronTasks:   make(map[Handle]Handle),
	}
	s.publish()
	return s
}

// NewWithConfigSafe validates cfg and returns an error instead of
// silently applying defaults to invalid values.
func NewWithConfigSafe(cfg Config) (*Scheduler, error) {
	if err := validation.ValidateNonNegative("scheduler", "start", int64(cfg.Start)); err != nil {
		return nil, err
	}
	if err := validation.ValidateNonNegative("scheduler", "unit", int64(cfg.Unit)); err != nil {
		return nil, err
	}
	if err := validation.ValidateNonNegative("scheduler", "max_tasks", int64(cfg.MaxTasks)); err != nil {
		return nil, err
	}
	return NewWithConfig(cfg), nil
}

// Now returns the current virtual time.
func (s *Scheduler) Now() Time {
	return s.now
}

// Schedule queues action to run delay ticks from now. It never runs the
// action immediately, not even for a zero delay: the earliest it can run
// is the next drain pass of RunUntilIdle or RunFor.
// A negative delay fails with an error matching errors.ErrInvalidDelay and
// leaves the queue unchanged.
func (s *Scheduler) Schedule(delay Duration, action Action) (Handle, error) {
	t, err := s.newTask(delay, action)
	if err != nil {
		return 0, err
	}
	s.insert(t)
	return t.ID, nil
}

func (s *Scheduler) newTask(delay Duration, action Action) (*timerqueue.Task, error) {
	if err := validation.ValidateDelay("scheduler", delay); err != nil {
		return nil, err
	}
	if action == nil {
		return nil, tlerrors.NewValidationError("scheduler", "action", nil, "cannot be nil").
			WithHint("provide a func() error")
	}
	if delay > math.MaxInt64-int64(s.now) {
		return nil, tlerrors.NewValidationError("scheduler", "delay", delay, "overflows the virtual clock").
			WithKind(tlerrors.ErrInvalidDelay)
	}
	if s.maxTasks > 0 && s.queue.Len() >= s.maxTasks {
		return nil, fmt.Errorf("cannot schedule task: maximum number of tasks (%d) reached: %w",
			s.maxTasks, tlerrors.ErrCapacityExceeded)
	}

	s.nextID++
	s.nextSeq++
	return &timerqueue.Task{
		ID:     s.nextID,
		FireAt: s.now + Time(delay),
		Seq:    s.nextSeq,
		Action: action,
	}, nil
}

func (s *Scheduler) insert(t *timerqueue.Task) {
	s.queue.Insert(t)
	s.stats.TotalScheduled++
	s.obs.Scheduled()
	s.publish()

	s.log.Debug().
		Uint64("handle", uint64(t.ID)).
		Int64("fire_at", int64(t.FireAt)).
		Uint64("seq", t.Seq).
		Msg("task scheduled")

	if s.onScheduled != nil {
		s.onScheduled(s.info(t))
	}
}

// Defer queues action on the deferred tier. Deferred actions run in FIFO
// order after the currently running action returns and before the next
// timer action or clock advance. An action deferring more work keeps the
// tier busy; the clock does not move until it is empty.
func (s *Scheduler) Defer(action Action) error {
	if action == nil {
		return tlerrors.NewValidationError("scheduler", "action", nil, "cannot be nil").
			WithHint("provide a func() error")
	}
	s.deferred.Add(action)
	s.publish()
	return nil
}

// Cancel prevents a pending task from running. Unknown, fired and already
// cancelled handles are ignored. A task due at the current instant can still
// be cancelled by an earlier task of that instant. Cancelling a cron handle,
// or the handle of any of its occurrences, stops the whole series.
func (s *Scheduler) Cancel(h Handle) {
	if owner, ok := s.cronTasks[h]; ok {
		h = owner
	}
	if series, ok := s.cronSeries[h]; ok {
		delete(s.cronSeries, h)
		s.cancelTask(series.current)
		delete(s.cronTasks, series.current)
		return
	}
	s.cancelTask(h)
}

func (s *Scheduler) cancelTask(id Handle) {
	t, ok := s.queue.Get(id)
	switch {
	case ok:
		s.queue.Cancel(id)
	case s.popped[id] != nil:
		t = s.popped[id]
		delete(s.popped, id)
	default:
		return
	}
	info := s.info(t)

	s.stats.TotalCanceled++
	s.obs.Canceled()
	s.publish()
	s.log.Debug().Uint64("handle", uint64(id)).Msg("task canceled")
	if s.onCanceled != nil {
		s.onCanceled(info)
	}
}

// CancelAll cancels every pending timer task and cron series and drops all
// deferred actions.
func (s *Scheduler) CancelAll() {
	var cleared []*timerqueue.Task
	for _, t := range s.batch {
		if _, ok := s.popped[t.ID]; ok {
			delete(s.popped, t.ID)
			cleared = append(cleared, t)
		}
	}
	cleared = append(cleared, s.queue.Clear()...)
	s.cronSeries = make(map[Handle]*cronSeries)
	s.cronTasks = make(map[Handle]Handle)
	for s.deferred.Length() > 0 {
		s.deferred.Remove()
	}

	s.stats.TotalCanceled += int64(len(cleared))
	for _, t := range cleared {
		s.obs.Canceled()
		if s.onCanceled != nil {
			s.onCanceled(s.info(t))
		}
	}
	s.publish()
	s.log.Debug().Int("count", len(cleared)).Msg("all tasks canceled")
}

// RunUntilIdle drives the clock until no timer task or deferred action is
// left. See RunFor for the error contract.
func (s *Scheduler) RunUntilIdle() error {
	return s.run("RunUntilIdle", 0, false)
}

// RunFor drives the clock like RunUntilIdle but never runs a task due after
// Now()+duration. When the horizon is reached without error the clock is
// left at exactly Now()+duration, so a later call resumes from there.
//
// If actions fail, every other task due at the same instant still runs;
// then the loop stops and returns an error that errors.As resolves to the
// first *ActionError. Tasks due later stay queued for another call.
func (s *Scheduler) RunFor(duration Duration) error {
	if err := validation.ValidateNonNegative("scheduler", "duration", duration); err != nil {
		return err
	}
	if duration > math.MaxInt64-int64(s.now) {
		return tlerrors.NewValidationError("scheduler", "duration", duration, "overflows the virtual clock")
	}
	return s.run("RunFor", s.now+Time(duration), true)
}

func (s *Scheduler) run(op string, horizon Time, bounded bool) error {
	if s.running {
		return tlerrors.NewOperationError("scheduler", op, tlerrors.ErrReentrantRun)
	}
	s.running = true
	defer func() { s.running = false }()

	// Deferred actions queued before the call belong to the current instant.
	if errs := s.drainDeferred(nil); len(errs) > 0 {
		return s.failure(errs)
	}

	for {
		next, ok := s.queue.PeekNextFireTime()
		if !ok || (bounded && next > horizon) {
			break
		}
		s.advance(next)

		s.batch = s.queue.PopDueBefore(next)
		for _, t := range s.batch {
			s.popped[t.ID] = t
		}
		s.obs.Batch(len(s.batch))
		s.publish()

		var errs []error
		for _, t := range s.batch {
			if _, live := s.popped[t.ID]; !live {
				continue // cancelled by an earlier task of this instant
			}
			delete(s.popped, t.ID)
			if err := s.execute(t); err != nil {
				errs = append(errs, err)
			}
			errs = s.drainDeferred(errs)
		}
		s.batch = nil
		if len(errs) > 0 {
			return s.failure(errs)
		}
	}

	if bounded && horizon > s.now {
		s.advance(horizon)
	}
	return nil
}

func (s *Scheduler) advance(to Time) {
	if to < s.now {
		// Unreachable while delays are validated; keeps the clock monotonic.
		return
	}
	if to != s.now {
		s.log.Debug().Int64("from", int64(s.now)).Int64("to", int64(to)).Msg("clock advanced")
	}
	s.now = to
	s.publish()
}

func (s *Scheduler) execute(t *timerqueue.Task) error {
	info := s.info(t)
	err := invoke(t.Action)
	s.stats.TotalExecuted++
	s.obs.Executed(err != nil)

	entry := trace.Entry{
		Handle: uint64(t.ID),
		FireAt: int64(t.FireAt),
		Seq:    t.Seq,
		Kind:   trace.KindTimer,
	}

	var result error
	if err != nil {
		s.stats.TotalFailed++
		result = &ActionError{Handle: t.ID, FireAt: t.FireAt, Err: err}
		entry.Err = err.Error()
		s.log.Warn().Err(err).Uint64("handle", uint64(t.ID)).Int64("fire_at", int64(t.FireAt)).Msg("action failed")
	} else {
		s.log.Debug().Uint64("handle", uint64(t.ID)).Int64("fire_at", int64(t.FireAt)).Msg("task fired")
	}

	if recErr := s.record(entry); recErr != nil {
		result = errors.Join(result, recErr)
	}
	if s.onExecuted != nil {
		s.onExecuted(info, err)
	}
	return result
}

// drainDeferred runs the deferred tier until it is empty, appending any
// failures to errs.
func (s *Scheduler) drainDeferred(errs []error) []error {
	for s.deferred.Length() > 0 {
		action := s.deferred.Remove().(Action)
		err := invoke(action)
		s.stats.TotalDeferred++
		s.obs.DeferredExecuted(err != nil)

		entry := trace.Entry{FireAt: int64(s.now), Kind: trace.KindDeferred}
		if err != nil {
			s.stats.TotalFailed++
			entry.Err = err.Error()
			errs = append(errs, &ActionError{FireAt: s.now, Deferred: true, Err: err})
			s.log.Warn().Err(err).Int64("at", int64(s.now)).Msg("deferred action failed")
		}
		if recErr := s.record(entry); recErr != nil {
			errs = append(errs, recErr)
		}
	}
	s.publish()
	return errs
}

func (s *Scheduler) record(e trace.Entry) error {
	if s.recorder == nil {
		return nil
	}
	if err := s.recorder.Record(context.Background(), e); err != nil {
		s.log.Warn().Err(err).Msg("trace record failed")
		return tlerrors.NewOperationError("scheduler", "record", err)
	}
	return nil
}

// failure builds the error returned by a run method: the first failure,
// with any further ones of the same pass joined to it.
func (s *Scheduler) failure(errs []error) error {
	if len(errs) == 1 {
		return errs[0]
	}
	return errors.Join(errs...)
}

// invoke runs action and converts a panic into an error.
func invoke(action Action) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("action panicked: %v\nStack trace:\n%s", r, debug.Stack())
		}
	}()
	return action()
}

func (s *Scheduler) info(t *timerqueue.Task) TaskInfo {
	_, isCron := s.cronTasks[t.ID]
	return TaskInfo{Handle: t.ID, FireAt: t.FireAt, Seq: t.Seq, Cron: isCron}
}

func (s *Scheduler) publish() {
	s.obs.State(int64(s.now), s.queue.Len(), s.deferred.Length())
}

// Len returns the number of pending timer tasks.
func (s *Scheduler) Len() int {
	return s.queue.Len()
}

// Deferred returns the number of deferred actions waiting to run.
func (s *Scheduler) Deferred() int {
	return s.deferred.Length()
}

// Pending returns the pending timer tasks in firing order.
func (s *Scheduler) Pending() []TaskInfo {
	tasks := s.queue.Tasks()
	out := make([]TaskInfo, len(tasks))
	for i, t := range tasks {
		out[i] = s.info(t)
	}
	return out
}

// Stats returns current scheduler statistics.
func (s *Scheduler) Stats() Stats {
	st := s.stats
	st.CurrentScheduled = s.queue.Len()
	st.CurrentDeferred = s.deferred.Length()
	st.Now = s.now
	return st
}

// Name returns the configured scheduler name.
func (s *Scheduler) Name() string {
	return s.name
}
