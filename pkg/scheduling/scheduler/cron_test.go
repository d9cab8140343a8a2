package scheduler

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vnykmshr/tickloop/internal/testutil"
	tlerrors "github.com/vnykmshr/tickloop/pkg/common/errors"
)

func TestScheduleCron_EveryFiveSeconds(t *testing.T) {
	r := require.New(t)
	s := New()
	var fired []Time

	h, err := s.ScheduleCron("*/5 * * * * *", func() error {
		fired = append(fired, s.Now())
		return nil
	})
	r.NoError(err)

	next, ok := s.CronNext(h)
	r.True(ok)
	r.Equal(Time(5000), next)

	r.NoError(s.RunFor(12_000))
	r.Equal([]Time{5000, 10_000}, fired)
	r.Equal(2, s.CronRuns(h))

	next, ok = s.CronNext(h)
	r.True(ok)
	r.Equal(Time(15_000), next)
	r.Equal(1, s.Len())

	pending := s.Pending()
	r.Len(pending, 1)
	r.True(pending[0].Cron)
}

func TestScheduleCron_Cancel(t *testing.T) {
	r := require.New(t)
	s := New()
	runs := 0

	h, err := s.ScheduleCron("*/5 * * * * *", func() error {
		runs++
		return nil
	})
	r.NoError(err)

	r.NoError(s.RunFor(5000))
	r.Equal(1, runs)

	s.Cancel(h)
	r.Equal(0, s.Len())
	_, ok := s.CronNext(h)
	r.False(ok)

	r.NoError(s.RunFor(60_000))
	r.Equal(1, runs)

	// Cancelling again is a no-op.
	s.Cancel(h)
	r.Equal(int64(1), s.Stats().TotalCanceled)
}

func TestScheduleCron_CancelOccurrence(t *testing.T) {
	r := require.New(t)
	s := New()
	runs := 0

	h, err := s.ScheduleCron("*/5 * * * * *", func() error {
		runs++
		return nil
	})
	r.NoError(err)
	r.NoError(s.RunFor(5000))

	pending := s.Pending()
	r.Len(pending, 1)
	r.NotEqual(h, pending[0].Handle)

	// The id of a later occurrence stops the series like the series handle.
	s.Cancel(pending[0].Handle)
	r.Equal(0, s.Len())
	_, ok := s.CronNext(h)
	r.False(ok)

	r.NoError(s.RunFor(60_000))
	r.Equal(1, runs)
	r.Equal(int64(1), s.Stats().TotalCanceled)

	s.Cancel(h)
	r.Equal(int64(1), s.Stats().TotalCanceled)
}

func TestScheduleCron_CancelledBySiblingInSameInstant(t *testing.T) {
	r := require.New(t)
	s := New()
	runs := 0

	var h Handle
	_, err := s.Schedule(5000, func() error {
		s.Cancel(h)
		return nil
	})
	r.NoError(err)
	h, err = s.ScheduleCron("*/5 * * * * *", func() error {
		runs++
		return nil
	})
	r.NoError(err)

	r.NoError(s.RunFor(60_000))
	r.Equal(0, runs)
	r.Equal(0, s.Len())
	r.Equal(int64(1), s.Stats().TotalCanceled)
}

func TestScheduleCron_CancelFromAction(t *testing.T) {
	r := require.New(t)
	s := New()
	runs := 0

	var h Handle
	h, err := s.ScheduleCron("@every 1s", func() error {
		runs++
		if runs == 3 {
			s.Cancel(h)
		}
		return nil
	})
	r.NoError(err)

	r.NoError(s.RunUntilIdle())
	r.Equal(3, runs)
	r.Equal(Time(3000), s.Now())
	r.Equal(0, s.Len())
}

func TestScheduleCron_FailureKeepsSeries(t *testing.T) {
	r := require.New(t)
	s := New()
	errFirst := errors.New("first run failed")
	runs := 0

	h, err := s.ScheduleCron("*/5 * * * * *", func() error {
		runs++
		if runs == 1 {
			return errFirst
		}
		return nil
	})
	r.NoError(err)

	err = s.RunFor(11_000)
	r.ErrorIs(err, errFirst)
	r.ErrorIs(err, tlerrors.ErrActionFailed)
	r.Equal(Time(5000), s.Now())

	next, ok := s.CronNext(h)
	r.True(ok)
	r.Equal(Time(10_000), next)

	r.NoError(s.RunFor(6000))
	r.Equal(2, runs)
}

func TestScheduleCron_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		expr   string
		action Action
	}{
		{"empty", "", func() error { return nil }},
		{"garbage", "not a cron", func() error { return nil }},
		{"five fields", "*/5 * * * *", func() error { return nil }},
		{"nil action", "@hourly", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New()
			_, err := s.ScheduleCron(tt.expr, tt.action)
			testutil.AssertError(t, err)
			if !tlerrors.IsValidationError(err) {
				t.Errorf("expected a validation error, got %v", err)
			}
			testutil.AssertEqual(t, s.Len(), 0)
		})
	}
}

func TestScheduleCron_EpochAndUnit(t *testing.T) {
	r := require.New(t)
	s := NewWithConfig(Config{
		Unit:  time.Second,
		Epoch: time.Date(2024, time.March, 4, 8, 59, 0, 0, time.UTC),
	})
	var fired []Time

	_, err := s.ScheduleCron("0 0 9 * * *", func() error {
		fired = append(fired, s.Now())
		return nil
	})
	r.NoError(err)

	r.NoError(s.RunFor(2 * 24 * 60 * 60))
	r.Equal([]Time{60, 60 + 24*60*60}, fired)
}

func TestScheduleCron_WithOneShotTasks(t *testing.T) {
	s := NewWithConfig(Config{Unit: time.Second})
	log := newLog(s)

	_, err := s.ScheduleCron("@every 2s", log.Func("cron"))
	testutil.AssertNoError(t, err)
	mustSchedule(t, s, 3, log.Func("once"))

	testutil.AssertNoError(t, s.RunFor(6))
	testutil.AssertEqual(t, log.String(), "cron@2 once@3 cron@4 cron@6")
}

func TestScheduler_WallClock(t *testing.T) {
	s := New()

	testutil.AssertEqual(t, s.Wall(0), DefaultEpoch)
	testutil.AssertEqual(t, s.Wall(1500), DefaultEpoch.Add(1500*time.Millisecond))

	tests := []struct {
		d    time.Duration
		want Duration
	}{
		{-time.Second, 0},
		{0, 0},
		{time.Microsecond, 1},
		{time.Millisecond, 1},
		{1500 * time.Microsecond, 2},
		{time.Minute, 60_000},
	}
	for _, tt := range tests {
		testutil.AssertEqual(t, s.Ticks(tt.d), tt.want)
	}

	clock := s.WallClock()
	testutil.AssertNoError(t, s.RunFor(250))
	testutil.AssertEqual(t, clock.Now(), DefaultEpoch.Add(250*time.Millisecond))
}
