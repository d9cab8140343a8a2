package benchmark

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/vnykmshr/tickloop/pkg/scheduling/scheduler"
	"github.com/vnykmshr/tickloop/pkg/scheduling/timerqueue"
	"github.com/vnykmshr/tickloop/pkg/scheduling/timers"
)

func sizeLabel(n int) string {
	return fmt.Sprintf("tasks-%d", n)
}

func noop() error { return nil }

// BenchmarkQueueInsertPop measures filling the queue and draining it.
func BenchmarkQueueInsertPop(b *testing.B) {
	for _, n := range []int{100, 1000, 10000} {
		b.Run(sizeLabel(n), func(b *testing.B) {
			rng := rand.New(rand.NewSource(1))
			fireAts := make([]timerqueue.Time, n)
			for i := range fireAts {
				fireAts[i] = timerqueue.Time(rng.Intn(n))
			}

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				q := timerqueue.New()
				for j, at := range fireAts {
					q.Insert(&timerqueue.Task{ID: timerqueue.ID(j + 1), FireAt: at, Seq: uint64(j), Action: noop})
				}
				for {
					next, ok := q.PeekNextFireTime()
					if !ok {
						break
					}
					q.PopDueBefore(next)
				}
			}
		})
	}
}

// BenchmarkQueueCancel measures cancellation with compaction.
func BenchmarkQueueCancel(b *testing.B) {
	const n = 10000

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		b.StopTimer()
		q := timerqueue.New()
		for j := 0; j < n; j++ {
			q.Insert(&timerqueue.Task{ID: timerqueue.ID(j + 1), FireAt: timerqueue.Time(j), Seq: uint64(j), Action: noop})
		}
		b.StartTimer()

		for j := 0; j < n; j += 2 {
			q.Cancel(timerqueue.ID(j + 1))
		}
	}
}

// BenchmarkSchedulerRunUntilIdle measures the full schedule-and-drain cycle.
func BenchmarkSchedulerRunUntilIdle(b *testing.B) {
	for _, n := range []int{100, 1000, 10000} {
		b.Run(sizeLabel(n), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				s := scheduler.New()
				for j := 0; j < n; j++ {
					if _, err := s.Schedule(scheduler.Duration(j%97), noop); err != nil {
						b.Fatal(err)
					}
				}
				if err := s.RunUntilIdle(); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkSchedulerDeferred measures the deferred tier.
func BenchmarkSchedulerDeferred(b *testing.B) {
	s := scheduler.New()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = s.Defer(noop)
		if i%1000 == 999 {
			_ = s.RunUntilIdle()
		}
	}
	_ = s.RunUntilIdle()
}

// BenchmarkEvery measures a self-rescheduling ticker.
func BenchmarkEvery(b *testing.B) {
	s := scheduler.New()
	if _, err := timers.Every(s, 10, noop); err != nil {
		b.Fatal(err)
	}

	b.ReportAllocs()
	b.ResetTimer()
	if err := s.RunFor(scheduler.Duration(b.N) * 10); err != nil {
		b.Fatal(err)
	}
}
