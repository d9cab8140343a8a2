package scheduler_test

import (
	"errors"
	"fmt"

	"github.com/vnykmshr/tickloop/pkg/scheduling/scheduler"
)

// Example shows that tasks fire in order of their due time, not in the
// order they were scheduled.
func Example() {
	s := scheduler.New()

	say := func(label string) scheduler.Action {
		return func() error {
			fmt.Printf("%s at t=%d\n", label, s.Now())
			return nil
		}
	}

	s.Schedule(200, say("A"))
	s.Schedule(500, say("B"))
	s.Schedule(0, say("C"))
	s.Schedule(350, say("D"))

	if err := s.RunUntilIdle(); err != nil {
		fmt.Println("error:", err)
	}

	// Output:
	// C at t=0
	// A at t=200
	// D at t=350
	// B at t=500
}

// Example_chain shows an action scheduling its successor.
func Example_chain() {
	s := scheduler.New()

	s.Schedule(300, func() error {
		fmt.Println("first", s.Now())
		_, err := s.Schedule(600, func() error {
			fmt.Println("second", s.Now())
			_, err := s.Schedule(200, func() error {
				fmt.Println("third", s.Now())
				return nil
			})
			return err
		})
		return err
	})

	s.RunUntilIdle()

	// Output:
	// first 300
	// second 900
	// third 1100
}

// Example_deferred shows the deferred tier running before the next timer
// task due at the same instant.
func Example_deferred() {
	s := scheduler.New()

	s.Schedule(0, func() error {
		fmt.Println("timer 1")
		return s.Defer(func() error {
			fmt.Println("deferred")
			return nil
		})
	})
	s.Schedule(0, func() error {
		fmt.Println("timer 2")
		return nil
	})

	s.RunUntilIdle()

	// Output:
	// timer 1
	// deferred
	// timer 2
}

// ExampleScheduler_RunFor shows driving the clock in slices.
func ExampleScheduler_RunFor() {
	s := scheduler.New()
	for _, d := range []scheduler.Duration{100, 300, 600} {
		d := d
		s.Schedule(d, func() error {
			fmt.Println("fired", d)
			return nil
		})
	}

	s.RunFor(250)
	fmt.Println("now", s.Now(), "pending", s.Len())
	s.RunFor(250)
	fmt.Println("now", s.Now(), "pending", s.Len())

	// Output:
	// fired 100
	// now 250 pending 2
	// fired 300
	// now 500 pending 1
}

// ExampleScheduler_Cancel shows that a cancelled task never runs.
func ExampleScheduler_Cancel() {
	s := scheduler.New()

	h, _ := s.Schedule(100, func() error {
		fmt.Println("never printed")
		return nil
	})
	s.Schedule(200, func() error {
		fmt.Println("kept")
		return nil
	})
	s.Cancel(h)
	s.Cancel(h)

	s.RunUntilIdle()

	// Output:
	// kept
}

// ExampleScheduler_Schedule_invalidDelay shows the error for a negative delay.
func ExampleScheduler_Schedule_invalidDelay() {
	s := scheduler.New()

	_, err := s.Schedule(-5, func() error { return nil })
	fmt.Println(err)
	fmt.Println("pending:", s.Len())

	// Output:
	// scheduler: invalid delay=-5 (cannot be negative) - the clock never moves backwards; use 0 to run on the next drain pass
	// pending: 0
}

// ExampleActionError shows how a failed action is reported.
func ExampleActionError() {
	s := scheduler.New()

	s.Schedule(10, func() error { return errors.New("disk full") })
	s.Schedule(10, func() error {
		fmt.Println("sibling still runs")
		return nil
	})

	err := s.RunUntilIdle()
	var actionErr *scheduler.ActionError
	if errors.As(err, &actionErr) {
		fmt.Printf("task %d failed at t=%d: %v\n", actionErr.Handle, actionErr.FireAt, actionErr.Err)
	}

	// Output:
	// sibling still runs
	// task 1 failed at t=10: disk full
}

// ExampleScheduler_ScheduleCron runs a cron expression on virtual time.
// With the default unit one tick is one millisecond.
func ExampleScheduler_ScheduleCron() {
	s := scheduler.New()

	h, _ := s.ScheduleCron("*/5 * * * * *", func() error {
		fmt.Println("tick", s.Now(), s.Wall(s.Now()).Format("15:04:05"))
		return nil
	})

	s.RunFor(15_000)
	s.Cancel(h)
	fmt.Println("pending:", s.Len())

	// Output:
	// tick 5000 00:00:05
	// tick 10000 00:00:10
	// tick 15000 00:00:15
	// pending: 0
}
