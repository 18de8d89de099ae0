package retry

import (
	"context"
	"fmt"
	"time"
)

// Sleeper blocks between attempts. Tests substitute a recording fake.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// TimerSleeper sleeps on a real timer and returns early if ctx is done.
type TimerSleeper struct{}

// Sleep implements Sleeper.
func (TimerSleeper) Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Result describes a successful retry sequence.
type Result struct {
	Attempts int
	// Elapsed is the total time spent sleeping between attempts.
	Elapsed time.Duration
	// Wall is the wall-clock duration of the whole sequence.
	Wall time.Duration
}

// ExhaustedError is returned when every attempt failed within the budget.
type ExhaustedError struct {
	Attempts int
	Elapsed  time.Duration
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("failed after %d tries totaling %s of sleep", e.Attempts, e.Elapsed)
}

// Observer is told about every attempt before the loop acts on the decision.
type Observer[T any] func(attempt int, value T, d Decision)

// Run calls attempt until ok reports success or the policy's budget runs out.
//
// Every attempt is passed to observe (may be nil) together with the decision
// taken for it, so the final failed attempt is observed with Action Fail,
// never Continue. On exhaustion Run returns *ExhaustedError. If ctx is
// cancelled before an attempt or during a sleep, Run returns ctx.Err()
// without starting another attempt.
func Run[T any](
	ctx context.Context,
	p Policy,
	sleeper Sleeper,
	attempt func(ctx context.Context, n int) T,
	ok func(T) bool,
	observe Observer[T],
) (Result, error) {
	start := time.Now()
	var elapsed time.Duration

	for n := 1; ; n++ {
		if err := ctx.Err(); err != nil {
			return Result{Attempts: n - 1, Elapsed: elapsed, Wall: time.Since(start)}, err
		}
		value := attempt(ctx, n)
		d := p.Next(elapsed, ok(value))
		if observe != nil {
			observe(n, value, d)
		}

		switch d.Action {
		case Succeed:
			return Result{Attempts: n, Elapsed: elapsed, Wall: time.Since(start)}, nil
		case Fail:
			return Result{Attempts: n, Elapsed: elapsed, Wall: time.Since(start)},
				&ExhaustedError{Attempts: n, Elapsed: elapsed}
		}

		if err := sleeper.Sleep(ctx, d.Sleep); err != nil {
			return Result{Attempts: n, Elapsed: elapsed, Wall: time.Since(start)}, err
		}
		elapsed += d.Sleep
	}
}
