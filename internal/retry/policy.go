// Package retry implements the constant-interval, budget-bounded retry
// protocol used for registry installs.
//
// The protocol bounds the total time spent sleeping, not the number of
// attempts. A sleep is only taken while the slept total plus that sleep stays
// strictly below the budget, so with sleep S and budget T the sum of waited
// sleeps never exceeds T and ceil(T/S) attempts are made, at most
// floor(T/S)+1. A budget equal to the sleep (or smaller) therefore allows a
// single attempt and no retry: 1s/1s makes one attempt, 1s/3s makes three.
package retry

import (
	"fmt"
	"time"
)

// Policy is a constant sleep between attempts and a total sleep budget.
type Policy struct {
	Sleep  time.Duration
	Budget time.Duration
}

// NewPolicy validates and returns a Policy.
//
// A zero sleep is rejected: the budget check would never advance and the
// loop would retry forever. A zero budget is valid and means exactly one
// attempt.
func NewPolicy(sleep, budget time.Duration) (Policy, error) {
	if sleep <= 0 {
		return Policy{}, fmt.Errorf("retry sleep must be positive, got %s", sleep)
	}
	if budget < 0 {
		return Policy{}, fmt.Errorf("retry budget must not be negative, got %s", budget)
	}
	return Policy{Sleep: sleep, Budget: budget}, nil
}

// MaxAttempts is the attempt count when every attempt fails:
// ceil(Budget/Sleep), and 1 for a zero budget.
func (p Policy) MaxAttempts() int {
	if p.Sleep <= 0 || p.Budget <= 0 {
		return 1
	}
	return int((p.Budget + p.Sleep - 1) / p.Sleep)
}

// String renders the policy for logs.
func (p Policy) String() string {
	return fmt.Sprintf("every %s for up to %s", p.Sleep, p.Budget)
}

// Action is what the loop does after an attempt.
type Action int

const (
	// Succeed ends the loop successfully.
	Succeed Action = iota
	// Continue sleeps for Decision.Sleep and tries again.
	Continue
	// Fail ends the loop; another sleep would use up the budget.
	Fail
)

func (a Action) String() string {
	switch a {
	case Succeed:
		return "succeed"
	case Continue:
		return "continue"
	case Fail:
		return "fail"
	}
	return fmt.Sprintf("Action(%d)", int(a))
}

// Decision is the outcome of Next.
type Decision struct {
	Action Action
	Sleep  time.Duration
}

// Next decides what follows an attempt, given the sleep already spent.
// It has no side effects.
func (p Policy) Next(elapsed time.Duration, succeeded bool) Decision {
	if succeeded {
		return Decision{Action: Succeed}
	}
	if elapsed+p.Sleep >= p.Budget {
		return Decision{Action: Fail}
	}
	return Decision{Action: Continue, Sleep: p.Sleep}
}
