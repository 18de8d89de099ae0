package install

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/NielsdaWheelz/envsetup/internal/errors"
	"github.com/NielsdaWheelz/envsetup/internal/report"
	"github.com/NielsdaWheelz/envsetup/internal/retry"
	"github.com/NielsdaWheelz/envsetup/internal/shell"
)

// Retrying runs action under policy until it succeeds or the sleep budget
// is spent, reporting every attempt. Titles get " (attempt N)" appended.
//
// Exhaustion returns E_RETRY_EXHAUSTED wrapping *retry.ExhaustedError.
// Cancellation during a sleep returns E_INTERRUPTED.
func Retrying(
	ctx context.Context,
	rep report.Reporter,
	policy retry.Policy,
	sleeper retry.Sleeper,
	t Target,
	action Action,
) (retry.Result, error) {
	var last shell.Outcome

	observe := func(n int, out shell.Outcome, d retry.Decision) {
		last = out
		rep.Entry(report.Compose(out, report.Context{
			Title:       fmt.Sprintf("%s (attempt %d)", t.Title, n),
			Prefix:      t.Prefix,
			Step:        t.Step,
			Attempt:     n,
			Disposition: disposition(d),
			RetryIn:     d.Sleep,
			Retried:     true,
		}))
	}

	res, err := retry.Run(ctx, policy, sleeper,
		func(ctx context.Context, _ int) shell.Outcome { return action(ctx) },
		shell.Outcome.Success,
		observe,
	)
	if err == nil {
		return res, nil
	}

	var exhausted *retry.ExhaustedError
	if stderrors.As(err, &exhausted) {
		details := outcomeDetails(t.Step, last)
		details["attempts"] = fmt.Sprintf("%d", exhausted.Attempts)
		details["elapsed"] = exhausted.Elapsed.String()
		details["wall"] = res.Wall.String()
		details["sleep"] = policy.Sleep.String()
		details["budget"] = policy.Budget.String()
		msg := fmt.Sprintf("%s failed after %d tries totaling %s seconds.",
			t.Prefix, exhausted.Attempts, report.FormatSeconds(exhausted.Elapsed))
		return res, errors.WrapWithDetails(errors.ERetryExhausted, msg, err, details)
	}

	return res, errors.WrapWithDetails(errors.EInterrupted,
		fmt.Sprintf("%s was interrupted after %d tries.", t.Prefix, res.Attempts), err,
		map[string]string{"op": t.Step, "attempts": fmt.Sprintf("%d", res.Attempts)})
}

func disposition(d retry.Decision) report.Disposition {
	switch d.Action {
	case retry.Succeed:
		return report.Success
	case retry.Continue:
		return report.WillRetry
	default:
		return report.TerminalFailure
	}
}
