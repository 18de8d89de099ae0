package install

import (
	"context"
	"strconv"

	"github.com/NielsdaWheelz/envsetup/internal/errors"
	"github.com/NielsdaWheelz/envsetup/internal/report"
	"github.com/NielsdaWheelz/envsetup/internal/shell"
)

// Action performs one install attempt.
type Action func(ctx context.Context) shell.Outcome

// Target describes what an installer is reporting about.
type Target struct {
	Title  string
	Prefix string
	Step   string
}

// Direct runs action once and reports it. An unsuccessful outcome is an
// E_INSTALL_FAILED error whose message is the composed summary; no retry
// is ever attempted.
func Direct(ctx context.Context, rep report.Reporter, t Target, action Action) error {
	out := action(ctx)

	disposition := report.Success
	if !out.Success() {
		disposition = report.TerminalFailure
	}
	rec := report.Compose(out, report.Context{
		Title:       t.Title,
		Prefix:      t.Prefix,
		Step:        t.Step,
		Disposition: disposition,
	})
	rep.Entry(rec)

	if out.Success() {
		return nil
	}
	if ctx.Err() != nil {
		return errors.Wrap(errors.EInterrupted, rec.Summary, ctx.Err())
	}
	return errors.WrapWithDetails(errors.EInstallFailed, rec.Summary, out.Err, outcomeDetails(t.Step, out))
}

// outcomeDetails is the error context for a failed outcome.
func outcomeDetails(step string, out shell.Outcome) map[string]string {
	d := map[string]string{
		"op":        step,
		"command":   out.Command,
		"exit_code": strconv.Itoa(out.ExitCode),
		"output":    out.Stderr,
	}
	if out.TimedOut {
		d["timed_out"] = "true"
	}
	return d
}
