// Package shell normalizes command executions into Outcome values.
// Callers never inspect raw process results; they consume an Outcome.
package shell

import (
	"context"
	"fmt"
	"strings"

	"github.com/acarl005/stripansi"

	"github.com/NielsdaWheelz/envsetup/internal/exec"
)

// Outcome is the normalized result of running one external command.
type Outcome struct {
	Command  string
	Executed bool
	ExitCode int
	Stdout   string
	Stderr   string
	TimedOut bool

	// Err is set when the command could not be started.
	Err error
}

// Success reports whether the command executed and exited zero.
func (o Outcome) Success() bool {
	return o.Executed && o.ExitCode == 0 && !o.TimedOut
}

// Summary is a one-line human description of the outcome.
func (o Outcome) Summary() string {
	switch {
	case !o.Executed && o.Err != nil:
		return fmt.Sprintf("The command could not be executed: %v.", o.Err)
	case !o.Executed:
		return "The command was not executed."
	case o.TimedOut:
		return "The command timed out and was terminated."
	case o.ExitCode == 0:
		return "The command exited with code 0."
	default:
		return fmt.Sprintf("The command exited with code %d.", o.ExitCode)
	}
}

// Details returns the detail lines attached to every attempt record.
func (o Outcome) Details() []string {
	return []string{
		"Command: " + o.Command,
		fmt.Sprintf("Executed: %t", o.Executed),
		fmt.Sprintf("Exit Code: %d", o.ExitCode),
		"Output: " + o.Stdout,
		"Error: " + o.Stderr,
	}
}

// Run executes name with args through runner and normalizes the result.
// It never returns an error: start failures become an unexecuted Outcome.
func Run(ctx context.Context, runner exec.CommandRunner, name string, args []string, opts exec.RunOpts) Outcome {
	out := Outcome{Command: CommandLine(name, args)}

	res, err := runner.Run(ctx, name, args, opts)
	out.Err = err
	if err != nil && res.Duration == 0 {
		// Never started: the runner returns a zero result alongside the error.
		out.ExitCode = -1
		return out
	}

	out.Executed = true
	out.ExitCode = res.ExitCode
	out.TimedOut = res.TimedOut
	out.Stdout = clean(res.Stdout)
	out.Stderr = clean(res.Stderr)
	if err != nil && out.ExitCode == 0 {
		out.ExitCode = -1
	}
	return out
}

// CommandLine renders a command for display, quoting arguments that contain spaces.
func CommandLine(name string, args []string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, quote(name))
	for _, a := range args {
		parts = append(parts, quote(a))
	}
	return strings.Join(parts, " ")
}

func quote(s string) string {
	if s == "" {
		return "''"
	}
	if strings.ContainsAny(s, " \t\n'\"") {
		return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
	}
	return s
}

// clean strips terminal escapes pip emits for progress bars and trims
// trailing whitespace.
func clean(s string) string {
	return strings.TrimRight(stripansi.Strip(s), " \t\r\n")
}
