// Package testutil holds test doubles shared across envsetup packages.
package testutil

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/NielsdaWheelz/envsetup/internal/exec"
)

// Call is one recorded FakeRunner invocation.
type Call struct {
	Name string
	Args []string
	Opts exec.RunOpts
}

// Line renders the call as "name arg1 arg2".
func (c Call) Line() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Response is a canned FakeRunner reply.
type Response struct {
	Result exec.CmdResult
	Err    error
}

// OK is a zero-exit response.
func OK(stdout string) Response {
	return Response{Result: exec.CmdResult{Stdout: stdout}}
}

// Fail is a non-zero exit response.
func Fail(code int, stderr string) Response {
	return Response{Result: exec.CmdResult{ExitCode: code, Stderr: stderr}}
}

// FakeRunner is a test double for exec.CommandRunner.
//
// Responses are consumed in order. Once exhausted, Handler is consulted if
// set; otherwise every call succeeds with empty output.
type FakeRunner struct {
	Calls     []Call
	Responses []Response
	Handler   func(name string, args []string) Response

	next int
}

// NewFakeRunner creates a FakeRunner replaying responses in order.
func NewFakeRunner(responses ...Response) *FakeRunner {
	return &FakeRunner{Responses: responses}
}

// Run implements exec.CommandRunner.
func (f *FakeRunner) Run(ctx context.Context, name string, args []string, opts exec.RunOpts) (exec.CmdResult, error) {
	f.Calls = append(f.Calls, Call{Name: name, Args: append([]string(nil), args...), Opts: opts})

	var resp Response
	switch {
	case f.next < len(f.Responses):
		resp = f.Responses[f.next]
		f.next++
	case f.Handler != nil:
		resp = f.Handler(name, args)
	}

	// Started commands always report a duration; a start failure does not.
	if resp.Err == nil && resp.Result.Duration == 0 {
		resp.Result.Duration = time.Millisecond
	}
	return resp.Result, resp.Err
}

// LookPath implements exec.CommandRunner.
func (f *FakeRunner) LookPath(file string) (string, error) {
	return "/usr/bin/" + file, nil
}

// Lines returns every recorded call rendered with Call.Line.
func (f *FakeRunner) Lines() []string {
	lines := make([]string, len(f.Calls))
	for i, c := range f.Calls {
		lines[i] = c.Line()
	}
	return lines
}

// UnsetEnvsetupEnv clears ENVSETUP_* variables inherited from the CI host
// so configuration tests see only what they set.
func UnsetEnvsetupEnv() error {
	for _, kv := range os.Environ() {
		name, _, _ := strings.Cut(kv, "=")
		if !strings.HasPrefix(name, "ENVSETUP_") {
			continue
		}
		if err := os.Unsetenv(name); err != nil {
			return fmt.Errorf("unset %s: %w", name, err)
		}
	}
	return nil
}
