// Package exec provides the command execution seam used by envsetup.
// Everything that shells out goes through CommandRunner so tests can
// substitute a fake.
package exec

import (
	"bytes"
	"context"
	stderrors "errors"
	"os"
	osexec "os/exec"
	"syscall"
	"time"
)

// GracePeriod is the duration to wait between SIGINT and SIGKILL when
// terminating a command on timeout or cancellation.
const GracePeriod = 3 * time.Second

// RunOpts configures a single command execution.
type RunOpts struct {
	// Dir is the working directory. Empty means the current directory.
	Dir string

	// Env is the full environment. Nil inherits the parent environment.
	Env []string

	// Timeout bounds the command's wall time. Zero means no timeout.
	Timeout time.Duration
}

// CmdResult is the raw result of a command that was started.
type CmdResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Signal   string
	TimedOut bool
	Duration time.Duration
}

// CommandRunner executes external commands.
//
// Run returns an error only when the command could not be started or was
// cancelled by ctx. A start failure comes with a zero CmdResult. A non-zero
// exit is reported in CmdResult.ExitCode, not as an error.
type CommandRunner interface {
	Run(ctx context.Context, name string, args []string, opts RunOpts) (CmdResult, error)
	LookPath(file string) (string, error)
}

// RealRunner runs commands with os/exec.
type RealRunner struct{}

// NewRealRunner creates a RealRunner.
func NewRealRunner() *RealRunner {
	return &RealRunner{}
}

// LookPath implements CommandRunner.LookPath.
func (r *RealRunner) LookPath(file string) (string, error) {
	return osexec.LookPath(file)
}

// Run implements CommandRunner.Run.
func (r *RealRunner) Run(ctx context.Context, name string, args []string, opts RunOpts) (CmdResult, error) {
	runCtx := ctx
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := osexec.Command(name, args...)
	cmd.Dir = opts.Dir
	cmd.Env = opts.Env
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	devnull, err := os.Open(os.DevNull)
	if err != nil {
		return CmdResult{}, err
	}
	defer func() { _ = devnull.Close() }()
	cmd.Stdin = devnull

	// Own process group so pip and its build backends are signalled together.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return CmdResult{}, err
	}
	pgid := cmd.Process.Pid

	waitDone := make(chan error, 1)
	go func() {
		waitDone <- cmd.Wait()
	}()

	var runErr error
	var timedOut, cancelled bool

	select {
	case runErr = <-waitDone:
	case <-runCtx.Done():
		if ctx.Err() != nil {
			cancelled = true
		} else {
			timedOut = true
		}
		killProcessGroup(pgid)
		runErr = <-waitDone
	}

	result := CmdResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		TimedOut: timedOut,
		Duration: time.Since(start),
	}

	if runErr != nil {
		result.ExitCode = -1
		var exitErr *osexec.ExitError
		if stderrors.As(runErr, &exitErr) {
			if status, ok := exitErr.Sys().(syscall.WaitStatus); ok && status.Signaled() {
				result.Signal = status.Signal().String()
			} else {
				result.ExitCode = exitErr.ExitCode()
			}
		} else {
			return result, runErr
		}
	}

	if cancelled {
		return result, ctx.Err()
	}
	return result, nil
}

// killProcessGroup sends SIGINT to the process group, waits GracePeriod,
// then sends SIGKILL.
func killProcessGroup(pgid int) {
	_ = syscall.Kill(-pgid, syscall.SIGINT)
	time.Sleep(GracePeriod)
	_ = syscall.Kill(-pgid, syscall.SIGKILL)
}
