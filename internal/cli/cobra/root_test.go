package cobra

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NielsdaWheelz/envsetup/internal/errors"
	"github.com/NielsdaWheelz/envsetup/internal/exec"
	"github.com/NielsdaWheelz/envsetup/internal/retry"
	"github.com/NielsdaWheelz/envsetup/internal/testutil"
)

// executeCmd runs the root command with the given args and returns stdout, stderr, and error.
func executeCmd(args ...string) (string, string, error) {
	var stdout, stderr bytes.Buffer
	rootCmd := NewRootCmd()
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

// fakeSeams swaps the runner, sleeper and environment for the test's duration.
func fakeSeams(t *testing.T, runner *testutil.FakeRunner, env map[string]string) *recordingSleeper {
	t.Helper()
	sleeper := &recordingSleeper{}

	origRunner, origSleeper, origLookup := newRunner, newSleeper, lookupEnv
	newRunner = func() exec.CommandRunner { return runner }
	newSleeper = func() retry.Sleeper { return sleeper }
	lookupEnv = func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}
	t.Cleanup(func() {
		newRunner, newSleeper, lookupEnv = origRunner, origSleeper, origLookup
	})
	return sleeper
}

func stagingArgs(repo string, extra ...string) []string {
	args := []string{
		"install",
		"--env-file", filepath.Join(repo, "missing.env"),
		"--repo", repo,
		"--source", "TestPyPI",
		"--name", "foo",
		"--version-pin", "1.2.3",
		"--requirements", "requirements.txt",
		"--tests-path", "./tests",
		"--retry-sleep", "1",
		"--retry-budget", "3",
		"--upgrade-pip=false",
	}
	return append(args, extra...)
}

func TestRoot_Help(t *testing.T) {
	tests := []string{"--help", "-h"}
	for _, arg := range tests {
		t.Run(arg, func(t *testing.T) {
			stdout, _, err := executeCmd(arg)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if !strings.Contains(stdout, "envsetup") {
				t.Error("expected 'envsetup' in help output")
			}
			if !strings.Contains(stdout, "Available Commands") {
				t.Error("expected 'Available Commands' in help output")
			}
			for _, cmd := range []string{"install", "plan", "envinfo", "version"} {
				if !strings.Contains(stdout, cmd) {
					t.Errorf("expected '%s' command in help output", cmd)
				}
			}
		})
	}
}

func TestRoot_Version(t *testing.T) {
	tests := []string{"--version", "-v", "version"}
	for _, arg := range tests {
		t.Run(arg, func(t *testing.T) {
			stdout, _, err := executeCmd(arg)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !strings.Contains(stdout, "envsetup") {
				t.Error("expected 'envsetup' in version output")
			}
		})
	}
}

func TestRoot_UnknownCommand(t *testing.T) {
	_, _, err := executeCmd("nonexistent")
	if err == nil {
		t.Fatal("expected error for unknown command")
	}
	if !strings.Contains(err.Error(), "unknown command") {
		t.Errorf("expected 'unknown command' in error, got: %v", err)
	}
}

func TestInstallCmd_Help(t *testing.T) {
	stdout, _, err := executeCmd("install", "--help")
	require.NoError(t, err)
	for _, flag := range []string{"--source", "--name", "--version-pin", "--path", "--requirements",
		"--tests-path", "--retry-sleep", "--retry-budget", "--upgrade-pip", "--command-timeout"} {
		assert.Contains(t, stdout, flag)
	}
	assert.Contains(t, stdout, "Environment:")
	for _, name := range []string{"ENVSETUP_PKG_SRC", "ENVSETUP_RETRY_SLEEP_SECONDS_TOTAL", "ENVSETUP_UPGRADE_PIP"} {
		assert.Contains(t, stdout, name)
	}
}

func TestInstallCmd_InvalidSource(t *testing.T) {
	runner := testutil.NewFakeRunner()
	fakeSeams(t, runner, nil)
	repo := t.TempDir()

	_, _, err := executeCmd("install", "--env-file", filepath.Join(repo, "x.env"),
		"--source", "gitlab", "--path", ".", "--tests-path", "tests")

	require.Error(t, err)
	assert.Equal(t, errors.EConfig, errors.GetCode(err))
	assert.Equal(t, 2, errors.ExitCode(err))
	assert.Contains(t, err.Error(), "expected one of 'GitHub', 'PyPI', or 'TestPyPI', but got 'gitlab'")
	assert.Empty(t, runner.Calls)
}

func TestInstallCmd_SourceFromEnvironment(t *testing.T) {
	runner := testutil.NewFakeRunner()
	fakeSeams(t, runner, map[string]string{
		"ENVSETUP_PKG_SRC":     "GitHub",
		"ENVSETUP_PKG_PATH":    "./pkg",
		"ENVSETUP_TESTS_PATH":  "./tests",
		"ENVSETUP_UPGRADE_PIP": "false",
	})
	repo := t.TempDir()

	stdout, _, err := executeCmd("install", "--env-file", filepath.Join(repo, "x.env"), "--repo", repo)

	require.NoError(t, err)
	assert.Contains(t, stdout, "[PASS] Install Package From GitHub")
	assert.Equal(t, "python -m pip install ./pkg", runner.Lines()[0])
	assert.Equal(t, "python -m pip install ./tests", runner.Lines()[1])
}

func TestInstallCmd_StagingRetries(t *testing.T) {
	runner := testutil.NewFakeRunner(
		testutil.Fail(1, "ERROR: No matching distribution found for foo==1.2.3"),
		testutil.Fail(1, "ERROR: No matching distribution found for foo==1.2.3"),
		testutil.OK("Successfully installed foo-1.2.3"),
	)
	sleeper := fakeSeams(t, runner, nil)
	repo := t.TempDir()
	eventsPath := filepath.Join(repo, "out", "events.jsonl")
	metricsPath := filepath.Join(repo, "envsetup.prom")

	stdout, stderr, err := executeCmd(stagingArgs(repo,
		"--events-file", eventsPath,
		"--metrics-file", metricsPath)...)

	require.NoError(t, err)
	assert.Equal(t, 2, len(sleeper.sleeps))
	assert.Contains(t, stdout, "== Environment Setup ==")
	assert.Contains(t, stdout, "[SKIP] Install Package Requirements")
	assert.Contains(t, stdout, "[WARN] Install Package From TestPyPI (attempt 1)")
	assert.Contains(t, stdout, "Installation will be retried in 1 seconds.")
	assert.Contains(t, stdout, "[PASS] Install Package From TestPyPI (attempt 3)")
	assert.Contains(t, stdout, "[PASS] Install Test-Suite")
	assert.Contains(t, stdout, "== Environment Info ==")
	assert.Contains(t, stderr, "installation complete")

	events, err := os.ReadFile(eventsPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(events)), "\n")
	assert.Contains(t, lines[0], `"event":"cmd_start"`)
	assert.Contains(t, lines[len(lines)-1], `"event":"cmd_end"`)
	assert.Equal(t, 3, strings.Count(string(events), `"step":"package"`))

	prom, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(prom), `envsetup_install_attempts_total{result="will-retry",step="package"} 2`)
	assert.Contains(t, string(prom), "envsetup_install_success 1")
	assert.Contains(t, string(prom), `envsetup_retry_elapsed_seconds{step="package"} 2`)
}

func TestInstallCmd_RetryExhausted(t *testing.T) {
	runner := &testutil.FakeRunner{Handler: func(string, []string) testutil.Response {
		return testutil.Fail(1, "ERROR: No matching distribution found for foo==1.2.3")
	}}
	sleeper := fakeSeams(t, runner, nil)
	repo := t.TempDir()

	stdout, _, err := executeCmd(stagingArgs(repo)...)

	require.Error(t, err)
	assert.Equal(t, errors.ERetryExhausted, errors.GetCode(err))
	assert.Equal(t, 1, errors.ExitCode(err))
	assert.Contains(t, err.Error(), "failed after 3 tries totaling 2 seconds")
	assert.Len(t, sleeper.sleeps, 2)
	assert.Len(t, runner.Calls, 3)
	assert.Contains(t, stdout, "The retry limit has been reached; action will fail.")
	assert.NotContains(t, stdout, "Environment Info")

	formatted := errors.Format(err, errors.PrintOptions{})
	assert.Contains(t, formatted, "error_code: E_RETRY_EXHAUSTED")
	assert.Contains(t, formatted, "attempts: 3")
	lines := strings.Split(strings.TrimRight(formatted, "\n"), "\n")
	assert.Equal(t, "Installing package from TestPyPI failed after 3 tries totaling 2 seconds.", lines[len(lines)-1])
}

func TestInstallCmd_GitHubAnnotations(t *testing.T) {
	runner := testutil.NewFakeRunner(testutil.Fail(1, "not installable"))
	fakeSeams(t, runner, map[string]string{"GITHUB_ACTIONS": "true", "NO_COLOR": "1"})
	repo := t.TempDir()

	stdout, _, err := executeCmd("install", "--env-file", filepath.Join(repo, "x.env"), "--repo", repo,
		"--source", "github", "--path", ".", "--tests-path", "tests", "--upgrade-pip=false")

	assert.Equal(t, errors.EInstallFailed, errors.GetCode(err))
	assert.Contains(t, stdout, "::group::[FAIL] Install Package From GitHub")
	assert.Contains(t, stdout, "::error title=Install Package From GitHub::Installing package from GitHub failed.")
}

func TestInstallCmd_BadLogFormat(t *testing.T) {
	fakeSeams(t, testutil.NewFakeRunner(), nil)
	repo := t.TempDir()

	_, _, err := executeCmd(stagingArgs(repo, "--log-format", "xml")...)

	assert.Equal(t, errors.EUsage, errors.GetCode(err))
}

func TestPlanCmd(t *testing.T) {
	runner := testutil.NewFakeRunner()
	fakeSeams(t, runner, nil)
	repo := t.TempDir()

	args := stagingArgs(repo)
	args[0] = "plan"
	stdout, _, err := executeCmd(args...)

	require.NoError(t, err)
	assert.Empty(t, runner.Calls)
	assert.Contains(t, stdout, "TestPyPI")
	assert.Contains(t, stdout, "python -m pip install -r requirements.txt")
	assert.Contains(t, stdout, "python -m pip install foo==1.2.3 --no-deps --index-url https://test.pypi.org/simple")
	assert.Contains(t, stdout, "retry: every 1 seconds for up to 3 seconds (at most 3 attempts)")
}

func TestPlanCmd_ConfigFile(t *testing.T) {
	fakeSeams(t, testutil.NewFakeRunner(), nil)
	dir := t.TempDir()
	cfg := filepath.Join(dir, "envsetup.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("source: pypi\npackage_name: bar\ntests_path: tests\nupgrade_pip: false\n"), 0o644))

	stdout, _, err := executeCmd("plan", "--config", cfg, "--env-file", filepath.Join(dir, "x.env"))

	require.NoError(t, err)
	assert.Contains(t, stdout, "python -m pip install bar")
	assert.Contains(t, stdout, "at most 40 attempts")
	assert.NotContains(t, stdout, "--upgrade")
}

func TestEnvinfoCmd(t *testing.T) {
	runner := testutil.NewFakeRunner()
	fakeSeams(t, runner, nil)
	repo := t.TempDir()

	stdout, _, err := executeCmd("envinfo", "--env-file", filepath.Join(repo, "x.env"), "--repo", repo)

	require.NoError(t, err)
	assert.Contains(t, stdout, "== Environment Info ==")
	assert.Contains(t, stdout, "[INFO] Disk Space")
	assert.NotEmpty(t, runner.Calls)
}
