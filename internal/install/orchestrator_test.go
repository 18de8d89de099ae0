package install

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/NielsdaWheelz/envsetup/internal/errors"
	"github.com/NielsdaWheelz/envsetup/internal/pip"
	"github.com/NielsdaWheelz/envsetup/internal/report"
	"github.com/NielsdaWheelz/envsetup/internal/retry"
	"github.com/NielsdaWheelz/envsetup/internal/testutil"
)

type fakeSleeper struct {
	sleeps []time.Duration
}

func (f *fakeSleeper) Sleep(_ context.Context, d time.Duration) error {
	f.sleeps = append(f.sleeps, d)
	return nil
}

type fakeEnv struct {
	calls int
}

func (f *fakeEnv) Report(_ context.Context, rep report.Reporter) {
	f.calls++
	rep.Entry(report.Info("Python Version", "Python 3.12.1"))
}

type harness struct {
	runner  *testutil.FakeRunner
	sleeper *fakeSleeper
	records *report.Collector
	env     *fakeEnv
	orch    *Orchestrator
	repo    string
}

func newHarness(t *testing.T, responses ...testutil.Response) *harness {
	t.Helper()
	h := &harness{
		runner:  testutil.NewFakeRunner(responses...),
		sleeper: &fakeSleeper{},
		records: report.NewCollector(),
		env:     &fakeEnv{},
		repo:    t.TempDir(),
	}
	h.orch = &Orchestrator{
		Actions:  pip.NewInstaller(h.runner, "python", h.repo, 0),
		Reporter: h.records,
		Sleeper:  h.sleeper,
		Env:      h.env,
		Logger:   zaptest.NewLogger(t),
	}
	return h
}

func stagingParams(repo string) Params {
	return Params{
		RepoRoot: repo,
		Source:   "TestPyPI",
		Package:  PackageSpec{Name: "foo", Version: "1.2.3"},
		Plan: PlanOpts{
			RequirementsPath: "requirements.txt",
			TestsPath:        "./tests",
		},
		Policy: retry.Policy{Sleep: time.Second, Budget: 3 * time.Second},
	}
}

func dispositions(recs []report.Record) []report.Disposition {
	out := make([]report.Disposition, len(recs))
	for i, r := range recs {
		out[i] = r.Disposition
	}
	return out
}

func TestRun_InvalidSourceHasNoSideEffects(t *testing.T) {
	h := newHarness(t)
	p := stagingParams(h.repo)
	p.Source = "gitlab"

	_, err := h.orch.Run(context.Background(), p)

	require.Error(t, err)
	assert.Equal(t, errors.EConfig, errors.GetCode(err))
	assert.Equal(t, 2, errors.ExitCode(err))
	assert.Empty(t, h.runner.Calls)
	assert.Empty(t, h.records.Records)
	assert.Empty(t, h.records.Sections)
	assert.Zero(t, h.env.calls)
}

func TestRun_ConfigErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Params)
	}{
		{"missing tests path", func(p *Params) { p.Plan.TestsPath = "" }},
		{"missing package name", func(p *Params) { p.Package.Name = "" }},
		{"zero sleep", func(p *Params) { p.Policy.Sleep = 0 }},
		{"checkout without path", func(p *Params) { p.Source = "github" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			p := stagingParams(h.repo)
			tt.mutate(&p)

			_, err := h.orch.Run(context.Background(), p)

			assert.Equal(t, errors.EConfig, errors.GetCode(err))
			assert.Empty(t, h.runner.Calls)
		})
	}
}

func TestRun_StagingRetriesUntilSuccess(t *testing.T) {
	h := newHarness(t,
		testutil.Fail(1, "ERROR: No matching distribution found for foo==1.2.3"),
		testutil.Fail(1, "ERROR: No matching distribution found for foo==1.2.3"),
		testutil.OK("Successfully installed foo-1.2.3"),
		testutil.OK("Successfully installed tests"),
	)

	res, err := h.orch.Run(context.Background(), stagingParams(h.repo))

	require.NoError(t, err)
	assert.Equal(t, SourceStaging, res.Source)
	assert.Equal(t, 3, res.PackageAttempts)
	assert.Equal(t, 2*time.Second, res.Elapsed)
	assert.Equal(t, []time.Duration{time.Second, time.Second}, h.sleeper.sleeps)

	// Missing requirements file: one skip, no command.
	reqs := h.records.Step(StepNameRequirements)
	require.Len(t, reqs, 1)
	assert.Equal(t, report.Skip, reqs[0].Disposition)
	assert.Equal(t, report.SeverityInfo, reqs[0].Severity)
	assert.Equal(t, "No requirements file found.", reqs[0].Summary)
	assert.Contains(t, reqs[0].Details, "Input Path: requirements.txt")

	pkg := h.records.Step(StepNamePackage)
	require.Len(t, pkg, 3)
	assert.Equal(t, []report.Disposition{report.WillRetry, report.WillRetry, report.Success}, dispositions(pkg))
	assert.Equal(t, "Install Package From TestPyPI (attempt 1)", pkg[0].Title)
	assert.Equal(t, "Install Package From TestPyPI (attempt 3)", pkg[2].Title)
	assert.Equal(t,
		"Installing package from TestPyPI failed. The command exited with code 1. Installation will be retried in 1 seconds.",
		pkg[0].Summary)
	assert.Equal(t, "Installing package from TestPyPI was successful. The command exited with code 0.", pkg[2].Summary)

	testsRecs := h.records.Step(StepNameTests)
	require.Len(t, testsRecs, 1)
	assert.Equal(t, report.Success, testsRecs[0].Disposition)

	assert.Equal(t, []string{
		"python -m pip install foo==1.2.3 --no-deps --index-url https://test.pypi.org/simple",
		"python -m pip install foo==1.2.3 --no-deps --index-url https://test.pypi.org/simple",
		"python -m pip install foo==1.2.3 --no-deps --index-url https://test.pypi.org/simple",
		"python -m pip install ./tests",
	}, h.runner.Lines())
	for _, c := range h.runner.Calls {
		assert.Equal(t, h.repo, c.Opts.Dir)
	}

	assert.Equal(t, []string{SectionSetup, SectionInfo}, h.records.Sections)
	assert.Equal(t, 1, h.env.calls)
}

func TestRun_StagingExhaustsBudget(t *testing.T) {
	h := newHarness(t,
		testutil.Fail(1, "boom"),
		testutil.Fail(1, "boom"),
		testutil.Fail(1, "boom"),
	)

	res, err := h.orch.Run(context.Background(), stagingParams(h.repo))

	require.Error(t, err)
	assert.Equal(t, errors.ERetryExhausted, errors.GetCode(err))
	assert.Equal(t, 1, errors.ExitCode(err))
	assert.Contains(t, err.Error(), "Installing package from TestPyPI failed after 3 tries totaling 2 seconds.")

	var exhausted *retry.ExhaustedError
	require.True(t, stderrors.As(err, &exhausted))
	assert.Equal(t, 3, exhausted.Attempts)
	assert.Equal(t, 2*time.Second, exhausted.Elapsed)
	assert.Equal(t, 3, res.PackageAttempts)

	pkg := h.records.Step(StepNamePackage)
	require.Len(t, pkg, 3)
	assert.Equal(t, []report.Disposition{report.WillRetry, report.WillRetry, report.TerminalFailure}, dispositions(pkg))
	assert.Equal(t, report.SeverityError, pkg[2].Severity)
	assert.True(t, strings.HasSuffix(pkg[2].Summary, "The retry limit has been reached; action will fail."))

	// Fatal: the test-suite is never installed and no env report is made.
	assert.Empty(t, h.records.Step(StepNameTests))
	assert.Len(t, h.runner.Calls, 3)
	assert.Zero(t, h.env.calls)

	se, ok := errors.AsSetupError(err)
	require.True(t, ok)
	assert.Equal(t, "testpypi", se.Details["source"])
	assert.Equal(t, "foo==1.2.3", se.Details["package"])
	assert.Equal(t, "3", se.Details["attempts"])
	assert.Equal(t, "boom", se.Details["output"])
}

func TestRun_CheckoutFailureIsNotRetried(t *testing.T) {
	h := newHarness(t, testutil.Fail(1, "ERROR: Directory './pkg' is not installable."))
	p := Params{
		RepoRoot: h.repo,
		Source:   "github",
		Package:  PackageSpec{Path: "./pkg"},
		Plan:     PlanOpts{TestsPath: "./tests"},
		Policy:   retry.Policy{Sleep: time.Second, Budget: time.Minute},
	}

	_, err := h.orch.Run(context.Background(), p)

	require.Error(t, err)
	assert.Equal(t, errors.EInstallFailed, errors.GetCode(err))
	assert.Equal(t, "E_INSTALL_FAILED: Installing package from GitHub failed. The command exited with code 1.", err.Error())
	assert.Empty(t, h.sleeper.sleeps)
	assert.Len(t, h.runner.Calls, 1)

	require.Len(t, h.records.Records, 1)
	rec := h.records.Records[0]
	assert.Equal(t, "Install Package From GitHub", rec.Title)
	assert.Equal(t, report.TerminalFailure, rec.Disposition)
	assert.Equal(t, 0, rec.Attempt)
	assert.NotContains(t, rec.Summary, "retry")
}

func TestRun_PrimaryFirstTrySuccess(t *testing.T) {
	h := newHarness(t)
	p := Params{
		RepoRoot: h.repo,
		Source:   "pypi",
		Package:  PackageSpec{Name: "foo"},
		Plan:     PlanOpts{UpgradePip: true, TestsPath: "tests"},
		Policy:   retry.Policy{Sleep: 15 * time.Second, Budget: 10 * time.Minute},
	}

	res, err := h.orch.Run(context.Background(), p)

	require.NoError(t, err)
	assert.Equal(t, 1, res.PackageAttempts)
	assert.Empty(t, h.sleeper.sleeps)
	assert.Equal(t, []string{
		"python -m pip install --upgrade pip",
		"python -m pip install foo",
		"python -m pip install tests",
	}, h.runner.Lines())

	pkg := h.records.Step(StepNamePackage)
	require.Len(t, pkg, 1)
	assert.Equal(t, "Install Package From PyPI (attempt 1)", pkg[0].Title)
	assert.Equal(t, report.Success, pkg[0].Disposition)
}

func TestRun_RequirementsFileInstalled(t *testing.T) {
	h := newHarness(t)
	p := stagingParams(h.repo)
	reqPath := filepath.Join(h.repo, "requirements.txt")
	require.NoError(t, os.WriteFile(reqPath, []byte("requests\n"), 0o644))

	_, err := h.orch.Run(context.Background(), p)

	require.NoError(t, err)
	resolved, err := filepath.Abs(reqPath)
	require.NoError(t, err)
	assert.Equal(t, "python -m pip install -r "+resolved, h.runner.Lines()[0])

	reqs := h.records.Step(StepNameRequirements)
	require.Len(t, reqs, 1)
	assert.Equal(t, report.Success, reqs[0].Disposition)
}

func TestRun_RequirementsFailureIsFatal(t *testing.T) {
	h := newHarness(t, testutil.Fail(1, "ERROR: Could not find a version that satisfies the requirement nope"))
	p := stagingParams(h.repo)
	require.NoError(t, os.WriteFile(filepath.Join(h.repo, "requirements.txt"), []byte("nope\n"), 0o644))

	_, err := h.orch.Run(context.Background(), p)

	assert.Equal(t, errors.EInstallFailed, errors.GetCode(err))
	assert.Len(t, h.runner.Calls, 1)
	assert.Empty(t, h.records.Step(StepNamePackage))
}

func TestRun_RequirementsDirectoryIsSkipped(t *testing.T) {
	h := newHarness(t)
	p := stagingParams(h.repo)
	require.NoError(t, os.Mkdir(filepath.Join(h.repo, "requirements.txt"), 0o755))

	_, err := h.orch.Run(context.Background(), p)

	require.NoError(t, err)
	reqs := h.records.Step(StepNameRequirements)
	require.Len(t, reqs, 1)
	assert.Equal(t, report.Skip, reqs[0].Disposition)
}

func TestRun_CommandNotStarted(t *testing.T) {
	h := newHarness(t, testutil.Response{Err: stderrors.New(`exec: "python": executable file not found in $PATH`)})
	p := Params{
		RepoRoot: h.repo,
		Source:   "github",
		Package:  PackageSpec{Path: "."},
		Plan:     PlanOpts{TestsPath: "tests"},
		Policy:   retry.Policy{Sleep: time.Second, Budget: time.Second},
	}

	_, err := h.orch.Run(context.Background(), p)

	require.Error(t, err)
	rec := h.records.Last()
	assert.Contains(t, rec.Summary, "The command could not be executed")
	assert.Contains(t, rec.Details, "Executed: false")
}

func TestRun_TestSuiteFailure(t *testing.T) {
	h := newHarness(t, testutil.OK(""), testutil.Fail(2, "bad tests"))
	p := Params{
		RepoRoot: h.repo,
		Source:   "github",
		Package:  PackageSpec{Path: "."},
		Plan:     PlanOpts{TestsPath: "tests"},
		Policy:   retry.Policy{Sleep: time.Second, Budget: time.Second},
	}

	_, err := h.orch.Run(context.Background(), p)

	assert.Equal(t, errors.EInstallFailed, errors.GetCode(err))
	assert.Equal(t, "Installing test-suite failed. The command exited with code 2.",
		h.records.Last().Summary)
	se, ok := errors.AsSetupError(err)
	require.True(t, ok)
	assert.Equal(t, StepNameTests, se.Details["op"])
	assert.Equal(t, ".", se.Details["path"])
}

func TestResolve(t *testing.T) {
	plan, err := Resolve(stagingParams(t.TempDir()))
	require.NoError(t, err)
	assert.Equal(t, SourceStaging, plan.Source)
	require.Len(t, plan.Steps, 3)
	assert.Equal(t, StepRequirements, plan.Steps[0].Kind)
}
