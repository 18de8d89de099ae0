package install

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/NielsdaWheelz/envsetup/internal/errors"
	"github.com/NielsdaWheelz/envsetup/internal/pip"
	"github.com/NielsdaWheelz/envsetup/internal/report"
	"github.com/NielsdaWheelz/envsetup/internal/retry"
	"github.com/NielsdaWheelz/envsetup/internal/shell"
)

// Section titles.
const (
	SectionSetup = "Environment Setup"
	SectionInfo  = "Environment Info"
)

// Actions performs single install attempts. *pip.Installer implements it.
type Actions interface {
	UpgradePip(ctx context.Context) shell.Outcome
	InstallPath(ctx context.Context, path string) shell.Outcome
	InstallRequirements(ctx context.Context, path string) shell.Outcome
	InstallPackage(ctx context.Context, req pip.Request) shell.Outcome
}

// EnvReporter emits the post-install environment report. It must not fail.
type EnvReporter interface {
	Report(ctx context.Context, rep report.Reporter)
}

// Params are the typed inputs of one orchestration.
type Params struct {
	RepoRoot string
	// Source is the raw source tag; it is resolved before any side effect.
	Source  string
	Package PackageSpec
	Plan    PlanOpts
	Policy  retry.Policy
}

// Result describes a successful orchestration.
type Result struct {
	Source Source
	// PackageAttempts is the number of package install attempts.
	PackageAttempts int
	// Elapsed is the retry sleep spent on the package install.
	Elapsed time.Duration
	Wall    time.Duration
}

// Orchestrator sequences validation, package install, test-suite install
// and the environment report.
type Orchestrator struct {
	Actions  Actions
	Reporter report.Reporter
	Sleeper  retry.Sleeper
	// Env is optional.
	Env    EnvReporter
	Logger *zap.Logger
}

// Resolve validates params and returns the installation plan. It has no
// side effects; every configuration error surfaces here as E_CONFIG.
func Resolve(p Params) (Plan, error) {
	src, err := ParseSource(p.Source)
	if err != nil {
		return Plan{}, err
	}
	if err := src.Validate(p.Package); err != nil {
		return Plan{}, err
	}
	if strings.TrimSpace(p.Plan.TestsPath) == "" {
		return Plan{}, errors.New(errors.EConfig, "test-suite path is required")
	}
	if _, err := retry.NewPolicy(p.Policy.Sleep, p.Policy.Budget); err != nil {
		return Plan{}, errors.Wrap(errors.EConfig, err.Error(), err)
	}
	return BuildPlan(src, p.Package, p.Plan), nil
}

// Run executes the full installation. It returns on the first fatal step;
// earlier successful steps are not rolled back.
func (o *Orchestrator) Run(ctx context.Context, p Params) (Result, error) {
	logger := o.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	sleeper := o.Sleeper
	if sleeper == nil {
		sleeper = retry.TimerSleeper{}
	}

	plan, err := Resolve(p)
	if err != nil {
		return Result{}, err
	}

	start := time.Now()
	result := Result{Source: plan.Source}
	logger.Debug("installation plan resolved",
		zap.Stringer("source", plan.Source),
		zap.Int("steps", len(plan.Steps)),
		zap.Stringer("policy", p.Policy))

	o.Reporter.Section(SectionSetup)
	for _, step := range plan.Steps {
		t := Target{Title: step.Title, Prefix: step.Prefix, Step: step.Name}
		logger.Debug("running step", zap.String("step", step.Name), zap.Stringer("kind", step.Kind))

		switch step.Kind {
		case StepUpgrade:
			err = Direct(ctx, o.Reporter, t, o.Actions.UpgradePip)

		case StepPath:
			path := step.Path
			err = Direct(ctx, o.Reporter, t, func(ctx context.Context) shell.Outcome {
				return o.Actions.InstallPath(ctx, path)
			})
			if err == nil && step.Name == StepNamePackage {
				result.PackageAttempts = 1
			}

		case StepRequirements:
			err = Requirements(ctx, o.Reporter, p.RepoRoot, step.Path, t, o.Actions.InstallRequirements)

		case StepRegistry:
			req := step.Request
			var res retry.Result
			res, err = Retrying(ctx, o.Reporter, p.Policy, sleeper, t, func(ctx context.Context) shell.Outcome {
				return o.Actions.InstallPackage(ctx, req)
			})
			result.PackageAttempts = res.Attempts
			result.Elapsed = res.Elapsed
		}

		if err != nil {
			logger.Debug("step failed", zap.String("step", step.Name), zap.Error(err))
			return result, annotate(err, plan.Source, p.Package)
		}
	}
	result.Wall = time.Since(start)

	if o.Env != nil {
		o.Reporter.Section(SectionInfo)
		o.Env.Report(ctx, o.Reporter)
	}
	return result, nil
}

// annotate adds source and package context to a step error.
func annotate(err error, src Source, spec PackageSpec) error {
	se, ok := errors.AsSetupError(err)
	if !ok {
		return err
	}
	details := map[string]string{"source": src.String()}
	for k, v := range se.Details {
		details[k] = v
	}
	if src.Registry() {
		details["package"] = pip.Request{Name: spec.Name, Version: spec.Version}.Specifier()
	} else {
		details["path"] = spec.Path
	}
	se.Details = details
	return se
}
