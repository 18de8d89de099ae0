package install

import (
	"github.com/NielsdaWheelz/envsetup/internal/pip"
)

// StepKind selects how a step is executed.
type StepKind int

const (
	// StepUpgrade upgrades pip once; failure is fatal.
	StepUpgrade StepKind = iota + 1
	// StepPath installs a local path once; failure is fatal.
	StepPath
	// StepRequirements installs a requirements listing if it exists; failure is fatal.
	StepRequirements
	// StepRegistry installs from a registry under the retry policy.
	StepRegistry
)

func (k StepKind) String() string {
	switch k {
	case StepUpgrade, StepPath:
		return "direct"
	case StepRequirements:
		return "requirements"
	case StepRegistry:
		return "retrying"
	}
	return "unknown"
}

// Step names for reports, events and metrics.
const (
	StepNamePrepare      = "prepare"
	StepNameRequirements = "requirements"
	StepNamePackage      = "package"
	StepNameTests        = "tests"
)

// Step is one entry of an installation plan.
type Step struct {
	Kind StepKind
	Name string
	// Title is the record title. Registry steps append "(attempt N)".
	Title string
	// Prefix starts the composed summary.
	Prefix string

	// Path is the install path for StepPath, or the requirements path
	// relative to the repository root for StepRequirements.
	Path string
	// Request is the registry request for StepRegistry.
	Request pip.Request
}

// Args returns the pip arguments the step runs.
func (s Step) Args() []string {
	switch s.Kind {
	case StepUpgrade:
		return pip.UpgradeArgs()
	case StepPath:
		return pip.PathArgs(s.Path)
	case StepRequirements:
		return pip.RequirementsArgs(s.Path)
	case StepRegistry:
		return s.Request.Args()
	}
	return nil
}

// PlanOpts are the non-package inputs to a plan.
type PlanOpts struct {
	UpgradePip       bool
	RequirementsPath string
	StagingIndexURL  string
	TestsPath        string
}

// DefaultStagingIndexURL is the staging registry's simple index.
const DefaultStagingIndexURL = "https://test.pypi.org/simple"

// Plan is the full ordered installation sequence.
type Plan struct {
	Source Source
	Steps  []Step
}

// BuildPlan assembles prepare, package and test-suite steps for s.
func BuildPlan(s Source, spec PackageSpec, opts PlanOpts) Plan {
	var steps []Step
	if opts.UpgradePip {
		steps = append(steps, Step{
			Kind:   StepUpgrade,
			Name:   StepNamePrepare,
			Title:  "Upgrade pip",
			Prefix: "Upgrading pip",
		})
	}
	steps = append(steps, s.PackageSteps(spec, opts)...)
	steps = append(steps, Step{
		Kind:   StepPath,
		Name:   StepNameTests,
		Title:  "Install Test-Suite",
		Prefix: "Installing test-suite",
		Path:   opts.TestsPath,
	})
	return Plan{Source: s, Steps: steps}
}

// PackageSteps returns the source-specific package installation steps.
func (s Source) PackageSteps(spec PackageSpec, opts PlanOpts) []Step {
	switch s {
	case SourceCheckout:
		return checkoutSteps(spec)
	case SourcePrimary:
		return primarySteps(spec)
	case SourceStaging:
		return stagingSteps(spec, opts)
	}
	return nil
}

func checkoutSteps(spec PackageSpec) []Step {
	return []Step{{
		Kind:   StepPath,
		Name:   StepNamePackage,
		Title:  "Install Package From GitHub",
		Prefix: "Installing package from GitHub",
		Path:   spec.Path,
	}}
}

func primarySteps(spec PackageSpec) []Step {
	return []Step{registryStep(SourcePrimary, pip.Request{Name: spec.Name, Version: spec.Version})}
}

func stagingSteps(spec PackageSpec, opts PlanOpts) []Step {
	index := opts.StagingIndexURL
	if index == "" {
		index = DefaultStagingIndexURL
	}
	return []Step{
		{
			Kind:   StepRequirements,
			Name:   StepNameRequirements,
			Title:  "Install Package Requirements",
			Prefix: "Installing package requirements",
			Path:   opts.RequirementsPath,
		},
		registryStep(SourceStaging, pip.Request{
			Name:     spec.Name,
			Version:  spec.Version,
			IndexURL: index,
			NoDeps:   true,
		}),
	}
}

func registryStep(s Source, req pip.Request) Step {
	return Step{
		Kind:    StepRegistry,
		Name:    StepNamePackage,
		Title:   "Install Package From " + s.Label(),
		Prefix:  "Installing package from " + s.Label(),
		Request: req,
	}
}
