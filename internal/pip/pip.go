// Package pip runs pip inside the target Python environment.
// Every method performs exactly one command and returns its shell.Outcome.
package pip

import (
	"context"
	"time"

	"github.com/NielsdaWheelz/envsetup/internal/exec"
	"github.com/NielsdaWheelz/envsetup/internal/shell"
)

// Request is a registry install request.
type Request struct {
	Name string
	// Version pins the release; empty installs the latest.
	Version string
	// IndexURL restricts resolution to a single index. Empty uses pip's default.
	IndexURL string
	// NoDeps disables dependency resolution.
	NoDeps bool
}

// Specifier renders the requirement, e.g. "foo==1.2.3".
func (r Request) Specifier() string {
	if r.Version == "" {
		return r.Name
	}
	return r.Name + "==" + r.Version
}

// Args returns the pip arguments for the request.
func (r Request) Args() []string {
	args := []string{"install", r.Specifier()}
	if r.NoDeps {
		args = append(args, "--no-deps")
	}
	if r.IndexURL != "" {
		args = append(args, "--index-url", r.IndexURL)
	}
	return args
}

// Installer runs "python -m pip ..." in a working directory.
type Installer struct {
	runner  exec.CommandRunner
	python  string
	dir     string
	timeout time.Duration
}

// NewInstaller creates an Installer. dir is the repository root that
// relative install paths resolve against.
func NewInstaller(runner exec.CommandRunner, python, dir string, timeout time.Duration) *Installer {
	if python == "" {
		python = "python"
	}
	return &Installer{runner: runner, python: python, dir: dir, timeout: timeout}
}

// Command renders the full command line for pip args without running it.
func (i *Installer) Command(args ...string) string {
	return shell.CommandLine(i.python, i.argv(args))
}

// Run executes pip with args.
func (i *Installer) Run(ctx context.Context, args ...string) shell.Outcome {
	return shell.Run(ctx, i.runner, i.python, i.argv(args), exec.RunOpts{Dir: i.dir, Timeout: i.timeout})
}

// InstallPath installs a local project directory or archive.
func (i *Installer) InstallPath(ctx context.Context, path string) shell.Outcome {
	return i.Run(ctx, PathArgs(path)...)
}

// InstallRequirements installs a requirements listing.
func (i *Installer) InstallRequirements(ctx context.Context, path string) shell.Outcome {
	return i.Run(ctx, RequirementsArgs(path)...)
}

// InstallPackage installs from a registry.
func (i *Installer) InstallPackage(ctx context.Context, req Request) shell.Outcome {
	return i.Run(ctx, req.Args()...)
}

// UpgradePip upgrades pip itself.
func (i *Installer) UpgradePip(ctx context.Context) shell.Outcome {
	return i.Run(ctx, UpgradeArgs()...)
}

// List lists installed distributions.
func (i *Installer) List(ctx context.Context) shell.Outcome {
	return i.Run(ctx, "list")
}

// PathArgs returns the pip arguments for a local path install.
func PathArgs(path string) []string {
	return []string{"install", path}
}

// RequirementsArgs returns the pip arguments for a requirements install.
func RequirementsArgs(path string) []string {
	return []string{"install", "-r", path}
}

// UpgradeArgs returns the pip arguments that upgrade pip.
func UpgradeArgs() []string {
	return []string{"install", "--upgrade", "pip"}
}

func (i *Installer) argv(args []string) []string {
	return append([]string{"-m", "pip"}, args...)
}
