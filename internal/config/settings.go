// Package config loads envsetup settings from defaults, an optional YAML
// file, a .env file, ENVSETUP_* environment variables and command-line flags,
// in increasing order of precedence.
package config

import (
	"time"

	"github.com/NielsdaWheelz/envsetup/internal/install"
	"github.com/NielsdaWheelz/envsetup/internal/retry"
)

// EnvPrefix prefixes every environment variable envsetup reads.
const EnvPrefix = "ENVSETUP_"

// Default values.
const (
	DefaultRepoPath    = "."
	DefaultPython      = "python"
	DefaultRetrySleep  = 15 * time.Second
	DefaultRetryBudget = 600 * time.Second
)

// Settings is the fully merged configuration of one invocation.
type Settings struct {
	RepoPath string `yaml:"repo_path"`
	Python   string `yaml:"python"`

	Source         string `yaml:"source"`
	PackageName    string `yaml:"package_name"`
	PackageVersion string `yaml:"package_version"`
	PackagePath    string `yaml:"package_path"`

	RequirementsPath string `yaml:"requirements_path"`
	TestsPath        string `yaml:"tests_path"`

	RetrySleep     Duration `yaml:"retry_sleep"`
	RetryBudget    Duration `yaml:"retry_budget"`
	UpgradePip     bool     `yaml:"upgrade_pip"`
	CommandTimeout Duration `yaml:"command_timeout"`

	EventsFile      string `yaml:"events_file"`
	MetricsFile     string `yaml:"metrics_file"`
	StagingIndexURL string `yaml:"staging_index_url"`
}

// Defaults returns the built-in settings.
func Defaults() Settings {
	return Settings{
		RepoPath:        DefaultRepoPath,
		Python:          DefaultPython,
		RetrySleep:      Duration(DefaultRetrySleep),
		RetryBudget:     Duration(DefaultRetryBudget),
		UpgradePip:      true,
		StagingIndexURL: install.DefaultStagingIndexURL,
	}
}

// Params converts settings into orchestrator inputs. Call Validate first.
func (s Settings) Params() install.Params {
	return install.Params{
		RepoRoot: s.RepoPath,
		Source:   s.Source,
		Package: install.PackageSpec{
			Name:    s.PackageName,
			Version: s.PackageVersion,
			Path:    s.PackagePath,
		},
		Plan: install.PlanOpts{
			UpgradePip:       s.UpgradePip,
			RequirementsPath: s.RequirementsPath,
			StagingIndexURL:  s.StagingIndexURL,
			TestsPath:        s.TestsPath,
		},
		Policy: retry.Policy{
			Sleep:  s.RetrySleep.Std(),
			Budget: s.RetryBudget.Std(),
		},
	}
}
