package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
)

// field binds one setting to its environment variable and flag.
type field struct {
	env    string
	flag   string
	usage  string
	isBool bool
	set    func(s *Settings, raw string) error
}

func str(dst func(*Settings) *string) func(*Settings, string) error {
	return func(s *Settings, raw string) error {
		*dst(s) = raw
		return nil
	}
}

func dur(dst func(*Settings) *Duration) func(*Settings, string) error {
	return func(s *Settings, raw string) error {
		d, err := ParseDuration(raw)
		if err != nil {
			return err
		}
		*dst(s) = d
		return nil
	}
}

func boolean(dst func(*Settings) *bool) func(*Settings, string) error {
	return func(s *Settings, raw string) error {
		b, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return fmt.Errorf("invalid boolean %q", raw)
		}
		*dst(s) = b
		return nil
	}
}

var fields = []field{
	{env: "REPO_PATH", flag: "repo", usage: "repository root that relative paths resolve against",
		set: str(func(s *Settings) *string { return &s.RepoPath })},
	{env: "PYTHON_PATH", flag: "python", usage: "python interpreter that runs pip",
		set: str(func(s *Settings) *string { return &s.Python })},
	{env: "PKG_SRC", flag: "source", usage: "package source: GitHub, PyPI or TestPyPI",
		set: str(func(s *Settings) *string { return &s.Source })},
	{env: "PKG_NAME", flag: "name", usage: "package name for registry installs",
		set: str(func(s *Settings) *string { return &s.PackageName })},
	{env: "PKG_VERSION", flag: "version-pin", usage: "package version for registry installs (default latest)",
		set: str(func(s *Settings) *string { return &s.PackageVersion })},
	{env: "PKG_PATH", flag: "path", usage: "package checkout path for GitHub installs",
		set: str(func(s *Settings) *string { return &s.PackagePath })},
	{env: "PKG_REQ_PATH", flag: "requirements", usage: "requirements file for TestPyPI installs, relative to the repo",
		set: str(func(s *Settings) *string { return &s.RequirementsPath })},
	{env: "TESTS_PATH", flag: "tests-path", usage: "test-suite path",
		set: str(func(s *Settings) *string { return &s.TestsPath })},
	{env: "RETRY_SLEEP_SECONDS", flag: "retry-sleep", usage: "sleep between registry install attempts",
		set: dur(func(s *Settings) *Duration { return &s.RetrySleep })},
	{env: "RETRY_SLEEP_SECONDS_TOTAL", flag: "retry-budget", usage: "total sleep budget for registry install attempts",
		set: dur(func(s *Settings) *Duration { return &s.RetryBudget })},
	{env: "UPGRADE_PIP", flag: "upgrade-pip", usage: "upgrade pip before installing", isBool: true,
		set: boolean(func(s *Settings) *bool { return &s.UpgradePip })},
	{env: "COMMAND_TIMEOUT", flag: "command-timeout", usage: "per-command timeout (0 disables)",
		set: dur(func(s *Settings) *Duration { return &s.CommandTimeout })},
	{env: "EVENTS_FILE", flag: "events-file", usage: "append JSONL events to this file",
		set: str(func(s *Settings) *string { return &s.EventsFile })},
	{env: "METRICS_FILE", flag: "metrics-file", usage: "write Prometheus textfile metrics to this file",
		set: str(func(s *Settings) *string { return &s.MetricsFile })},
	{env: "STAGING_INDEX_URL", flag: "staging-index", usage: "index URL for TestPyPI installs",
		set: str(func(s *Settings) *string { return &s.StagingIndexURL })},
}

// EnvNames returns every environment variable envsetup reads.
func EnvNames() []string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = EnvPrefix + f.env
	}
	return names
}

// RegisterFlags adds one flag per setting to fs. Flag defaults are
// informational; only flags the user changed are applied.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Defaults()
	for _, f := range fields {
		if f.isBool {
			fs.Bool(f.flag, d.UpgradePip, f.usage)
			continue
		}
		fs.String(f.flag, "", f.usage)
	}
}

func applyLookup(s *Settings, lookup func(string) (string, bool)) error {
	for _, f := range fields {
		name := EnvPrefix + f.env
		raw, ok := lookup(name)
		if !ok || raw == "" {
			continue
		}
		if err := f.set(s, raw); err != nil {
			return &ValidationError{Field: name, Msg: err.Error()}
		}
	}
	return nil
}

func applyFlags(s *Settings, fs *pflag.FlagSet) error {
	for _, f := range fields {
		fl := fs.Lookup(f.flag)
		if fl == nil || !fl.Changed {
			continue
		}
		if err := f.set(s, fl.Value.String()); err != nil {
			return &ValidationError{Field: "--" + f.flag, Msg: err.Error()}
		}
	}
	return nil
}
