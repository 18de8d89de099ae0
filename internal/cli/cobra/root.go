// Package cobra provides the Cobra-based CLI command tree for envsetup.
package cobra

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/NielsdaWheelz/envsetup/internal/version"
)

// GlobalOpts holds global options parsed before subcommand dispatch.
type GlobalOpts struct {
	Verbose    bool
	LogFormat  string
	ConfigFile string
	EnvFile    string
}

// globalOpts stores the parsed global options for access by subcommands.
var globalOpts GlobalOpts

// GetGlobalOpts returns the parsed global options.
func GetGlobalOpts() GlobalOpts {
	return globalOpts
}

// NewRootCmd creates the root cobra command for envsetup.
func NewRootCmd() *cobra.Command {
	globalOpts = GlobalOpts{}

	rootCmd := &cobra.Command{
		Use:   "envsetup",
		Short: "Resilient installer for a Python package and its test-suite",
		Long: `envsetup - resilient installer for a Python package and its test-suite

envsetup installs the package under test from a local checkout (GitHub), the
primary registry (PyPI) or the staging registry (TestPyPI), then installs the
test-suite. Registry installs are retried at a constant interval until a total
sleep budget is spent, which absorbs the delay between publishing a release
and the registry serving it.

Settings come from flags, ENVSETUP_* environment variables, a .env file and an
optional YAML file, in that order of precedence.`,
		Version:       version.FullVersion(),
		SilenceErrors: true, // We handle error printing in main.go
		SilenceUsage:  true, // We handle usage printing manually
	}

	// Global flags
	rootCmd.PersistentFlags().BoolVar(&globalOpts.Verbose, "verbose", false, "debug logging and detailed error context")
	rootCmd.PersistentFlags().StringVar(&globalOpts.LogFormat, "log-format", "", "log encoding: json or console (default json unless stderr is a terminal)")
	rootCmd.PersistentFlags().StringVar(&globalOpts.ConfigFile, "config", "", "YAML settings file")
	rootCmd.PersistentFlags().StringVar(&globalOpts.EnvFile, "env-file", "", "dotenv file to read if present (default .env)")

	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(
		newInstallCmd(),
		newPlanCmd(),
		newEnvinfoCmd(),
		newVersionCmd(),
	)

	return rootCmd
}

// Execute runs the root command with the given output writers.
// This is the main entry point from main.go.
func Execute(stdout, stderr io.Writer) error {
	rootCmd := NewRootCmd()
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	return rootCmd.Execute()
}
