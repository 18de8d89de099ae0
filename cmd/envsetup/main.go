// Command envsetup installs a Python package and its test-suite, retrying
// registry installs until the package becomes available.
package main

import (
	"os"

	"github.com/NielsdaWheelz/envsetup/internal/cli/cobra"
	"github.com/NielsdaWheelz/envsetup/internal/errors"
)

func main() {
	err := cobra.Execute(os.Stdout, os.Stderr)
	if err != nil {
		opts := errors.PrintOptions{
			Verbose: cobra.GetGlobalOpts().Verbose,
		}
		errors.PrintWithOptions(os.Stderr, err, opts)
		os.Exit(errors.ExitCode(err))
	}
}
