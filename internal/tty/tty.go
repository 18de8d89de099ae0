// Package tty detects terminal and CI capabilities for console output.
package tty

import (
	"os"
	"strings"
)

// IsTTY returns true if the given file is a TTY.
func IsTTY(f *os.File) bool {
	if f == nil {
		return false
	}
	stat, err := f.Stat()
	if err != nil {
		return false
	}
	// Check if it's a character device (terminal)
	return (stat.Mode() & os.ModeCharDevice) != 0
}

// Env reports what the console sink may use.
type Env struct {
	Color  bool
	GitHub bool
}

// Detect inspects f and the environment read through lookup.
//
// GitHub workflow commands are enabled when GITHUB_ACTIONS is "true". Color
// is enabled for terminals, and for GitHub Actions logs which render ANSI,
// unless NO_COLOR is set or TERM is "dumb".
func Detect(f *os.File, lookup func(string) (string, bool)) Env {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	github := envIs(lookup, "GITHUB_ACTIONS", "true")

	color := IsTTY(f) || github
	if _, ok := lookup("NO_COLOR"); ok {
		color = false
	}
	if envIs(lookup, "TERM", "dumb") {
		color = false
	}
	return Env{Color: color, GitHub: github}
}

func envIs(lookup func(string) (string, bool), name, want string) bool {
	v, ok := lookup(name)
	return ok && strings.EqualFold(strings.TrimSpace(v), want)
}
