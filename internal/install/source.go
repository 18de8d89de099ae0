// Package install orchestrates package and test-suite installation.
//
// A Source selects the installation plan: checkout installs are run once and
// any failure is fatal; registry installs are retried under a retry.Policy.
// Every attempt is reported through report.Compose.
package install

import (
	"fmt"
	"strings"

	"github.com/NielsdaWheelz/envsetup/internal/errors"
)

// Source is where the package under test is installed from.
type Source int

const (
	// SourceCheckout installs from a local version-control checkout.
	SourceCheckout Source = iota + 1
	// SourcePrimary installs from the primary registry with full dependency resolution.
	SourcePrimary
	// SourceStaging installs from the staging registry without dependencies.
	SourceStaging
)

var sourceTags = map[string]Source{
	"github":   SourceCheckout,
	"pypi":     SourcePrimary,
	"testpypi": SourceStaging,
}

// ParseSource resolves a source tag case-insensitively.
// Unknown tags are an E_CONFIG error.
func ParseSource(raw string) (Source, error) {
	tag := strings.ToLower(strings.TrimSpace(raw))
	if s, ok := sourceTags[tag]; ok {
		return s, nil
	}
	return 0, errors.NewWithDetails(errors.EConfig,
		fmt.Sprintf("invalid package source: expected one of 'GitHub', 'PyPI', or 'TestPyPI', but got '%s'", tag),
		map[string]string{"source": raw},
	)
}

// String returns the canonical lower-case tag.
func (s Source) String() string {
	switch s {
	case SourceCheckout:
		return "github"
	case SourcePrimary:
		return "pypi"
	case SourceStaging:
		return "testpypi"
	}
	return fmt.Sprintf("Source(%d)", int(s))
}

// Label is the display name used in titles and summaries.
func (s Source) Label() string {
	switch s {
	case SourceCheckout:
		return "GitHub"
	case SourcePrimary:
		return "PyPI"
	case SourceStaging:
		return "TestPyPI"
	}
	return s.String()
}

// Registry reports whether the source is a remote package index.
func (s Source) Registry() bool {
	return s == SourcePrimary || s == SourceStaging
}

// PackageSpec identifies the package under test.
type PackageSpec struct {
	// Name is required for registry sources.
	Name string
	// Version pins a registry release; empty means latest.
	Version string
	// Path is the checkout path, relative to the repository root.
	Path string
}

// Validate checks that spec carries what s needs.
func (s Source) Validate(spec PackageSpec) error {
	switch {
	case s == SourceCheckout && strings.TrimSpace(spec.Path) == "":
		return errors.NewWithDetails(errors.EConfig, "package path is required when installing from GitHub",
			map[string]string{"source": s.String()})
	case s.Registry() && strings.TrimSpace(spec.Name) == "":
		return errors.NewWithDetails(errors.EConfig, "package name is required when installing from "+s.Label(),
			map[string]string{"source": s.String()})
	}
	return nil
}
