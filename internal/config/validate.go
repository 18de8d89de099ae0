package config

import (
	"strings"

	"github.com/NielsdaWheelz/envsetup/internal/errors"
)

// ValidationError represents a single validation error with field context.
type ValidationError struct {
	Field string
	Msg   string
}

func (v *ValidationError) Error() string {
	if v.Field != "" {
		return v.Field + ": " + v.Msg
	}
	return v.Msg
}

// Validate checks settings that do not depend on the package source.
// Source-specific requirements are checked by install.Resolve.
func Validate(s Settings) error {
	var v *ValidationError
	switch {
	case strings.TrimSpace(s.RepoPath) == "":
		v = &ValidationError{Field: "repo_path", Msg: "must not be empty"}
	case strings.TrimSpace(s.Python) == "":
		v = &ValidationError{Field: "python", Msg: "must not be empty"}
	case s.RetrySleep <= 0:
		v = &ValidationError{Field: "retry_sleep", Msg: "must be positive, got " + s.RetrySleep.String()}
	case s.RetryBudget < 0:
		v = &ValidationError{Field: "retry_budget", Msg: "must not be negative, got " + s.RetryBudget.String()}
	case s.CommandTimeout < 0:
		v = &ValidationError{Field: "command_timeout", Msg: "must not be negative, got " + s.CommandTimeout.String()}
	}
	if v == nil {
		return nil
	}
	return errors.WrapWithDetails(errors.EConfig, v.Error(), v, map[string]string{"op": "config"})
}
