package rules

import (
	"errors"
	"fmt"
)

// ErrInvalidRule is returned when a rule cannot be compiled at load time.
// It can be checked with errors.Is().
var ErrInvalidRule = errors.New("invalid rule")

// ConfigError is returned when a rule in the configured rule list cannot be
// compiled. It is fatal at startup: a rule set that fails to compile is never
// evaluated.
type ConfigError struct {
	// Index is the zero-based position of the offending rule in the list.
	Index int

	// Rule is the rule that failed to compile.
	Rule Rule

	// Cause is the underlying compilation error, if any.
	Cause error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("rule %d (%s %q): %v", e.Index, e.Rule.Kind, e.Rule.Pattern, e.Cause)
	}
	return fmt.Sprintf("rule %d (%s %q): invalid rule", e.Index, e.Rule.Kind, e.Rule.Pattern)
}

// Is implements error matching for errors.Is().
func (e *ConfigError) Is(target error) bool {
	return target == ErrInvalidRule
}

// Unwrap returns the wrapped error for error chain traversal.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}
