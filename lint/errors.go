package lint

import (
	"errors"
	"fmt"
)

// ConfigError marks a failure of run setup, such as an unknown rule ID, a
// bad severity name or an unreadable input path. The CLI maps it to a
// dedicated exit code so scripts can tell misconfiguration from findings.
type ConfigError struct {
	err error
}

func (e *ConfigError) Error() string { return e.err.Error() }

func (e *ConfigError) Unwrap() error { return e.err }

// NewConfigError wraps err as a configuration failure.
func NewConfigError(err error) error {
	return &ConfigError{err: err}
}

func configErrorf(format string, args ...any) error {
	return &ConfigError{err: fmt.Errorf(format, args...)}
}

// IsConfigError reports whether err stems from configuration rather than
// from analysis.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}
