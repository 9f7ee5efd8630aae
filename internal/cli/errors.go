package cli

import (
	"errors"
	"fmt"
)

// CLI-specific sentinel errors.
// These are validation/usage errors that don't belong to domain packages.

var (
	// ErrCheckFailed indicates at least one required preflight check failed.
	ErrCheckFailed = errors.New("environment check failed")

	// ErrUnknownConfigKey indicates a config command named an unsupported key.
	ErrUnknownConfigKey = errors.New("unknown config key")
)

// ExitError carries an exit code for an outcome the user has already seen:
// either the child's own non-zero status, or a launcher error that was
// printed (interactive) or logged (silent) before returning.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("program exited with status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}
