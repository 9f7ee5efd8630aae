package cli

import (
	"context"
	"errors"
	"strings"

	"github.com/alnah/go-voicetype/internal/interrupt"
	"github.com/alnah/go-voicetype/internal/launch"
	"github.com/alnah/go-voicetype/internal/venv"
)

// Exit codes shared by both launchers. An interactive launch that ran the
// program exits with the program's own status instead.
const (
	ExitOK        = 0
	ExitGeneral   = 1
	ExitUsage     = 2
	ExitSetup     = 3
	ExitInterrupt = interrupt.ExitInterrupt
)

// ExitCode maps errors to exit codes.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	if errors.Is(err, context.Canceled) {
		return ExitInterrupt
	}

	if isCobraUsageError(err) || errors.Is(err, ErrUnknownConfigKey) {
		return ExitUsage
	}

	if errors.Is(err, venv.ErrNotFound) || errors.Is(err, venv.ErrNotVenv) ||
		errors.Is(err, venv.ErrNoActivate) || errors.Is(err, venv.ErrNoInterpreter) ||
		errors.Is(err, launch.ErrScriptNotFound) || errors.Is(err, launch.ErrStartFailed) ||
		errors.Is(err, ErrCheckFailed) {
		return ExitSetup
	}

	return ExitGeneral
}

// cobraUsageErrorPatterns contains error message substrings that indicate Cobra usage errors.
// Cobra doesn't expose typed errors, so string matching is the only reliable approach.
var cobraUsageErrorPatterns = []string{
	"required flag",
	"unknown flag",
	"unknown shorthand",
	"unknown command",
	"flag needs an argument",
	"invalid argument",
	"accepts ",
	"requires at least",
	"requires at most",
}

// isCobraUsageError checks if an error is a Cobra usage/parsing error.
func isCobraUsageError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, pattern := range cobraUsageErrorPatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
