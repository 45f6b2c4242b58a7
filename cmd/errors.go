package cmd

import (
	"errors"
	"fmt"

	scanapp "github.com/ARYAN-095/GuardianWeb/internal/application/scan"
	sharedErrors "github.com/ARYAN-095/GuardianWeb/internal/shared/errors"
)

// Process exit codes
const (
	exitFailure    = 1
	exitUsage      = 2
	exitScanFailed = 3
	exitNotFound   = 4
	exitTimeout    = 5
	exitNotSaved   = 6
)

// NoScansError indicates that nothing has been recorded for a target.
type NoScansError struct {
	Target string
}

func (e *NoScansError) Error() string {
	return fmt.Sprintf("no scans recorded for %s", e.Target)
}

func (e *NoScansError) Unwrap() error {
	return sharedErrors.ErrScanNotFound
}

// UsageError wraps bad command-line input.
type UsageError struct {
	Err error
}

func (e *UsageError) Error() string {
	return e.Err.Error()
}

func (e *UsageError) Unwrap() error {
	return e.Err
}

func exitCode(err error) int {
	var (
		usage *UsageError
		perr  *scanapp.PersistError
	)
	switch {
	case err == nil:
		return 0
	case errors.As(err, &usage), errors.Is(err, sharedErrors.ErrInvalidURL):
		return exitUsage
	case errors.As(err, &perr):
		return exitNotSaved
	case errors.Is(err, sharedErrors.ErrScanTimeout):
		return exitTimeout
	case errors.Is(err, sharedErrors.ErrScanNotFound):
		return exitNotFound
	case errors.Is(err, sharedErrors.ErrFetchFailed),
		errors.Is(err, sharedErrors.ErrCaptureFailed),
		errors.Is(err, sharedErrors.ErrModelUnavailable):
		return exitScanFailed
	default:
		return exitFailure
	}
}
