// Package service implements the application logic between the HTTP handlers
// and the repositories: project lifecycle, the page state machine, background
// generation jobs and blob bookkeeping.
package service

import (
	"errors"
	"fmt"
)

// Sentinel errors the handlers translate into HTTP statuses. Anything else
// surfaces as a 500.
var (
	// ErrValidation marks bad request input (400).
	ErrValidation = errors.New("invalid request")

	// ErrInvalidStatus marks a state-machine violation, e.g. generating an
	// image for a page that has no description (409).
	ErrInvalidStatus = errors.New("operation not allowed in current status")

	// ErrUnsupported marks a known but unimplemented export format (400).
	ErrUnsupported = errors.New("unsupported format")
)

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func statusf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidStatus, fmt.Sprintf(format, args...))
}
