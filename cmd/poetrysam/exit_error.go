// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"strconv"
)

// Process exit codes.
const (
	exitFailure     = 1
	exitInterrupted = 130
)

// ExitError carries the process exit code out of a RunE handler so that only
// Execute calls os.Exit.
type ExitError struct {
	Code int
	Err  error
}

func newExitError(err error) *ExitError {
	code := exitFailure
	if errors.Is(err, context.Canceled) {
		code = exitInterrupted
	}
	return &ExitError{Code: code, Err: err}
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return "exit status " + strconv.Itoa(e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }
