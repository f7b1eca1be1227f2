package cli

import (
	"errors"
	"fmt"
)

// Process exit codes
const (
	ExitOK     = 0
	ExitFailed = 1
	ExitUsage  = 2
)

// ExitError ends the process with Code once the outcome has been reported
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// ExitCode maps an Execute error to a process exit code.
// Failed reposts exit 1; everything else that stops before an outcome is a
// configuration or argument error and exits 2.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitUsage
}

// Reported returns true when the error was already printed as an outcome line
func Reported(err error) bool {
	var exitErr *ExitError
	return errors.As(err, &exitErr)
}
