package cli

import "errors"

// Process exit codes.
const (
	ExitCodeOK         = 0
	ExitCodeError      = 1
	ExitCodeItemErrors = 2
)

// ExitError carries a specific exit code to main.
// It is returned when a run completed but some items failed.
type ExitError struct {
	Code   int
	Reason string
}

func (e *ExitError) Error() string {
	return e.Reason
}

// ExitCode maps an Execute error to the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitCodeOK
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitCodeError
}
