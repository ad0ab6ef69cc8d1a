package cli

import (
	"errors"
	"fmt"
)

// Exit codes follow the SAT competition convention for the solve outcomes
const (
	ExitOK                 = 0
	ExitFailure            = 1
	ExitSolved             = 10
	ExitVerificationFailed = 15
	ExitNoSolution         = 20
	ExitBudgetExceeded     = 30
)

// ExitError carries the process exit code of a command. Err is nil when the code reports an
// outcome rather than a failure.
type ExitError struct {
	Code int
	Err  error
}

func (err *ExitError) Error() string {
	if err.Err == nil {
		return fmt.Sprintf("exit status %d", err.Code)
	}
	return err.Err.Error()
}

func (err *ExitError) Unwrap() error {
	return err.Err
}

// ExitCode maps a command error to the process exit code
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// Silent reports whether err only carries an exit code and has nothing to print
func Silent(err error) bool {
	var exitErr *ExitError
	return errors.As(err, &exitErr) && exitErr.Err == nil
}
