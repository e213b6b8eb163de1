package cli

import (
	"errors"
	"fmt"
)

// Launcher exit codes.
const (
	ExitUsage      = 1
	ExitNoCommand  = 2
	ExitMissing    = 3
	ExitTransport  = 4
	ExitUnexpected = 5
)

type exitError struct {
	code int
	err  error
}

func (e exitError) Error() string { return e.err.Error() }

func (e exitError) Unwrap() error { return e.err }

func withExit(code int, err error) error {
	if err == nil {
		return nil
	}
	return exitError{code: code, err: err}
}

// ExitCode maps an error returned by a command to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var e exitError
	if errors.As(err, &e) {
		return e.code
	}
	return ExitUsage
}

type transportError struct {
	args []string
	err  error
}

func (e transportError) Error() string {
	return fmt.Sprintf("content process did not answer %q: %v", e.args, e.err)
}

func (e transportError) Unwrap() error { return e.err }
