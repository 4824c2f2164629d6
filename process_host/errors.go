package process_host

import (
	"errors"
	"fmt"
)

// ErrLaunchFailed is matched by every LaunchError.
var ErrLaunchFailed = errors.New("process launch failed")

// LaunchError reports an executable that could not be started.
type LaunchError struct {
	Name string
	Err  error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("failed to launch %s: %v", e.Name, e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }

func (e *LaunchError) Is(target error) bool { return target == ErrLaunchFailed }

// ExitError reports a child that ran but exited with a non-zero status.
type ExitError struct {
	Name   string
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	stderr := e.Stderr
	if len(stderr) > 512 {
		stderr = stderr[len(stderr)-512:]
	}
	return fmt.Sprintf("%s exited with code %d: %s", e.Name, e.Code, stderr)
}

// IsLaunchFailed reports whether err is or wraps a LaunchError.
func IsLaunchFailed(err error) bool {
	return errors.Is(err, ErrLaunchFailed)
}

// IsNonZeroExit reports whether err is or wraps an ExitError.
func IsNonZeroExit(err error) bool {
	var exitErr *ExitError
	return errors.As(err, &exitErr)
}
