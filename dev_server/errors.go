package dev_server

import (
	"errors"
	"fmt"
)

var (
	ErrToolchainUnavailable = errors.New("node toolchain unavailable")
	ErrPortInUse            = errors.New("dev server port is in use")
)

// InstallError reports a dependency install that exited non-zero.
type InstallError struct {
	Code   int
	Stderr string
}

func (e *InstallError) Error() string {
	stderr := e.Stderr
	if len(stderr) > 1024 {
		stderr = "..." + stderr[len(stderr)-1024:]
	}
	return fmt.Sprintf("dependency install failed with code %d: %s", e.Code, stderr)
}

func IsInstallFailed(err error) bool {
	var installErr *InstallError
	return errors.As(err, &installErr)
}
