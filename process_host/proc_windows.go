//go:build windows

package process_host

import (
	"errors"
	"os"
	"os/exec"
	"syscall"
)

var (
	terminateSignal = syscall.SIGTERM
	killSignal      = syscall.SIGKILL
)

func setProcessGroup(cmd *exec.Cmd) {}

// Windows has no process groups to signal; the leader is killed directly.
func signalGroup(process *os.Process, _ syscall.Signal) error {
	if process == nil {
		return nil
	}
	err := process.Kill()
	if errors.Is(err, os.ErrProcessDone) {
		return nil
	}
	return err
}
