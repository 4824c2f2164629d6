package process_host

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/openlovable/lovable/process_host/contracts"
	"github.com/openlovable/lovable/process_host/models"
	"github.com/pterm/pterm"
)

const outputDrainDelay = 2 * time.Second

// ProcessHost spawns child processes with the toolchain-aware environment.
type ProcessHost struct {
	ExtraPaths []string
	logger     *pterm.Logger
}

// NewProcessHost creates a host; extraPaths are searched before the default toolchain paths.
func NewProcessHost(extraPaths []string, logger *pterm.Logger) contracts.IProcessHost {
	if logger == nil {
		logger = pterm.DefaultLogger.WithWriter(io.Discard)
	}
	return &ProcessHost{
		ExtraPaths: extraPaths,
		logger:     logger,
	}
}

// Run starts the command, waits for it and captures stdout and stderr separately.
// A non-zero exit is not an error here; use RequireSuccess to promote it.
func (host *ProcessHost) Run(ctx context.Context, name string, args []string, opts models.ProcessOptions) (*models.ProcessOutput, error) {
	cmd, err := host.command(name, args, opts)
	if err != nil {
		return nil, err
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// Descendants that keep the pipes open must not hang the caller.
	cmd.WaitDelay = outputDrainDelay

	host.logger.Debug("running process", host.logger.Args("cmd", cmd.Path, "args", strings.Join(args, " "), "dir", opts.Dir))

	if err := cmd.Start(); err != nil {
		return nil, &LaunchError{Name: name, Err: err}
	}

	waitDone := make(chan error, 1)
	go func() { waitDone <- cmd.Wait() }()

	var waitErr error
	select {
	case waitErr = <-waitDone:
	case <-ctx.Done():
		_ = signalGroup(cmd.Process, killSignal)
		<-waitDone
		return &models.ProcessOutput{ExitCode: -1, Stdout: stdout.String(), Stderr: stderr.String()}, ctx.Err()
	}

	output := &models.ProcessOutput{
		ExitCode: cmd.ProcessState.ExitCode(),
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
	}

	var exitErr *exec.ExitError
	if waitErr != nil && !errors.As(waitErr, &exitErr) && !errors.Is(waitErr, exec.ErrWaitDelay) {
		return output, fmt.Errorf("error waiting for %s: %w", name, waitErr)
	}

	return output, nil
}

// Stream starts the command and returns immediately. Lines from stdout and
// stderr are delivered on one channel in arrival order; the channel closes
// once both pipes reach EOF, which may be after the process itself exits if
// descendants still hold them.
func (host *ProcessHost) Stream(name string, args []string, opts models.ProcessOptions) (contracts.IProcessHandle, <-chan string, error) {
	cmd, err := host.command(name, args, opts)
	if err != nil {
		return nil, nil, err
	}

	stdoutReader, stdoutWriter, err := os.Pipe()
	if err != nil {
		return nil, nil, &LaunchError{Name: name, Err: err}
	}
	stderrReader, stderrWriter, err := os.Pipe()
	if err != nil {
		stdoutReader.Close()
		stdoutWriter.Close()
		return nil, nil, &LaunchError{Name: name, Err: err}
	}
	cmd.Stdout = stdoutWriter
	cmd.Stderr = stderrWriter

	host.logger.Debug("streaming process", host.logger.Args("cmd", cmd.Path, "args", strings.Join(args, " "), "dir", opts.Dir))

	startErr := cmd.Start()
	// The child owns the write ends now.
	stdoutWriter.Close()
	stderrWriter.Close()
	if startErr != nil {
		stdoutReader.Close()
		stderrReader.Close()
		return nil, nil, &LaunchError{Name: name, Err: startErr}
	}

	handle := newProcessHandle(cmd)
	go handle.wait()

	lines := make(chan string, 256)
	var readers sync.WaitGroup
	readers.Add(2)
	go readLines(stdoutReader, lines, &readers)
	go readLines(stderrReader, lines, &readers)
	go func() {
		readers.Wait()
		close(lines)
	}()

	return handle, lines, nil
}

// LookPath resolves name against the PATH the child would see.
func (host *ProcessHost) LookPath(name string, opts models.ProcessOptions) (string, error) {
	env := BuildEnvironment(os.Environ(), host.ExtraPaths, opts.Env)
	return lookPath(name, lookupEnv(env, "PATH"))
}

// RequireSuccess turns a non-zero exit into an ExitError.
func RequireSuccess(name string, output *models.ProcessOutput) error {
	if output == nil || output.ExitCode == 0 {
		return nil
	}
	return &ExitError{Name: name, Code: output.ExitCode, Stderr: output.Stderr}
}

func (host *ProcessHost) command(name string, args []string, opts models.ProcessOptions) (*exec.Cmd, error) {
	env := BuildEnvironment(os.Environ(), host.ExtraPaths, opts.Env)

	path, err := lookPath(name, lookupEnv(env, "PATH"))
	if err != nil {
		return nil, &LaunchError{Name: name, Err: err}
	}

	cmd := exec.Command(path, args...)
	cmd.Env = env
	cmd.Dir = opts.Dir
	setProcessGroup(cmd)
	return cmd, nil
}

func readLines(reader *os.File, lines chan<- string, readers *sync.WaitGroup) {
	defer readers.Done()
	defer reader.Close()

	buffered := bufio.NewReader(reader)
	for {
		line, err := buffered.ReadString('\n')
		if len(line) > 0 {
			lines <- strings.TrimRight(line, "\r\n")
		}
		if err != nil {
			return
		}
	}
}

// lookPath searches pathEnv rather than the parent's PATH.
func lookPath(name string, pathEnv string) (string, error) {
	if runtime.GOOS == "windows" {
		return exec.LookPath(name)
	}

	if strings.Contains(name, string(filepath.Separator)) {
		if isExecutable(name) {
			return name, nil
		}
		return "", fmt.Errorf("%s: %w", name, exec.ErrNotFound)
	}

	for _, dir := range filepath.SplitList(pathEnv) {
		if dir == "" {
			continue
		}
		candidate := filepath.Join(dir, name)
		if isExecutable(candidate) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%s: %w", name, exec.ErrNotFound)
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	return info.Mode()&0o111 != 0
}

// processHandle tracks one streamed child.
type processHandle struct {
	cmd      *exec.Cmd
	done     chan struct{}
	mu       sync.Mutex
	exitCode int
}

func newProcessHandle(cmd *exec.Cmd) *processHandle {
	return &processHandle{
		cmd:      cmd,
		done:     make(chan struct{}),
		exitCode: -1,
	}
}

func (h *processHandle) wait() {
	_ = h.cmd.Wait()
	h.mu.Lock()
	if h.cmd.ProcessState != nil {
		h.exitCode = h.cmd.ProcessState.ExitCode()
	}
	h.mu.Unlock()
	close(h.done)
}

func (h *processHandle) Pid() int {
	return h.cmd.Process.Pid
}

func (h *processHandle) Done() <-chan struct{} {
	return h.done
}

func (h *processHandle) Alive() bool {
	select {
	case <-h.done:
		return false
	default:
		return true
	}
}

// ExitCode is -1 while the process is running or when it was killed by a signal.
func (h *processHandle) ExitCode() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.exitCode
}

// Terminate asks the whole process group to stop, then kills whatever is
// left after grace. Descendants are signalled even if the leader already
// exited, so no listener outlives the handle.
func (h *processHandle) Terminate(grace time.Duration) error {
	if err := signalGroup(h.cmd.Process, terminateSignal); err != nil && h.Alive() {
		return fmt.Errorf("error signalling process %d: %w", h.Pid(), err)
	}

	select {
	case <-h.done:
	case <-time.After(grace):
	}

	_ = signalGroup(h.cmd.Process, killSignal)

	select {
	case <-h.done:
		return nil
	case <-time.After(5 * time.Second):
		return fmt.Errorf("process %d did not exit after kill", h.Pid())
	}
}
