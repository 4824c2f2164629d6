package dev_server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/openlovable/lovable/process_host"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fakeNpm = `#!/bin/sh
dir=$(dirname "$0")
case "$1" in
  install)
    echo "$@" > "$dir/install-args"
    if [ -f "$dir/slow-install" ]; then
      sleep 2
    fi
    if [ -f "$dir/fail-install" ]; then
      echo "npm ERR! boom" >&2
      exit 7
    fi
    exit 0
    ;;
  run)
    echo "VITE ready on port $5"
    exec sleep 30
    ;;
  -v)
    if [ -f "$dir/eperm" ]; then
      echo "Error: EPERM: operation not permitted, uv_cwd" >&2
      exit 1
    fi
    echo "10.8.2"
    ;;
esac
`

type toolchain struct {
	dir string
	npm string
}

func newToolchain(t *testing.T) toolchain {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake toolchain is a shell script")
	}
	dir := t.TempDir()
	npm := filepath.Join(dir, "npm")
	require.NoError(t, os.WriteFile(npm, []byte(fakeNpm), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "node"), []byte("#!/bin/sh\nexit 0\n"), 0o755))
	return toolchain{dir: dir, npm: npm}
}

func freePort(t *testing.T) int {
	t.Helper()
	listener, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	defer listener.Close()
	return listener.Addr().(*net.TCPAddr).Port
}

func newTestSupervisor(t *testing.T, tc toolchain, port int) *Supervisor {
	t.Helper()
	host := process_host.NewProcessHost([]string{tc.dir}, nil)
	supervisor := NewSupervisor(host, SupervisorConfig{
		PackageManager: tc.npm,
		Port:           port,
		StopTimeout:    time.Second,
	}, nil).(*Supervisor)
	t.Cleanup(func() { _ = supervisor.Stop() })
	return supervisor
}

func firstLine(t *testing.T, lines <-chan string) string {
	t.Helper()
	select {
	case line := <-lines:
		return line
	case <-time.After(10 * time.Second):
		t.Fatal("dev server produced no output")
		return ""
	}
}

func TestEnsureManifest_SynthesizesWhenAbsent(t *testing.T) {
	root := t.TempDir()

	created, err := EnsureManifest(root)
	require.NoError(t, err)
	assert.True(t, created)

	data, err := os.ReadFile(filepath.Join(root, "package.json"))
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "lovable-app", decoded["name"])
	assert.Equal(t, true, decoded["private"])
	assert.Equal(t, "module", decoded["type"])
	assert.Equal(t, map[string]any{"dev": "vite", "build": "vite build", "preview": "vite preview"}, decoded["scripts"])
	assert.Equal(t, map[string]any{"vite": "^5.4.0"}, decoded["devDependencies"])
}

func TestEnsureManifest_KeepsExisting(t *testing.T) {
	root := t.TempDir()
	existing := `{"name":"mine"}`
	require.NoError(t, os.WriteFile(filepath.Join(root, "package.json"), []byte(existing), 0o644))

	created, err := EnsureManifest(root)
	require.NoError(t, err)
	assert.False(t, created)

	data, err := os.ReadFile(filepath.Join(root, "package.json"))
	require.NoError(t, err)
	assert.Equal(t, existing, string(data))
}

func TestStart_InstallsPackagesThenStreams(t *testing.T) {
	tc := newToolchain(t)
	port := freePort(t)
	supervisor := newTestSupervisor(t, tc, port)
	root := t.TempDir()

	lines, err := supervisor.Start(context.Background(), root, []string{"left-pad", "react"})
	require.NoError(t, err)

	assert.Contains(t, firstLine(t, lines), "VITE ready on port")
	assert.True(t, supervisor.Running())
	assert.FileExists(t, filepath.Join(root, "package.json"))

	installArgs, err := os.ReadFile(filepath.Join(tc.dir, "install-args"))
	require.NoError(t, err)
	assert.Equal(t, "install left-pad react", strings.TrimSpace(string(installArgs)))

	assert.Equal(t, "http://localhost:"+strconv.Itoa(port), supervisor.PreviewURL())
}

func TestPreviewURL_EmptyBeforeFirstStart(t *testing.T) {
	tc := newToolchain(t)
	supervisor := newTestSupervisor(t, tc, freePort(t))

	assert.Empty(t, supervisor.PreviewURL())
	assert.False(t, supervisor.Running())
}

func TestRunningAndPreviewURL_DoNotWaitForInstall(t *testing.T) {
	tc := newToolchain(t)
	require.NoError(t, os.WriteFile(filepath.Join(tc.dir, "slow-install"), nil, 0o644))
	supervisor := newTestSupervisor(t, tc, freePort(t))

	root := t.TempDir()
	var lines <-chan string
	started := make(chan error, 1)
	go func() {
		var err error
		lines, err = supervisor.Start(context.Background(), root, nil)
		started <- err
	}()

	require.Eventually(t, func() bool {
		_, err := os.Stat(filepath.Join(tc.dir, "install-args"))
		return err == nil
	}, 5*time.Second, 10*time.Millisecond)

	answered := make(chan bool, 1)
	begin := time.Now()
	go func() {
		running := supervisor.Running()
		_ = supervisor.PreviewURL()
		answered <- running
	}()

	select {
	case running := <-answered:
		assert.False(t, running)
		assert.Less(t, time.Since(begin), 500*time.Millisecond)
	case <-time.After(time.Second):
		t.Fatal("Running blocked behind the dependency install")
	}

	select {
	case err := <-started:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("start never finished")
	}
	firstLine(t, lines)
	assert.True(t, supervisor.Running())
}

func TestStart_TwiceLeavesExactlyOneLiveChild(t *testing.T) {
	tc := newToolchain(t)
	supervisor := newTestSupervisor(t, tc, freePort(t))
	root := t.TempDir()

	lines, err := supervisor.Start(context.Background(), root, nil)
	require.NoError(t, err)
	firstLine(t, lines)
	first := supervisor.handle

	lines, err = supervisor.Start(context.Background(), root, nil)
	require.NoError(t, err)
	firstLine(t, lines)
	second := supervisor.handle

	assert.False(t, first.Alive())
	assert.True(t, second.Alive())
	assert.NotEqual(t, first.Pid(), second.Pid())
}

func TestStart_InstallFailureSpawnsNothing(t *testing.T) {
	tc := newToolchain(t)
	require.NoError(t, os.WriteFile(filepath.Join(tc.dir, "fail-install"), nil, 0o644))
	supervisor := newTestSupervisor(t, tc, freePort(t))

	lines, err := supervisor.Start(context.Background(), t.TempDir(), []string{"nope"})

	assert.Nil(t, lines)
	require.Error(t, err)
	var installErr *InstallError
	require.True(t, errors.As(err, &installErr))
	assert.Equal(t, 7, installErr.Code)
	assert.Contains(t, installErr.Stderr, "npm ERR! boom")
	assert.False(t, supervisor.Running())
}

func TestStart_MissingToolchainIsLaunchFailure(t *testing.T) {
	host := process_host.NewProcessHost(nil, nil)
	supervisor := NewSupervisor(host, SupervisorConfig{PackageManager: "lovable-no-such-npm"}, nil)

	_, err := supervisor.Start(context.Background(), t.TempDir(), nil)

	require.Error(t, err)
	assert.True(t, process_host.IsLaunchFailed(err))
}

func TestStop_IsIdempotent(t *testing.T) {
	tc := newToolchain(t)
	supervisor := newTestSupervisor(t, tc, freePort(t))

	require.NoError(t, supervisor.Stop())

	lines, err := supervisor.Start(context.Background(), t.TempDir(), nil)
	require.NoError(t, err)
	firstLine(t, lines)
	handle := supervisor.handle

	require.NoError(t, supervisor.Stop())
	require.NoError(t, supervisor.Stop())
	assert.False(t, handle.Alive())
	assert.False(t, supervisor.Running())
}

func TestStart_BusyPortMovesToNextFreePortOnce(t *testing.T) {
	tc := newToolchain(t)
	busy, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	defer busy.Close()
	busyPort := busy.Addr().(*net.TCPAddr).Port

	supervisor := newTestSupervisor(t, tc, busyPort)
	supervisor.config.PortRetries = 20

	lines, err := supervisor.Start(context.Background(), t.TempDir(), nil)
	require.NoError(t, err)
	firstLine(t, lines)

	pinned := supervisor.port
	assert.Greater(t, pinned, busyPort)
	assert.Equal(t, "http://localhost:"+strconv.Itoa(pinned), supervisor.PreviewURL())

	lines, err = supervisor.Start(context.Background(), t.TempDir(), nil)
	require.NoError(t, err)
	firstLine(t, lines)
	assert.Equal(t, pinned, supervisor.port)
}

func TestStart_BusyPortWithoutRetriesFails(t *testing.T) {
	tc := newToolchain(t)
	busy, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	defer busy.Close()

	supervisor := newTestSupervisor(t, tc, busy.Addr().(*net.TCPAddr).Port)

	_, err = supervisor.Start(context.Background(), t.TempDir(), nil)

	assert.ErrorIs(t, err, ErrPortInUse)
	assert.False(t, supervisor.Running())
}

func TestDoctor_Healthy(t *testing.T) {
	tc := newToolchain(t)
	host := process_host.NewProcessHost([]string{tc.dir}, nil)

	diagnosis := NewDoctor(host, "npm", "node").Check(context.Background())

	assert.True(t, diagnosis.OK)
	assert.Equal(t, tc.npm, diagnosis.NpmPath)
	assert.Equal(t, "10.8.2", diagnosis.Version)
	assert.NoError(t, DiagnosisError(diagnosis))
}

func TestDoctor_NpmMissing(t *testing.T) {
	host := process_host.NewProcessHost(nil, nil)

	diagnosis := NewDoctor(host, "lovable-no-such-npm", "node").Check(context.Background())

	assert.False(t, diagnosis.OK)
	assert.Equal(t, "lovable-no-such-npm not found in PATH.", diagnosis.Message)
	assert.ErrorIs(t, DiagnosisError(diagnosis), ErrToolchainUnavailable)
}

func TestDoctor_OperationNotPermitted(t *testing.T) {
	tc := newToolchain(t)
	require.NoError(t, os.WriteFile(filepath.Join(tc.dir, "eperm"), nil, 0o644))
	host := process_host.NewProcessHost([]string{tc.dir}, nil)

	diagnosis := NewDoctor(host, "npm", "node").Check(context.Background())

	assert.False(t, diagnosis.OK)
	assert.Contains(t, diagnosis.Message, "blocking execution")
	assert.Contains(t, diagnosis.Message, "operation not permitted")
}
