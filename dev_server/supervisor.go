package dev_server

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/openlovable/lovable/dev_server/contracts"
	host_contracts "github.com/openlovable/lovable/process_host/contracts"
	host_models "github.com/openlovable/lovable/process_host/models"
	"github.com/pterm/pterm"
)

// SupervisorConfig holds the toolchain command and the preview address.
type SupervisorConfig struct {
	PackageManager string
	Host           string
	Port           int
	PortRetries    int
	StopTimeout    time.Duration
}

var DefaultSupervisorConfig = SupervisorConfig{
	PackageManager: "npm",
	Host:           "localhost",
	Port:           5173,
	PortRetries:    10,
	StopTimeout:    3 * time.Second,
}

// Supervisor keeps at most one dev server child alive. Start and Stop share
// mu, so a spawn can never race another spawn or a stop. handle and port are
// written only while mu is held, and always under state, so Running and
// PreviewURL answer without waiting for an install to finish.
type Supervisor struct {
	mu     sync.Mutex
	state  sync.Mutex
	host   host_contracts.IProcessHost
	config SupervisorConfig
	handle host_contracts.IProcessHandle
	port   int
	logger *pterm.Logger
}

func NewSupervisor(host host_contracts.IProcessHost, config SupervisorConfig, logger *pterm.Logger) contracts.IDevServerSupervisor {
	if logger == nil {
		logger = pterm.DefaultLogger.WithWriter(io.Discard)
	}
	if config.PackageManager == "" {
		config.PackageManager = DefaultSupervisorConfig.PackageManager
	}
	if config.Host == "" {
		config.Host = DefaultSupervisorConfig.Host
	}
	if config.Port == 0 {
		config.Port = DefaultSupervisorConfig.Port
	}
	if config.StopTimeout <= 0 {
		config.StopTimeout = DefaultSupervisorConfig.StopTimeout
	}
	return &Supervisor{host: host, config: config, logger: logger}
}

// Start stops any running server, makes sure root has a manifest, installs
// packages, then spawns the dev server and returns its output lines without
// waiting for it to become ready. The server outlives ctx; only Stop ends it.
func (s *Supervisor) Start(ctx context.Context, root string, packages []string) (<-chan string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.stopLocked(); err != nil {
		return nil, err
	}

	created, err := EnsureManifest(root)
	if err != nil {
		return nil, err
	}
	if created {
		s.logger.Info("synthesized package.json", s.logger.Args("root", root))
	}

	installArgs := append([]string{"install"}, packages...)
	s.logger.Info("installing dependencies", s.logger.Args("packages", len(packages)))

	output, err := s.host.Run(ctx, s.config.PackageManager, installArgs, host_models.ProcessOptions{Dir: root})
	if err != nil {
		return nil, fmt.Errorf("error running dependency install: %w", err)
	}
	if output.ExitCode != 0 {
		return nil, &InstallError{Code: output.ExitCode, Stderr: output.Stderr}
	}

	port, err := s.reservePort()
	if err != nil {
		return nil, err
	}

	devArgs := []string{"run", "dev", "--", "--port", strconv.Itoa(port), "--host", s.config.Host, "--strictPort"}
	handle, lines, err := s.host.Stream(s.config.PackageManager, devArgs, host_models.ProcessOptions{Dir: root})
	if err != nil {
		return nil, fmt.Errorf("error starting dev server: %w", err)
	}

	s.state.Lock()
	s.handle = handle
	s.state.Unlock()
	s.logger.Info("dev server started", s.logger.Args("pid", handle.Pid(), "port", port))
	return lines, nil
}

// Stop terminates the running server, if any. Calling it while idle is a no-op.
func (s *Supervisor) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopLocked()
}

func (s *Supervisor) stopLocked() error {
	s.state.Lock()
	handle := s.handle
	s.handle = nil
	s.state.Unlock()
	if handle == nil {
		return nil
	}

	if err := handle.Terminate(s.config.StopTimeout); err != nil {
		return fmt.Errorf("error stopping dev server: %w", err)
	}
	s.logger.Info("dev server stopped", s.logger.Args("pid", handle.Pid()))
	return nil
}

func (s *Supervisor) Running() bool {
	s.state.Lock()
	handle := s.handle
	s.state.Unlock()
	return handle != nil && handle.Alive()
}

// PreviewURL is the loopback address of the dev server, empty until a start
// has pinned a port.
func (s *Supervisor) PreviewURL() string {
	s.state.Lock()
	port := s.port
	s.state.Unlock()
	if port == 0 {
		return ""
	}
	return fmt.Sprintf("http://%s:%d", s.config.Host, port)
}
