package dev_server

import (
	"context"
	"fmt"
	"strings"

	"github.com/openlovable/lovable/dev_server/contracts"
	"github.com/openlovable/lovable/dev_server/models"
	host_contracts "github.com/openlovable/lovable/process_host/contracts"
	host_models "github.com/openlovable/lovable/process_host/models"
)

// Doctor checks that node and the package manager can actually run.
type Doctor struct {
	host           host_contracts.IProcessHost
	packageManager string
	node           string
}

func NewDoctor(host host_contracts.IProcessHost, packageManager string, node string) contracts.IDoctor {
	if packageManager == "" {
		packageManager = "npm"
	}
	if node == "" {
		node = "node"
	}
	return &Doctor{host: host, packageManager: packageManager, node: node}
}

func (d *Doctor) Check(ctx context.Context) *models.Diagnosis {
	diagnosis := &models.Diagnosis{}

	if path, err := d.host.LookPath(d.node, host_models.ProcessOptions{}); err == nil {
		diagnosis.NodePath = path
	}

	npmPath, err := d.host.LookPath(d.packageManager, host_models.ProcessOptions{})
	if err != nil {
		diagnosis.Message = fmt.Sprintf("%s not found in PATH.", d.packageManager)
		return diagnosis
	}
	diagnosis.NpmPath = npmPath

	if diagnosis.NodePath == "" {
		diagnosis.Message = fmt.Sprintf("%s not found in PATH.", d.node)
		return diagnosis
	}

	output, err := d.host.Run(ctx, d.packageManager, []string{"-v"}, host_models.ProcessOptions{})
	if err == nil && output.ExitCode == 0 {
		diagnosis.OK = true
		diagnosis.Version = strings.TrimSpace(output.Stdout)
		diagnosis.Message = fmt.Sprintf("%s OK: %s", d.packageManager, diagnosis.Version)
		return diagnosis
	}

	var stderr string
	detail := "unknown"
	switch {
	case err != nil:
		detail = err.Error()
	case output.Stderr != "":
		stderr = output.Stderr
		detail = output.Stderr
	case output.Stdout != "":
		detail = output.Stdout
	}

	if strings.Contains(strings.ToLower(detail), "operation not permitted") {
		diagnosis.Message = fmt.Sprintf("The environment is blocking execution of %s/%s. Run outside the sandbox or grant process execution. stderr: %s",
			d.packageManager, d.node, strings.TrimSpace(stderr))
		return diagnosis
	}

	diagnosis.Message = fmt.Sprintf("%s failed to run. stderr: %s", d.packageManager, strings.TrimSpace(detail))
	return diagnosis
}

// DiagnosisError converts a failed diagnosis into ErrToolchainUnavailable.
func DiagnosisError(diagnosis *models.Diagnosis) error {
	if diagnosis == nil || diagnosis.OK {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrToolchainUnavailable, diagnosis.Message)
}
