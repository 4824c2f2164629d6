package utils

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"github.com/openlovable/lovable/process_host/contracts"
	"github.com/openlovable/lovable/process_host/models"
)

// CommandExecutor runs shell commands suggested by the model inside a
// project directory, after a safety check.
type CommandExecutor struct {
	host contracts.IProcessHost
}

func NewCommandExecutor(host contracts.IProcessHost) *CommandExecutor {
	return &CommandExecutor{host: host}
}

var dangerousPatterns = []string{
	"rm -rf /",
	"rm -rf ~",
	":(){ :|:& };:",
	"> /dev/sda",
	"wipefs",
	"fdisk",
	"mkfs",
	"dd if=",
	"shutdown",
	"reboot",
	"sudo ",
}

// ValidateCommand rejects empty commands and well known destructive patterns.
func ValidateCommand(command string) error {
	if strings.TrimSpace(command) == "" {
		return fmt.Errorf("empty command provided")
	}

	cmdLower := strings.ToLower(command)
	for _, pattern := range dangerousPatterns {
		if strings.Contains(cmdLower, pattern) {
			return fmt.Errorf("potentially dangerous command detected: %s", strings.TrimSpace(pattern))
		}
	}
	return nil
}

// ExecuteCommand validates and runs command through the system shell with
// dir as working directory.
func (ce *CommandExecutor) ExecuteCommand(ctx context.Context, dir string, command string) (*models.ProcessOutput, error) {
	if err := ValidateCommand(command); err != nil {
		return nil, fmt.Errorf("command validation failed: %w", err)
	}

	shell, flag := "sh", "-c"
	if runtime.GOOS == "windows" {
		shell, flag = "cmd", "/C"
	}

	output, err := ce.host.Run(ctx, shell, []string{flag, command}, models.ProcessOptions{Dir: dir})
	if err != nil {
		return nil, fmt.Errorf("command execution failed: %w", err)
	}
	return output, nil
}
