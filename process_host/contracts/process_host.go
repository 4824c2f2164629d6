package contracts

import (
	"context"
	"time"

	"github.com/openlovable/lovable/process_host/models"
)

type IProcessHost interface {
	Run(ctx context.Context, name string, args []string, opts models.ProcessOptions) (*models.ProcessOutput, error)
	Stream(name string, args []string, opts models.ProcessOptions) (IProcessHandle, <-chan string, error)
	LookPath(name string, opts models.ProcessOptions) (string, error)
}

type IProcessHandle interface {
	Pid() int
	Alive() bool
	Done() <-chan struct{}
	ExitCode() int
	Terminate(grace time.Duration) error
}
