package contracts

import (
	"context"

	"github.com/openlovable/lovable/dev_server/models"
)

type IDevServerSupervisor interface {
	Start(ctx context.Context, root string, packages []string) (<-chan string, error)
	Stop() error
	Running() bool
	PreviewURL() string
}

type IDoctor interface {
	Check(ctx context.Context) *models.Diagnosis
}
