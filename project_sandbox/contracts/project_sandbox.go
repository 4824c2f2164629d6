package contracts

import (
	parser_models "github.com/openlovable/lovable/code_parser/models"
	"github.com/openlovable/lovable/project_sandbox/models"
)

type IProjectSandbox interface {
	CreateProject(name string) (string, error)
	Materialize(root string, files []parser_models.GeneratedFile) (*models.WriteReport, error)
	ExportZip(root string, destination string, excludes []string) (int, error)
	Stats() (*models.SandboxStats, error)
	Clean() error
}
