package contracts

import "github.com/openlovable/lovable/code_parser/models"

type ICodeParser interface {
	Parse(raw string) (*models.GeneratedArtifact, error)
}
