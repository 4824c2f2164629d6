package contracts

import (
	"context"

	parser_models "github.com/openlovable/lovable/code_parser/models"
	"github.com/openlovable/lovable/pipeline/models"
	"github.com/openlovable/lovable/providers"
)

type TurnOption func(*TurnOptions)

type TurnOptions struct {
	OnChunk func(chunk string)
}

type IPipeline interface {
	Submit(ctx context.Context, text string, opts ...TurnOption) (*models.TurnResult, error)
	SubmitAsync(ctx context.Context, text string, opts ...TurnOption) (<-chan *models.TurnResult, error)
	NewProject(name string) error
	OpenProject(root string) error
	SelectFile(id string) error
	UpdateFileContent(path string, content string) error
	StopServer() error
	Snapshot() *models.Snapshot
	LastArtifact() *parser_models.GeneratedArtifact
	UpdateProviderConfig(config providers.AIProviderConfig) error
	Logs() ILogBook
	Shutdown()
}

type ILogBook interface {
	Append(source string, message string) models.LogEntry
	Entries() []models.LogEntry
	Subscribe(buffer int) (<-chan models.LogEntry, func())
	Reset(messages ...string)
	Close()
}

// WithChunkHandler streams provider fragments to fn while the turn buffers them.
func WithChunkHandler(fn func(chunk string)) TurnOption {
	return func(options *TurnOptions) {
		options.OnChunk = fn
	}
}
