package contracts

import (
	"context"

	"github.com/openlovable/lovable/providers/models"
)

type IChatAIProvider interface {
	ChatCompletionRequest(ctx context.Context, messages []models.Message) <-chan models.StreamResponse
}
