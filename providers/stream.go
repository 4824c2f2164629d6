package providers

import (
	"context"
	"errors"
	"strings"

	"github.com/openlovable/lovable/providers/models"
)

var ErrStreamInterrupted = errors.New("stream ended without a done marker")

// CollectStream drains a provider stream into a single reply. onChunk, when
// set, sees every fragment as it arrives. Failures come back as *models.ProviderError.
func CollectStream(ctx context.Context, provider string, stream <-chan models.StreamResponse, onChunk func(string)) (string, error) {
	var builder strings.Builder
	for {
		select {
		case <-ctx.Done():
			return builder.String(), &models.ProviderError{Provider: provider, Err: ctx.Err()}
		case response, ok := <-stream:
			if !ok {
				if ctx.Err() != nil {
					return builder.String(), &models.ProviderError{Provider: provider, Err: ctx.Err()}
				}
				return builder.String(), &models.ProviderError{Provider: provider, Err: ErrStreamInterrupted}
			}
			if response.Err != nil {
				return builder.String(), &models.ProviderError{Provider: provider, Err: response.Err}
			}
			if response.Done {
				return builder.String(), nil
			}
			builder.WriteString(response.Content)
			if onChunk != nil {
				onChunk(response.Content)
			}
		}
	}
}
