package anthropic

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	anthropic_models "github.com/openlovable/lovable/providers/anthropic/models"
	"github.com/openlovable/lovable/providers/contracts"
	"github.com/openlovable/lovable/providers/models"
	contracts2 "github.com/openlovable/lovable/token_management/contracts"
)

const (
	defaultApiVersion = "2023-06-01"
	defaultMaxTokens  = 4096
)

type AnthropicConfig struct {
	BaseURL         string
	Model           string
	ApiKey          string
	ApiVersion      string
	Temperature     *float32
	MaxTokens       int
	TokenManagement contracts2.ITokenManagement
	HTTPClient      *http.Client
}

func NewAnthropicChatProvider(config *AnthropicConfig) contracts.IChatAIProvider {
	provider := *config
	if provider.ApiVersion == "" {
		provider.ApiVersion = defaultApiVersion
	}
	if provider.MaxTokens == 0 {
		provider.MaxTokens = defaultMaxTokens
	}
	if provider.HTTPClient == nil {
		provider.HTTPClient = &http.Client{}
	}
	provider.BaseURL = strings.TrimRight(provider.BaseURL, "/")
	return &provider
}

// ChatCompletionRequest lifts system messages into the request's system
// field, which is where the messages API expects them.
func (anthropicProvider *AnthropicConfig) ChatCompletionRequest(ctx context.Context, messages []models.Message) <-chan models.StreamResponse {
	responseChan := make(chan models.StreamResponse)

	go func() {
		defer close(responseChan)

		send := func(response models.StreamResponse) bool {
			select {
			case responseChan <- response:
				return true
			case <-ctx.Done():
				return false
			}
		}

		reqBody := anthropic_models.AnthropicMessagesRequest{
			Model:       anthropicProvider.Model,
			MaxTokens:   anthropicProvider.MaxTokens,
			Stream:      true,
			Temperature: anthropicProvider.Temperature,
		}
		var system []string
		for _, message := range messages {
			if message.Role == "system" {
				system = append(system, message.Content)
				continue
			}
			reqBody.Messages = append(reqBody.Messages, anthropic_models.Message{Role: message.Role, Content: message.Content})
		}
		reqBody.System = strings.Join(system, "\n\n")

		jsonData, err := json.Marshal(reqBody)
		if err != nil {
			send(models.StreamResponse{Err: fmt.Errorf("error marshalling request body: %w", err)})
			return
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, anthropicProvider.BaseURL+"/messages", bytes.NewBuffer(jsonData))
		if err != nil {
			send(models.StreamResponse{Err: fmt.Errorf("error creating request: %w", err)})
			return
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "text/event-stream")
		req.Header.Set("x-api-key", anthropicProvider.ApiKey)
		req.Header.Set("anthropic-version", anthropicProvider.ApiVersion)

		resp, err := anthropicProvider.HTTPClient.Do(req)
		if err != nil {
			if errors.Is(ctx.Err(), context.Canceled) {
				send(models.StreamResponse{Err: fmt.Errorf("request canceled: %w", err)})
				return
			}
			send(models.StreamResponse{Err: fmt.Errorf("error sending request: %w", err)})
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			var apiError models.AIError
			if err := json.Unmarshal(body, &apiError); err != nil || apiError.Error.Message == "" {
				send(models.StreamResponse{Err: fmt.Errorf("API request failed with status code '%d' - %s", resp.StatusCode, strings.TrimSpace(string(body)))})
				return
			}
			send(models.StreamResponse{Err: fmt.Errorf("API request failed with status code '%d' - %s", resp.StatusCode, apiError.Error.Message)})
			return
		}

		var inputTokens, outputTokens int
		reader := bufio.NewReader(resp.Body)
	stream:
		for {
			line, readErr := reader.ReadString('\n')

			if data, ok := strings.CutPrefix(strings.TrimSpace(line), "data:"); ok {
				var event anthropic_models.AnthropicStreamEvent
				if err := json.Unmarshal([]byte(strings.TrimSpace(data)), &event); err != nil {
					send(models.StreamResponse{Err: fmt.Errorf("error unmarshalling event: %w", err)})
					return
				}

				switch event.Type {
				case "message_start":
					inputTokens = event.Message.Usage.InputTokens
				case "content_block_delta":
					if event.Delta.Text != "" && !send(models.StreamResponse{Content: event.Delta.Text}) {
						return
					}
				case "message_delta":
					if event.Usage != nil {
						outputTokens = event.Usage.OutputTokens
					}
				case "message_stop":
					break stream
				case "error":
					message := "unknown error"
					if event.Error != nil {
						message = event.Error.Message
					}
					send(models.StreamResponse{Err: fmt.Errorf("stream error: %s", message)})
					return
				}
			}

			if readErr != nil {
				if readErr == io.EOF {
					break
				}
				send(models.StreamResponse{Err: fmt.Errorf("error reading stream: %w", readErr)})
				return
			}
		}

		if anthropicProvider.TokenManagement != nil && inputTokens+outputTokens > 0 {
			anthropicProvider.TokenManagement.UsedTokens(inputTokens, outputTokens)
		}

		send(models.StreamResponse{Done: true})
	}()

	return responseChan
}
