package ollama

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

	"github.com/openlovable/lovable/providers/contracts"
	"github.com/openlovable/lovable/providers/models"
	ollama_models "github.com/openlovable/lovable/providers/ollama/models"
	contracts2 "github.com/openlovable/lovable/token_management/contracts"
)

// OllamaConfig talks to a local Ollama server's NDJSON chat stream.
type OllamaConfig struct {
	BaseURL         string
	Model           string
	Temperature     *float32
	MaxTokens       int
	TokenManagement contracts2.ITokenManagement
	HTTPClient      *http.Client
}

const (
	defaultBaseURL = "http://localhost:11434/api"
)

func NewOllamaChatProvider(config *OllamaConfig) contracts.IChatAIProvider {
	provider := *config
	if provider.BaseURL == "" {
		provider.BaseURL = defaultBaseURL
	}
	if provider.HTTPClient == nil {
		provider.HTTPClient = &http.Client{}
	}
	provider.BaseURL = strings.TrimRight(provider.BaseURL, "/")
	return &provider
}

func (ollamaProvider *OllamaConfig) ChatCompletionRequest(ctx context.Context, messages []models.Message) <-chan models.StreamResponse {
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

		reqBody := ollama_models.OllamaChatCompletionRequest{
			Model:  ollamaProvider.Model,
			Stream: true,
		}
		if ollamaProvider.Temperature != nil || ollamaProvider.MaxTokens > 0 {
			reqBody.Options = &ollama_models.Options{Temperature: ollamaProvider.Temperature, NumPredict: ollamaProvider.MaxTokens}
		}
		for _, message := range messages {
			reqBody.Messages = append(reqBody.Messages, ollama_models.Message{Role: message.Role, Content: message.Content})
		}

		jsonData, err := json.Marshal(reqBody)
		if err != nil {
			send(models.StreamResponse{Err: fmt.Errorf("error marshalling request body: %w", err)})
			return
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s/chat", ollamaProvider.BaseURL), bytes.NewBuffer(jsonData))
		if err != nil {
			send(models.StreamResponse{Err: fmt.Errorf("error creating request: %w", err)})
			return
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := ollamaProvider.HTTPClient.Do(req)
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
			var apiError ollama_models.OllamaChatCompletionResponse
			if err := json.Unmarshal(body, &apiError); err != nil || apiError.Error == "" {
				send(models.StreamResponse{Err: fmt.Errorf("API request failed with status code '%d' - %s", resp.StatusCode, strings.TrimSpace(string(body)))})
				return
			}
			send(models.StreamResponse{Err: fmt.Errorf("API request failed with status code '%d' - %s", resp.StatusCode, apiError.Error)})
			return
		}

		reader := bufio.NewReader(resp.Body)
		for {
			line, readErr := reader.ReadString('\n')

			if trimmed := strings.TrimSpace(line); trimmed != "" {
				var response ollama_models.OllamaChatCompletionResponse
				if err := json.Unmarshal([]byte(trimmed), &response); err != nil {
					send(models.StreamResponse{Err: fmt.Errorf("error unmarshalling chunk: %w", err)})
					return
				}
				if response.Error != "" {
					send(models.StreamResponse{Err: fmt.Errorf("stream error: %s", response.Error)})
					return
				}

				if response.Message.Content != "" && !send(models.StreamResponse{Content: response.Message.Content}) {
					return
				}

				if response.Done {
					if response.PromptEvalCount > 0 && ollamaProvider.TokenManagement != nil {
						ollamaProvider.TokenManagement.UsedTokens(response.PromptEvalCount, response.EvalCount)
					}
					break
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

		send(models.StreamResponse{Done: true})
	}()

	return responseChan
}
