package openai

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
	openai_models "github.com/openlovable/lovable/providers/openai/models"
	contracts2 "github.com/openlovable/lovable/token_management/contracts"
)

// OpenAIConfig serves every OpenAI-compatible chat endpoint; Name tells
// openai, openrouter and mistral apart for headers and error messages.
type OpenAIConfig struct {
	Name            string
	BaseURL         string
	Model           string
	ApiKey          string
	Temperature     *float32
	MaxTokens       int
	TokenManagement contracts2.ITokenManagement
	HTTPClient      *http.Client
}

func NewOpenAIChatProvider(config *OpenAIConfig) contracts.IChatAIProvider {
	provider := *config
	if provider.Name == "" {
		provider.Name = "openai"
	}
	if provider.HTTPClient == nil {
		provider.HTTPClient = &http.Client{}
	}
	provider.BaseURL = strings.TrimRight(provider.BaseURL, "/")
	return &provider
}

func (openAIProvider *OpenAIConfig) ChatCompletionRequest(ctx context.Context, messages []models.Message) <-chan models.StreamResponse {
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

		reqBody := openai_models.OpenAIChatCompletionRequest{
			Model:         openAIProvider.Model,
			Stream:        true,
			Temperature:   openAIProvider.Temperature,
			MaxTokens:     openAIProvider.MaxTokens,
			StreamOptions: &openai_models.StreamOptions{IncludeUsage: true},
		}
		for _, message := range messages {
			reqBody.Messages = append(reqBody.Messages, openai_models.Message{Role: message.Role, Content: message.Content})
		}

		jsonData, err := json.Marshal(reqBody)
		if err != nil {
			send(models.StreamResponse{Err: fmt.Errorf("error marshalling request body: %w", err)})
			return
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, openAIProvider.BaseURL+"/chat/completions", bytes.NewBuffer(jsonData))
		if err != nil {
			send(models.StreamResponse{Err: fmt.Errorf("error creating request: %w", err)})
			return
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "text/event-stream")
		if openAIProvider.ApiKey != "" {
			req.Header.Set("Authorization", "Bearer "+openAIProvider.ApiKey)
		}
		if openAIProvider.Name == "openrouter" {
			req.Header.Set("X-Title", "lovable")
		}

		resp, err := openAIProvider.HTTPClient.Do(req)
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

		reader := bufio.NewReader(resp.Body)
	stream:
		for {
			line, readErr := reader.ReadString('\n')

			if data, ok := strings.CutPrefix(strings.TrimSpace(line), "data:"); ok {
				data = strings.TrimSpace(data)
				if data == "[DONE]" {
					break stream
				}

				var response openai_models.OpenAIChatCompletionResponse
				if err := json.Unmarshal([]byte(data), &response); err != nil {
					send(models.StreamResponse{Err: fmt.Errorf("error unmarshalling chunk: %w", err)})
					return
				}

				if response.Usage != nil && openAIProvider.TokenManagement != nil {
					openAIProvider.TokenManagement.UsedTokens(response.Usage.PromptTokens, response.Usage.CompletionTokens)
				}

				for _, choice := range response.Choices {
					if choice.Delta.Content == "" {
						continue
					}
					if !send(models.StreamResponse{Content: choice.Delta.Content}) {
						return
					}
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
