package providers

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/openlovable/lovable/providers/anthropic"
	"github.com/openlovable/lovable/providers/contracts"
	"github.com/openlovable/lovable/providers/ollama"
	"github.com/openlovable/lovable/providers/openai"
	contracts2 "github.com/openlovable/lovable/token_management/contracts"
)

// AIProviderConfig selects and configures the generation backend.
type AIProviderConfig struct {
	Provider    string   `mapstructure:"provider"`
	BaseURL     string   `mapstructure:"base_url"`
	Model       string   `mapstructure:"model"`
	ApiKey      string   `mapstructure:"api_key"`
	ApiVersion  string   `mapstructure:"api_version"`
	Temperature *float32 `mapstructure:"temperature"`
	MaxTokens   int      `mapstructure:"max_tokens"`
}

type backendDefaults struct {
	baseURL   string
	model     string
	apiKeyEnv string
	maxTokens int
}

var defaults = map[string]backendDefaults{
	"openai":     {baseURL: "https://api.openai.com/v1", model: "gpt-4o-mini", apiKeyEnv: "OPENAI_API_KEY"},
	"anthropic":  {baseURL: "https://api.anthropic.com/v1", model: "claude-3-5-sonnet-20241022", apiKeyEnv: "ANTHROPIC_API_KEY", maxTokens: 4096},
	"openrouter": {baseURL: "https://openrouter.ai/api/v1", model: "google/gemini-2.0-flash-exp:free", apiKeyEnv: "OPENROUTER_API_KEY"},
	"mistral":    {baseURL: "https://api.mistral.ai/v1", model: "mistral-small-latest", apiKeyEnv: "MISTRAL_API_KEY"},
	"ollama":     {baseURL: "http://localhost:11434/api", model: "qwen2.5-coder"},
}

var ErrUnknownProvider = errors.New("unknown AI provider")

// SupportedProviders lists the backend names accepted by ProviderFactory.
func SupportedProviders() []string {
	return []string{"openai", "anthropic", "openrouter", "mistral", "ollama"}
}

// WithDefaults returns a copy with empty fields filled from the backend's
// defaults, including the API key from the backend's usual env variable.
func (config AIProviderConfig) WithDefaults() AIProviderConfig {
	config.Provider = strings.ToLower(strings.TrimSpace(config.Provider))
	backend, ok := defaults[config.Provider]
	if !ok {
		return config
	}
	if config.BaseURL == "" {
		config.BaseURL = backend.baseURL
	}
	if config.Model == "" {
		config.Model = backend.model
	}
	if config.MaxTokens == 0 {
		config.MaxTokens = backend.maxTokens
	}
	if config.ApiKey == "" && backend.apiKeyEnv != "" {
		config.ApiKey = os.Getenv(backend.apiKeyEnv)
	}
	return config
}

// ProviderFactory builds the chat provider named in config.
func ProviderFactory(config *AIProviderConfig, tokenManagement contracts2.ITokenManagement, client *http.Client) (contracts.IChatAIProvider, error) {
	if config == nil {
		return nil, fmt.Errorf("%w: no provider configured", ErrUnknownProvider)
	}
	resolved := config.WithDefaults()
	if client == nil {
		client = &http.Client{}
	}

	switch resolved.Provider {
	case "openai", "openrouter", "mistral":
		return openai.NewOpenAIChatProvider(&openai.OpenAIConfig{
			Name:            resolved.Provider,
			BaseURL:         resolved.BaseURL,
			Model:           resolved.Model,
			ApiKey:          resolved.ApiKey,
			Temperature:     resolved.Temperature,
			MaxTokens:       resolved.MaxTokens,
			TokenManagement: tokenManagement,
			HTTPClient:      client,
		}), nil
	case "anthropic":
		return anthropic.NewAnthropicChatProvider(&anthropic.AnthropicConfig{
			BaseURL:         resolved.BaseURL,
			Model:           resolved.Model,
			ApiKey:          resolved.ApiKey,
			ApiVersion:      resolved.ApiVersion,
			Temperature:     resolved.Temperature,
			MaxTokens:       resolved.MaxTokens,
			TokenManagement: tokenManagement,
			HTTPClient:      client,
		}), nil
	case "ollama":
		return ollama.NewOllamaChatProvider(&ollama.OllamaConfig{
			BaseURL:         resolved.BaseURL,
			Model:           resolved.Model,
			Temperature:     resolved.Temperature,
			MaxTokens:       resolved.MaxTokens,
			TokenManagement: tokenManagement,
			HTTPClient:      client,
		}), nil
	default:
		return nil, fmt.Errorf("%w: '%s' (supported: %s)", ErrUnknownProvider, config.Provider, strings.Join(SupportedProviders(), ", "))
	}
}
