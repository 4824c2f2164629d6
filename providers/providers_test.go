package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/openlovable/lovable/providers/models"
	"github.com/openlovable/lovable/token_management"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var conversation = []models.Message{
	{Role: "system", Content: "You are Lovable."},
	{Role: "user", Content: "make a counter"},
}

func decodeBody(t *testing.T, r *http.Request) map[string]any {
	t.Helper()
	body, err := io.ReadAll(r.Body)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(body, &decoded))
	return decoded
}

func TestOpenAIProvider_StreamsSSE(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotBody = decodeBody(t, r)

		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"<file path=\\\"a.ts\\\">\"}}]}\n\n")
		fmt.Fprint(w, ": keep-alive\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"x</file>\"}}]}\n\n")
		fmt.Fprint(w, "data: {\"choices\":[],\"usage\":{\"prompt_tokens\":12,\"completion_tokens\":4,\"total_tokens\":16}}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	tokens := token_management.NewTokenManager()
	provider, err := ProviderFactory(&AIProviderConfig{Provider: "openai", BaseURL: server.URL, Model: "gpt-4o-mini", ApiKey: "sk-test"}, tokens, server.Client())
	require.NoError(t, err)

	reply, err := CollectStream(context.Background(), "openai", provider.ChatCompletionRequest(context.Background(), conversation), nil)
	require.NoError(t, err)

	assert.Equal(t, `<file path="a.ts">x</file>`, reply)
	assert.Equal(t, "/chat/completions", gotPath)
	assert.Equal(t, "Bearer sk-test", gotAuth)
	assert.Equal(t, "gpt-4o-mini", gotBody["model"])
	assert.Equal(t, true, gotBody["stream"])
	assert.Len(t, gotBody["messages"], 2)

	usage := tokens.Usage()
	assert.Equal(t, 16, usage.Total)
	assert.Equal(t, 12, usage.Input)
	assert.Equal(t, 4, usage.Output)
}

func TestOpenRouterProvider_SendsTitleHeader(t *testing.T) {
	var gotTitle string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTitle = r.Header.Get("X-Title")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"hi\"}}]}\n\ndata: [DONE]\n\n")
	}))
	defer server.Close()

	provider, err := ProviderFactory(&AIProviderConfig{Provider: "openrouter", BaseURL: server.URL, ApiKey: "k"}, nil, server.Client())
	require.NoError(t, err)

	reply, err := CollectStream(context.Background(), "openrouter", provider.ChatCompletionRequest(context.Background(), conversation), nil)
	require.NoError(t, err)
	assert.Equal(t, "hi", reply)
	assert.Equal(t, "lovable", gotTitle)
}

func TestOpenAIProvider_APIErrorIsReported(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`)
	}))
	defer server.Close()

	provider, err := ProviderFactory(&AIProviderConfig{Provider: "mistral", BaseURL: server.URL}, nil, server.Client())
	require.NoError(t, err)

	_, err = CollectStream(context.Background(), "mistral", provider.ChatCompletionRequest(context.Background(), conversation), nil)
	require.Error(t, err)
	assert.True(t, models.IsProviderError(err))
	assert.Contains(t, err.Error(), "Incorrect API key provided")
	assert.Contains(t, err.Error(), "401")
}

func TestAnthropicProvider_LiftsSystemAndStreams(t *testing.T) {
	var gotBody map[string]any
	var gotKey, gotVersion string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/messages", r.URL.Path)
		gotKey = r.Header.Get("x-api-key")
		gotVersion = r.Header.Get("anthropic-version")
		gotBody = decodeBody(t, r)

		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "event: message_start\ndata: {\"type\":\"message_start\",\"message\":{\"usage\":{\"input_tokens\":20,\"output_tokens\":1}}}\n\n")
		fmt.Fprint(w, "event: content_block_delta\ndata: {\"type\":\"content_block_delta\",\"delta\":{\"type\":\"text_delta\",\"text\":\"Hello \"}}\n\n")
		fmt.Fprint(w, "event: ping\ndata: {\"type\":\"ping\"}\n\n")
		fmt.Fprint(w, "event: content_block_delta\ndata: {\"type\":\"content_block_delta\",\"delta\":{\"type\":\"text_delta\",\"text\":\"world\"}}\n\n")
		fmt.Fprint(w, "event: message_delta\ndata: {\"type\":\"message_delta\",\"usage\":{\"output_tokens\":7}}\n\n")
		fmt.Fprint(w, "event: message_stop\ndata: {\"type\":\"message_stop\"}\n\n")
	}))
	defer server.Close()

	tokens := token_management.NewTokenManager()
	provider, err := ProviderFactory(&AIProviderConfig{Provider: "anthropic", BaseURL: server.URL, ApiKey: "ak"}, tokens, server.Client())
	require.NoError(t, err)

	var chunks []string
	reply, err := CollectStream(context.Background(), "anthropic", provider.ChatCompletionRequest(context.Background(), conversation), func(chunk string) {
		chunks = append(chunks, chunk)
	})
	require.NoError(t, err)

	assert.Equal(t, "Hello world", reply)
	assert.Equal(t, []string{"Hello ", "world"}, chunks)
	assert.Equal(t, "ak", gotKey)
	assert.Equal(t, "2023-06-01", gotVersion)
	assert.Equal(t, "You are Lovable.", gotBody["system"])
	assert.Equal(t, float64(4096), gotBody["max_tokens"])
	messages, ok := gotBody["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 1)
	assert.Equal(t, "user", messages[0].(map[string]any)["role"])

	usage := tokens.Usage()
	assert.Equal(t, 20, usage.Input)
	assert.Equal(t, 7, usage.Output)
}

func TestAnthropicProvider_StreamErrorEvent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "event: error\ndata: {\"type\":\"error\",\"error\":{\"type\":\"overloaded_error\",\"message\":\"Overloaded\"}}\n\n")
	}))
	defer server.Close()

	provider, err := ProviderFactory(&AIProviderConfig{Provider: "anthropic", BaseURL: server.URL}, nil, server.Client())
	require.NoError(t, err)

	_, err = CollectStream(context.Background(), "anthropic", provider.ChatCompletionRequest(context.Background(), conversation), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Overloaded")
}

func TestOllamaProvider_StreamsNDJSON(t *testing.T) {
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		gotBody = decodeBody(t, r)
		fmt.Fprint(w, "{\"message\":{\"role\":\"assistant\",\"content\":\"foo\"},\"done\":false}\n")
		fmt.Fprint(w, "{\"message\":{\"role\":\"assistant\",\"content\":\"bar\"},\"done\":false}\n")
		fmt.Fprint(w, "{\"message\":{\"role\":\"assistant\",\"content\":\"\"},\"done\":true,\"prompt_eval_count\":9,\"eval_count\":2}\n")
	}))
	defer server.Close()

	temperature := float32(0.2)
	tokens := token_management.NewTokenManager()
	provider, err := ProviderFactory(&AIProviderConfig{Provider: "ollama", BaseURL: server.URL + "/api", Model: "qwen2.5-coder", Temperature: &temperature}, tokens, server.Client())
	require.NoError(t, err)

	reply, err := CollectStream(context.Background(), "ollama", provider.ChatCompletionRequest(context.Background(), conversation), nil)
	require.NoError(t, err)
	assert.Equal(t, "foobar", reply)

	options, ok := gotBody["options"].(map[string]any)
	require.True(t, ok)
	assert.InDelta(t, 0.2, options["temperature"], 1e-6)

	assert.Equal(t, 11, tokens.Usage().Total)
}

func TestCollectStream_ClosedWithoutDone(t *testing.T) {
	stream := make(chan models.StreamResponse, 1)
	stream <- models.StreamResponse{Content: "partial"}
	close(stream)

	reply, err := CollectStream(context.Background(), "openai", stream, nil)
	assert.Equal(t, "partial", reply)
	assert.True(t, errors.Is(err, ErrStreamInterrupted))
}

func TestCollectStream_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := CollectStream(ctx, "openai", make(chan models.StreamResponse), nil)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestProviderFactory_UnknownProvider(t *testing.T) {
	_, err := ProviderFactory(&AIProviderConfig{Provider: "gemini"}, nil, nil)
	assert.True(t, errors.Is(err, ErrUnknownProvider))

	_, err = ProviderFactory(nil, nil, nil)
	assert.True(t, errors.Is(err, ErrUnknownProvider))
}

func TestAIProviderConfig_WithDefaults(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "from-env")

	resolved := AIProviderConfig{Provider: " Anthropic "}.WithDefaults()
	assert.Equal(t, "anthropic", resolved.Provider)
	assert.Equal(t, "https://api.anthropic.com/v1", resolved.BaseURL)
	assert.Equal(t, "claude-3-5-sonnet-20241022", resolved.Model)
	assert.Equal(t, 4096, resolved.MaxTokens)
	assert.Equal(t, "from-env", resolved.ApiKey)

	explicit := AIProviderConfig{Provider: "openai", Model: "gpt-4o", ApiKey: "mine"}.WithDefaults()
	assert.Equal(t, "gpt-4o", explicit.Model)
	assert.Equal(t, "mine", explicit.ApiKey)
	assert.Equal(t, "https://api.openai.com/v1", explicit.BaseURL)
}
