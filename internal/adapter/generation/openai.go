package generation

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"oracle/internal/port"
)

// ErrModelNotServed is returned by Ping when the server does not list the model.
var ErrModelNotServed = errors.New("model not served")

// OpenAIGenerator talks to an OpenAI-compatible chat completion endpoint
// served by a local runtime (Ollama, llama.cpp server, GPT4All API server).
type OpenAIGenerator struct {
	client *openai.Client
	model  string
}

func NewOpenAIGenerator(baseURL, apiKeyEnv, model string, timeout time.Duration) (*OpenAIGenerator, error) {
	if model == "" {
		return nil, errors.New("generation model is required")
	}

	apiKey := os.Getenv(apiKeyEnv)
	if apiKey == "" {
		apiKey = "local"
	}

	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if timeout > 0 {
		cfg.HTTPClient = &http.Client{Timeout: timeout}
	}

	return &OpenAIGenerator{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}, nil
}

// Ping checks that the server is reachable and serves the configured model.
// An untagged model name also matches its ":latest" tag.
func (g *OpenAIGenerator) Ping(ctx context.Context) error {
	list, err := g.client.ListModels(ctx)
	if err != nil {
		return fmt.Errorf("model server unavailable: %w", err)
	}
	for _, m := range list.Models {
		if m.ID == g.model || m.ID == g.model+":latest" {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrModelNotServed, g.model)
}

func (g *OpenAIGenerator) Complete(ctx context.Context, prompt string, opts port.CompletionOptions) (string, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
		Stop:        opts.Stop,
	})
	if err != nil {
		return "", fmt.Errorf("completion request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("completion returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (g *OpenAIGenerator) ModelName() string {
	return g.model
}
