// Package llm holds the text-generation backends posts are written with.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/kevinmichaelchen/repo-post/internal/config"
	openai "github.com/sashabaranov/go-openai"
)

// Sampling parameters shared by every backend.
const (
	Temperature = 0.7
	MaxTokens   = 500
)

// NewBackend builds the backend selected by cfg. It returns nil and no error
// when no API key is configured; callers treat that as "fallback only".
func NewBackend(ctx context.Context, cfg *config.Config) (Backend, error) {
	if !cfg.GenerationEnabled() {
		return nil, nil
	}
	switch cfg.LLMProvider {
	case config.ProviderOpenAI:
		return NewOpenAI(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel), nil
	case config.ProviderGemini:
		g, err := NewGemini(ctx, cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel)
		if err != nil {
			return nil, err
		}
		return g, nil
	default:
		return nil, fmt.Errorf("llm provider %q not supported", cfg.LLMProvider)
	}
}

// Backend is a single-turn text completion.
type Backend interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// OpenAI generates text with the chat completions API of OpenAI or any
// compatible server.
type OpenAI struct {
	client *openai.Client
	model  string
}

// NewOpenAI returns a client for baseURL; an empty baseURL means api.openai.com.
func NewOpenAI(baseURL, apiKey, model string) *OpenAI {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimSuffix(baseURL, "/")
	}
	return &OpenAI{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

func (c *OpenAI) Complete(ctx context.Context, system, user string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: Temperature,
		MaxTokens:   MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}
