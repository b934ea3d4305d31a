package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/blueplan/recipebot/internal/recipebot/config"
	openai "github.com/sashabaranov/go-openai"
)

// OpenAIClient submits queries as single-message chat completions. It also
// serves OpenAI-compatible gateways, including Azure-style deployments.
type OpenAIClient struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
}

// NewOpenAIClient creates a chat completion client from provider settings.
func NewOpenAIClient(cfg config.LLMProviderConfig) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}

	var clientCfg openai.ClientConfig
	if strings.EqualFold(cfg.APIType, "azure") {
		clientCfg = openai.DefaultAzureConfig(cfg.APIKey, cfg.BaseURL)
		if cfg.APIVersion != "" {
			clientCfg.APIVersion = cfg.APIVersion
		}
	} else {
		clientCfg = openai.DefaultConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			clientCfg.BaseURL = cfg.BaseURL
		}
	}

	return &OpenAIClient{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		temperature: float32(cfg.Temperature),
		maxTokens:   cfg.MaxTokens,
	}, nil
}

// Submit sends query and returns the first choice's content.
func (c *OpenAIClient) Submit(ctx context.Context, query string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: query},
		},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("%w: openai chat completion: %w", ErrBackendUnavailable, err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("%w: openai returned no content", ErrBackendUnavailable)
	}
	return resp.Choices[0].Message.Content, nil
}
