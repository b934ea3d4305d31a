package llm

import (
	"context"
	"fmt"

	"github.com/blueplan/recipebot/internal/recipebot/config"
	"google.golang.org/genai"
)

// GeminiClient submits queries through the Gemini API.
type GeminiClient struct {
	client *genai.Client
	model  string
	config *genai.GenerateContentConfig
}

// NewGeminiClient creates a Gemini backend. BaseURL, when set, overrides the
// API endpoint.
func NewGeminiClient(ctx context.Context, cfg config.LLMProviderConfig) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = "gemini-2.0-flash"
	}

	genCfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(cfg.Temperature)),
	}
	if cfg.MaxTokens > 0 {
		genCfg.MaxOutputTokens = int32(cfg.MaxTokens)
	}

	return &GeminiClient{client: client, model: model, config: genCfg}, nil
}

// Submit sends query as a single user turn and returns the concatenated text.
func (c *GeminiClient) Submit(ctx context.Context, query string) (string, error) {
	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(query), c.config)
	if err != nil {
		return "", fmt.Errorf("%w: gemini generate content: %w", ErrBackendUnavailable, err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("%w: gemini returned no content", ErrBackendUnavailable)
	}
	return text, nil
}
