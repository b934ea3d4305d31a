package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/blueplan/recipebot/internal/recipebot/config"
	"github.com/blueplan/recipebot/internal/recipebot/llm/mock"
)

// ErrBackendUnavailable is wrapped by every failure of a generation backend:
// unreachable, erroring, empty answer or timed out.
var ErrBackendUnavailable = errors.New("generation backend unavailable")

// Backend is a stateless text-completion call. Each Submit is independent;
// no conversation history is carried between calls.
type Backend interface {
	Submit(ctx context.Context, query string) (string, error)
}

// NewClient creates the backend for provider.
func NewClient(provider string, cfg config.LLMProviderConfig) (Backend, error) {
	switch provider {
	case "openai":
		return NewOpenAIClient(cfg)
	case "gemini":
		return NewGeminiClient(context.Background(), cfg)
	case "mock":
		return mock.NewFunc(mock.Echo), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", provider)
	}
}

// timeoutBackend bounds every call with a deadline.
type timeoutBackend struct {
	next    Backend
	timeout time.Duration
}

// WithTimeout wraps b so every Submit runs under timeout. A deadline hit is
// reported as ErrBackendUnavailable.
func WithTimeout(b Backend, timeout time.Duration) Backend {
	if timeout <= 0 {
		return b
	}
	return &timeoutBackend{next: b, timeout: timeout}
}

func (t *timeoutBackend) Submit(ctx context.Context, query string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	answer, err := t.next.Submit(ctx, query)
	if err != nil {
		if errors.Is(err, ErrBackendUnavailable) {
			return "", err
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: timed out after %s", ErrBackendUnavailable, t.timeout)
		}
		return "", fmt.Errorf("%w: %w", ErrBackendUnavailable, err)
	}
	return answer, nil
}
