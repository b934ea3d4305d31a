package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/blueplan/recipebot/internal/recipebot/config"
	"github.com/blueplan/recipebot/internal/recipebot/llm/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ Backend = (*OpenAIClient)(nil)
	_ Backend = (*GeminiClient)(nil)
	_ Backend = (*mock.Mock)(nil)
)

func TestNewClient(t *testing.T) {
	b, err := NewClient("mock", config.LLMProviderConfig{})
	require.NoError(t, err)
	answer, err := b.Submit(context.Background(), "hello")
	require.NoError(t, err)
	assert.Contains(t, answer, "hello")

	_, err = NewClient("nope", config.LLMProviderConfig{})
	assert.ErrorContains(t, err, `unknown llm provider "nope"`)

	_, err = NewClient("openai", config.LLMProviderConfig{})
	assert.ErrorContains(t, err, "api key is required")
}

func TestWithTimeout(t *testing.T) {
	t.Run("deadline becomes backend unavailable", func(t *testing.T) {
		slow := mock.New("late").WithDelay(time.Second)
		b := WithTimeout(slow, 20*time.Millisecond)

		_, err := b.Submit(context.Background(), "q")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrBackendUnavailable))
		assert.Contains(t, err.Error(), "timed out")
	})

	t.Run("plain errors are wrapped", func(t *testing.T) {
		cause := errors.New("connection refused")
		b := WithTimeout(mock.NewFailing(cause), time.Second)

		_, err := b.Submit(context.Background(), "q")
		assert.ErrorIs(t, err, ErrBackendUnavailable)
		assert.ErrorIs(t, err, cause)
	})

	t.Run("answers pass through", func(t *testing.T) {
		b := WithTimeout(mock.New("ok"), time.Second)
		answer, err := b.Submit(context.Background(), "q")
		require.NoError(t, err)
		assert.Equal(t, "ok", answer)
	})

	t.Run("zero timeout disables wrapping", func(t *testing.T) {
		m := mock.New("ok")
		assert.Same(t, Backend(m), WithTimeout(m, 0))
	})
}

func TestOpenAIClientSubmit(t *testing.T) {
	var gotBody map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"))
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotBody)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"Fried rice"},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	c, err := NewOpenAIClient(config.LLMProviderConfig{APIKey: "test-key", BaseURL: srv.URL, Model: "gpt-test"})
	require.NoError(t, err)

	answer, err := c.Submit(context.Background(), "What recipes can be made using rice.")
	require.NoError(t, err)
	assert.Equal(t, "Fried rice", answer)

	assert.Equal(t, "gpt-test", gotBody["model"])
	messages := gotBody["messages"].([]interface{})
	require.Len(t, messages, 1)
	assert.Equal(t, "What recipes can be made using rice.", messages[0].(map[string]interface{})["content"])
}

func TestOpenAIClientErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "server error", status: http.StatusInternalServerError, body: `{"error":{"message":"boom","type":"server_error"}}`},
		{name: "no choices", status: http.StatusOK, body: `{"id":"c1","object":"chat.completion","choices":[]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c, err := NewOpenAIClient(config.LLMProviderConfig{APIKey: "k", BaseURL: srv.URL})
			require.NoError(t, err)

			_, err = c.Submit(context.Background(), "q")
			assert.ErrorIs(t, err, ErrBackendUnavailable)
		})
	}
}

func TestGeminiClientSubmit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "gemini-test")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"Steamed buns"}]},"finishReason":"STOP"}]}`))
	}))
	defer srv.Close()

	c, err := NewGeminiClient(context.Background(), config.LLMProviderConfig{APIKey: "k", BaseURL: srv.URL, Model: "gemini-test"})
	require.NoError(t, err)

	answer, err := c.Submit(context.Background(), "Detailed cooking steps for buns.")
	require.NoError(t, err)
	assert.Equal(t, "Steamed buns", answer)
}
