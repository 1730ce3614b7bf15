package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAIProviderChat(t *testing.T) {
	var gotAuth string
	var gotPayload map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))

		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{
					"message":       map[string]any{"content": "hello there"},
					"finish_reason": "stop",
				},
			},
			"usage": map[string]any{
				"prompt_tokens":     12,
				"completion_tokens": 3,
				"total_tokens":      15,
			},
		})
	}))
	defer srv.Close()

	p := NewOpenAIProvider(srv.URL)
	temp := 0.7
	result, err := p.Chat(context.Background(), "sk-test", "gpt-4o",
		[]Message{{Role: "user", Content: "hi"}}, ChatOptions{Temperature: &temp})
	require.NoError(t, err)

	assert.Equal(t, "Bearer sk-test", gotAuth)
	assert.Equal(t, "gpt-4o", gotPayload["model"])
	assert.Equal(t, 0.7, gotPayload["temperature"])
	assert.Equal(t, "hello there", result.Content)
	assert.Equal(t, "stop", result.FinishReason)
	assert.Equal(t, 12, result.Usage.InputTokens)
	assert.Equal(t, 3, result.Usage.OutputTokens)
}

func TestOpenAIProviderChatUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "rate limit exceeded"},
		})
	}))
	defer srv.Close()

	p := NewOpenAIProvider(srv.URL)
	_, err := p.Chat(context.Background(), "sk-test", "gpt-4o",
		[]Message{{Role: "user", Content: "hi"}}, ChatOptions{})

	var upstream *UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, http.StatusTooManyRequests, upstream.StatusCode)
	assert.Equal(t, "rate limit exceeded", upstream.Message)
}

func TestAnthropicProviderChatLiftsSystemMessages(t *testing.T) {
	var gotPayload map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "key-123", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))

		json.NewEncoder(w).Encode(map[string]any{
			"content":     []map[string]any{{"type": "text", "text": "ok"}},
			"stop_reason": "end_turn",
			"usage":       map[string]any{"input_tokens": 5, "output_tokens": 1},
		})
	}))
	defer srv.Close()

	p := NewAnthropicProvider(srv.URL)
	result, err := p.Chat(context.Background(), "key-123", "claude-sonnet-4-5", []Message{
		{Role: "system", Content: "be brief"},
		{Role: "user", Content: "hi"},
	}, ChatOptions{})
	require.NoError(t, err)

	assert.Equal(t, "be brief", gotPayload["system"])
	msgs, ok := gotPayload["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 1)

	assert.Equal(t, "ok", result.Content)
	assert.Equal(t, "stop", result.FinishReason)
	assert.Equal(t, 6, result.Usage.TotalTokens)
}

func TestGeminiProviderChat(t *testing.T) {
	var gotPayload map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/models/gemini-2.0-flash:generateContent", r.URL.Path)
		assert.Equal(t, "g-key", r.Header.Get("x-goog-api-key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))

		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{
				{
					"content": map[string]any{
						"parts": []map[string]any{{"text": "pong"}},
					},
					"finishReason": "STOP",
				},
			},
			"usageMetadata": map[string]any{
				"promptTokenCount":     4,
				"candidatesTokenCount": 1,
				"totalTokenCount":      5,
			},
		})
	}))
	defer srv.Close()

	p := NewGeminiProvider(srv.URL)
	result, err := p.Chat(context.Background(), "g-key", "gemini-2.0-flash", []Message{
		{Role: "assistant", Content: "ping"},
		{Role: "user", Content: "again"},
	}, ChatOptions{})
	require.NoError(t, err)

	contents, ok := gotPayload["contents"].([]any)
	require.True(t, ok)
	require.Len(t, contents, 2)
	first, ok := contents[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "model", first["role"])

	assert.Equal(t, "pong", result.Content)
	assert.Equal(t, "stop", result.FinishReason)
	assert.Equal(t, 5, result.Usage.TotalTokens)
}

func TestProviderTest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"data": []any{}})
	}))
	defer srv.Close()

	p := NewOpenAIProvider(srv.URL)
	require.NoError(t, p.Test(context.Background(), "good"))
	assert.Error(t, p.Test(context.Background(), "bad"))
}
