// Package providers contains the upstream AI provider adapters. Each
// adapter is stateless: the decrypted API secret is passed per call and
// never retained, so a credential rotation takes effect on the next
// request without restarting anything.
package providers

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

const defaultTimeout = 120 * time.Second

// Message is a single turn in a chat conversation.
type Message struct {
	Role    string `json:"role"` // system, user, assistant
	Content string `json:"content"`
}

// ChatOptions carries the optional generation parameters. Nil fields
// mean "use the provider default".
type ChatOptions struct {
	Temperature *float64
	MaxTokens   *int
}

// Usage is the normalized token accounting from a provider response.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// ChatResult is a normalized chat completion.
type ChatResult struct {
	Content      string        `json:"content"`
	FinishReason string        `json:"finish_reason"`
	Usage        Usage         `json:"usage"`
	Latency      time.Duration `json:"-"`
}

// Provider is implemented by each upstream adapter (OpenAI, Anthropic,
// Gemini, ...). Implementations must be safe for concurrent use.
type Provider interface {
	// Name returns the provider identifier as stored in the catalog.
	Name() string

	// Chat sends a chat completion request using the given secret.
	Chat(ctx context.Context, secret, model string, messages []Message, opts ChatOptions) (*ChatResult, error)

	// Test verifies that the secret is accepted by the upstream with a
	// minimal round trip.
	Test(ctx context.Context, secret string) error
}

// UpstreamError reports a non-success response from a provider API.
type UpstreamError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s upstream error: status=%d message=%s", e.Provider, e.StatusCode, e.Message)
}

// newHTTPClient builds the shared client shape used by all adapters.
func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}
