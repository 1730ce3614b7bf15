package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const geminiDefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// GeminiProvider adapts the Google Gemini generateContent API.
type GeminiProvider struct {
	client  *http.Client
	baseURL string
}

// NewGeminiProvider creates a new Gemini adapter. An empty baseURL
// selects the public API endpoint.
func NewGeminiProvider(baseURL string) *GeminiProvider {
	if baseURL == "" {
		baseURL = geminiDefaultBaseURL
	}
	return &GeminiProvider{
		client:  newHTTPClient(defaultTimeout),
		baseURL: baseURL,
	}
}

// Name returns the provider identifier
func (p *GeminiProvider) Name() string {
	return "gemini"
}

// Chat sends a generateContent request to Gemini. System messages map
// to systemInstruction; assistant turns use the "model" role.
func (p *GeminiProvider) Chat(ctx context.Context, secret, model string, messages []Message, opts ChatOptions) (*ChatResult, error) {
	start := time.Now()

	type part struct {
		Text string `json:"text"`
	}
	type content struct {
		Role  string `json:"role,omitempty"`
		Parts []part `json:"parts"`
	}

	var system *content
	contents := make([]content, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case "system":
			if system == nil {
				system = &content{}
			}
			system.Parts = append(system.Parts, part{Text: m.Content})
		case "assistant":
			contents = append(contents, content{Role: "model", Parts: []part{{Text: m.Content}}})
		default:
			contents = append(contents, content{Role: "user", Parts: []part{{Text: m.Content}}})
		}
	}

	payload := map[string]any{
		"contents": contents,
	}
	if system != nil {
		payload["systemInstruction"] = system
	}

	generationConfig := map[string]any{}
	if opts.Temperature != nil {
		generationConfig["temperature"] = *opts.Temperature
	}
	if opts.MaxTokens != nil {
		generationConfig["maxOutputTokens"] = *opts.MaxTokens
	}
	if len(generationConfig) > 0 {
		payload["generationConfig"] = generationConfig
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", p.baseURL, model)
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", secret)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &UpstreamError{
			Provider:   p.Name(),
			StatusCode: resp.StatusCode,
			Message:    extractGeminiError(respBody),
		}
	}

	var parsed struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
			FinishReason string `json:"finishReason"`
		} `json:"candidates"`
		UsageMetadata struct {
			PromptTokenCount     int `json:"promptTokenCount"`
			CandidatesTokenCount int `json:"candidatesTokenCount"`
			TotalTokenCount      int `json:"totalTokenCount"`
		} `json:"usageMetadata"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if len(parsed.Candidates) == 0 {
		return nil, fmt.Errorf("response contained no candidates")
	}

	var text string
	for _, p := range parsed.Candidates[0].Content.Parts {
		text += p.Text
	}

	return &ChatResult{
		Content:      text,
		FinishReason: normalizeGeminiFinishReason(parsed.Candidates[0].FinishReason),
		Usage: Usage{
			InputTokens:  parsed.UsageMetadata.PromptTokenCount,
			OutputTokens: parsed.UsageMetadata.CandidatesTokenCount,
			TotalTokens:  parsed.UsageMetadata.TotalTokenCount,
		},
		Latency: time.Since(start),
	}, nil
}

// Test validates the secret with a one-item models list call
func (p *GeminiProvider) Test(ctx context.Context, secret string) error {
	httpReq, err := http.NewRequestWithContext(ctx, "GET", p.baseURL+"/models?pageSize=1", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("x-goog-api-key", secret)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("invalid API key")
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return &UpstreamError{
			Provider:   p.Name(),
			StatusCode: resp.StatusCode,
			Message:    extractGeminiError(body),
		}
	}
	return nil
}

func normalizeGeminiFinishReason(reason string) string {
	switch reason {
	case "STOP":
		return "stop"
	case "MAX_TOKENS":
		return "length"
	case "SAFETY", "RECITATION":
		return "content_filter"
	default:
		return reason
	}
}

func extractGeminiError(body []byte) string {
	var parsed struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil || parsed.Error.Message == "" {
		return string(body)
	}
	return parsed.Error.Message
}
