package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"jobcopilot/internal/config"
	"jobcopilot/internal/errors"

	"github.com/hashicorp/go-cleanhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// OpenAIProvider talks to any OpenAI-compatible chat-completions endpoint
type OpenAIProvider struct {
	httpClient   *http.Client
	baseURL      string
	apiKey       string
	model        string
	maxErrorBody int
}

// Ensure OpenAIProvider implements Provider
var _ Provider = (*OpenAIProvider)(nil)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	Temperature    float32        `json:"temperature"`
	ResponseFormat responseFormat `json:"response_format"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int64 `json:"prompt_tokens"`
		CompletionTokens int64 `json:"completion_tokens"`
		TotalTokens      int64 `json:"total_tokens"`
	} `json:"usage"`
}

// NewOpenAIProvider creates a provider using a pooled, traced HTTP client.
// Deadlines come from the request context.
func NewOpenAIProvider(cfg config.LLMConfig) *OpenAIProvider {
	client := cleanhttp.DefaultPooledClient()
	client.Transport = otelhttp.NewTransport(client.Transport)

	return &OpenAIProvider{
		httpClient:   client,
		baseURL:      cfg.BaseURL,
		apiKey:       cfg.APIKey,
		model:        cfg.Model,
		maxErrorBody: cfg.MaxErrorBody,
	}
}

// Name implements Provider
func (p *OpenAIProvider) Name() string { return "openai" }

// Complete implements Provider
func (p *OpenAIProvider) Complete(ctx context.Context, prompt Prompt) (*Completion, error) {
	body, err := json.Marshal(chatRequest{
		Model: p.model,
		Messages: []chatMessage{
			{Role: "system", Content: prompt.System},
			{Role: "user", Content: prompt.User},
		},
		Temperature:    prompt.Temperature,
		ResponseFormat: responseFormat{Type: "json_object"},
	})
	if err != nil {
		return nil, errors.NewAIError(errors.ErrCodeLLMRequestFailed, "failed to encode LLM request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, errors.NewAIError(errors.ErrCodeLLMRequestFailed, "failed to build LLM request", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read LLM response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.NewAIError(errors.ErrCodeLLMRequestFailed,
			fmt.Sprintf("LLM request failed with status %d: %s", resp.StatusCode, TruncateRunes(string(raw), p.maxErrorBody)),
			nil).WithContext("status", resp.StatusCode)
	}

	var decoded chatResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, errors.NewAIError(errors.ErrCodeLLMRequestFailed,
			fmt.Sprintf("LLM returned an undecodable response: %v", err), err)
	}
	if len(decoded.Choices) == 0 {
		return nil, errors.NewAIError(errors.ErrCodeLLMRequestFailed,
			"LLM response contains no choices", nil)
	}

	completion := &Completion{
		Text:  decoded.Choices[0].Message.Content,
		Model: decoded.Model,
	}
	if decoded.Usage != nil {
		completion.Usage = &TokenUsage{
			InputTokens:  decoded.Usage.PromptTokens,
			OutputTokens: decoded.Usage.CompletionTokens,
			TotalTokens:  decoded.Usage.TotalTokens,
		}
	}
	return completion, nil
}

// Close implements Provider
func (p *OpenAIProvider) Close() error {
	p.httpClient.CloseIdleConnections()
	return nil
}
