package ai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	"jobcopilot/internal/config"
	"jobcopilot/internal/errors"
	"jobcopilot/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLogger = errors.NewLogger(slog.LevelDebug)

type fakeProvider struct {
	text    string
	err     error
	delay   time.Duration
	calls   int
	prompts []Prompt
}

func (f *fakeProvider) Complete(ctx context.Context, prompt Prompt) (*Completion, error) {
	f.calls++
	f.prompts = append(f.prompts, prompt)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &Completion{Text: f.text, Usage: &TokenUsage{InputTokens: 3, OutputTokens: 2, TotalTokens: 5}}, nil
}

func (f *fakeProvider) Name() string { return "fake" }
func (f *fakeProvider) Close() error { return nil }

func testLLMConfig() config.LLMConfig {
	return config.LLMConfig{
		Model:          "gpt-test",
		Timeout:        time.Second,
		MaxDescription: 12000,
		MaxErrorBody:   500,
	}
}

func testRequest() types.AnswerRequest {
	return types.AnswerRequest{
		JobTitle:       "Engineer",
		JobDescription: strings.Repeat("d", 13000),
		Fields:         []types.FieldQuestion{{FieldID: "f1", Label: "Why us?"}},
	}
}

func TestNewClient_WithoutKeyIsUnavailable(t *testing.T) {
	client, err := NewClient(context.Background(), testLLMConfig(), testLogger)
	require.NoError(t, err)
	assert.False(t, client.Available())
	assert.Equal(t, "", client.ProviderName())
	assert.Equal(t, map[string]any{"enabled": false}, client.BreakerStats())

	reply, err := client.Ask(context.Background(), testRequest(), types.Profile{})
	require.NoError(t, err)
	assert.Empty(t, reply.Answers)
	assert.NoError(t, client.Close())
}

func TestNewClient_UnsupportedProvider(t *testing.T) {
	cfg := testLLMConfig()
	cfg.APIKey = "sk"
	cfg.Provider = "unknown"
	_, err := NewClient(context.Background(), cfg, testLogger)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestClientAsk_Success(t *testing.T) {
	provider := &fakeProvider{text: "```json\n{\"answers\":[{\"field_id\":\"f1\",\"value\":\"Mission\",\"confidence\":0.8,\"reason\":\"jd\",\"source\":\"job_description\"}]}\n```"}
	client := NewClientWithProvider(provider, testLLMConfig(), testLogger)
	require.True(t, client.Available())
	assert.Equal(t, "fake", client.ProviderName())

	reply, err := client.Ask(context.Background(), testRequest(), types.Profile{})
	require.NoError(t, err)
	require.Len(t, reply.Answers, 1)
	assert.Equal(t, "f1", reply.Answers[0].FieldID)
	assert.Equal(t, "gpt-test", reply.Model)
	assert.Equal(t, int64(5), reply.Usage.TotalTokens)

	require.Len(t, provider.prompts, 1)
	assert.Equal(t, DefaultSystemPrompt, provider.prompts[0].System)
	assert.Contains(t, provider.prompts[0].User, strings.Repeat("d", 12000))
	assert.NotContains(t, provider.prompts[0].User, strings.Repeat("d", 12001))
}

func TestClientAsk_HardLimitsIgnoreLooseConfig(t *testing.T) {
	cfg := testLLMConfig()
	cfg.MaxDescription = 50000
	provider := &fakeProvider{text: `{"answers":[]}`}
	client := NewClientWithProvider(provider, cfg, testLogger)

	req := testRequest()
	req.JobDescription = strings.Repeat("d", 20000)
	_, err := client.Ask(context.Background(), req, types.Profile{})
	require.NoError(t, err)

	require.Len(t, provider.prompts, 1)
	assert.Equal(t, float32(0), provider.prompts[0].Temperature)
	assert.Contains(t, provider.prompts[0].User, strings.Repeat("d", MaxDescriptionChars))
	assert.NotContains(t, provider.prompts[0].User, strings.Repeat("d", MaxDescriptionChars+1))
}

func TestClientAsk_CustomSystemPrompt(t *testing.T) {
	cfg := testLLMConfig()
	cfg.SystemPrompt = "be brief"
	provider := &fakeProvider{text: `{"answers":[]}`}
	client := NewClientWithProvider(provider, cfg, testLogger)

	_, err := client.Ask(context.Background(), testRequest(), types.Profile{})
	require.NoError(t, err)
	assert.Equal(t, "be brief", provider.prompts[0].System)
}

func TestClientAsk_Failures(t *testing.T) {
	tests := []struct {
		name     string
		provider *fakeProvider
		timeout  time.Duration
		want     string
	}{
		{
			name:     "transport error",
			provider: &fakeProvider{err: fmt.Errorf("connection refused")},
			want:     "LLM request failed: connection refused",
		},
		{
			name:     "timeout",
			provider: &fakeProvider{delay: time.Second, text: `{"answers":[]}`},
			timeout:  20 * time.Millisecond,
			want:     "LLM request timed out after 20ms",
		},
		{
			name:     "invalid reply",
			provider: &fakeProvider{text: "sorry"},
			want:     "LLM returned invalid JSON",
		},
		{
			name: "provider error kept",
			provider: &fakeProvider{err: errors.NewAIError(errors.ErrCodeLLMRequestFailed,
				"LLM request failed with status 429: slow down", nil)},
			want: "LLM request failed with status 429: slow down",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testLLMConfig()
			if tt.timeout > 0 {
				cfg.Timeout = tt.timeout
			}
			client := NewClientWithProvider(tt.provider, cfg, testLogger)

			_, err := client.Ask(context.Background(), testRequest(), types.Profile{})
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, errors.ErrCodeLLMRequestFailed))
			assert.Contains(t, errors.MessageOf(err), tt.want)
		})
	}
}

func TestClientAsk_IgnoresInboundCancellation(t *testing.T) {
	provider := &fakeProvider{delay: 30 * time.Millisecond, text: `{"answers":[]}`}
	client := NewClientWithProvider(provider, testLLMConfig(), testLogger)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Ask(ctx, testRequest(), types.Profile{})
	assert.NoError(t, err)
}

func TestClientAsk_BreakerOpen(t *testing.T) {
	cfg := testLLMConfig()
	cfg.CircuitBreaker = config.CircuitBreakerConfig{
		Enabled:          true,
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          time.Minute,
		MinRequests:      1,
		FailureThreshold: 0.5,
	}
	provider := &fakeProvider{err: fmt.Errorf("boom")}
	client := NewClientWithProvider(provider, cfg, testLogger)

	_, err := client.Ask(context.Background(), testRequest(), types.Profile{})
	require.Error(t, err)

	_, err = client.Ask(context.Background(), testRequest(), types.Profile{})
	require.Error(t, err)
	assert.Equal(t, "LLM temporarily unavailable (circuit breaker open)", errors.MessageOf(err))
	assert.Equal(t, 1, provider.calls)
	assert.Equal(t, "open", client.BreakerStats()["state"])
}
