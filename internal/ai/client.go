// Package ai is the capability-gated LLM client used to answer form fields.
package ai

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"jobcopilot/internal/config"
	"jobcopilot/internal/errors"
	"jobcopilot/internal/types"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Client asks an external model for field answers. A client built without an
// API key is unavailable and never touches the network.
type Client struct {
	provider     Provider
	breaker      *LLMCircuitBreaker
	cfg          config.LLMConfig
	systemPrompt string
	logger       *errors.Logger
}

// NewClient builds a client from configuration
func NewClient(ctx context.Context, cfg config.LLMConfig, logger *errors.Logger) (*Client, error) {
	c := &Client{
		cfg:          cfg,
		systemPrompt: resolvePrompt(cfg.SystemPrompt, DefaultSystemPrompt),
		logger:       logger,
	}

	if cfg.APIKey == "" {
		logger.Info("LLM API key not configured, answering with heuristics only")
		return c, nil
	}

	provider, err := newProvider(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return NewClientWithProvider(provider, cfg, logger), nil
}

// NewClientWithProvider builds an available client around an existing provider
func NewClientWithProvider(provider Provider, cfg config.LLMConfig, logger *errors.Logger) *Client {
	logger.Debug("Initializing LLM client",
		"provider", provider.Name(),
		"model", cfg.Model,
		"timeout", cfg.Timeout,
		"circuit_breaker", cfg.CircuitBreaker.Enabled)

	return &Client{
		provider:     provider,
		breaker:      NewLLMCircuitBreaker(provider.Name(), cfg.CircuitBreaker, logger),
		cfg:          cfg,
		systemPrompt: resolvePrompt(cfg.SystemPrompt, DefaultSystemPrompt),
		logger:       logger,
	}
}

func newProvider(ctx context.Context, cfg config.LLMConfig) (Provider, error) {
	switch cfg.Provider {
	case "openai", "":
		return NewOpenAIProvider(cfg), nil
	case "gemini":
		return NewGeminiProvider(ctx, cfg)
	default:
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("Unsupported LLM provider: %s", cfg.Provider), nil)
	}
}

// Available reports whether the client can call a model
func (c *Client) Available() bool {
	return c != nil && c.provider != nil
}

// ProviderName returns the configured provider, or "" when unavailable
func (c *Client) ProviderName() string {
	if !c.Available() {
		return ""
	}
	return c.provider.Name()
}

// Model returns the configured model name
func (c *Client) Model() string {
	return c.cfg.Model
}

// BreakerStats returns circuit breaker statistics
func (c *Client) BreakerStats() map[string]any {
	if !c.Available() {
		return map[string]any{"enabled": false}
	}
	return c.breaker.GetStats()
}

// Ask sends one completion request for all fields. It returns an empty reply
// when the client is unavailable. Every failure is an AI error with code
// LLM_REQUEST_FAILED whose message is safe to show to the caller.
func (c *Client) Ask(ctx context.Context, req types.AnswerRequest, profile types.Profile) (*Reply, error) {
	if !c.Available() {
		return &Reply{}, nil
	}

	user, err := BuildPayload(req, profile, c.cfg.MaxDescription).UserMessage()
	if err != nil {
		return nil, errors.NewAIError(errors.ErrCodeLLMRequestFailed, "failed to encode LLM payload", err)
	}

	// The call is not cancelled with the inbound request, only bounded.
	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.cfg.Timeout)
	defer cancel()

	tracer := otel.Tracer("jobcopilot.ai")
	callCtx, span := tracer.Start(callCtx, "llm.complete")
	defer span.End()
	span.SetAttributes(
		attribute.String("llm.provider", c.provider.Name()),
		attribute.String("llm.model", c.cfg.Model),
		attribute.Int("llm.fields", len(req.Fields)),
		attribute.Int("llm.description_chars", len([]rune(req.JobDescription))),
	)

	start := time.Now()
	c.logger.Debug("Sending LLM request",
		"provider", c.provider.Name(),
		"model", c.cfg.Model,
		"fields", len(req.Fields))

	completion, err := c.breaker.Execute(func() (*Completion, error) {
		return c.provider.Complete(callCtx, Prompt{
			System:      c.systemPrompt,
			User:        user,
			Temperature: answerTemperature,
		})
	})
	if err != nil {
		failure := c.asFailure(err)
		span.RecordError(failure)
		span.SetStatus(codes.Error, failure.Error())
		return nil, failure
	}

	answers, err := ParseReply(completion.Text)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if completion.Usage != nil {
		span.SetAttributes(
			attribute.Int64("llm.tokens.input", completion.Usage.InputTokens),
			attribute.Int64("llm.tokens.output", completion.Usage.OutputTokens),
			attribute.Int64("llm.tokens.total", completion.Usage.TotalTokens),
		)
	}
	span.SetAttributes(attribute.Int("llm.answers", len(answers)))

	c.logger.Debug("LLM request completed",
		"provider", c.provider.Name(),
		"model", c.cfg.Model,
		"answers", len(answers),
		"duration", time.Since(start))

	return &Reply{Answers: answers, Model: c.cfg.Model, Usage: completion.Usage}, nil
}

// asFailure collapses transport, timeout and breaker errors into the single
// LLM failure kind
func (c *Client) asFailure(err error) error {
	if errors.HasCode(err, errors.ErrCodeLLMRequestFailed) {
		return err
	}

	var message string
	switch {
	case stderrors.Is(err, context.DeadlineExceeded):
		message = fmt.Sprintf("LLM request timed out after %s", c.cfg.Timeout)
	case stderrors.Is(err, gobreaker.ErrOpenState), stderrors.Is(err, gobreaker.ErrTooManyRequests):
		message = "LLM temporarily unavailable (circuit breaker open)"
	default:
		message = fmt.Sprintf("LLM request failed: %v", err)
	}
	return errors.NewAIError(errors.ErrCodeLLMRequestFailed, message, err)
}

// Close releases provider resources
func (c *Client) Close() error {
	if !c.Available() {
		return nil
	}
	return c.provider.Close()
}
