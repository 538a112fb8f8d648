package ai

import (
	"context"

	"jobcopilot/internal/types"
)

// answerTemperature keeps generation deterministic
const answerTemperature float32 = 0

// Prompt is a single chat-completion request
type Prompt struct {
	System      string
	User        string
	Temperature float32
}

// Completion is the raw reply of a provider
type Completion struct {
	Text  string
	Model string
	Usage *TokenUsage
}

// TokenUsage represents token usage information from LLM responses
type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
}

// Provider is an external chat-completion backend
type Provider interface {
	Complete(ctx context.Context, prompt Prompt) (*Completion, error)
	Name() string
	Close() error
}

// Reply is the validated outcome of one Ask call
type Reply struct {
	Answers []types.FieldAnswer
	Model   string
	Usage   *TokenUsage
}
