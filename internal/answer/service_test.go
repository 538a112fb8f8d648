package answer

import (
	"context"
	"log/slog"
	"testing"

	"jobcopilot/internal/ai"
	"jobcopilot/internal/errors"
	"jobcopilot/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLogger = errors.NewLogger(slog.LevelDebug)

type fakeLLM struct {
	available bool
	reply     *ai.Reply
	err       error
	calls     int
}

func (f *fakeLLM) Available() bool { return f.available }

func (f *fakeLLM) Ask(_ context.Context, _ types.AnswerRequest, _ types.Profile) (*ai.Reply, error) {
	f.calls++
	return f.reply, f.err
}

func sponsorshipRequest() types.AnswerRequest {
	return types.AnswerRequest{
		Site: "greenhouse",
		Fields: []types.FieldQuestion{
			{FieldID: "f1", Label: "Will you require visa sponsorship?", Options: []string{"Yes", "No"}},
			{FieldID: "salary", Label: "Desired salary"},
		},
	}
}

func TestService_NoCredentialIsHeuristicOnly(t *testing.T) {
	llm := &fakeLLM{available: false}
	svc := NewService(llm, testLogger)

	out := svc.Answer(context.Background(), sponsorshipRequest(), testProfile())

	assert.Equal(t, 0, llm.calls)
	assert.False(t, out.Response.UsedLLM)
	assert.Equal(t, HeuristicOnlyMessage, out.Response.Message)
	assert.Empty(t, out.Response.Model)
	assert.Equal(t, []string{"f1"}, out.Response.Answers.Keys())

	nilSvc := NewService(nil, testLogger)
	assert.False(t, nilSvc.LLMAvailable())
	assert.Equal(t, HeuristicOnlyMessage, nilSvc.Answer(context.Background(), sponsorshipRequest(), testProfile()).Response.Message)
}

func TestService_LLMFailureDegradesToHeuristics(t *testing.T) {
	llm := &fakeLLM{
		available: true,
		err:       errors.NewAIError(errors.ErrCodeLLMRequestFailed, "LLM request failed with status 502: bad gateway", nil),
	}
	svc := NewService(llm, testLogger)

	out := svc.Answer(context.Background(), sponsorshipRequest(), testProfile())

	assert.Equal(t, 1, llm.calls)
	assert.False(t, out.Response.UsedLLM)
	assert.Equal(t, "LLM request failed with status 502: bad gateway", out.Response.Message)
	assert.Error(t, out.LLMErr)
	assert.Equal(t, 1, out.Response.Answers.Len())
}

func TestService_MergesLLMAnswers(t *testing.T) {
	llm := &fakeLLM{
		available: true,
		reply: &ai.Reply{
			Model: "gpt-4o-mini",
			Answers: []types.FieldAnswer{
				{FieldID: "f1", Value: types.StringValue("No"), Confidence: 0.6, Source: types.SourceInferred},
				{FieldID: "salary", Value: types.StringValue("Negotiable"), Confidence: 0.4, Source: types.SourceInferred},
				{FieldID: "unknown", Value: types.StringValue("x"), Confidence: 1, Source: types.SourceInferred},
			},
			Usage: &ai.TokenUsage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15},
		},
	}
	svc := NewService(llm, testLogger)

	out := svc.Answer(context.Background(), sponsorshipRequest(), testProfile())

	require.True(t, out.Response.UsedLLM)
	assert.Equal(t, "gpt-4o-mini", out.Response.Model)
	assert.Empty(t, out.Response.Message)
	assert.Equal(t, []string{"f1", "salary"}, out.Response.Answers.Keys())

	f1, _ := out.Response.Answers.Get("f1")
	assert.JSONEq(t, `"Yes"`, string(f1.Value))
	assert.Equal(t, 0.82, f1.Confidence)
	assert.Equal(t, 1, out.HeuristicCount)
	assert.Equal(t, 3, out.LLMCount)
	assert.Equal(t, int64(15), out.Usage.TotalTokens)
}

func TestService_UsedLLMEvenWhenNoLLMAnswerWins(t *testing.T) {
	llm := &fakeLLM{
		available: true,
		reply: &ai.Reply{Model: "m", Answers: []types.FieldAnswer{
			{FieldID: "f1", Value: types.StringValue("No"), Confidence: 0.1, Source: types.SourceInferred},
		}},
	}
	out := NewService(llm, testLogger).Answer(context.Background(), sponsorshipRequest(), testProfile())

	assert.True(t, out.Response.UsedLLM)
	f1, _ := out.Response.Answers.Get("f1")
	assert.Equal(t, types.SourceProfile, f1.Source)
}
