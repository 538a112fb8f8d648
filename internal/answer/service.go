package answer

import (
	"context"
	"time"

	"jobcopilot/internal/ai"
	"jobcopilot/internal/errors"
	"jobcopilot/internal/types"
)

// HeuristicOnlyMessage is the advisory returned when no LLM credential is set
const HeuristicOnlyMessage = "LLM is not configured (missing API key); using heuristic answers only."

// LLM is the part of the LLM client the answering service depends on
type LLM interface {
	Available() bool
	Ask(ctx context.Context, req types.AnswerRequest, profile types.Profile) (*ai.Reply, error)
}

// Outcome is the response plus what the caller needs for metrics and logs
type Outcome struct {
	Response       types.AnswerResponse
	HeuristicCount int
	LLMCount       int
	Usage          *ai.TokenUsage
	LLMErr         error
	Duration       time.Duration
}

// Service answers form fields
type Service struct {
	llm    LLM
	logger *errors.Logger
}

// NewService creates an answering service. llm may be nil, which behaves like
// an unconfigured client.
func NewService(llm LLM, logger *errors.Logger) *Service {
	return &Service{llm: llm, logger: logger}
}

// LLMAvailable reports whether an LLM credential is configured
func (s *Service) LLMAvailable() bool {
	return s.llm != nil && s.llm.Available()
}

// Answer runs the heuristic engine, then the LLM if available, and merges
// both. LLM failures never fail the call; they become the advisory message.
func (s *Service) Answer(ctx context.Context, req types.AnswerRequest, profile types.Profile) Outcome {
	start := time.Now()

	heuristic := HeuristicAnswers(profile, req.Fields)
	out := Outcome{HeuristicCount: len(heuristic)}

	var llmAnswers []types.FieldAnswer
	message := ""
	model := ""

	if s.LLMAvailable() {
		reply, err := s.llm.Ask(ctx, req, profile)
		if err != nil {
			out.LLMErr = err
			message = errors.MessageOf(err)
			s.logger.LogError(err, "LLM answer request failed, falling back to heuristic answers",
				"fields", len(req.Fields),
				"heuristic_answers", len(heuristic))
		} else if reply != nil {
			llmAnswers = reply.Answers
			model = reply.Model
			out.Usage = reply.Usage
		}
	} else {
		message = HeuristicOnlyMessage
	}

	out.LLMCount = len(llmAnswers)
	out.Response = types.AnswerResponse{
		Answers: Merge(req.Fields, heuristic, llmAnswers),
		UsedLLM: len(llmAnswers) > 0,
		Model:   model,
		Message: message,
	}
	out.Duration = time.Since(start)

	s.logger.Debug("Answered form fields",
		"site", req.Site,
		"fields", len(req.Fields),
		"answers", out.Response.Answers.Len(),
		"heuristic_answers", out.HeuristicCount,
		"llm_answers", out.LLMCount,
		"used_llm", out.Response.UsedLLM,
		"duration", out.Duration)

	return out
}
