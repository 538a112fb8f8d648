package ai

import (
	"context"
	stderrors "errors"
	"fmt"

	"jobcopilot/internal/config"
	"jobcopilot/internal/errors"

	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
)

// GeminiProvider implements Provider for Google Gemini
type GeminiProvider struct {
	client       *genai.Client
	model        string
	maxErrorBody int
}

// Ensure GeminiProvider implements Provider
var _ Provider = (*GeminiProvider)(nil)

// NewGeminiProvider creates a new Gemini provider instance
func NewGeminiProvider(ctx context.Context, cfg config.LLMConfig) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			"Failed to create Gemini client", err)
	}

	return &GeminiProvider{
		client:       client,
		model:        cfg.Model,
		maxErrorBody: cfg.MaxErrorBody,
	}, nil
}

// Name implements Provider
func (g *GeminiProvider) Name() string { return "gemini" }

// Complete implements Provider
func (g *GeminiProvider) Complete(ctx context.Context, prompt Prompt) (*Completion, error) {
	genaiConfig := buildAnswersSchema()
	temperature := prompt.Temperature
	genaiConfig.Temperature = &temperature
	if prompt.System != "" {
		genaiConfig.SystemInstruction = genai.NewContentFromText(prompt.System, genai.RoleUser)
	}

	result, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt.User), genaiConfig)
	if err != nil {
		return nil, g.describeError(err)
	}

	return &Completion{
		Text:  result.Text(),
		Model: g.model,
		Usage: extractTokenUsage(result),
	}, nil
}

// describeError turns Google API errors into the LLM failure kind with a
// truncated body
func (g *GeminiProvider) describeError(err error) error {
	var apiErr *googleapi.Error
	if stderrors.As(err, &apiErr) {
		detail := apiErr.Body
		if detail == "" {
			detail = apiErr.Message
		}
		return errors.NewAIError(errors.ErrCodeLLMRequestFailed,
			fmt.Sprintf("LLM request failed with status %d: %s", apiErr.Code, TruncateRunes(detail, g.maxErrorBody)),
			err).WithContext("status", apiErr.Code)
	}
	return err
}

// Close implements Provider
func (g *GeminiProvider) Close() error {
	// The genai client holds no resources in single-shot usage
	return nil
}

// buildAnswersSchema constrains the reply to {"answers": [...]}
func buildAnswersSchema() *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"answers": {
					Type: genai.TypeArray,
					Items: &genai.Schema{
						Type: genai.TypeObject,
						Properties: map[string]*genai.Schema{
							"field_id":   {Type: genai.TypeString},
							"value":      {Type: genai.TypeString},
							"confidence": {Type: genai.TypeNumber},
							"reason":     {Type: genai.TypeString},
							"source": {
								Type: genai.TypeString,
								Enum: []string{"profile", "resume", "job_description", "inferred"},
							},
						},
						Required: []string{"field_id", "value", "confidence", "source"},
					},
				},
			},
			Required: []string{"answers"},
		},
	}
}

// extractTokenUsage extracts token usage information from Gemini API response
func extractTokenUsage(result *genai.GenerateContentResponse) *TokenUsage {
	if result == nil || result.UsageMetadata == nil {
		return nil
	}

	usage := result.UsageMetadata
	return &TokenUsage{
		InputTokens:  int64(usage.PromptTokenCount),
		OutputTokens: int64(usage.CandidatesTokenCount),
		TotalTokens:  int64(usage.TotalTokenCount),
	}
}
