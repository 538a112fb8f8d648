package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"jobcopilot/internal/errors"
	"jobcopilot/internal/types"

	"github.com/xeipuuv/gojsonschema"
)

const answerItemSchemaJSON = `{
  "type": "object",
  "required": ["field_id", "value", "confidence", "source"],
  "properties": {
    "field_id": {"type": "string", "minLength": 1},
    "value": {"not": {"type": "null"}},
    "confidence": {"type": "number"},
    "reason": {"type": "string"},
    "source": {"enum": ["profile", "resume", "job_description", "inferred"]}
  }
}`

var answerItemSchema = mustSchema(answerItemSchemaJSON)

func mustSchema(schema string) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schema))
	if err != nil {
		panic(fmt.Sprintf("invalid embedded schema: %v", err))
	}
	return s
}

// StripFences removes a surrounding markdown code fence, with or without a
// language tag.
func StripFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	text = strings.TrimPrefix(text, "```")
	if idx := strings.Index(text, "\n"); idx >= 0 {
		tag := strings.TrimSpace(text[:idx])
		if !strings.ContainsAny(tag, "{[\" ") {
			text = text[idx+1:]
		}
	} else {
		text = strings.TrimPrefix(text, "json")
	}
	if idx := strings.LastIndex(text, "```"); idx >= 0 {
		text = text[:idx]
	}
	return strings.TrimSpace(text)
}

// ParseReply decodes the model reply into answers. The reply must be a JSON
// object with an "answers" array; items that do not match the answer shape
// are dropped one by one and confidences are clamped to [0, 1].
func ParseReply(text string) ([]types.FieldAnswer, error) {
	var envelope struct {
		Answers *[]json.RawMessage `json:"answers"`
	}
	if err := json.Unmarshal([]byte(StripFences(text)), &envelope); err != nil {
		return nil, errors.NewAIError(errors.ErrCodeLLMRequestFailed,
			fmt.Sprintf("LLM returned invalid JSON: %v", err), err)
	}
	if envelope.Answers == nil {
		return nil, errors.NewAIError(errors.ErrCodeLLMRequestFailed,
			"LLM response is missing the 'answers' array", nil)
	}

	answers := make([]types.FieldAnswer, 0, len(*envelope.Answers))
	for _, item := range *envelope.Answers {
		answer, ok := parseAnswerItem(item)
		if ok {
			answers = append(answers, answer)
		}
	}
	return answers, nil
}

func parseAnswerItem(item json.RawMessage) (types.FieldAnswer, bool) {
	result, err := answerItemSchema.Validate(gojsonschema.NewBytesLoader(item))
	if err != nil || !result.Valid() {
		return types.FieldAnswer{}, false
	}

	var answer types.FieldAnswer
	if err := json.Unmarshal(item, &answer); err != nil {
		return types.FieldAnswer{}, false
	}
	answer.Confidence = types.ClampConfidence(answer.Confidence)
	return answer, true
}
