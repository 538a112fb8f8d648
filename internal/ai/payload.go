package ai

import (
	"encoding/json"

	"jobcopilot/internal/config"
	"jobcopilot/internal/types"
)

// JobContext is the job metadata sent to the model
type JobContext struct {
	Site        string `json:"site"`
	URL         string `json:"url"`
	Title       string `json:"title"`
	Company     string `json:"company"`
	Description string `json:"description"`
}

// Payload is the structured user message sent to the model
type Payload struct {
	Profile types.Profile         `json:"profile"`
	Job     JobContext            `json:"job"`
	Fields  []types.FieldQuestion `json:"fields"`
}

// MaxDescriptionChars is the hard cap on the job description sent to the
// model. A configured limit may only lower it.
const MaxDescriptionChars = config.DefaultMaxDescription

// BuildPayload assembles the model input. The job description is cut to its
// first maxChars characters, never more than MaxDescriptionChars.
func BuildPayload(req types.AnswerRequest, profile types.Profile, maxChars int) Payload {
	if maxChars <= 0 || maxChars > MaxDescriptionChars {
		maxChars = MaxDescriptionChars
	}
	fields := req.Fields
	if fields == nil {
		fields = []types.FieldQuestion{}
	}
	return Payload{
		Profile: profile.Normalized(),
		Job: JobContext{
			Site:        req.Site,
			URL:         req.JobURL,
			Title:       req.JobTitle,
			Company:     req.Company,
			Description: TruncateRunes(req.JobDescription, maxChars),
		},
		Fields: fields,
	}
}

// UserMessage renders the payload as the user prompt
func (p Payload) UserMessage() (string, error) {
	body, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return userPromptPrefix + string(body), nil
}

// TruncateRunes returns at most n characters of s
func TruncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
