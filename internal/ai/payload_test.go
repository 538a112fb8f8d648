package ai

import (
	"encoding/json"
	"strings"
	"testing"

	"jobcopilot/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "", TruncateRunes("abc", 0))
	assert.Equal(t, "ab", TruncateRunes("abc", 2))
	assert.Equal(t, "abc", TruncateRunes("abc", 3))
	assert.Equal(t, "abc", TruncateRunes("abc", 10))
	assert.Equal(t, "héé", TruncateRunes("héééé", 3))
}

func TestBuildPayload_TruncatesDescription(t *testing.T) {
	req := types.AnswerRequest{
		Site:           "lever",
		JobURL:         "https://jobs.example/1",
		JobTitle:       "Engineer",
		Company:        "Acme",
		JobDescription: strings.Repeat("x", 15000),
		Fields:         []types.FieldQuestion{{FieldID: "f1", Label: "Name"}},
	}

	payload := BuildPayload(req, types.Profile{}, 12000)
	assert.Len(t, payload.Job.Description, 12000)
	assert.Equal(t, "lever", payload.Job.Site)
	assert.Equal(t, "https://jobs.example/1", payload.Job.URL)

	msg, err := payload.UserMessage()
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(msg, userPromptPrefix))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(msg, userPromptPrefix)), &decoded))
	job := decoded["job"].(map[string]any)
	assert.Len(t, job["description"], 12000)
	assert.Len(t, decoded["fields"], 1)
	profile := decoded["profile"].(map[string]any)
	assert.Equal(t, []any{}, profile["skills"])
}

func TestBuildPayload_CapOnlyLowers(t *testing.T) {
	req := types.AnswerRequest{JobDescription: strings.Repeat("x", 15000)}

	assert.Len(t, BuildPayload(req, types.Profile{}, 50000).Job.Description, MaxDescriptionChars)
	assert.Len(t, BuildPayload(req, types.Profile{}, 0).Job.Description, MaxDescriptionChars)
	assert.Len(t, BuildPayload(req, types.Profile{}, 100).Job.Description, 100)
}

func TestBuildPayload_ShortDescriptionUntouched(t *testing.T) {
	payload := BuildPayload(types.AnswerRequest{JobDescription: "short"}, types.Profile{}, 12000)
	assert.Equal(t, "short", payload.Job.Description)
	assert.NotNil(t, payload.Fields)
}
