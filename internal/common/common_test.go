package common

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"jobcopilot/internal/errors"
	"jobcopilot/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLogger = errors.NewLogger(slog.LevelDebug)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestValidateAndReadJSON(t *testing.T) {
	fp := NewFileProcessor(testLogger)

	content, err := fp.ValidateAndReadJSON(writeFile(t, "req.json", `{"fields":[]}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"fields":[]}`, string(content))

	_, err = fp.ValidateAndReadJSON(writeFile(t, "bad.json", `{"fields":`))
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidFormat))

	_, err = fp.ValidateAndReadJSON(filepath.Join(t.TempDir(), "missing.json"))
	assert.True(t, errors.HasCode(err, "INVALID_INPUT_FILE"))
}

func TestOutputHandler_File(t *testing.T) {
	out := filepath.Join(t.TempDir(), "nested", "answers.md")
	resp := types.AnswerResponse{Answers: types.NewOrderedAnswers(), Message: "note"}

	err := NewOutputHandler(testLogger).HandleOutput(resp, CommandConfig{OutputFile: out, OutputFormat: "markdown"})
	require.NoError(t, err)

	written, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(written), "# Field Answers")
}

func TestOutputHandler_UnknownFormat(t *testing.T) {
	err := NewOutputHandler(testLogger).HandleOutput(types.Profile{}, CommandConfig{OutputFormat: "yaml"})
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidFormat))
}

func TestRunJSONCommand(t *testing.T) {
	in := writeFile(t, "req.json", `{"site":"lever","fields":[{"field_id":"a","label":"x"}]}`)
	out := filepath.Join(t.TempDir(), "out.json")

	var seen types.AnswerRequest
	err := RunJSONCommand(context.Background(), testLogger, CommandConfig{OutputFile: out, OutputFormat: "json"}, in,
		func(_ context.Context, req types.AnswerRequest) (map[string]int, error) {
			seen = req
			return map[string]int{"fields": len(req.Fields)}, nil
		})
	require.NoError(t, err)
	assert.Equal(t, "lever", seen.Site)

	written, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.JSONEq(t, `{"fields":1}`, string(written))
}

func TestOutputHandler_Stdout(t *testing.T) {
	var buf bytes.Buffer
	err := NewOutputHandler(testLogger).WithStdout(&buf).HandleOutput(map[string]bool{"ok": true}, CommandConfig{OutputFormat: "json"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, buf.String())
}
