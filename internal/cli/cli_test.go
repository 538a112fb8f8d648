package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"jobcopilot/internal/config"
	"jobcopilot/internal/errors"
	"jobcopilot/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLogger = errors.NewLogger(slog.LevelDebug)

const profileJSON = `{
  "personal": {"first_name": "Ada", "last_name": "Lovelace", "email": "ada@example.com", "phone": "1", "location": "London, UK"},
  "links": {"github": "https://github.com/ada"},
  "work_auth": {"need_sponsorship": false, "work_authorization": "Citizen"},
  "experience": [{"company": "Engines", "title": "Programmer"}],
  "documents": {}
}`

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "profile.json")
	require.NoError(t, os.WriteFile(path, []byte(profileJSON), 0o600))

	cfg := &config.Config{}
	cfg.Profile.Path = path
	cfg.LLM.Provider = "openai"
	cfg.LLM.Timeout = time.Second
	cfg.LLM.MaxDescription = 12000
	cfg.LLM.MaxErrorBody = 500
	cfg.App.DefaultFormat = "json"
	cfg.App.SupportedFormats = []string{"json", "text", "markdown"}
	return cfg
}

func run(t *testing.T, cfg *config.Config, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})
	err := Execute(context.Background(), cfg, testLogger)
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, testConfig(t), "version")
	require.NoError(t, err)
	assert.Contains(t, out, "jobcopilot version "+Version)
}

func TestProfileValidateCommand(t *testing.T) {
	cfg := testConfig(t)

	out, err := run(t, cfg, "profile", "validate", cfg.Profile.Path)
	require.NoError(t, err)
	assert.Contains(t, out, "is valid (Ada Lovelace, 1 experience, 0 education entries)")

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"personal":{}}`), 0o600))
	_, err = run(t, cfg, "profile", "validate", bad)
	assert.ErrorContains(t, err, "is invalid")
}

func TestProfileShowCommand(t *testing.T) {
	cfg := testConfig(t)

	out, err := run(t, cfg, "profile", "show", "--format", "text")
	require.NoError(t, err)
	assert.Contains(t, out, "Name: Ada Lovelace")
}

func TestAnswerCommand_HeuristicOnly(t *testing.T) {
	cfg := testConfig(t)
	dir := t.TempDir()
	req := filepath.Join(dir, "request.json")
	require.NoError(t, os.WriteFile(req, []byte(`{"fields":[
	  {"field_id":"gh","label":"GitHub profile"},
	  {"field_id":"sp","label":"Do you require sponsorship?","options":["Yes","No"]}
	]}`), 0o600))
	out := filepath.Join(dir, "answers.json")

	_, err := run(t, cfg, "answer", req, "--format", "json", "-o", out)
	require.NoError(t, err)

	raw, err := os.ReadFile(out)
	require.NoError(t, err)
	var resp types.AnswerResponse
	require.NoError(t, json.Unmarshal(raw, &resp))

	assert.False(t, resp.UsedLLM)
	assert.Equal(t, []string{"gh", "sp"}, resp.Answers.Keys())
	sp, _ := resp.Answers.Get("sp")
	assert.JSONEq(t, `"No"`, string(sp.Value))
}

func TestAnswerCommand_DuplicateFieldID(t *testing.T) {
	cfg := testConfig(t)
	req := filepath.Join(t.TempDir(), "request.json")
	require.NoError(t, os.WriteFile(req, []byte(`{"fields":[{"field_id":"a"},{"field_id":"a"}]}`), 0o600))

	_, err := run(t, cfg, "answer", req, "--format", "json")
	assert.ErrorContains(t, err, `duplicate field_id "a"`)
}
