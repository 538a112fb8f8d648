package store

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"jobcopilot/internal/errors"

	"github.com/stretchr/testify/require"
)

var testLogger = errors.NewLogger(slog.LevelDebug)

const validProfileJSON = `{
  "personal": {"first_name": "Ada", "last_name": "Lovelace", "email": "ada@example.com", "phone": "+44 1", "location": "London, UK"},
  "links": {"linkedin": "https://linkedin.com/in/ada"},
  "work_auth": {"need_sponsorship": false, "work_authorization": "UK citizen"},
  "experience": [{"company": "Analytical Engines", "title": "Programmer"}],
  "documents": {}
}`

func writeProfileFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "profile.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}
