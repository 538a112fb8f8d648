package errors

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"testing"
)

func TestAppErrorFormatting(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := NewIOError(ErrCodeProfilePersistFailed, "cannot write profile", cause)

	want := "PROFILE_PERSIST_FAILED: cannot write profile (caused by: disk full)"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if err.Unwrap() != cause {
		t.Error("Unwrap should return the cause")
	}

	noCause := NewValidationError(ErrCodeInvalidRequest, "bad body", nil)
	if noCause.Error() != "INVALID_REQUEST: bad body" {
		t.Errorf("unexpected message without cause: %q", noCause.Error())
	}
}

func TestMessageOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"plain error", fmt.Errorf("boom"), "boom"},
		{"app error", NewAIError(ErrCodeLLMRequestFailed, "LLM request failed: timeout", nil), "LLM request failed: timeout"},
		{"wrapped app error", fmt.Errorf("outer: %w", NewAIError(ErrCodeLLMRequestFailed, "inner", nil)), "inner"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MessageOf(tt.err); got != tt.want {
				t.Errorf("MessageOf() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsTypeAndHasCode(t *testing.T) {
	err := fmt.Errorf("wrap: %w", NewValidationError(ErrCodeProfileInvalid, "bad profile", nil))

	if !IsType(err, ErrorTypeValidation) {
		t.Error("expected validation type")
	}
	if IsType(err, ErrorTypeIO) {
		t.Error("did not expect io type")
	}
	if !HasCode(err, ErrCodeProfileInvalid) {
		t.Error("expected PROFILE_INVALID code")
	}
	if HasCode(fmt.Errorf("plain"), ErrCodeProfileInvalid) {
		t.Error("plain errors carry no code")
	}
}

func TestNewLogLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		if _, err := New(level); err != nil {
			t.Errorf("New(%q) returned error: %v", level, err)
		}
	}
	if _, err := New("verbose"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestLogErrorExpandsAppError(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, slog.LevelDebug)

	err := NewAIError(ErrCodeLLMRequestFailed, "upstream returned 500", nil).
		WithContext("provider", "openai")
	logger.LogError(err, "LLM call failed", "fields", 3)

	var entry map[string]any
	if jsonErr := json.Unmarshal(buf.Bytes(), &entry); jsonErr != nil {
		t.Fatalf("log line is not JSON: %v", jsonErr)
	}

	checks := map[string]any{
		"msg":           "LLM call failed",
		"error_type":    "ai",
		"error_code":    ErrCodeLLMRequestFailed,
		"error_message": "upstream returned 500",
		"provider":      "openai",
		"fields":        float64(3),
	}
	for key, want := range checks {
		if entry[key] != want {
			t.Errorf("entry[%q] = %v, want %v", key, entry[key], want)
		}
	}
}
