// Package answer produces best-effort answers for job application form
// fields by combining profile heuristics with an optional LLM reply.
package answer

import (
	"regexp"
	"strings"
)

var (
	nonAlnumSpace = regexp.MustCompile(`[^a-z0-9\s]`)
	whitespaceRun = regexp.MustCompile(`\s+`)
)

// Normalize lowercases text, replaces anything outside [a-z0-9] and
// whitespace with a space, collapses whitespace runs and trims.
func Normalize(text string) string {
	s := strings.ToLower(text)
	s = nonAlnumSpace.ReplaceAllString(s, " ")
	s = whitespaceRun.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
