package config

import (
	"fmt"
	"log"
	"os"
	"strings"
)

// loadSystemPromptFile replaces LLM.SystemPrompt with the content of
// LLM.SystemPromptFile when one is configured. A file that is missing or
// empty is an error.
func (c *Config) loadSystemPromptFile() error {
	path := c.LLM.SystemPromptFile
	if path == "" {
		return nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("system prompt file %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("system prompt file %s is a directory", path)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read system prompt file %s: %w", path, err)
	}

	prompt := strings.TrimSpace(string(content))
	if prompt == "" {
		return fmt.Errorf("system prompt file %s is empty", path)
	}

	c.LLM.SystemPrompt = prompt
	log.Printf("[CONFIG] Loaded system prompt from file: %s (%d chars)", path, len(prompt))
	return nil
}
