// Package common holds helpers shared by the CLI commands.
package common

import (
	"fmt"
	"slices"
)

// ValidateOutputFormat checks format against the configured formats. An empty
// list allows anything.
func ValidateOutputFormat(format string, supportedFormats []string) error {
	if len(supportedFormats) == 0 || slices.Contains(supportedFormats, format) {
		return nil
	}
	return fmt.Errorf("unsupported output format '%s'. Supported formats: %v", format, supportedFormats)
}
