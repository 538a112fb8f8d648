package common

import (
	"encoding/json"
	"fmt"
	"os"

	"jobcopilot/internal/errors"
	"jobcopilot/internal/utils"
)

// FileProcessor handles common file operations
type FileProcessor struct {
	logger *errors.Logger
}

// NewFileProcessor creates a new file processor instance
func NewFileProcessor(logger *errors.Logger) *FileProcessor {
	return &FileProcessor{logger: logger}
}

// ReadFile reads a whole file
func (fp *FileProcessor) ReadFile(filename string) ([]byte, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewIOError(errors.ErrCodeFileNotFound,
				fmt.Sprintf("File not found: %s", filename), err)
		}
		return nil, errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Cannot read file: %s", filename), err)
	}
	return content, nil
}

// WriteFile writes content, creating parent directories as needed
func (fp *FileProcessor) WriteFile(filename, content string) error {
	if err := utils.ValidateOutputFile(filename); err != nil {
		return errors.NewIOError("DIRECTORY_CREATE_FAILED",
			fmt.Sprintf("Cannot create directory for: %s", filename), err)
	}

	if err := os.WriteFile(filename, []byte(content), 0o600); err != nil {
		return errors.NewIOError("FILE_WRITE_FAILED",
			fmt.Sprintf("Cannot write file: %s", filename), err)
	}
	return nil
}

// ValidateAndReadJSON validates the input file and returns its content if it
// is syntactically valid JSON
func (fp *FileProcessor) ValidateAndReadJSON(filename string) ([]byte, error) {
	if err := utils.ValidateInputFile(filename); err != nil {
		return nil, errors.NewValidationError("INVALID_INPUT_FILE",
			fmt.Sprintf("Invalid file %s", filename), err)
	}

	if !utils.IsJSONFile(filename) && fp.logger != nil {
		fp.logger.Warn("Input file does not have a .json extension", "filename", filename)
	}

	content, err := fp.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	if !json.Valid(content) {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidFormat,
			fmt.Sprintf("File is not valid JSON: %s", filename), nil)
	}
	return content, nil
}
