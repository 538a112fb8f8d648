package common

import (
	"context"
	"encoding/json"
	"fmt"

	"jobcopilot/internal/errors"
)

// CommandConfig holds the output options shared by commands
type CommandConfig struct {
	OutputFile   string
	OutputFormat string
}

// OperationFunc turns a decoded input document into a result
type OperationFunc[Input, Output any] func(context.Context, Input) (Output, error)

// RunJSONCommand reads a JSON document from inputFile, decodes it into Input,
// runs op and writes the formatted result.
func RunJSONCommand[Input, Output any](
	ctx context.Context,
	logger *errors.Logger,
	cmdConfig CommandConfig,
	inputFile string,
	op OperationFunc[Input, Output],
) error {
	fileProcessor := NewFileProcessor(logger)

	raw, err := fileProcessor.ValidateAndReadJSON(inputFile)
	if err != nil {
		return err
	}

	var input Input
	if err := json.Unmarshal(raw, &input); err != nil {
		return errors.NewValidationError(errors.ErrCodeInvalidFormat,
			fmt.Sprintf("Invalid JSON in %s", inputFile), err)
	}

	result, err := op(ctx, input)
	if err != nil {
		return err
	}

	return NewOutputHandler(logger).HandleOutput(result, cmdConfig)
}
