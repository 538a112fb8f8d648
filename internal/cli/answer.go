package cli

import (
	"context"
	"fmt"

	"jobcopilot/internal/common"
	"jobcopilot/internal/errors"
	"jobcopilot/internal/store"
	"jobcopilot/internal/types"

	"github.com/spf13/cobra"
)

var answerCmd = &cobra.Command{
	Use:   "answer [request-file]",
	Short: "Answer application form fields from a request document",
	Long: `Answer the form fields described in a JSON request document, exactly like
POST /ai/answer-fields does. The request may carry its own "profile";
otherwise the stored profile is used.`,
	Args:    cobra.ExactArgs(1),
	PreRunE: preRunOutputFormat(&answerConfig),
	RunE:    runAnswer,
}

var (
	answerConfig      common.CommandConfig
	answerProfilePath string
)

func init() {
	answerCmd.Flags().StringVarP(&answerConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	answerCmd.Flags().StringVar(&answerConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")
	answerCmd.Flags().StringVar(&answerProfilePath, "profile", "", "Profile document path (default from config)")
	registerFormatCompletion(answerCmd)
}

func runAnswer(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	service, client, err := newAnswerService(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	profilePath := cfg.Profile.Path
	if answerProfilePath != "" {
		profilePath = answerProfilePath
	}

	err = common.RunJSONCommand(cmd.Context(), logger, answerConfig, args[0],
		func(ctx context.Context, req types.AnswerRequest) (types.AnswerResponse, error) {
			if id, dup := req.DuplicateFieldID(); dup {
				return types.AnswerResponse{}, errors.NewValidationError(errors.ErrCodeInvalidRequest,
					fmt.Sprintf("duplicate field_id %q", id), nil)
			}

			profile, err := resolveProfile(req, profilePath, logger)
			if err != nil {
				return types.AnswerResponse{}, err
			}

			logger.Info("Answering form fields",
				"fields", len(req.Fields),
				"site", req.Site,
				"llm_available", service.LLMAvailable(),
				"output_format", answerConfig.OutputFormat)

			outcome := service.Answer(ctx, req, profile)
			if outcome.Usage != nil {
				logger.Info("LLM token usage",
					"input_tokens", outcome.Usage.InputTokens,
					"output_tokens", outcome.Usage.OutputTokens,
					"total_tokens", outcome.Usage.TotalTokens)
			}
			return outcome.Response, nil
		})
	if err != nil {
		return fmt.Errorf("failed to answer fields: %w", err)
	}
	return nil
}

// resolveProfile prefers the request's own profile over the stored one
func resolveProfile(req types.AnswerRequest, path string, logger *errors.Logger) (types.Profile, error) {
	override, err := store.RequestProfile(req)
	if err != nil {
		return types.Profile{}, err
	}
	if override != nil {
		return *override, nil
	}

	profiles := store.NewProfileStore(path, logger)
	if err := profiles.Load(); err != nil {
		return types.Profile{}, err
	}
	return profiles.Get(), nil
}
