package cli

import (
	"fmt"

	"jobcopilot/internal/common"
	"jobcopilot/internal/store"

	"github.com/spf13/cobra"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Inspect and validate profile documents",
}

var profileShowCmd = &cobra.Command{
	Use:     "show",
	Short:   "Print the stored profile",
	Args:    cobra.NoArgs,
	PreRunE: preRunOutputFormat(&profileShowConfig),
	RunE:    runProfileShow,
}

var profileValidateCmd = &cobra.Command{
	Use:   "validate [profile-file]",
	Short: "Check a profile document without storing it",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileValidate,
}

var (
	profileShowConfig common.CommandConfig
	profileShowPath   string
)

func init() {
	profileShowCmd.Flags().StringVarP(&profileShowConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	profileShowCmd.Flags().StringVar(&profileShowConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")
	profileShowCmd.Flags().StringVar(&profileShowPath, "profile", "", "Profile document path (default from config)")
	registerFormatCompletion(profileShowCmd)

	profileCmd.AddCommand(profileShowCmd)
	profileCmd.AddCommand(profileValidateCmd)
}

func runProfileShow(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	path := cfg.Profile.Path
	if profileShowPath != "" {
		path = profileShowPath
	}

	profiles, err := loadProfileStore(path, logger)
	if err != nil {
		return err
	}
	return common.NewOutputHandler(logger).WithStdout(cmd.OutOrStdout()).HandleOutput(profiles.Get(), profileShowConfig)
}

func runProfileValidate(cmd *cobra.Command, args []string) error {
	logger := getLoggerFromContext(cmd.Context())

	raw, err := common.NewFileProcessor(logger).ValidateAndReadJSON(args[0])
	if err != nil {
		return err
	}
	profile, err := store.ParseProfile(raw)
	if err != nil {
		return fmt.Errorf("profile %s is invalid: %w", args[0], err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s is valid (%s %s, %d experience, %d education entries)\n",
		args[0], profile.Personal.FirstName, profile.Personal.LastName, len(profile.Experience), len(profile.Education))
	return nil
}
