package cli

import (
	"fmt"

	"jobcopilot/internal/config"
	"jobcopilot/internal/server"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the HTTP API used by the browser extension.

Endpoints:
- GET /health, GET /stats
- POST /auth/login
- GET|PUT /profile
- POST /documents/resume
- POST /events/audit
- GET|POST /jobs/save, GET|POST /jobs/applied
- POST /ai/answer-fields

The profile document must exist and be valid, otherwise the server refuses
to start.

TLS:
- --tls-mode disabled, server or mutual
- --cert-file and --key-file for the server certificate
- --ca-file for client certificate verification in mutual mode`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringP("port", "p", "", "Port to listen on (default from config)")
	serveCmd.Flags().String("host", "", "Host to bind to (default from config)")
	serveCmd.Flags().String("profile", "", "Profile document path (default from config)")
	serveCmd.Flags().String("tls-mode", "", "TLS mode: disabled, server, mutual (overrides config)")
	serveCmd.Flags().String("cert-file", "", "Server certificate file (PEM, overrides config)")
	serveCmd.Flags().String("key-file", "", "Server private key file (PEM, overrides config)")
	serveCmd.Flags().String("ca-file", "", "CA certificate file for client cert verification (PEM, overrides config)")
}

// applyServeFlags copies explicitly set flags over the loaded configuration
func applyServeFlags(cmd *cobra.Command, cfg *config.Config) {
	overrides := map[string]*string{
		"port":      &cfg.Server.Port,
		"host":      &cfg.Server.Host,
		"profile":   &cfg.Profile.Path,
		"tls-mode":  &cfg.Server.TLS.Mode,
		"cert-file": &cfg.Server.TLS.CertFile,
		"key-file":  &cfg.Server.TLS.KeyFile,
		"ca-file":   &cfg.Server.TLS.CAFile,
	}
	for name, target := range overrides {
		if cmd.Flags().Changed(name) {
			*target, _ = cmd.Flags().GetString(name)
		}
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	applyServeFlags(cmd, cfg)
	if err := cfg.ValidateTLSConfig(); err != nil {
		return fmt.Errorf("invalid TLS configuration: %w", err)
	}

	deps, cleanup, err := buildServerDeps(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	return server.NewServer(cfg, server.ConfigFrom(cfg, Version), deps, logger).Start()
}
