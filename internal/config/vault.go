package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"jobcopilot/internal/errors"

	"github.com/hashicorp/vault/api"
)

// VaultConfig holds Vault connection configuration
type VaultConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Address   string `mapstructure:"address"`
	Token     string `mapstructure:"token"`
	TokenFile string `mapstructure:"tokenFile"`
	Namespace string `mapstructure:"namespace"`

	Secrets VaultSecrets `mapstructure:"secrets"`
}

// VaultSecrets holds KVv2 paths for each secret. Empty paths are skipped.
type VaultSecrets struct {
	LLMKey    string `mapstructure:"llmKey"`    // key "api_key"
	APIKeys   string `mapstructure:"apiKeys"`   // key "keys", comma-separated
	JWTSecret string `mapstructure:"jwtSecret"` // key "secret"
	TLSCerts  string `mapstructure:"tlsCerts"`  // keys "cert", "key", "ca" (PEM content)
}

// VaultClient wraps the Vault API client
type VaultClient struct {
	client *api.Client
	config VaultConfig
	logger *errors.Logger
}

// NewVaultClient creates a new Vault client from configuration. It returns
// nil when Vault is disabled.
func NewVaultClient(config VaultConfig, logger *errors.Logger) (*VaultClient, error) {
	if !config.Enabled {
		return nil, nil
	}

	vaultConfig := api.DefaultConfig()
	if config.Address != "" {
		vaultConfig.Address = config.Address
	}
	client, err := api.NewClient(vaultConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}
	if config.Namespace != "" {
		client.SetNamespace(config.Namespace)
	}

	token, err := resolveVaultToken(config)
	if err != nil {
		return nil, err
	}
	client.SetToken(token)

	health, err := client.Sys().Health()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to vault: %w", err)
	}
	if logger != nil {
		logger.Info("Successfully connected to Vault",
			"address", vaultConfig.Address,
			"version", health.Version,
			"sealed", health.Sealed)
	}

	return &VaultClient{client: client, config: config, logger: logger}, nil
}

// resolveVaultToken resolves the Vault token from config or file
func resolveVaultToken(config VaultConfig) (string, error) {
	token := config.Token
	if token == "" && config.TokenFile != "" {
		tokenBytes, err := os.ReadFile(config.TokenFile)
		if err != nil {
			return "", fmt.Errorf("failed to read vault token file: %w", err)
		}
		token = strings.TrimSpace(string(tokenBytes))
	}
	if token == "" {
		return "", fmt.Errorf("vault token is required when vault is enabled")
	}
	return token, nil
}

// VaultSecret represents a secret read from Vault's KVv2 engine.
type VaultSecret struct {
	Data    map[string]any
	Version int64
}

// GetSecretV2 retrieves a secret from a Vault KVv2 store.
func (vc *VaultClient) GetSecretV2(path string) (*VaultSecret, error) {
	if vc == nil {
		return nil, fmt.Errorf("vault client not initialized")
	}

	secret, err := vc.client.Logical().Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read secret from %s: %w", path, err)
	}
	if secret == nil || secret.Data == nil {
		return nil, fmt.Errorf("secret not found at path: %s", path)
	}
	return parseKVv2(secret, path)
}

// parseKVv2 extracts the data and version fields of a KVv2 read
func parseKVv2(secret *api.Secret, path string) (*VaultSecret, error) {
	data, ok := secret.Data["data"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("secret at %s is not in KVv2 format (missing 'data' field)", path)
	}

	metadata, ok := secret.Data["metadata"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("secret at %s is not in KVv2 format (missing 'metadata' field)", path)
	}
	versionRaw, ok := metadata["version"]
	if !ok {
		return nil, fmt.Errorf("secret metadata at %s is missing 'version' field", path)
	}
	version, err := parseVersionValue(versionRaw, path)
	if err != nil {
		return nil, err
	}

	return &VaultSecret{Data: data, Version: version}, nil
}

// parseVersionValue parses version value from the types Vault returns
func parseVersionValue(versionRaw any, path string) (int64, error) {
	switch v := versionRaw.(type) {
	case int64:
		return v, nil
	case float64:
		return int64(v), nil
	case string:
		version, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("could not parse secret version at %s: %w", path, err)
		}
		return version, nil
	default:
		return 0, fmt.Errorf("unexpected type for version at %s: %T", path, versionRaw)
	}
}

// String returns a string field of the secret
func (s *VaultSecret) String(key string) (string, error) {
	value, ok := s.Data[key]
	if !ok {
		return "", fmt.Errorf("key '%s' not found in secret", key)
	}
	str, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("value for key '%s' is not a string", key)
	}
	return str, nil
}

// secretBinding applies one Vault secret to the configuration
type secretBinding struct {
	name  string
	path  func(VaultSecrets) string
	apply func(*Config, *VaultSecret) (int, error)
}

func stringBinding(key string, target func(*Config) *string) func(*Config, *VaultSecret) (int, error) {
	return func(c *Config, s *VaultSecret) (int, error) {
		value, err := s.String(key)
		if err != nil {
			return 0, err
		}
		if value == "" {
			return 0, nil
		}
		*target(c) = value
		return 1, nil
	}
}

var secretBindings = []secretBinding{
	{
		name:  "LLM API key",
		path:  func(s VaultSecrets) string { return s.LLMKey },
		apply: stringBinding("api_key", func(c *Config) *string { return &c.LLM.APIKey }),
	},
	{
		name: "server API keys",
		path: func(s VaultSecrets) string { return s.APIKeys },
		apply: func(c *Config, s *VaultSecret) (int, error) {
			raw, err := s.String("keys")
			if err != nil {
				return 0, err
			}
			keys := splitList(raw)
			if len(keys) > 0 {
				c.Server.APIKeys = keys
			}
			return len(keys), nil
		},
	},
	{
		name:  "JWT secret",
		path:  func(s VaultSecrets) string { return s.JWTSecret },
		apply: stringBinding("secret", func(c *Config) *string { return &c.Auth.JWTSecret }),
	},
	{
		name:  "TLS certificates",
		path:  func(s VaultSecrets) string { return s.TLSCerts },
		apply: applyTLSSecret,
	},
}

// applyTLSSecret copies PEM content from the secret. File-path fields are
// rejected so certificates never point at files on the Vault host.
func applyTLSSecret(c *Config, s *VaultSecret) (int, error) {
	for _, field := range []string{"cert_file", "key_file", "ca_file"} {
		if _, ok := s.Data[field]; ok {
			return 0, fmt.Errorf("'%s' field is not supported in Vault; store PEM content in '%s' instead",
				field, strings.TrimSuffix(field, "_file"))
		}
	}

	targets := map[string]*string{
		"cert": &c.Server.TLS.CertContent,
		"key":  &c.Server.TLS.KeyContent,
		"ca":   &c.Server.TLS.CAContent,
	}
	count := 0
	for key, target := range targets {
		if content, ok := s.Data[key].(string); ok && content != "" {
			*target = content
			count++
		}
	}
	return count, nil
}

// SecretReader reads KVv2 secrets. VaultClient implements it.
type SecretReader interface {
	GetSecretV2(path string) (*VaultSecret, error)
}

// ApplyVaultSecrets loads secrets from Vault and applies them to the config
func ApplyVaultSecrets(config *Config, logger *errors.Logger) error {
	if !config.Vault.Enabled {
		if logger != nil {
			logger.Debug("Vault integration disabled, skipping secret loading")
		}
		return nil
	}

	client, err := NewVaultClient(config.Vault, logger)
	if err != nil {
		if logger != nil {
			logger.LogError(err, "Failed to initialize Vault client")
		}
		return fmt.Errorf("failed to initialize vault client: %w", err)
	}

	return applySecrets(client, config, logger)
}

// applySecrets runs every binding whose path is configured
func applySecrets(reader SecretReader, config *Config, logger *errors.Logger) error {
	for _, b := range secretBindings {
		path := b.path(config.Vault.Secrets)
		if path == "" {
			continue
		}

		secret, err := reader.GetSecretV2(path)
		if err != nil {
			return fmt.Errorf("failed to load %s from vault: %w", b.name, err)
		}
		count, err := b.apply(config, secret)
		if err != nil {
			return fmt.Errorf("failed to apply %s from vault: %w", b.name, err)
		}

		if logger != nil {
			if count == 0 {
				logger.Warn("Empty secret found in Vault", "secret", b.name, "path", path)
			} else {
				logger.Info("Secret loaded from Vault", "secret", b.name, "path", path, "values", count, "version", secret.Version)
			}
		}
	}
	return nil
}
