package config

import (
	"fmt"
	"log"
	"os"
	"strings"
)

// envName returns the prefixed environment variable for a config key
func envName(key string) string {
	return "JOBCOPILOT_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// applyFallbacks fills values that viper cannot express as defaults
func (c *Config) applyFallbacks() {
	c.applyServerAPIKeyFallbacks()
	c.applyTLSDefaults()
	c.applyObservabilityDefaults()
	c.LLM.BaseURL = strings.TrimRight(c.LLM.BaseURL, "/")
	c.Documents.SignedURLBase = strings.TrimRight(c.Documents.SignedURLBase, "/")
}

// applyServerAPIKeyFallbacks parses a comma-separated key list from the environment
func (c *Config) applyServerAPIKeyFallbacks() {
	c.Server.APIKeys = splitList(strings.Join(c.Server.APIKeys, ","))
	if len(c.Server.APIKeys) == 0 {
		if apiKeysEnv := os.Getenv("JOBCOPILOT_SERVER_APIKEYS"); apiKeysEnv != "" {
			c.Server.APIKeys = splitList(apiKeysEnv)
		}
	}
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// applyTLSDefaults applies default TLS configuration values
func (c *Config) applyTLSDefaults() {
	if c.Server.TLS.Mode == "mutual" && c.Server.TLS.ClientAuthPolicy == "" {
		c.Server.TLS.ClientAuthPolicy = "require"
	}
	if c.Server.TLS.MinVersion == "" && c.Server.TLS.Mode != "disabled" {
		c.Server.TLS.MinVersion = "1.2"
	}
}

// applyObservabilityDefaults applies default observability configuration values
func (c *Config) applyObservabilityDefaults() {
	if c.Observability.ServiceInstance == "" {
		c.Observability.ServiceInstance = generateServiceInstanceID(c.Observability.ServiceName)
	}
	if c.App.LogLevel == "debug" && !c.Observability.ConsoleOutput {
		c.Observability.ConsoleOutput = true
	}
}

// generateServiceInstanceID generates a unique service instance ID
func generateServiceInstanceID(serviceName string) string {
	if hostname, err := os.Hostname(); err == nil {
		return fmt.Sprintf("%s-%s", serviceName, hostname)
	}
	return fmt.Sprintf("%s-1", serviceName)
}

// logConfigurationSources logs a summary of configuration sources being used
func (c *Config) logConfigurationSources(configFileUsed string) {
	log.Println("[CONFIG] === Configuration Sources Summary ===")

	if configFileUsed != "" {
		log.Printf("[CONFIG] Config file: %s", configFileUsed)
	} else {
		log.Println("[CONFIG] Config file: None (using defaults)")
	}

	envVars := []string{
		"JOBCOPILOT_LLM_APIKEY",
		"JOBCOPILOT_LLM_PROVIDER",
		"JOBCOPILOT_LLM_MODEL",
		"JOBCOPILOT_SERVER_PORT",
		"JOBCOPILOT_SERVER_HOST",
		"JOBCOPILOT_APP_LOGLEVEL",
		"JOBCOPILOT_VAULT_ENABLED",
		"OPENAI_API_KEY",
		"OPENAI_BASE_URL",
		"OPENAI_MODEL",
		"SIGNED_URL_BASE",
		"PROFILE_PATH",
	}

	log.Println("[CONFIG] Environment variables:")
	hasEnvVars := false
	for _, envVar := range envVars {
		if value := os.Getenv(envVar); value != "" {
			if strings.Contains(strings.ToLower(envVar), "key") {
				log.Printf("[CONFIG]   %s=***MASKED***", envVar)
			} else {
				log.Printf("[CONFIG]   %s=%s", envVar, value)
			}
			hasEnvVars = true
		}
	}
	if !hasEnvVars {
		log.Println("[CONFIG]   None set")
	}

	log.Println("[CONFIG] === Key Configuration Values ===")
	log.Printf("[CONFIG] LLM Provider: %s", c.LLM.Provider)
	log.Printf("[CONFIG] LLM Model: %s", c.LLM.Model)
	log.Printf("[CONFIG] LLM Base URL: %s", c.LLM.BaseURL)
	if c.LLM.APIKey != "" {
		log.Println("[CONFIG] LLM API Key: ***CONFIGURED***")
	} else {
		log.Println("[CONFIG] LLM API Key: ***NOT SET*** (heuristic answers only)")
	}
	log.Printf("[CONFIG] Profile Path: %s", c.Profile.Path)
	log.Printf("[CONFIG] Events Driver: %s", c.Events.Driver)
	log.Printf("[CONFIG] Signed URL Base: %s", c.Documents.SignedURLBase)
	log.Printf("[CONFIG] Server Host: %s", c.Server.Host)
	log.Printf("[CONFIG] Server Port: %s", c.Server.Port)
	log.Printf("[CONFIG] Log Level: %s", c.App.LogLevel)
	log.Printf("[CONFIG] TLS Mode: %s", c.Server.TLS.Mode)
	log.Printf("[CONFIG] Vault Enabled: %t", c.Vault.Enabled)
	log.Printf("[CONFIG] Observability Enabled: %t", c.Observability.Enabled)
	log.Println("[CONFIG] =====================================")
}
