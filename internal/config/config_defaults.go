package config

import (
	"time"

	"github.com/spf13/viper"
)

// Documented defaults shared with the rest of the module
const (
	DefaultLLMBaseURL     = "https://api.openai.com/v1"
	DefaultLLMModel       = "gpt-4o-mini"
	DefaultSignedURLBase  = "https://s3.local.example/resumes"
	DefaultProfilePath    = "profile.json"
	DefaultMaxDescription = 12000
	DefaultMaxErrorBody   = 500
)

// plainEnv maps environment variable names that carry no JOBCOPILOT prefix
var plainEnv = map[string]string{
	"llm.apiKey":              "OPENAI_API_KEY",
	"llm.baseURL":             "OPENAI_BASE_URL",
	"llm.model":               "OPENAI_MODEL",
	"documents.signedUrlBase": "SIGNED_URL_BASE",
	"profile.path":            "PROFILE_PATH",
}

// bindPlainEnv binds each key to both its prefixed and its plain name. The
// prefixed name is listed first and wins when both are set.
func bindPlainEnv(v *viper.Viper) error {
	for key, env := range plainEnv {
		if err := v.BindEnv(key, envName(key), env); err != nil {
			return err
		}
	}
	return nil
}

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// LLM
	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.model", DefaultLLMModel)
	v.SetDefault("llm.baseURL", DefaultLLMBaseURL)
	v.SetDefault("llm.apiKey", "")
	v.SetDefault("llm.timeout", 60*time.Second)
	v.SetDefault("llm.maxDescriptionChars", DefaultMaxDescription)
	v.SetDefault("llm.maxErrorBodyChars", DefaultMaxErrorBody)
	v.SetDefault("llm.systemPrompt", "")
	v.SetDefault("llm.systemPromptFile", "")

	v.SetDefault("llm.circuitBreaker.enabled", true)
	v.SetDefault("llm.circuitBreaker.maxRequests", 3)
	v.SetDefault("llm.circuitBreaker.interval", 60*time.Second)
	v.SetDefault("llm.circuitBreaker.timeout", 60*time.Second)
	v.SetDefault("llm.circuitBreaker.minRequests", 3)
	v.SetDefault("llm.circuitBreaker.failureThreshold", 0.6)

	// Profile and events
	v.SetDefault("profile.path", DefaultProfilePath)
	v.SetDefault("profile.watch", false)
	v.SetDefault("profile.watchDebounce", time.Second)
	v.SetDefault("events.driver", "memory")
	v.SetDefault("events.path", "events.db")

	// Documents
	v.SetDefault("documents.signedUrlBase", DefaultSignedURLBase)
	v.SetDefault("documents.gcs.bucket", "")
	v.SetDefault("documents.gcs.googleAccessId", "")
	v.SetDefault("documents.gcs.privateKey", "")
	v.SetDefault("documents.gcs.privateKeyFile", "")
	v.SetDefault("documents.gcs.expiry", 15*time.Minute)

	// Auth
	v.SetDefault("auth.jwtSecret", "")
	v.SetDefault("auth.issuer", "jobcopilot")
	v.SetDefault("auth.tokenTTL", 24*time.Hour)

	// Server
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", "8000")
	v.SetDefault("server.readTimeout", 30*time.Second)
	v.SetDefault("server.writeTimeout", 90*time.Second) // covers the LLM timeout
	v.SetDefault("server.idleTimeout", 120*time.Second)
	v.SetDefault("server.tls.mode", "disabled")
	v.SetDefault("server.tls.certFile", "")
	v.SetDefault("server.tls.keyFile", "")
	v.SetDefault("server.tls.caFile", "")
	v.SetDefault("server.tls.minVersion", "1.2")
	v.SetDefault("server.tls.clientAuthPolicy", "require")
	v.SetDefault("server.apiKeys", []string{})
	v.SetDefault("server.rateLimit.enabled", false)
	v.SetDefault("server.rateLimit.requestsPerMin", 60)
	v.SetDefault("server.rateLimit.burstCapacity", 10)
	v.SetDefault("server.rateLimit.byIP", true)
	v.SetDefault("server.rateLimit.byAPIKey", false)
	v.SetDefault("server.rateLimit.window", time.Minute)

	// App
	v.SetDefault("app.logLevel", "info")
	v.SetDefault("app.defaultFormat", "json")
	v.SetDefault("app.supportedFormats", []string{"json", "text", "markdown"})
	v.SetDefault("app.maxRequestSize", 2*1024*1024) // 2MB

	// Vault
	v.SetDefault("vault.enabled", false)
	v.SetDefault("vault.address", "")
	v.SetDefault("vault.token", "")
	v.SetDefault("vault.tokenFile", "")
	v.SetDefault("vault.namespace", "")
	v.SetDefault("vault.secrets.llmKey", "")
	v.SetDefault("vault.secrets.apiKeys", "")
	v.SetDefault("vault.secrets.jwtSecret", "")
	v.SetDefault("vault.secrets.tlsCerts", "")

	// Observability
	v.SetDefault("observability.enabled", true)
	v.SetDefault("observability.serviceName", "jobcopilot")
	v.SetDefault("observability.serviceVersion", "")
	v.SetDefault("observability.serviceInstance", "")
	v.SetDefault("observability.consoleOutput", false)
	v.SetDefault("observability.sampleRate", 1.0)
	v.SetDefault("observability.tracing.enabled", true)
	v.SetDefault("observability.tracing.sampleRate", 1.0)
	v.SetDefault("observability.metrics.enabled", true)
	v.SetDefault("observability.metrics.collectionInterval", 15*time.Second)
	v.SetDefault("observability.metrics.trackTokenUsage", true)
	v.SetDefault("observability.metrics.trackRateLimits", true)
	v.SetDefault("observability.console.enabled", false)
	v.SetDefault("observability.console.prettyPrint", true)
	v.SetDefault("observability.prometheus.enabled", true)
	v.SetDefault("observability.prometheus.endpoint", "/metrics")
	v.SetDefault("observability.otlp.enabled", false)
	v.SetDefault("observability.otlp.endpoint", "http://localhost:4318")
	v.SetDefault("observability.otlp.insecure", true)
	v.SetDefault("observability.otlp.headers", map[string]string{})
}
