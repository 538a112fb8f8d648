package config

import (
	"fmt"
	"log"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
// Precedence order, highest first:
// 1. Vault (if configured)
// 2. Environment variables (JOBCOPILOT_*, plus OPENAI_* and the legacy deployment names)
// 3. Config file values
// 4. Default values
type Config struct {
	LLM           LLMConfig           `mapstructure:"llm"`
	Profile       ProfileConfig       `mapstructure:"profile"`
	Events        EventsConfig        `mapstructure:"events"`
	Documents     DocumentsConfig     `mapstructure:"documents"`
	Auth          AuthConfig          `mapstructure:"auth"`
	Server        ServerConfig        `mapstructure:"server"`
	App           AppConfig           `mapstructure:"app"`
	Vault         VaultConfig         `mapstructure:"vault"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// LLMConfig holds the external chat-completion client configuration.
// An empty APIKey disables the LLM path entirely.
type LLMConfig struct {
	Provider         string               `mapstructure:"provider"` // openai or gemini
	Model            string               `mapstructure:"model"`
	BaseURL          string               `mapstructure:"baseURL"`
	APIKey           string               `mapstructure:"apiKey"`
	Timeout          time.Duration        `mapstructure:"timeout"`
	MaxDescription   int                  `mapstructure:"maxDescriptionChars"`
	MaxErrorBody     int                  `mapstructure:"maxErrorBodyChars"`
	SystemPrompt     string               `mapstructure:"systemPrompt"`
	SystemPromptFile string               `mapstructure:"systemPromptFile"`
	CircuitBreaker   CircuitBreakerConfig `mapstructure:"circuitBreaker"`
}

// CircuitBreakerConfig represents circuit breaker configuration
type CircuitBreakerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`          // Whether circuit breaker is enabled
	MaxRequests      uint32        `mapstructure:"maxRequests"`      // Max requests allowed when half-open
	Interval         time.Duration `mapstructure:"interval"`         // Interval to clear counts
	Timeout          time.Duration `mapstructure:"timeout"`          // Timeout for half-open to open
	MinRequests      uint32        `mapstructure:"minRequests"`      // Minimum requests before tripping
	FailureThreshold float64       `mapstructure:"failureThreshold"` // Failure ratio threshold (0.0-1.0)
}

// ProfileConfig locates the profile document
type ProfileConfig struct {
	Path          string        `mapstructure:"path"`
	Watch         bool          `mapstructure:"watch"`
	WatchDebounce time.Duration `mapstructure:"watchDebounce"`
}

// EventsConfig selects the event store backend
type EventsConfig struct {
	Driver string `mapstructure:"driver"` // memory or sqlite
	Path   string `mapstructure:"path"`   // sqlite database file
}

// DocumentsConfig controls resume upload URLs
type DocumentsConfig struct {
	SignedURLBase string    `mapstructure:"signedUrlBase"`
	GCS           GCSConfig `mapstructure:"gcs"`
}

// GCSConfig enables real V4 signed upload URLs when Bucket is set
type GCSConfig struct {
	Bucket         string        `mapstructure:"bucket"`
	GoogleAccessID string        `mapstructure:"googleAccessId"`
	PrivateKey     string        `mapstructure:"privateKey"`
	PrivateKeyFile string        `mapstructure:"privateKeyFile"`
	Expiry         time.Duration `mapstructure:"expiry"`
}

// AuthConfig controls login tokens. Without a JWT secret the login stub
// returns a fixed development token.
type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwtSecret"`
	Issuer    string        `mapstructure:"issuer"`
	TokenTTL  time.Duration `mapstructure:"tokenTTL"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"readTimeout"`
	WriteTimeout time.Duration `mapstructure:"writeTimeout"`
	IdleTimeout  time.Duration `mapstructure:"idleTimeout"`

	TLS TLSConfig `mapstructure:"tls"`

	// API Authentication
	APIKeys []string `mapstructure:"apiKeys"`

	RateLimit RateLimitConfig `mapstructure:"rateLimit"`
}

// TLSConfig holds TLS/mTLS configuration
type TLSConfig struct {
	Mode     string `mapstructure:"mode"` // disabled, server, mutual
	CertFile string `mapstructure:"certFile"`
	KeyFile  string `mapstructure:"keyFile"`
	CAFile   string `mapstructure:"caFile"`

	// PEM content, used when loaded from Vault instead of files
	CertContent string `mapstructure:"certContent"`
	KeyContent  string `mapstructure:"keyContent"`
	CAContent   string `mapstructure:"caContent"`

	MinVersion       string `mapstructure:"minVersion"`       // "1.2" or "1.3"
	ClientAuthPolicy string `mapstructure:"clientAuthPolicy"` // require, request, verify
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	RequestsPerMin int           `mapstructure:"requestsPerMin"`
	BurstCapacity  int           `mapstructure:"burstCapacity"`
	ByIP           bool          `mapstructure:"byIP"`
	ByAPIKey       bool          `mapstructure:"byAPIKey"`
	Window         time.Duration `mapstructure:"window"`
}

// AppConfig holds general application configuration
type AppConfig struct {
	LogLevel         string   `mapstructure:"logLevel"`
	DefaultFormat    string   `mapstructure:"defaultFormat"`
	SupportedFormats []string `mapstructure:"supportedFormats"`
	MaxRequestSize   int64    `mapstructure:"maxRequestSize"`
}

// ObservabilityConfig holds observability configuration
type ObservabilityConfig struct {
	Enabled         bool             `mapstructure:"enabled"`
	ServiceName     string           `mapstructure:"serviceName"`
	ServiceVersion  string           `mapstructure:"serviceVersion"`
	ServiceInstance string           `mapstructure:"serviceInstance"`
	ConsoleOutput   bool             `mapstructure:"consoleOutput"`
	SampleRate      float64          `mapstructure:"sampleRate"`
	Tracing         TracingConfig    `mapstructure:"tracing"`
	Metrics         MetricsConfig    `mapstructure:"metrics"`
	Console         ConsoleConfig    `mapstructure:"console"`
	Prometheus      PrometheusConfig `mapstructure:"prometheus"`
	OTLP            OTLPConfig       `mapstructure:"otlp"`
}

// TracingConfig holds tracing configuration
type TracingConfig struct {
	Enabled    bool    `mapstructure:"enabled"`
	SampleRate float64 `mapstructure:"sampleRate"`
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Enabled            bool          `mapstructure:"enabled"`
	CollectionInterval time.Duration `mapstructure:"collectionInterval"`
	TrackTokenUsage    bool          `mapstructure:"trackTokenUsage"`
	TrackRateLimits    bool          `mapstructure:"trackRateLimits"`
}

// ConsoleConfig holds console output configuration
type ConsoleConfig struct {
	Enabled     bool `mapstructure:"enabled"`
	PrettyPrint bool `mapstructure:"prettyPrint"`
}

// PrometheusConfig holds Prometheus configuration
type PrometheusConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
}

// OTLPConfig holds OTLP exporter configuration
type OTLPConfig struct {
	Enabled  bool              `mapstructure:"enabled"`
	Endpoint string            `mapstructure:"endpoint"`
	Insecure bool              `mapstructure:"insecure"`
	Headers  map[string]string `mapstructure:"headers"`
}

// LoadConfig loads configuration from defaults, a config file and the
// environment.
func LoadConfig() (*Config, error) {
	log.Println("[CONFIG] Starting configuration loading process")

	v := viper.New()

	setDefaults(v)
	log.Println("[CONFIG] Applied default configuration values")

	v.SetEnvPrefix("JOBCOPILOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := bindPlainEnv(v); err != nil {
		return nil, fmt.Errorf("failed to bind environment variables: %w", err)
	}
	log.Println("[CONFIG] Configured environment variable handling with prefix 'JOBCOPILOT'")

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/jobcopilot/")
	v.AddConfigPath("$HOME/.jobcopilot")
	v.AddConfigPath(".")

	configFileUsed := ""
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		log.Println("[CONFIG] No config file found, using defaults and environment variables")
	} else {
		configFileUsed = v.ConfigFileUsed()
		log.Printf("[CONFIG] Successfully loaded config file: %s", configFileUsed)
	}

	return finishLoad(v, configFileUsed)
}

// LoadConfigFrom loads configuration from an explicit file path. Used by
// tests and the --config flag.
func LoadConfigFrom(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("JOBCOPILOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := bindPlainEnv(v); err != nil {
		return nil, fmt.Errorf("failed to bind environment variables: %w", err)
	}

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	log.Printf("[CONFIG] Successfully loaded config file: %s", path)

	return finishLoad(v, path)
}

func finishLoad(v *viper.Viper, configFileUsed string) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.applyFallbacks()
	config.logConfigurationSources(configFileUsed)

	if err := config.loadSystemPromptFile(); err != nil {
		return nil, fmt.Errorf("failed to load system prompt: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log.Println("[CONFIG] Configuration loading completed successfully")
	return &config, nil
}

// Validate checks if the configuration is valid. A missing LLM key is not an
// error; it selects heuristic-only answering.
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case "openai", "gemini":
	default:
		return fmt.Errorf("invalid LLM provider: %s (must be 'openai' or 'gemini')", c.LLM.Provider)
	}

	if c.LLM.Timeout <= 0 {
		return fmt.Errorf("LLM timeout must be positive")
	}
	if c.LLM.MaxDescription <= 0 || c.LLM.MaxDescription > DefaultMaxDescription {
		return fmt.Errorf("llm.maxDescriptionChars must be between 1 and %d", DefaultMaxDescription)
	}
	if c.LLM.MaxErrorBody <= 0 || c.LLM.MaxErrorBody > DefaultMaxErrorBody {
		return fmt.Errorf("llm.maxErrorBodyChars must be between 1 and %d", DefaultMaxErrorBody)
	}

	if c.Profile.Path == "" {
		return fmt.Errorf("profile path is required")
	}

	switch c.Events.Driver {
	case "memory":
	case "sqlite":
		if c.Events.Path == "" {
			return fmt.Errorf("events.path is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("invalid events driver: %s (must be 'memory' or 'sqlite')", c.Events.Driver)
	}

	if c.Documents.GCS.Bucket != "" && c.Documents.GCS.GoogleAccessID == "" {
		return fmt.Errorf("documents.gcs.googleAccessId is required when a bucket is set")
	}

	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}

	if !slices.Contains(c.App.SupportedFormats, c.App.DefaultFormat) {
		return fmt.Errorf("invalid default format: %s", c.App.DefaultFormat)
	}

	if err := c.ValidateTLSConfig(); err != nil {
		return fmt.Errorf("TLS configuration error: %w", err)
	}

	return nil
}

// LLMAvailable reports whether an LLM credential is configured
func (c *Config) LLMAvailable() bool {
	return c.LLM.APIKey != ""
}
