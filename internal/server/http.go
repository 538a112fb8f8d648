// Package server exposes the job copilot HTTP API.
package server

import (
	"time"

	"jobcopilot/internal/answer"
	"jobcopilot/internal/auth"
	"jobcopilot/internal/config"
	"jobcopilot/internal/documents"
	"jobcopilot/internal/errors"
	"jobcopilot/internal/observability"
	"jobcopilot/internal/store"

	"github.com/go-playground/validator/v10"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// LLMInfo is what /stats reports about the LLM client
type LLMInfo interface {
	Available() bool
	ProviderName() string
	Model() string
	BreakerStats() map[string]any
}

// Deps are the domain components the handlers work on
type Deps struct {
	Profiles *store.ProfileStore
	Events   store.EventStore
	Answers  *answer.Service
	LLM      LLMInfo
	Signer   documents.Signer
	Tokens   *auth.TokenIssuer
}

// Server holds configuration for the HTTP server
type Server struct {
	Host    string
	Port    string
	Version string

	// Full application configuration
	AppConfig *config.Config

	TLSConfig config.TLSConfig

	// API Authentication
	APIKeys map[string]bool

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	MaxRequestSize int64

	RateLimit   *config.RateLimitConfig
	RateLimiter *RateLimiter

	profiles *store.ProfileStore
	events   store.EventStore
	answers  *answer.Service
	llm      LLMInfo
	signer   documents.Signer
	tokens   *auth.TokenIssuer
	validate *validator.Validate

	obs     *observability.ObservabilityManager
	watcher *store.ProfileWatcher

	Logger *errors.Logger
}

// ServerConfig holds configuration for creating a Server instance
type ServerConfig struct {
	Host           string
	Port           string
	Version        string
	TLSConfig      config.TLSConfig
	APIKeys        []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxRequestSize int64
	RateLimit      *config.RateLimitConfig
}

// ConfigFrom builds a ServerConfig from the application configuration
func ConfigFrom(appCfg *config.Config, version string) ServerConfig {
	return ServerConfig{
		Host:           appCfg.Server.Host,
		Port:           appCfg.Server.Port,
		Version:        version,
		TLSConfig:      appCfg.Server.TLS,
		APIKeys:        appCfg.Server.APIKeys,
		ReadTimeout:    appCfg.Server.ReadTimeout,
		WriteTimeout:   appCfg.Server.WriteTimeout,
		IdleTimeout:    appCfg.Server.IdleTimeout,
		MaxRequestSize: appCfg.App.MaxRequestSize,
		RateLimit:      &appCfg.Server.RateLimit,
	}
}

// NewServer creates a new Server instance
func NewServer(appCfg *config.Config, cfg ServerConfig, deps Deps, logger *errors.Logger) *Server {
	apiKeyMap := make(map[string]bool)
	for _, key := range cfg.APIKeys {
		if key != "" {
			apiKeyMap[key] = true
		}
	}

	var rateLimiter *RateLimiter
	if cfg.RateLimit != nil && cfg.RateLimit.Enabled {
		rateLimiter = NewRateLimiter(cfg.RateLimit.RequestsPerMin, cfg.RateLimit.BurstCapacity, logger)
	}

	tokens := deps.Tokens
	if tokens == nil {
		tokens = auth.NewTokenIssuer(config.AuthConfig{})
	}
	signer := deps.Signer
	if signer == nil {
		signer = &documents.PlaceholderSigner{Base: appCfg.Documents.SignedURLBase}
	}

	return &Server{
		Host:           cfg.Host,
		Port:           cfg.Port,
		Version:        cfg.Version,
		AppConfig:      appCfg,
		TLSConfig:      cfg.TLSConfig,
		APIKeys:        apiKeyMap,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxRequestSize: cfg.MaxRequestSize,
		RateLimit:      cfg.RateLimit,
		RateLimiter:    rateLimiter,
		profiles:       deps.Profiles,
		events:         deps.Events,
		answers:        deps.Answers,
		llm:            deps.LLM,
		signer:         signer,
		tokens:         tokens,
		validate:       validator.New(validator.WithRequiredStructEnabled()),
		Logger:         logger,
	}
}

// obsManager returns the manager set up by Start, or a disabled one
func (s *Server) obsManager() *observability.ObservabilityManager {
	if s.obs == nil {
		om, err := observability.NewObservabilityManager(observability.ObservabilityConfig{ServiceName: "jobcopilot"}, nil)
		if err != nil {
			s.Logger.LogError(err, "Failed to create disabled observability manager")
		}
		s.obs = om
	}
	return s.obs
}
