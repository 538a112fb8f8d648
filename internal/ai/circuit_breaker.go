package ai

import (
	"fmt"

	"jobcopilot/internal/config"
	"jobcopilot/internal/errors"

	"github.com/sony/gobreaker/v2"
)

// LLMCircuitBreaker wraps provider completions with the circuit breaker pattern
type LLMCircuitBreaker struct {
	cb *gobreaker.CircuitBreaker[*Completion]
}

// NewLLMCircuitBreaker creates a circuit breaker for the named provider.
// It returns nil when the breaker is disabled.
func NewLLMCircuitBreaker(providerName string, cfg config.CircuitBreakerConfig, logger *errors.Logger) *LLMCircuitBreaker {
	if !cfg.Enabled {
		return nil
	}

	settings := gobreaker.Settings{
		Name:        fmt.Sprintf("LLM-%s", providerName),
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= cfg.MinRequests &&
				failureRatio >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			if logger == nil {
				return
			}
			logger.Info("Circuit breaker state changed",
				"name", name,
				"from", from.String(),
				"to", to.String(),
				"max_requests", cfg.MaxRequests,
				"failure_threshold", cfg.FailureThreshold)
		},
	}

	return &LLMCircuitBreaker{
		cb: gobreaker.NewCircuitBreaker[*Completion](settings),
	}
}

// Execute executes the provided function with circuit breaker protection
func (cb *LLMCircuitBreaker) Execute(fn func() (*Completion, error)) (*Completion, error) {
	if cb == nil || cb.cb == nil {
		return fn()
	}
	return cb.cb.Execute(fn)
}

// GetStats returns circuit breaker statistics
func (cb *LLMCircuitBreaker) GetStats() map[string]any {
	if cb == nil || cb.cb == nil {
		return map[string]any{
			"enabled": false,
		}
	}

	return map[string]any{
		"name":    cb.cb.Name(),
		"state":   cb.cb.State().String(),
		"counts":  cb.cb.Counts(),
		"enabled": true,
	}
}

// IsHealthy returns true if the circuit breaker is in closed state
func (cb *LLMCircuitBreaker) IsHealthy() bool {
	if cb == nil || cb.cb == nil {
		return true
	}
	return cb.cb.State() == gobreaker.StateClosed
}
