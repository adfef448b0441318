package resilience

import "time"

// Config configures retries, the circuit breaker and the rate limit of an
// Executor. Zero values fall back to DefaultConfig.
type Config struct {
	RetryMaxAttempts    int           `json:"retry_max_attempts" yaml:"retry_max_attempts"`
	RetryInitialBackoff time.Duration `json:"retry_initial_backoff" yaml:"retry_initial_backoff"`
	RetryMaxBackoff     time.Duration `json:"retry_max_backoff" yaml:"retry_max_backoff"`
	RetryMultiplier     float64       `json:"retry_multiplier" yaml:"retry_multiplier"`

	BreakerEnabled          bool          `json:"breaker_enabled" yaml:"breaker_enabled"`
	BreakerMinRequests      uint32        `json:"breaker_min_requests" yaml:"breaker_min_requests"`
	BreakerFailureRatio     float64       `json:"breaker_failure_ratio" yaml:"breaker_failure_ratio"`
	BreakerOpenTimeout      time.Duration `json:"breaker_open_timeout" yaml:"breaker_open_timeout"`
	BreakerHalfOpenMaxCalls uint32        `json:"breaker_half_open_max_calls" yaml:"breaker_half_open_max_calls"`

	RateLimit float64 `json:"rate_limit" yaml:"rate_limit"` // Calls per second, <= 0 disables limiting
	RateBurst int     `json:"rate_burst" yaml:"rate_burst"`
}

// DefaultConfig returns the settings used for knowledge graph lookups.
func DefaultConfig() Config {
	return Config{
		RetryMaxAttempts:    3,
		RetryInitialBackoff: 50 * time.Millisecond,
		RetryMaxBackoff:     400 * time.Millisecond,
		RetryMultiplier:     2.0,

		BreakerEnabled:          true,
		BreakerMinRequests:      20,
		BreakerFailureRatio:     0.5,
		BreakerOpenTimeout:      30 * time.Second,
		BreakerHalfOpenMaxCalls: 2,

		RateLimit: 0,
		RateBurst: 1,
	}
}

func (c Config) normalize() Config {
	out := c
	def := DefaultConfig()

	if out.RetryMaxAttempts <= 0 {
		out.RetryMaxAttempts = def.RetryMaxAttempts
	}
	if out.RetryInitialBackoff <= 0 {
		out.RetryInitialBackoff = def.RetryInitialBackoff
	}
	if out.RetryMaxBackoff <= 0 {
		out.RetryMaxBackoff = def.RetryMaxBackoff
	}
	if out.RetryMaxBackoff < out.RetryInitialBackoff {
		out.RetryMaxBackoff = out.RetryInitialBackoff
	}
	if out.RetryMultiplier < 1.0 {
		out.RetryMultiplier = def.RetryMultiplier
	}

	if out.BreakerMinRequests == 0 {
		out.BreakerMinRequests = def.BreakerMinRequests
	}
	if out.BreakerFailureRatio <= 0 || out.BreakerFailureRatio > 1 {
		out.BreakerFailureRatio = def.BreakerFailureRatio
	}
	if out.BreakerOpenTimeout <= 0 {
		out.BreakerOpenTimeout = def.BreakerOpenTimeout
	}
	if out.BreakerHalfOpenMaxCalls == 0 {
		out.BreakerHalfOpenMaxCalls = def.BreakerHalfOpenMaxCalls
	}
	if out.RateBurst <= 0 {
		out.RateBurst = def.RateBurst
	}
	return out
}
