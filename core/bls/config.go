package bls

import "time"

// DefaultBaseURL is the v2 time series endpoint.
const DefaultBaseURL = "https://api.bls.gov/publicAPI/v2/timeseries/data"

// DefaultMinInterval is the gap between two network calls when none is configured.
const DefaultMinInterval = 2500 * time.Millisecond

// Config holds configuration for the statistics API client.
type Config struct {
	// BaseURL is the time series endpoint; the series id is appended as a path segment.
	BaseURL string `mapstructure:"base_url" default:"https://api.bls.gov/publicAPI/v2/timeseries/data"`
	// RegistrationKey is the optional API key. Registered keys get wider year spans.
	RegistrationKey string `mapstructure:"registration_key" default:""`
	// MinInterval is the minimum delay between two network calls. Zero means
	// DefaultMinInterval; a negative value disables the gate.
	MinInterval time.Duration `mapstructure:"min_interval" default:"2500ms"`
	// MaxRetries caps retries of transient failures. Zero means the default of 3;
	// a negative value disables retries.
	MaxRetries int `mapstructure:"max_retries" default:"3"`
	// BaseDelay is the first backoff delay; it doubles on every retry.
	BaseDelay time.Duration `mapstructure:"base_delay" default:"2s"`
	// TimeoutSeconds is the per-request network timeout.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
	// BreakerFailures is the number of consecutive upstream failures that opens
	// the circuit breaker. Zero disables the breaker.
	BreakerFailures int `mapstructure:"breaker_failures" default:"5"`
	// BreakerCooldown is how long the breaker stays open before probing again.
	BreakerCooldown time.Duration `mapstructure:"breaker_cooldown" default:"60s"`
}

// MaxYearSpan returns the number of years a single request may cover.
func (c Config) MaxYearSpan() int {
	if c.RegistrationKey != "" {
		return 20
	}
	return 10
}
