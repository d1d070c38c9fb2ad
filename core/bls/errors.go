package bls

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// StatusSucceeded is the API-level status of a successful response.
const StatusSucceeded = "REQUEST_SUCCEEDED"

// APIError is a permanent failure reported by, or caused by, the statistics API.
type APIError struct {
	// StatusCode is the HTTP status, zero when the failure was detected in the payload.
	StatusCode int
	// Status is the API-level status field, if one was decoded.
	Status string
	// Messages carries the provider's message list.
	Messages []string
	// Err is the underlying cause, if any.
	Err error
}

func (e *APIError) Error() string {
	var b strings.Builder
	b.WriteString("bls api error")
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (http %d)", e.StatusCode)
	}
	if e.Status != "" {
		fmt.Fprintf(&b, " status=%s", e.Status)
	}
	if len(e.Messages) > 0 {
		fmt.Fprintf(&b, ": %s", strings.Join(e.Messages, "; "))
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// RateLimitError is a transient APIError raised when the provider throttles us.
type RateLimitError struct {
	*APIError
	// RetryAfter is the provider's hint, zero when absent.
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return "rate limited: " + e.APIError.Error()
}

// Unwrap exposes the embedded APIError so errors.As matches both types.
func (e *RateLimitError) Unwrap() error {
	return e.APIError
}

// TransportError is a transient failure below the HTTP status layer.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("bls transport error: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err is worth retrying.
func IsTransient(err error) bool {
	var rl *RateLimitError
	if errors.As(err, &rl) {
		return true
	}
	var te *TransportError
	return errors.As(err, &te)
}

// upstreamFailure reports whether err says something about upstream health.
// Only these count against the circuit breaker.
func upstreamFailure(err error) bool {
	var te *TransportError
	if errors.As(err, &te) {
		return true
	}
	var rl *RateLimitError
	if errors.As(err, &rl) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= 500
	}
	return false
}
