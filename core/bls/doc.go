// Package bls implements a rate-limited client for the Bureau of Labor Statistics
// public time series API.
//
// A Client is constructed explicitly and carries its own rate-limit state and
// retry policy. Every network call passes through a minimum-interval gate
// (golang.org/x/time/rate, burst 1), so concurrent Fetch calls against one client
// never exceed the configured request rate.
//
// # Errors
//
// Failures are reported with typed errors:
//   - *APIError: permanent. Malformed payloads, non-success API status, non-2xx HTTP.
//   - *RateLimitError: transient. HTTP 429. Unwraps to *APIError.
//   - *TransportError: transient. Dial, TLS, timeout or body read failures.
//
// Transient failures are retried with exponential backoff (RetryPolicy) and only
// surfaced after the retry cap is reached.
//
// # Usage
//
//	client := bls.NewClient(cfg.BLS, logg)
//	payload, err := client.Fetch(ctx, "CUUR0000SA0", &bls.YearRange{Start: 2020, End: 2024})
package bls
