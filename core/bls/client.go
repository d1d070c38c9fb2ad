package bls

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// maxBodyBytes bounds how much of a response body is read.
const maxBodyBytes = 10 * 1024 * 1024

// Recorder receives fetch telemetry. A nil Recorder is ignored.
type Recorder interface {
	ObserveFetch(outcome string, d time.Duration)
	IncRetry(reason string)
}

// Stats is a snapshot of a client's rate-limit state.
type Stats struct {
	LastCallAt time.Time `json:"last_call_at"`
	Calls      int64     `json:"calls"`
	Breaker    string    `json:"breaker"`
}

// Client fetches time series from the statistics API.
// It is safe for concurrent use.
type Client struct {
	baseURL string
	key     string
	http    *http.Client
	limiter *rate.Limiter
	retry   RetryPolicy
	breaker *gobreaker.CircuitBreaker
	sleep   Sleeper
	logger  *zap.Logger
	metrics Recorder

	mu       sync.Mutex
	lastCall time.Time
	calls    int64
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithSleeper replaces the backoff sleeper.
func WithSleeper(s Sleeper) Option {
	return func(c *Client) { c.sleep = s }
}

// WithRecorder attaches a telemetry recorder.
func WithRecorder(r Recorder) Option {
	return func(c *Client) { c.metrics = r }
}

// WithRetryPolicy overrides the retry policy derived from Config.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(c *Client) { c.retry = p }
}

// NewClient creates a client from configuration.
func NewClient(cfg Config, logger *zap.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	timeout := cfg.TimeoutSeconds
	if timeout <= 0 {
		timeout = 30
	}

	limit := rate.Every(DefaultMinInterval)
	switch {
	case cfg.MinInterval < 0:
		limit = rate.Inf
	case cfg.MinInterval > 0:
		limit = rate.Every(cfg.MinInterval)
	}

	retry := DefaultRetryPolicy()
	switch {
	case cfg.MaxRetries < 0:
		retry.MaxRetries = 0
	case cfg.MaxRetries > 0:
		retry.MaxRetries = cfg.MaxRetries
	}
	if cfg.BaseDelay > 0 {
		retry.BaseDelay = cfg.BaseDelay
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		key:     cfg.RegistrationKey,
		http:    &http.Client{Timeout: time.Duration(timeout) * time.Second},
		limiter: rate.NewLimiter(limit, 1),
		retry:   retry,
		sleep:   sleepContext,
		logger:  logger.Named("bls"),
	}

	if cfg.BreakerFailures > 0 {
		c.breaker = newBreaker(cfg, c.logger)
	}

	for _, opt := range opts {
		opt(c)
	}
	return c
}

func newBreaker(cfg Config, logger *zap.Logger) *gobreaker.CircuitBreaker {
	cooldown := cfg.BreakerCooldown
	if cooldown <= 0 {
		cooldown = 60 * time.Second
	}
	threshold := uint32(cfg.BreakerFailures)

	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "bls",
		Timeout: cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !upstreamFailure(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
}

// RetryPolicy returns the policy applied around each network call.
func (c *Client) RetryPolicy() RetryPolicy {
	return c.retry
}

// Stats returns the current rate-limit state.
func (c *Client) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := Stats{LastCallAt: c.lastCall, Calls: c.calls, Breaker: "disabled"}
	if c.breaker != nil {
		s.Breaker = c.breaker.State().String()
	}
	return s
}

// Fetch retrieves one series, optionally restricted to a year range.
// Transient failures are retried according to the client's RetryPolicy; the last
// error is returned once the cap is reached. Permanent failures return at once.
func (c *Client) Fetch(ctx context.Context, seriesID string, years *YearRange) (*Payload, error) {
	seriesID = strings.TrimSpace(seriesID)
	if seriesID == "" {
		return nil, &APIError{Messages: []string{"series id is required"}}
	}
	if years != nil {
		if err := years.Validate(); err != nil {
			return nil, &APIError{Messages: []string{err.Error()}}
		}
	}

	l := c.logger.With(zap.String("series", seriesID))

	for attempt := 0; ; attempt++ {
		start := time.Now()
		payload, err := c.fetchOnce(ctx, seriesID, years)
		if err == nil {
			c.observe("success", time.Since(start))
			return payload, nil
		}

		if !c.retry.ShouldRetry(attempt, err) || ctx.Err() != nil {
			c.observe(outcome(err), time.Since(start))
			return nil, err
		}
		c.observe(outcome(err), time.Since(start))

		delay := c.retry.Delay(attempt)
		l.Warn("Transient fetch failure, backing off",
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", c.retry.MaxRetries),
			zap.Duration("delay", delay),
			zap.Error(err))
		if c.metrics != nil {
			c.metrics.IncRetry(outcome(err))
		}

		if err := c.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
}

func (c *Client) fetchOnce(ctx context.Context, seriesID string, years *YearRange) (*Payload, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.lastCall = time.Now()
	c.calls++
	c.mu.Unlock()

	if c.breaker == nil {
		return c.do(ctx, seriesID, years)
	}

	res, err := c.breaker.Execute(func() (interface{}, error) {
		return c.do(ctx, seriesID, years)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, &APIError{Messages: []string{"upstream circuit open"}, Err: err}
	}
	if err != nil {
		return nil, err
	}
	return res.(*Payload), nil
}

func (c *Client) do(ctx context.Context, seriesID string, years *YearRange) (*Payload, error) {
	endpoint, err := c.endpoint(seriesID, years)
	if err != nil {
		return nil, &APIError{Messages: []string{"invalid endpoint"}, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &APIError{Messages: []string{"failed to build request"}, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "salary-tracker/1.0")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &TransportError{Err: fmt.Errorf("read body: %w", err)}
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &RateLimitError{
			APIError:   &APIError{StatusCode: resp.StatusCode, Messages: bodySnippet(body)},
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{StatusCode: resp.StatusCode, Messages: bodySnippet(body)}
	}

	return Decode(body)
}

func (c *Client) endpoint(seriesID string, years *YearRange) (string, error) {
	u, err := url.Parse(c.baseURL + "/" + url.PathEscape(seriesID))
	if err != nil {
		return "", err
	}
	q := u.Query()
	if years != nil {
		q.Set("startyear", strconv.Itoa(years.Start))
		q.Set("endyear", strconv.Itoa(years.End))
	}
	if c.key != "" {
		q.Set("registrationkey", c.key)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (c *Client) observe(outcome string, d time.Duration) {
	if c.metrics != nil {
		c.metrics.ObserveFetch(outcome, d)
	}
}

func outcome(err error) string {
	var rl *RateLimitError
	var te *TransportError
	switch {
	case errors.As(err, &rl):
		return "rate_limited"
	case errors.As(err, &te):
		return "transport_error"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "api_error"
	}
}

func bodySnippet(body []byte) []string {
	s := strings.TrimSpace(string(body))
	if s == "" {
		return nil
	}
	if len(s) > 256 {
		s = s[:256]
	}
	return []string{s}
}

func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return 0
}
