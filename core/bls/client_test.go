package bls

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const successBody = `{
  "status": "REQUEST_SUCCEEDED",
  "responseTime": 120,
  "message": [],
  "Results": {"series": [{"seriesID": "CUUR0000SA0", "data": [
    {"year": "2024", "period": "M01", "periodName": "January", "value": "310.326", "footnotes": [{}]},
    {"year": "2023", "period": "M01", "periodName": "January", "value": "299.170", "footnotes": [{}]}
  ]}]}
}`

type sleepRecorder struct {
	mu     sync.Mutex
	sleeps []time.Duration
}

func (s *sleepRecorder) sleep(_ context.Context, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sleeps = append(s.sleeps, d)
	return nil
}

func testConfig(url string) Config {
	return Config{
		BaseURL:        url,
		MinInterval:    -1,
		MaxRetries:     3,
		BaseDelay:      2 * time.Second,
		TimeoutSeconds: 5,
	}
}

func TestNewClient_ZeroConfigUsesDefaults(t *testing.T) {
	client := NewClient(Config{}, nil)
	assert.Equal(t, DefaultRetryPolicy(), client.RetryPolicy())
	assert.Equal(t, rate.Every(DefaultMinInterval), client.limiter.Limit())

	// The first call consumes the only token; the next one must wait a full interval.
	require.True(t, client.limiter.Allow())
	r := client.limiter.Reserve()
	defer r.Cancel()
	assert.InDelta(t, float64(DefaultMinInterval), float64(r.Delay()), float64(100*time.Millisecond))
}

func TestNewClient_NegativeValuesDisableGateAndRetries(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	rec := &sleepRecorder{}
	client := NewClient(Config{BaseURL: srv.URL, MinInterval: -1, MaxRetries: -1}, nil, WithSleeper(rec.sleep))
	assert.Equal(t, 0, client.RetryPolicy().MaxRetries)
	assert.Equal(t, rate.Inf, client.limiter.Limit())

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := client.Fetch(context.Background(), "CUUR0000SA0", nil)
		var rl *RateLimitError
		require.True(t, errors.As(err, &rl))
	}
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
	assert.Empty(t, rec.sleeps)
}

func TestFetch_Success(t *testing.T) {
	var gotPath, gotStart, gotEnd, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotStart = r.URL.Query().Get("startyear")
		gotEnd = r.URL.Query().Get("endyear")
		gotKey = r.URL.Query().Get("registrationkey")
		w.Write([]byte(successBody))
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.RegistrationKey = "secret"
	client := NewClient(cfg, zap.NewNop())

	payload, err := client.Fetch(context.Background(), "CUUR0000SA0", &YearRange{Start: 2023, End: 2024})
	require.NoError(t, err)
	require.NotNil(t, payload.Results)
	require.Len(t, payload.Results.Series, 1)
	assert.Len(t, payload.Results.Series[0].Data, 2)
	assert.NotEmpty(t, payload.Raw)

	assert.Equal(t, "/CUUR0000SA0", gotPath)
	assert.Equal(t, "2023", gotStart)
	assert.Equal(t, "2024", gotEnd)
	assert.Equal(t, "secret", gotKey)

	stats := client.Stats()
	assert.Equal(t, int64(1), stats.Calls)
	assert.False(t, stats.LastCallAt.IsZero())
}

func TestFetch_NonSuccessStatusIsAPIError(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Write([]byte(`{"status":"REQUEST_NOT_PROCESSED","message":["Series does not exist"]}`))
	}))
	defer srv.Close()

	rec := &sleepRecorder{}
	client := NewClient(testConfig(srv.URL), zap.NewNop(), WithSleeper(rec.sleep))

	_, err := client.Fetch(context.Background(), "BOGUS", nil)
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "REQUEST_NOT_PROCESSED", apiErr.Status)
	assert.Equal(t, []string{"Series does not exist"}, apiErr.Messages)
	assert.False(t, IsTransient(err))
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
	assert.Empty(t, rec.sleeps)
}

func TestFetch_BackoffGrowth(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) <= 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(successBody))
	}))
	defer srv.Close()

	rec := &sleepRecorder{}
	client := NewClient(testConfig(srv.URL), zap.NewNop(), WithSleeper(rec.sleep))

	payload, err := client.Fetch(context.Background(), "CUUR0000SA0", nil)
	require.NoError(t, err)
	assert.NotNil(t, payload)

	assert.Equal(t, int32(4), atomic.LoadInt32(&hits))
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second}, rec.sleeps)
}

func TestFetch_RetryExhaustedReturnsLastError(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	rec := &sleepRecorder{}
	client := NewClient(testConfig(srv.URL), zap.NewNop(), WithSleeper(rec.sleep))

	_, err := client.Fetch(context.Background(), "CUUR0000SA0", nil)
	require.Error(t, err)

	var rl *RateLimitError
	require.True(t, errors.As(err, &rl))
	assert.Equal(t, 7*time.Second, rl.RetryAfter)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr), "rate limit errors are api errors")
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)

	assert.Equal(t, int32(4), atomic.LoadInt32(&hits))
	assert.Len(t, rec.sleeps, 3)
}

func TestFetch_PermanentHTTPErrorIsNotRetried(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer srv.Close()

	rec := &sleepRecorder{}
	client := NewClient(testConfig(srv.URL), zap.NewNop(), WithSleeper(rec.sleep))

	_, err := client.Fetch(context.Background(), "CUUR0000SA0", nil)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
	assert.Empty(t, rec.sleeps)
}

func TestFetch_TransportErrorIsRetried(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	rec := &sleepRecorder{}
	cfg := testConfig(url)
	cfg.MaxRetries = 2
	client := NewClient(cfg, zap.NewNop(), WithSleeper(rec.sleep))

	_, err := client.Fetch(context.Background(), "CUUR0000SA0", nil)
	var te *TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, rec.sleeps)
}

func TestFetch_EnforcesMinimumInterval(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(successBody))
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.MinInterval = 80 * time.Millisecond
	client := NewClient(cfg, zap.NewNop())

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := client.Fetch(context.Background(), "CUUR0000SA0", nil)
		require.NoError(t, err)
	}
	// First call is immediate, the next two each wait one interval.
	assert.GreaterOrEqual(t, time.Since(start), 150*time.Millisecond)
}

func TestFetch_ConcurrentCallsShareRateState(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Write([]byte(successBody))
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.MinInterval = 20 * time.Millisecond
	client := NewClient(cfg, zap.NewNop())

	var wg sync.WaitGroup
	start := time.Now()
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := client.Fetch(context.Background(), "CUUR0000SA0", nil)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(4), atomic.LoadInt32(&hits))
	assert.Equal(t, int64(4), client.Stats().Calls)
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestFetch_ContextCancelledDuringBackoff(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	client := NewClient(testConfig(srv.URL), zap.NewNop(), WithSleeper(func(ctx context.Context, d time.Duration) error {
		cancel()
		return ctx.Err()
	}))

	_, err := client.Fetch(ctx, "CUUR0000SA0", nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFetch_BreakerOpensAfterUpstreamFailures(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.MaxRetries = -1
	cfg.BreakerFailures = 2
	cfg.BreakerCooldown = time.Minute
	client := NewClient(cfg, zap.NewNop())

	for i := 0; i < 2; i++ {
		_, err := client.Fetch(context.Background(), "CUUR0000SA0", nil)
		require.Error(t, err)
	}

	_, err := client.Fetch(context.Background(), "CUUR0000SA0", nil)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Contains(t, apiErr.Error(), "circuit open")
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
	assert.Equal(t, "open", client.Stats().Breaker)
}

func TestFetch_InvalidInput(t *testing.T) {
	client := NewClient(testConfig("http://127.0.0.1:1"), zap.NewNop())

	_, err := client.Fetch(context.Background(), "  ", nil)
	var apiErr *APIError
	assert.True(t, errors.As(err, &apiErr))

	_, err = client.Fetch(context.Background(), "CUUR0000SA0", &YearRange{Start: 2024, End: 2020})
	assert.True(t, errors.As(err, &apiErr))
	assert.Equal(t, int64(0), client.Stats().Calls)
}
