package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerRecords(t *testing.T) {
	m := NewManager(WithNamespace("test"))

	m.ObserveFetch("success", 120*time.Millisecond)
	m.ObserveFetch("rate_limited", time.Second)
	m.ObserveFetch("success", 80*time.Millisecond)
	m.IncRetry("rate_limited")
	m.IncSkipped("unsupported_period")
	m.IncSkipped("unsupported_period")
	m.ObserveReconcile("created", 3)
	m.ObserveReconcile("skipped", 1)
	m.IncCache("hit")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.fetches.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.fetches.WithLabelValues("rate_limited")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.retries.WithLabelValues("rate_limited")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.skippedRows.WithLabelValues("unsupported_period")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.reconciled.WithLabelValues("created")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.reconciled.WithLabelValues("skipped")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cache.WithLabelValues("hit")))
}

func TestManagerHandler(t *testing.T) {
	m := NewManager()
	m.IncRetry("transport_error")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, 200, rec.Code)
	assert.True(t, strings.Contains(string(body), `salary_tracker_bls_retries_total{reason="transport_error"} 1`))
}

func TestManagersAreIsolated(t *testing.T) {
	a := NewManager()
	b := NewManager()
	a.IncCache("miss")

	assert.Equal(t, 1.0, testutil.ToFloat64(a.cache.WithLabelValues("miss")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.cache.WithLabelValues("miss")))
}
