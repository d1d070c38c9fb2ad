package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager owns the pipeline's collectors and the registry they live in.
// Its methods satisfy the recorder interfaces of the bls, series and
// reconcile packages.
type Manager struct {
	namespace string
	registry  *prometheus.Registry
	runtime   bool

	fetches       *prometheus.CounterVec
	fetchDuration *prometheus.HistogramVec
	retries       *prometheus.CounterVec
	skippedRows   *prometheus.CounterVec
	reconciled    *prometheus.CounterVec
	cache         *prometheus.CounterVec
}

// Option customizes a Manager.
type Option func(*Manager)

// WithNamespace sets the metric namespace.
func WithNamespace(ns string) Option {
	return func(m *Manager) {
		if ns != "" {
			m.namespace = ns
		}
	}
}

// WithRegistry uses reg instead of a fresh registry.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(m *Manager) { m.registry = reg }
}

// WithRuntimeCollectors registers the Go runtime and process collectors.
func WithRuntimeCollectors() Option {
	return func(m *Manager) { m.runtime = true }
}

// NewManager creates a manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace: "salary_tracker",
		registry:  prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(m)
	}

	m.fetches = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "bls",
		Name:      "fetch_attempts_total",
		Help:      "Network calls to the statistics API by outcome.",
	}, []string{"outcome"})
	m.fetchDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "bls",
		Name:      "fetch_duration_seconds",
		Help:      "Duration of network calls to the statistics API, rate gate included.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"outcome"})
	m.retries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "bls",
		Name:      "retries_total",
		Help:      "Backoff retries by failure kind.",
	}, []string{"reason"})
	m.skippedRows = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "series",
		Name:      "skipped_rows_total",
		Help:      "Rows dropped during normalization by reason.",
	}, []string{"reason"})
	m.reconciled = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "reconcile",
		Name:      "records_total",
		Help:      "Reconciled payroll records by outcome.",
	}, []string{"outcome"})
	m.cache = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "inflation",
		Name:      "series_cache_total",
		Help:      "Series cache lookups by result.",
	}, []string{"result"})

	if m.runtime {
		m.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	m.registry.MustRegister(m.fetches, m.fetchDuration, m.retries, m.skippedRows, m.reconciled, m.cache)
	return m
}

// Registry returns the underlying registry.
func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the prometheus exposition format.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveFetch records one network call.
func (m *Manager) ObserveFetch(outcome string, d time.Duration) {
	m.fetches.WithLabelValues(outcome).Inc()
	m.fetchDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

// IncRetry records one backoff retry.
func (m *Manager) IncRetry(reason string) {
	m.retries.WithLabelValues(reason).Inc()
}

// IncSkipped records one dropped series row.
func (m *Manager) IncSkipped(reason string) {
	m.skippedRows.WithLabelValues(reason).Inc()
}

// ObserveReconcile adds n records with the given outcome.
func (m *Manager) ObserveReconcile(outcome string, n int) {
	m.reconciled.WithLabelValues(outcome).Add(float64(n))
}

// IncCache records a cache hit or miss.
func (m *Manager) IncCache(result string) {
	m.cache.WithLabelValues(result).Inc()
}
