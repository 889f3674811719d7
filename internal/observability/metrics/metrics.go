// Package metrics exposes Prometheus collectors for the console: HTTP
// traffic, gate decisions, logins and session lifecycle events.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	obserrors "github.com/mhmdnab/tolabi/internal/observability/errors"
)

// Result constants for metric labels.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultNoop    = "noop"
)

// Config configures the collectors.
type Config struct {
	// Namespace prefixes every metric (default: "tolabi").
	Namespace string
	// Buckets are the histogram buckets for durations (default: prometheus.DefBuckets).
	Buckets []float64
	// Registry receives the collectors. Defaults to a fresh registry that also
	// carries the Go runtime and process collectors.
	Registry *prometheus.Registry
}

// Option configures Config.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) { c.Namespace = namespace }
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) Option {
	return func(c *Config) { c.Buckets = buckets }
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry *prometheus.Registry) Option {
	return func(c *Config) { c.Registry = registry }
}

// Metrics holds the console collectors.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	gateDecisions   *prometheus.CounterVec
	loginAttempts   *prometheus.CounterVec
	sessionEvents   *prometheus.CounterVec
	restoreDuration *prometheus.HistogramVec
	cachedSessions  prometheus.Gauge
}

// New registers the collectors and returns them.
func New(opts ...Option) *Metrics {
	cfg := Config{Namespace: "tolabi", Buckets: prometheus.DefBuckets}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Registry == nil {
		cfg.Registry = prometheus.NewRegistry()
		cfg.Registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	factory := promauto.With(cfg.Registry)
	return &Metrics{
		registry: cfg.Registry,
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests served, by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency in seconds.",
			Buckets:   cfg.Buckets,
		}, []string{"method", "route"}),
		gateDecisions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "gate_decisions_total",
			Help:      "Authorization decisions taken by the edge gate and the route guard.",
		}, []string{"gate", "decision"}),
		loginAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "login_attempts_total",
			Help:      "Login attempts by result and error class.",
		}, []string{"result", "error_class"}),
		sessionEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "session_events_total",
			Help:      "Session lifecycle events (login, logout, discarded).",
		}, []string{"kind"}),
		restoreDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Name:      "session_restore_duration_seconds",
			Help:      "Time spent restoring a session from durable storage.",
			Buckets:   cfg.Buckets,
		}, []string{"result"}),
		cachedSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Name:      "cached_sessions",
			Help:      "Sessions currently held in the in-process cache.",
		}),
	}
}

// Registry returns the registry the collectors live in.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// HTTPRequest records one served request. route should be a low-cardinality pattern.
func (m *Metrics) HTTPRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// GateDecision counts a decision taken by gate ("edge" or "guard").
func (m *Metrics) GateDecision(gate, decision string) {
	if m == nil {
		return
	}
	m.gateDecisions.WithLabelValues(gate, decision).Inc()
}

// LoginAttempt counts a login outcome; err is classified when present.
func (m *Metrics) LoginAttempt(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.loginAttempts.WithLabelValues(ResultError, obserrors.Classify(err)).Inc()
		return
	}
	m.loginAttempts.WithLabelValues(ResultSuccess, "").Inc()
}

// SessionEvent counts a lifecycle event by kind.
func (m *Metrics) SessionEvent(kind string) {
	if m == nil {
		return
	}
	m.sessionEvents.WithLabelValues(kind).Inc()
}

// SessionRestore observes a storage restore.
func (m *Metrics) SessionRestore(result string, d time.Duration) {
	if m == nil {
		return
	}
	m.restoreDuration.WithLabelValues(result).Observe(d.Seconds())
}

// CachedSessions sets the size of the in-process session cache.
func (m *Metrics) CachedSessions(n int) {
	if m == nil {
		return
	}
	m.cachedSessions.Set(float64(n))
}
