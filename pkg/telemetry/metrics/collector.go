package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultNamespace is the metric namespace used when none is configured.
const DefaultNamespace = "relay"

// Collector owns all Prometheus metrics for the proxy. It is safe for
// concurrent use; every method is a thin wrapper over prometheus
// counters/gauges.
type Collector struct {
	registry *prometheus.Registry

	exchangesTotal    *prometheus.CounterVec
	bytesTotal        *prometheus.CounterVec
	rotationsTotal    *prometheus.CounterVec
	retriesTotal      prometheus.Counter
	streamedTotal     prometheus.Counter
	syntheticTotal    *prometheus.CounterVec
	activeAccounts    prometheus.Gauge
	exchangeDuration  prometheus.Histogram
}

// NewCollector creates and registers the proxy metrics. If registry is nil a
// fresh registry is used, which keeps tests isolated.
func NewCollector(namespace string, registry *prometheus.Registry) *Collector {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	c := &Collector{
		registry: registry,
		exchangesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "exchanges_total",
				Help:      "Exchanges processed, by rule verdict and final status code",
			},
			[]string{"verdict", "status"},
		),
		bytesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "bytes_total",
				Help:      "Bytes transferred, by direction and account",
			},
			[]string{"direction", "account"},
		),
		rotationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "account_rotations_total",
				Help:      "Account selections, by rotation strategy",
			},
			[]string{"strategy"},
		),
		retriesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "failover_retries_total",
				Help:      "Retries issued after a quota-exhaustion signal",
			},
		),
		streamedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "streamed_responses_total",
				Help:      "Responses relayed as unbounded streams",
			},
		),
		syntheticTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "synthetic_responses_total",
				Help:      "Synthetic responses served without upstream contact, by reason",
			},
			[]string{"reason"},
		),
		activeAccounts: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "active_accounts",
				Help:      "Accounts currently eligible for selection",
			},
		),
		exchangeDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "exchange_duration_seconds",
				Help:      "End-to-end exchange duration",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
		),
	}

	registry.MustRegister(
		c.exchangesTotal,
		c.bytesTotal,
		c.rotationsTotal,
		c.retriesTotal,
		c.streamedTotal,
		c.syntheticTotal,
		c.activeAccounts,
		c.exchangeDuration,
	)

	return c
}

// RecordExchange records a completed exchange with its rule verdict and the
// final status code served to the client.
func (c *Collector) RecordExchange(verdict, status string, seconds float64) {
	c.exchangesTotal.WithLabelValues(verdict, status).Inc()
	c.exchangeDuration.Observe(seconds)
}

// RecordBytes records transferred bytes. direction is "in" (request) or
// "out" (response).
func (c *Collector) RecordBytes(direction, account string, n int64) {
	if n <= 0 {
		return
	}
	c.bytesTotal.WithLabelValues(direction, account).Add(float64(n))
}

// RecordRotation records one account selection under the named strategy.
func (c *Collector) RecordRotation(strategy string) {
	c.rotationsTotal.WithLabelValues(strategy).Inc()
}

// RecordRetry records a failover retry.
func (c *Collector) RecordRetry() {
	c.retriesTotal.Inc()
}

// RecordStreamed records a response relayed as a stream.
func (c *Collector) RecordStreamed() {
	c.streamedTotal.Inc()
}

// RecordSynthetic records a synthetic response served without upstream
// contact (blocked, no account, upstream error).
func (c *Collector) RecordSynthetic(reason string) {
	c.syntheticTotal.WithLabelValues(reason).Inc()
}

// SetActiveAccounts updates the active-account gauge.
func (c *Collector) SetActiveAccounts(n int) {
	c.activeAccounts.Set(float64(n))
}

// Handler returns the HTTP handler serving the /metrics endpoint.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry, mainly for tests.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
