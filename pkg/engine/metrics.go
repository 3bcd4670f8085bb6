package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vango-dev/vtree/pkg/vdom"
)

// MetricsConfig configures engine metrics.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "vtree").
	Namespace string

	// Subsystem is the metrics subsystem (default: "engine").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for cycle duration.
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures engine metrics.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the duration histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "vtree",
		Subsystem: "engine",
		// Cycles are sub-millisecond for typical trees.
		Buckets:  []float64{.00005, .0001, .00025, .0005, .001, .0025, .005, .01, .025, .1},
		Registry: prometheus.DefaultRegisterer,
	}
}

// Metrics holds the Prometheus collectors for render cycles. A nil *Metrics
// records nothing.
type Metrics struct {
	cyclesTotal   *prometheus.CounterVec
	cycleDuration *prometheus.HistogramVec
	patchesTotal  *prometheus.CounterVec
	staleRejects  prometheus.Counter
	stale         prometheus.Gauge
}

// NewMetrics registers the engine collectors.
//
// Metrics collected:
//   - vtree_engine_cycles_total: cycles by op and status
//   - vtree_engine_cycle_duration_seconds: diff+apply duration by op
//   - vtree_engine_patches_total: applied patches by kind
//   - vtree_engine_stale_rejections_total: updates rejected with ErrStale
//   - vtree_engine_stale: 1 while the host tree is stale
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		cyclesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "cycles_total",
			Help:        "Total number of render cycles",
			ConstLabels: config.ConstLabels,
		}, []string{"op", "status"}),

		cycleDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "cycle_duration_seconds",
			Help:        "Render cycle duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"op"}),

		patchesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "patches_total",
			Help:        "Total number of patches produced by kind",
			ConstLabels: config.ConstLabels,
		}, []string{"kind"}),

		staleRejects: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "stale_rejections_total",
			Help:        "Updates rejected because the host tree was stale",
			ConstLabels: config.ConstLabels,
		}),

		stale: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "stale",
			Help:        "1 while the host tree is out of sync with the view",
			ConstLabels: config.ConstLabels,
		}),
	}
}

func (m *Metrics) observe(c Cycle, stale bool) {
	if m == nil {
		return
	}
	status := "success"
	if c.Err != nil {
		status = "error"
	}
	op := string(c.Op)
	m.cyclesTotal.WithLabelValues(op, status).Inc()
	m.cycleDuration.WithLabelValues(op).Observe(c.Duration.Seconds())
	for kind, n := range vdom.Kinds(c.Patches) {
		m.patchesTotal.WithLabelValues(kind.String()).Add(float64(n))
	}
	if stale {
		m.stale.Set(1)
	} else {
		m.stale.Set(0)
	}
}

func (m *Metrics) rejected() {
	if m == nil {
		return
	}
	m.staleRejects.Inc()
}
