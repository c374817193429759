package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsConfig configures the Prometheus collectors.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "dippy").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for render duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus collectors.
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

// WithBuckets sets the histogram buckets.
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
		Namespace: "dippy",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics holds the collectors for one client.
type Metrics struct {
	frames        *prometheus.CounterVec
	pushes        *prometheus.CounterVec
	subscriptions prometheus.Gauge
	controls      *prometheus.CounterVec
	cacheOps      *prometheus.CounterVec
	renders       prometheus.Histogram
	cleanups      prometheus.Counter
	sendErrors    prometheus.Counter
}

// NewMetrics creates and registers the collectors.
// Registering twice on the same registry panics, as with promauto.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		frames: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "frames_total",
			Help:        "Total number of frames by direction and kind",
			ConstLabels: config.ConstLabels,
		}, []string{"direction", "kind"}),

		pushes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "pushes_total",
			Help:        "Total number of resource pushes by outcome",
			ConstLabels: config.ConstLabels,
		}, []string{"outcome"}),

		subscriptions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "subscriptions_active",
			Help:        "Number of locators with a registered owner",
			ConstLabels: config.ConstLabels,
		}),

		controls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "controls_total",
			Help:        "Total number of control messages sent by type",
			ConstLabels: config.ConstLabels,
		}, []string{"type"}),

		cacheOps: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "cache_operations_total",
			Help:        "Total cache operations by op and result",
			ConstLabels: config.ConstLabels,
		}, []string{"op", "result"}),

		renders: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "render_duration_seconds",
			Help:        "View render pass duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		cleanups: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "view_cleanups_total",
			Help:        "Total number of view nodes torn down",
			ConstLabels: config.ConstLabels,
		}),

		sendErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "send_errors_total",
			Help:        "Total number of control messages the transport failed to write",
			ConstLabels: config.ConstLabels,
		}),
	}
}

// RecordFrame counts a frame. direction is "in" or "out".
func (m *Metrics) RecordFrame(direction, kind string) {
	if m == nil {
		return
	}
	m.frames.WithLabelValues(direction, kind).Inc()
}

// RecordPush counts a push by outcome ("applied", "orphaned", "rejected").
func (m *Metrics) RecordPush(outcome string) {
	if m == nil {
		return
	}
	m.pushes.WithLabelValues(outcome).Inc()
}

// RecordControl counts a control message sent.
func (m *Metrics) RecordControl(controlType string) {
	if m == nil {
		return
	}
	m.controls.WithLabelValues(controlType).Inc()
}

// RecordSendError counts a failed transport write.
func (m *Metrics) RecordSendError() {
	if m == nil {
		return
	}
	m.sendErrors.Inc()
}

// SetSubscriptions sets the number of active subscriptions.
func (m *Metrics) SetSubscriptions(n int) {
	if m == nil {
		return
	}
	m.subscriptions.Set(float64(n))
}

// RecordCache counts a cache operation. result is "hit", "miss", "ok" or "error".
func (m *Metrics) RecordCache(op, result string) {
	if m == nil {
		return
	}
	m.cacheOps.WithLabelValues(op, result).Inc()
}

// ObserveRender records the duration of a render pass.
func (m *Metrics) ObserveRender(d time.Duration) {
	if m == nil {
		return
	}
	m.renders.Observe(d.Seconds())
}

// RecordCleanup counts a torn down view node.
func (m *Metrics) RecordCleanup() {
	if m == nil {
		return
	}
	m.cleanups.Inc()
}
