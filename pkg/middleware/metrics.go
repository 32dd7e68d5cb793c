package middleware

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/vango-dev/fibertree/internal/errors"
	"github.com/vango-dev/fibertree/pkg/fiber"
)

// MetricsConfig configures the Prometheus metrics observer.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "fibertree").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for cycle duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus metrics observer.
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

// defaultMetricsConfig returns the default metrics configuration.
func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "fibertree",
		Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics is a fiber.Observer that records Prometheus metrics. Create one
// per registry; registering twice with the same registry panics.
type Metrics struct {
	fiber.BaseObserver

	cyclesTotal   *prometheus.CounterVec
	cycleDuration *prometheus.HistogramVec
	unitsTotal    prometheus.Counter
	slicesTotal   prometheus.Counter
	effectsTotal  *prometheus.CounterVec
	errorsTotal   *prometheus.CounterVec
	inFlight      prometheus.Gauge

	opsSent  prometheus.Counter
	clients  prometheus.Gauge
	wsErrors *prometheus.CounterVec
}

// Prometheus creates the metrics observer and registers its collectors.
func Prometheus(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	counter := func(name, help string) prometheus.CounterOpts {
		return prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: config.ConstLabels,
		}
	}
	gauge := func(name, help string) prometheus.GaugeOpts {
		return prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: config.ConstLabels,
		}
	}

	return &Metrics{
		cyclesTotal: factory.NewCounterVec(
			counter("cycles_total", "Render cycles by trigger and outcome"),
			[]string{"trigger", "status"}),

		cycleDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "cycle_duration_seconds",
			Help:        "Time from render request to cycle completion in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"trigger"}),

		unitsTotal:  factory.NewCounter(counter("units_total", "Work units performed")),
		slicesTotal: factory.NewCounter(counter("slices_total", "Time slices used by the render phase")),

		effectsTotal: factory.NewCounterVec(
			counter("effects_total", "Committed effects by kind"),
			[]string{"effect"}),

		errorsTotal: factory.NewCounterVec(
			counter("errors_total", "Failed render cycles by error code"),
			[]string{"code"}),

		inFlight: factory.NewGauge(gauge("cycles_in_flight", "Render cycles started and not yet complete")),

		opsSent: factory.NewCounter(counter("ops_sent_total", "Host operations streamed to live preview clients")),
		clients: factory.NewGauge(gauge("clients", "Connected live preview clients")),

		wsErrors: factory.NewCounterVec(
			counter("websocket_errors_total", "WebSocket errors by type"),
			[]string{"type"}),
	}
}

// CycleStarted implements fiber.Observer.
func (m *Metrics) CycleStarted(*fiber.Cycle) {
	m.inFlight.Inc()
}

// SliceFinished implements fiber.Observer.
func (m *Metrics) SliceFinished(_ *fiber.Cycle, units int) {
	m.slicesTotal.Inc()
	m.unitsTotal.Add(float64(units))
}

// CycleFinished implements fiber.Observer.
func (m *Metrics) CycleFinished(c *fiber.Cycle) {
	m.inFlight.Dec()

	trigger := string(c.Trigger())
	st := c.Stats()
	status := cycleStatus(c.Err())
	m.cyclesTotal.WithLabelValues(trigger, status).Inc()
	m.cycleDuration.WithLabelValues(trigger).Observe(st.Duration.Seconds())

	switch status {
	case "committed":
		m.effectsTotal.WithLabelValues("place").Add(float64(st.Placed))
		m.effectsTotal.WithLabelValues("update").Add(float64(st.Updated))
		m.effectsTotal.WithLabelValues("delete").Add(float64(st.Deleted))
	case "failed":
		code := errors.CodeOf(c.Err())
		if code == "" {
			code = "unknown"
		}
		m.errorsTotal.WithLabelValues(code).Inc()
	}
}

// cycleStatus maps a cycle error to a low-cardinality label.
func cycleStatus(err error) string {
	switch {
	case err == nil:
		return "committed"
	case errors.HasCode(err, "E110"):
		return "abandoned"
	default:
		return "failed"
	}
}

// RecordOps records host operations streamed to clients.
func (m *Metrics) RecordOps(count int) {
	m.opsSent.Add(float64(count))
}

// RecordClientConnect records a live preview client connecting.
func (m *Metrics) RecordClientConnect() {
	m.clients.Inc()
}

// RecordClientDisconnect records a live preview client going away.
func (m *Metrics) RecordClientDisconnect() {
	m.clients.Dec()
}

// RecordWebSocketError records a WebSocket error.
func (m *Metrics) RecordWebSocketError(errorType string) {
	m.wsErrors.WithLabelValues(errorType).Inc()
}
