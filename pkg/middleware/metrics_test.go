package middleware

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/vango-dev/fibertree/pkg/vdom"
)

func metricCounterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("counter Write() error: %v", err)
	}
	if m.Counter == nil {
		t.Fatal("expected counter metric to have Counter field")
	}
	return m.GetCounter().GetValue()
}

func metricGaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	if err := g.Write(&m); err != nil {
		t.Fatalf("gauge Write() error: %v", err)
	}
	if m.Gauge == nil {
		t.Fatal("expected gauge metric to have Gauge field")
	}
	return m.GetGauge().GetValue()
}

func metricHistogramCount(t *testing.T, o prometheus.Observer) uint64 {
	t.Helper()
	metric, ok := o.(prometheus.Metric)
	if !ok {
		t.Fatalf("observer %T does not implement prometheus.Metric", o)
	}
	var m dto.Metric
	if err := metric.Write(&m); err != nil {
		t.Fatalf("histogram Write() error: %v", err)
	}
	if m.Histogram == nil {
		t.Fatal("expected histogram metric to have Histogram field")
	}
	return m.GetHistogram().GetSampleCount()
}

func TestPrometheusRecordsCommittedCycle(t *testing.T) {
	metrics := Prometheus(WithRegistry(prometheus.NewRegistry()))
	s := newScheduler(t, metrics)

	c := s.Render(page("hello"))
	if got := metricGaugeValue(t, metrics.inFlight); got != 1 {
		t.Errorf("cycles_in_flight during render = %v, want 1", got)
	}
	if err := s.Flush(); err != nil {
		t.Fatalf("Flush() = %v", err)
	}

	st := c.Stats()
	if got := metricCounterValue(t, metrics.cyclesTotal.WithLabelValues("render", "committed")); got != 1 {
		t.Errorf("cycles_total{render,committed} = %v, want 1", got)
	}
	if got := metricHistogramCount(t, metrics.cycleDuration.WithLabelValues("render")); got != 1 {
		t.Errorf("cycle_duration_seconds count = %d, want 1", got)
	}
	if got := metricCounterValue(t, metrics.unitsTotal); got != float64(st.Units) {
		t.Errorf("units_total = %v, want %d", got, st.Units)
	}
	if got := metricCounterValue(t, metrics.slicesTotal); got != float64(st.Slices) {
		t.Errorf("slices_total = %v, want %d", got, st.Slices)
	}
	if got := metricCounterValue(t, metrics.effectsTotal.WithLabelValues("place")); got != float64(st.Placed) {
		t.Errorf("effects_total{place} = %v, want %d", got, st.Placed)
	}
	if got := metricGaugeValue(t, metrics.inFlight); got != 0 {
		t.Errorf("cycles_in_flight after flush = %v, want 0", got)
	}
}

func TestPrometheusRecordsFailuresAndAbandons(t *testing.T) {
	metrics := Prometheus(WithRegistry(prometheus.NewRegistry()), WithNamespace("test"))
	s := newScheduler(t, metrics)

	s.Render(page("first"))
	s.Render(vdom.Comp(broken, nil))
	if err := s.Flush(); err == nil {
		t.Fatal("Flush() should report the render panic")
	}

	if got := metricCounterValue(t, metrics.cyclesTotal.WithLabelValues("render", "abandoned")); got != 1 {
		t.Errorf("cycles_total{render,abandoned} = %v, want 1", got)
	}
	if got := metricCounterValue(t, metrics.cyclesTotal.WithLabelValues("render", "failed")); got != 1 {
		t.Errorf("cycles_total{render,failed} = %v, want 1", got)
	}
	if got := metricCounterValue(t, metrics.errorsTotal.WithLabelValues("E102")); got != 1 {
		t.Errorf("errors_total{E102} = %v, want 1", got)
	}
	if got := metricCounterValue(t, metrics.effectsTotal.WithLabelValues("place")); got != 0 {
		t.Errorf("effects_total{place} = %v, want 0 for uncommitted cycles", got)
	}
	if got := metricGaugeValue(t, metrics.inFlight); got != 0 {
		t.Errorf("cycles_in_flight = %v, want 0", got)
	}
}

func TestPrometheusLiveMetrics(t *testing.T) {
	metrics := Prometheus(WithRegistry(prometheus.NewRegistry()))

	metrics.RecordClientConnect()
	metrics.RecordClientConnect()
	metrics.RecordClientDisconnect()
	metrics.RecordOps(7)
	metrics.RecordWebSocketError("read")

	if got := metricGaugeValue(t, metrics.clients); got != 1 {
		t.Errorf("clients = %v, want 1", got)
	}
	if got := metricCounterValue(t, metrics.opsSent); got != 7 {
		t.Errorf("ops_sent_total = %v, want 7", got)
	}
	if got := metricCounterValue(t, metrics.wsErrors.WithLabelValues("read")); got != 1 {
		t.Errorf("websocket_errors_total{read} = %v, want 1", got)
	}
}

func TestPrometheusRegistersWithConfiguredNames(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := Prometheus(
		WithRegistry(reg),
		WithNamespace("app"),
		WithSubsystem("ui"),
		WithConstLabels(prometheus.Labels{"env": "test"}),
		WithBuckets([]float64{0.1, 1}),
	)
	metrics.RecordOps(1)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error: %v", err)
	}
	var found bool
	for _, mf := range families {
		if mf.GetName() != "app_ui_ops_sent_total" {
			continue
		}
		found = true
		labels := mf.GetMetric()[0].GetLabel()
		if len(labels) != 1 || labels[0].GetName() != "env" || labels[0].GetValue() != "test" {
			t.Errorf("labels = %v, want env=test", labels)
		}
	}
	if !found {
		t.Error("app_ui_ops_sent_total not registered")
	}
}
