package middleware

import (
	"context"
	"sync"

	"github.com/vango-dev/fibertree/internal/errors"
	"github.com/vango-dev/fibertree/pkg/fiber"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Default tracer name for fibertree.
const defaultTracerName = "fibertree"

// OTelConfig configures the OpenTelemetry observer.
type OTelConfig struct {
	// TracerName is the name of the tracer (default: "fibertree").
	TracerName string

	// TracerProvider overrides the global tracer provider.
	TracerProvider trace.TracerProvider

	// Attributes are added to every cycle span.
	Attributes []attribute.KeyValue

	// Parent is the context cycle spans are started from.
	Parent context.Context
}

// OTelOption configures the OpenTelemetry observer.
type OTelOption func(*OTelConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) OTelOption {
	return func(c *OTelConfig) {
		c.TracerName = name
	}
}

// WithTracerProvider uses tp instead of the global provider.
func WithTracerProvider(tp trace.TracerProvider) OTelOption {
	return func(c *OTelConfig) {
		c.TracerProvider = tp
	}
}

// WithAttributes adds attributes to every cycle span.
func WithAttributes(attrs ...attribute.KeyValue) OTelOption {
	return func(c *OTelConfig) {
		c.Attributes = append(c.Attributes, attrs...)
	}
}

// WithParent starts cycle spans as children of the span in ctx.
func WithParent(ctx context.Context) OTelOption {
	return func(c *OTelConfig) {
		c.Parent = ctx
	}
}

// Tracing is a fiber.Observer that traces render cycles.
type Tracing struct {
	tracer trace.Tracer
	config OTelConfig

	mu    sync.Mutex
	spans map[*fiber.Cycle]trace.Span
}

// OpenTelemetry creates the tracing observer.
//
// Each cycle gets a span named "fibertree.cycle" carrying the trigger and
// cycle ID. Slices are recorded as span events; the final stats are set
// as attributes when the cycle ends. Failed cycles record the error and
// an error status; abandoned cycles are marked with fibertree.status.
func OpenTelemetry(opts ...OTelOption) *Tracing {
	config := OTelConfig{
		TracerName: defaultTracerName,
		Parent:     context.Background(),
	}
	for _, opt := range opts {
		opt(&config)
	}

	tp := config.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &Tracing{
		tracer: tp.Tracer(config.TracerName),
		config: config,
		spans:  make(map[*fiber.Cycle]trace.Span),
	}
}

// CycleStarted implements fiber.Observer.
func (t *Tracing) CycleStarted(c *fiber.Cycle) {
	attrs := append([]attribute.KeyValue{
		attribute.String("fibertree.trigger", string(c.Trigger())),
		attribute.Int64("fibertree.cycle", int64(c.ID())),
	}, t.config.Attributes...)

	_, span := t.tracer.Start(t.config.Parent, "fibertree.cycle",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
		trace.WithTimestamp(c.Started()),
	)

	t.mu.Lock()
	t.spans[c] = span
	t.mu.Unlock()
}

// SliceFinished implements fiber.Observer.
func (t *Tracing) SliceFinished(c *fiber.Cycle, units int) {
	if span := t.span(c, false); span != nil {
		span.AddEvent("slice", trace.WithAttributes(attribute.Int("fibertree.units", units)))
	}
}

// CycleFinished implements fiber.Observer.
func (t *Tracing) CycleFinished(c *fiber.Cycle) {
	span := t.span(c, true)
	if span == nil {
		return
	}
	defer span.End()

	st := c.Stats()
	status := cycleStatus(c.Err())
	span.SetAttributes(
		attribute.String("fibertree.status", status),
		attribute.Int("fibertree.units", st.Units),
		attribute.Int("fibertree.slices", st.Slices),
		attribute.Int("fibertree.placed", st.Placed),
		attribute.Int("fibertree.updated", st.Updated),
		attribute.Int("fibertree.deleted", st.Deleted),
	)

	switch status {
	case "failed":
		err := c.Err()
		span.RecordError(err)
		span.SetAttributes(attribute.String("fibertree.error_code", errors.CodeOf(err)))
		span.SetStatus(codes.Error, err.Error())
	case "committed":
		span.SetStatus(codes.Ok, "")
	}
}

// SpanContext returns the span context of an in-flight cycle.
func (t *Tracing) SpanContext(c *fiber.Cycle) trace.SpanContext {
	if span := t.span(c, false); span != nil {
		return span.SpanContext()
	}
	return trace.SpanContext{}
}

func (t *Tracing) span(c *fiber.Cycle, remove bool) trace.Span {
	t.mu.Lock()
	defer t.mu.Unlock()
	span := t.spans[c]
	if remove {
		delete(t.spans, c)
	}
	return span
}
