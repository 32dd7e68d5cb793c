// Package middleware provides observers that plug into fibertree's
// scheduler through fiber.WithObserver.
//
// This package includes:
//   - Logging, which reports cycle outcomes through log/slog
//   - Prometheus metrics for cycles, slices, effects and errors
//   - OpenTelemetry tracing with one span per render cycle
//
// # Prometheus Metrics
//
// The metrics observer counts cycles by trigger and outcome and records
// their duration:
//
//	metrics := middleware.Prometheus(
//	    middleware.WithNamespace("myapp"),
//	    middleware.WithRegistry(registry),
//	)
//	engine := fiber.NewEngine(adapter, loop, fiber.WithObserver(metrics))
//
//	// Expose metrics endpoint
//	http.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
//
// Metrics collected (namespace "fibertree" by default):
//   - cycles_total{trigger,status}: cycles by outcome (committed, abandoned, failed)
//   - cycle_duration_seconds{trigger}: time from request to completion
//   - units_total, slices_total: render-phase work
//   - effects_total{effect}: committed placements, updates and deletions
//   - errors_total{code}: failed cycles by error code
//   - cycles_in_flight: cycles started but not yet complete
//   - ops_sent_total, clients, websocket_errors_total{type}: live preview traffic
//
// # OpenTelemetry Tracing
//
// The tracing observer opens a span when a cycle starts, adds an event per
// slice and ends the span when the cycle completes:
//
//	engine := fiber.NewEngine(adapter, loop,
//	    fiber.WithObserver(middleware.OpenTelemetry(
//	        middleware.WithTracerName("my-app"),
//	    )),
//	)
//
// The tracer comes from the global OpenTelemetry tracer provider. Configure
// it in main() before rendering:
//
//	otel.SetTracerProvider(tp)
package middleware
