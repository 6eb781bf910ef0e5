// Package testdoubles provides test doubles for observables and their observability interfaces.
//
// It contains spy implementations of the dependency-free observability interfaces of the
// observable package:
//   - MetricsCollectorSpy: captures metrics recording calls for verification
//   - TracingCollectorSpy: captures subscription spans with their status and attributes
//   - ContextualLoggerSpy: captures structured logging with context
//   - LogHandlerSpy: captures slog handler calls and attributes
//
// RecordingObserver captures the notifications an observer receives, in order, and can be configured
// to fail or to unsubscribe at specific points of a subscription.
//
// These test doubles enable testing of subscription lifecycles and their instrumentation
// without requiring actual telemetry backends.
package testdoubles
