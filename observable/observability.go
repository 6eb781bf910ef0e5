package observable

import (
	"context"
	"time"
)

// Logger receives the subscription lifecycle as structured log lines. *slog.Logger satisfies it.
// Every line carries the "observable" attribute with the configured name.
type Logger interface {
	// Debug receives subscriptions, executed teardowns and the multicast lifecycle.
	Debug(msg string, args ...any)
	// Info receives closed subscriptions with status and duration_ms.
	Info(msg string, args ...any)
	// Warn receives teardown failures which were swallowed to keep the primary notification.
	Warn(msg string, args ...any)
	// Error receives errors returned to the caller because the observer had no error handler.
	Error(msg string, args ...any)
}

// ContextualLogger is the context-aware variant of Logger.
// The context is the one passed to SubscribeContext, or the span context derived from it when tracing is on,
// so log bridges can correlate lines with the subscription span.
type ContextualLogger interface {
	DebugContext(ctx context.Context, msg string, args ...any)
	InfoContext(ctx context.Context, msg string, args ...any)
	WarnContext(ctx context.Context, msg string, args ...any)
	ErrorContext(ctx context.Context, msg string, args ...any)
}

// MetricsCollector receives subscription metrics. Labels always contain "observable".
type MetricsCollector interface {
	// RecordDuration receives the lifetime of a closed subscription, labelled with its status.
	RecordDuration(metric string, duration time.Duration, labels map[string]string)
	// IncrementCounter receives subscriptions, teardowns, unhandled errors, cleanup failures and multicast starts.
	IncrementCounter(metric string, labels map[string]string)
	// RecordValue receives the current subscriber count of shared observables.
	RecordValue(metric string, value float64, labels map[string]string)
}

// ContextualMetricsCollector is an optional extension of MetricsCollector.
// When a collector implements it, the Context methods are called instead of the plain ones.
type ContextualMetricsCollector interface {
	MetricsCollector
	RecordDurationContext(ctx context.Context, metric string, duration time.Duration, labels map[string]string)
	IncrementCounterContext(ctx context.Context, metric string, labels map[string]string)
	RecordValueContext(ctx context.Context, metric string, value float64, labels map[string]string)
}

// SpanContext is the handle of one subscription span.
type SpanContext interface {
	// SetStatus receives "completed", "error" or "unsubscribed" when the subscription closes.
	SetStatus(status string)
	AddAttribute(key, value string)
}

// TracingCollector opens one span per subscription and finishes it when the subscription closes.
// Implement it to plug in any tracing backend; package oteladapters provides one for OpenTelemetry.
type TracingCollector interface {
	StartSpan(ctx context.Context, name string, attrs map[string]string) (context.Context, SpanContext)
	FinishSpan(spanCtx SpanContext, status string, attrs map[string]string)
}
