package observable

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

const (
	defaultObservableName        = "observable"
	logMsgOperation              = "observable operation: "
	logMsgSubscribed             = "subscribed"
	logMsgSubscriptionClosed     = "subscription closed"
	logMsgTeardownExecuted       = "teardown executed"
	logMsgMulticastStarted       = "multicast started"
	logMsgMulticastStopped       = "multicast stopped"
	logMsgSubscriberCountChanged = "subscriber count changed"
	logMsgCleanupFailed          = "teardown failed"
	logMsgUnhandledError         = "unhandled error"
	logAttrObservable            = "observable"
	logAttrSubscriptionID        = "subscription_id"
	logAttrStatus                = "status"
	logAttrError                 = "error"
	logAttrDurationMS            = "duration_ms"
	logAttrSubscriberCount       = "subscriber_count"
	metricSubscriptions          = "observable_subscriptions_total"
	metricSubscriptionDuration   = "observable_subscription_duration_seconds"
	metricTeardowns              = "observable_teardowns_total"
	metricUnhandledErrors        = "observable_unhandled_errors_total"
	metricCleanupFailures        = "observable_cleanup_failures_total"
	metricMulticastStarts        = "observable_multicast_starts_total"
	metricSharedSubscribers      = "observable_shared_subscribers"
	spanNameSubscription         = "observable.subscription"
	spanAttrObservable           = "observable"
	spanAttrSubscriptionID       = "subscription_id"
	spanAttrDurationMS           = "duration_ms"
	spanAttrErrorType            = "error_type"
	statusCompleted              = "completed"
	statusError                  = "error"
	statusUnsubscribed           = "unsubscribed"
	errorTypeUnhandled           = "unhandled"
	errorTypeCleanup             = "cleanup"
	labelStatus                  = "status"
	labelObservable              = "observable"
	labelErrorType               = "error_type"
)

// instrumentation holds the optional observability collaborators of one observable.
// Every collaborator may be nil, in which case the corresponding signal is skipped.
type instrumentation struct {
	name             string
	logger           Logger
	contextualLogger ContextualLogger
	metricsCollector MetricsCollector
	tracingCollector TracingCollector
}

func newInstrumentation(options []Option) (*instrumentation, error) {
	in := &instrumentation{name: defaultObservableName}

	for _, option := range options {
		if err := option(in); err != nil {
			return nil, err
		}
	}

	return in, nil
}

// toMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func toMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}

func (in *instrumentation) labels(extra ...string) map[string]string {
	labels := map[string]string{labelObservable: in.name}
	for i := 0; i+1 < len(extra); i += 2 {
		labels[extra[i]] = extra[i+1]
	}

	return labels
}

func (in *instrumentation) logDebug(ctx context.Context, action string, args ...any) {
	args = append([]any{logAttrObservable, in.name}, args...)

	if in.logger != nil {
		in.logger.Debug(logMsgOperation+action, args...)
	}

	if in.contextualLogger != nil {
		in.contextualLogger.DebugContext(ctx, logMsgOperation+action, args...)
	}
}

func (in *instrumentation) logOperation(ctx context.Context, action string, args ...any) {
	args = append([]any{logAttrObservable, in.name}, args...)

	if in.logger != nil {
		in.logger.Info(logMsgOperation+action, args...)
	}

	if in.contextualLogger != nil {
		in.contextualLogger.InfoContext(ctx, logMsgOperation+action, args...)
	}
}

func (in *instrumentation) logWarn(ctx context.Context, message string, err error, args ...any) {
	allArgs := []any{logAttrObservable, in.name, logAttrError, err.Error()}
	allArgs = append(allArgs, args...)

	if in.logger != nil {
		in.logger.Warn(message, allArgs...)
	}

	if in.contextualLogger != nil {
		in.contextualLogger.WarnContext(ctx, message, allArgs...)
	}
}

func (in *instrumentation) logError(ctx context.Context, message string, err error, args ...any) {
	allArgs := []any{logAttrObservable, in.name, logAttrError, err.Error()}
	allArgs = append(allArgs, args...)

	if in.logger != nil {
		in.logger.Error(message, allArgs...)
	}

	if in.contextualLogger != nil {
		in.contextualLogger.ErrorContext(ctx, message, allArgs...)
	}
}

// incrementCounter increments a counter, using the context-aware method if the collector supports it.
func (in *instrumentation) incrementCounter(ctx context.Context, metric string, labels map[string]string) {
	if in.metricsCollector == nil {
		return
	}

	if contextualCollector, ok := in.metricsCollector.(ContextualMetricsCollector); ok {
		contextualCollector.IncrementCounterContext(ctx, metric, labels)
	} else {
		in.metricsCollector.IncrementCounter(metric, labels)
	}
}

// recordDuration records a duration, using the context-aware method if the collector supports it.
func (in *instrumentation) recordDuration(ctx context.Context, metric string, d time.Duration, labels map[string]string) {
	if in.metricsCollector == nil {
		return
	}

	if contextualCollector, ok := in.metricsCollector.(ContextualMetricsCollector); ok {
		contextualCollector.RecordDurationContext(ctx, metric, d, labels)
	} else {
		in.metricsCollector.RecordDuration(metric, d, labels)
	}
}

// recordValue records a value, using the context-aware method if the collector supports it.
func (in *instrumentation) recordValue(ctx context.Context, metric string, value float64, labels map[string]string) {
	if in.metricsCollector == nil {
		return
	}

	if contextualCollector, ok := in.metricsCollector.(ContextualMetricsCollector); ok {
		contextualCollector.RecordValueContext(ctx, metric, value, labels)
	} else {
		in.metricsCollector.RecordValue(metric, value, labels)
	}
}

// multicastStarted records that a shared observable invoked its multicast subscriber function.
func (in *instrumentation) multicastStarted(ctx context.Context) {
	in.logDebug(ctx, logMsgMulticastStarted)
	in.incrementCounter(ctx, metricMulticastStarts, in.labels())
}

// multicastStopped records that the last subscriber of a shared observable left.
func (in *instrumentation) multicastStopped(ctx context.Context) {
	in.logDebug(ctx, logMsgMulticastStopped)
}

// subscriberCountChanged records the current size of a shared observable's subscriber set.
func (in *instrumentation) subscriberCountChanged(ctx context.Context, count int) {
	in.recordValue(ctx, metricSharedSubscribers, float64(count), in.labels())
	in.logDebug(ctx, logMsgSubscriberCountChanged, logAttrSubscriberCount, count)
}

// === Subscription Lifecycle Observer ===
// lifecycle encapsulates logging, metrics and the tracing span of one subscription.

type lifecycle struct {
	in        *instrumentation
	ctx       context.Context
	id        string
	span      SpanContext
	startedAt time.Time
	finished  bool
}

// startLifecycle records a new subscription and starts its span if tracing is configured.
func (in *instrumentation) startLifecycle(ctx context.Context) *lifecycle {
	if ctx == nil {
		ctx = context.Background()
	}

	l := &lifecycle{
		in:        in,
		ctx:       ctx,
		id:        uuid.NewString(),
		startedAt: time.Now(),
	}

	if in.tracingCollector != nil {
		l.ctx, l.span = in.tracingCollector.StartSpan(ctx, spanNameSubscription, map[string]string{
			spanAttrObservable:     in.name,
			spanAttrSubscriptionID: l.id,
		})
	}

	in.logDebug(l.ctx, logMsgSubscribed, logAttrSubscriptionID, l.id)
	in.incrementCounter(l.ctx, metricSubscriptions, in.labels())

	return l
}

// finish records the end of the subscription with the given status. Only the first call counts.
func (l *lifecycle) finish(status string) {
	if l.finished {
		return
	}
	l.finished = true

	duration := time.Since(l.startedAt)

	l.in.logOperation(l.ctx, logMsgSubscriptionClosed,
		logAttrSubscriptionID, l.id,
		logAttrStatus, status,
		logAttrDurationMS, toMilliseconds(duration),
	)
	l.in.recordDuration(l.ctx, metricSubscriptionDuration, duration, l.in.labels(labelStatus, status))

	if l.span != nil && l.in.tracingCollector != nil {
		l.span.SetStatus(status)
		l.span.AddAttribute(spanAttrDurationMS, fmt.Sprintf("%.2f", toMilliseconds(duration)))
		l.in.tracingCollector.FinishSpan(l.span, status, map[string]string{
			spanAttrSubscriptionID: l.id,
		})
	}
}

func (l *lifecycle) teardownExecuted() {
	l.in.logDebug(l.ctx, logMsgTeardownExecuted, logAttrSubscriptionID, l.id)
	l.in.incrementCounter(l.ctx, metricTeardowns, l.in.labels())
}

// cleanupFailed records a teardown failure that was swallowed to keep the primary notification intact.
func (l *lifecycle) cleanupFailed(err error) {
	l.in.logWarn(l.ctx, logMsgOperation+logMsgCleanupFailed, err, logAttrSubscriptionID, l.id)
	l.in.incrementCounter(l.ctx, metricCleanupFailures, l.in.labels(labelErrorType, errorTypeCleanup))
}

// unhandledError records an error that is returned to the caller because no error handler took it.
func (l *lifecycle) unhandledError(err error) {
	l.in.logError(l.ctx, logMsgOperation+logMsgUnhandledError, err, logAttrSubscriptionID, l.id)
	l.in.incrementCounter(l.ctx, metricUnhandledErrors, l.in.labels(labelErrorType, errorTypeUnhandled))

	if l.span != nil {
		l.span.AddAttribute(spanAttrErrorType, errorTypeUnhandled)
	}
}
