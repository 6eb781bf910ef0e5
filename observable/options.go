package observable

// Option defines a functional option for configuring an Observable or SharedObservable.
type Option func(*instrumentation) error

// WithName sets the name used as "observable" log attribute, metric label and span attribute.
func WithName(name string) Option {
	return func(in *instrumentation) error {
		if name == "" {
			return ErrEmptyObservableName
		}

		in.name = name

		return nil
	}
}

// WithLogger sets the logger.
// The logger will receive messages at different levels based on the logger's configured level:
//
// Debug level: subscriptions, executed teardowns, multicast start and stop
// Info level: closed subscriptions with status and duration (production-safe)
// Warn level: teardown failures swallowed while an error or completion is delivered
// Error level: unhandled errors returned to the caller.
func WithLogger(logger Logger) Option {
	return func(in *instrumentation) error {
		in.logger = logger
		return nil
	}
}

// WithContextualLogger sets the contextual logger.
// It receives the same messages as the Logger, together with the context passed to SubscribeContext,
// which enables trace correlation when tracing is enabled.
func WithContextualLogger(logger ContextualLogger) Option {
	return func(in *instrumentation) error {
		in.contextualLogger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector.
// It receives subscription counts and durations, teardown counts, unhandled errors, cleanup failures
// and, for shared observables, multicast starts and the current subscriber count.
func WithMetrics(collector MetricsCollector) Option {
	return func(in *instrumentation) error {
		in.metricsCollector = collector
		return nil
	}
}

// WithTracing sets the tracing collector.
// Every subscription gets one span, started on subscribe and finished when the subscription closes.
func WithTracing(collector TracingCollector) Option {
	return func(in *instrumentation) error {
		in.tracingCollector = collector
		return nil
	}
}
