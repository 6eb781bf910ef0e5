package main

import (
	"context"

	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/multierr"

	"github.com/AntonStoeckl/observable-go/observable"
	"github.com/AntonStoeckl/observable-go/observable/oteladapters"
)

// ObservabilityConfig holds the observability adapters for the demo observables together with the
// in-process OpenTelemetry providers backing them.
type ObservabilityConfig struct {
	Logger           observable.Logger
	ContextualLogger observable.ContextualLogger
	MetricsCollector observable.MetricsCollector
	TracingCollector observable.TracingCollector

	metricReader   *metric.ManualReader
	meterProvider  *metric.MeterProvider
	spanExporter   *tracetest.InMemoryExporter
	tracerProvider *trace.TracerProvider
}

// TelemetryReport summarizes what the OpenTelemetry providers collected during the run.
type TelemetryReport struct {
	Spans       int      `json:"spans"`
	SpanStatus  []string `json:"span_status"`
	MetricNames []string `json:"metric_names"`
}

func (c Config) NewObservabilityConfig() (*ObservabilityConfig, error) {
	obs := &ObservabilityConfig{Logger: c.NewLogger()}

	if !c.ObservabilityEnabled {
		return obs, nil
	}

	obs.metricReader = metric.NewManualReader()
	obs.meterProvider = metric.NewMeterProvider(metric.WithReader(obs.metricReader))
	obs.spanExporter = tracetest.NewInMemoryExporter()
	obs.tracerProvider = trace.NewTracerProvider(trace.WithSyncer(obs.spanExporter))

	obs.MetricsCollector = oteladapters.NewMetricsCollector(obs.meterProvider.Meter(demoName))
	obs.TracingCollector = oteladapters.NewTracingCollector(obs.tracerProvider.Tracer(demoName))
	obs.ContextualLogger = oteladapters.NewSlogBridgeLogger(demoName)

	return obs, nil
}

// Options converts the configured adapters into observable options.
func (c *ObservabilityConfig) Options() []observable.Option {
	var options []observable.Option

	if c.Logger != nil {
		options = append(options, observable.WithLogger(c.Logger))
	}
	if c.ContextualLogger != nil {
		options = append(options, observable.WithContextualLogger(c.ContextualLogger))
	}
	if c.MetricsCollector != nil {
		options = append(options, observable.WithMetrics(c.MetricsCollector))
	}
	if c.TracingCollector != nil {
		options = append(options, observable.WithTracing(c.TracingCollector))
	}

	return options
}

// Report prints a TelemetryReport if observability is enabled.
func (c *ObservabilityConfig) Report(ctx context.Context, printer *Printer) error {
	if c.metricReader == nil {
		return nil
	}

	var collected metricdata.ResourceMetrics
	if err := c.metricReader.Collect(ctx, &collected); err != nil {
		return err
	}

	report := TelemetryReport{}
	for _, scope := range collected.ScopeMetrics {
		for _, m := range scope.Metrics {
			report.MetricNames = append(report.MetricNames, m.Name)
		}
	}

	for _, span := range c.spanExporter.GetSpans() {
		report.Spans++
		report.SpanStatus = append(report.SpanStatus, span.Status.Code.String())
	}

	return printer.Print("telemetry", report)
}

func (c *ObservabilityConfig) Shutdown(ctx context.Context) {
	if c.meterProvider == nil {
		return
	}

	err := multierr.Combine(c.meterProvider.Shutdown(ctx), c.tracerProvider.Shutdown(ctx))
	if err != nil {
		c.Logger.Warn("failed to shut down telemetry providers", "error", err.Error())
	}
}
