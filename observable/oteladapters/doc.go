// Package oteladapters provides OpenTelemetry adapters for the observability interfaces of package observable.
// These adapters enable plug-and-play integration with OpenTelemetry for users who do not want to
// implement the interfaces themselves:
//   - MetricsCollector maps durations to histograms, counters to counters and values to gauges
//   - TracingCollector creates one span per subscription and maps the close status to a span status
//   - SlogBridgeLogger and OTelLogger log with trace correlation
package oteladapters
