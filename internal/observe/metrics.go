// Package observe provides application-wide observability primitives:
// OpenTelemetry metrics, distributed tracing, and HTTP middleware that ties
// them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can be
// scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all metrics.
const meterName = "github.com/barriocredito/voxpedido"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Latency histograms per pipeline stage ---

	// STTDuration tracks speech-to-text transcription latency.
	STTDuration metric.Float64Histogram

	// ExtractionDuration tracks structured-extraction (completion) latency.
	ExtractionDuration metric.Float64Histogram

	// CommitDuration tracks the order/lines/stock persistence sequence
	// latency.
	CommitDuration metric.Float64Histogram

	// PipelineDuration tracks end-to-end voice-order processing latency.
	PipelineDuration metric.Float64Histogram

	// --- Counters ---

	// OrdersCommitted counts successfully committed orders.
	OrdersCommitted metric.Int64Counter

	// Clarifications counts orders that required clarification instead of
	// committing. Use with attribute.String("reason", ...).
	Clarifications metric.Int64Counter

	// UnmatchedLines counts spoken lines no matching strategy resolved.
	UnmatchedLines metric.Int64Counter

	// ProviderErrors counts upstream provider failures. Use with
	// attribute.String("stage", ...).
	ProviderErrors metric.Int64Counter

	// --- HTTP middleware ---

	// HTTPRequestDuration tracks HTTP request processing time. Use with
	// attributes: attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds) covering
// both fast local stages and slow provider round-trips.
var latencyBuckets = []float64{
	0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Histograms.
	if met.STTDuration, err = m.Float64Histogram("voxpedido.stt.duration",
		metric.WithDescription("Latency of speech-to-text transcription."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.ExtractionDuration, err = m.Float64Histogram("voxpedido.extraction.duration",
		metric.WithDescription("Latency of structured order extraction."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.CommitDuration, err = m.Float64Histogram("voxpedido.commit.duration",
		metric.WithDescription("Latency of the order persistence sequence."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.PipelineDuration, err = m.Float64Histogram("voxpedido.pipeline.duration",
		metric.WithDescription("End-to-end voice-order processing latency."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	// Counters.
	if met.OrdersCommitted, err = m.Int64Counter("voxpedido.orders.committed",
		metric.WithDescription("Total orders committed."),
	); err != nil {
		return nil, err
	}
	if met.Clarifications, err = m.Int64Counter("voxpedido.orders.clarifications",
		metric.WithDescription("Total orders that required clarification, by reason."),
	); err != nil {
		return nil, err
	}
	if met.UnmatchedLines, err = m.Int64Counter("voxpedido.lines.unmatched",
		metric.WithDescription("Total spoken lines that matched no product."),
	); err != nil {
		return nil, err
	}
	if met.ProviderErrors, err = m.Int64Counter("voxpedido.provider.errors",
		metric.WithDescription("Total upstream provider errors by stage."),
	); err != nil {
		return nil, err
	}

	// HTTP middleware histogram.
	if met.HTTPRequestDuration, err = m.Float64Histogram("voxpedido.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordClarification records a clarification outcome with its reason
// ("no_items" or "doubt").
func (m *Metrics) RecordClarification(ctx context.Context, reason string) {
	m.Clarifications.Add(ctx, 1,
		metric.WithAttributes(attribute.String("reason", reason)),
	)
}

// RecordProviderError records an upstream provider failure for the given
// pipeline stage ("stt" or "llm").
func (m *Metrics) RecordProviderError(ctx context.Context, stage string) {
	m.ProviderErrors.Add(ctx, 1,
		metric.WithAttributes(attribute.String("stage", stage)),
	)
}
