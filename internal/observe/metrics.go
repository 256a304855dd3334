// Package observe provides OpenTelemetry metrics and tracing for the service,
// plus the HTTP middleware and completion decorator that record them.
//
// Metrics are exported through a Prometheus bridge set up by InitProvider and
// scraped from /metrics. Tests should use NewMetrics with their own
// metric.MeterProvider to avoid cross-test pollution.
package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all metrics.
const meterName = "github.com/vilisasu/bibleai-api"

// Metrics holds all metric instruments for the application. The underlying
// OTel types are safe for concurrent use.
type Metrics struct {
	// CompletionDuration tracks AI backend call latency. Attributes:
	// provider, operation, status.
	CompletionDuration metric.Float64Histogram

	// BatchOutcomes counts devotional batches by kind and outcome
	// (parsed, fallback, error).
	BatchOutcomes metric.Int64Counter

	// BatchDuration tracks devotional batch latency by kind.
	BatchDuration metric.Float64Histogram

	// AggregateDuration tracks whole devotional aggregate calls by outcome.
	AggregateDuration metric.Float64Histogram

	// AudioClips counts generated text-to-speech clips by store.
	AudioClips metric.Int64Counter

	// HTTPRequestDuration tracks request latency by method, route and status.
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets are bucket boundaries in seconds sized for LLM calls that
// take from a fraction of a second up to the batch timeout.
var latencyBuckets = []float64{
	0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30, 45, 60,
}

// NewMetrics creates every instrument on the given provider.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.CompletionDuration, err = m.Float64Histogram("bibleai.ai.request.duration",
		metric.WithDescription("Latency of AI backend calls."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.BatchOutcomes, err = m.Int64Counter("bibleai.devotional.batches",
		metric.WithDescription("Devotional generation batches by kind and outcome."),
	); err != nil {
		return nil, err
	}
	if met.BatchDuration, err = m.Float64Histogram("bibleai.devotional.batch.duration",
		metric.WithDescription("Latency of one devotional generation batch."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.AggregateDuration, err = m.Float64Histogram("bibleai.devotional.aggregate.duration",
		metric.WithDescription("Latency of a full verse and prayer aggregate."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.AudioClips, err = m.Int64Counter("bibleai.audio.clips",
		metric.WithDescription("Generated audio clips by store."),
	); err != nil {
		return nil, err
	}
	if met.HTTPRequestDuration, err = m.Float64Histogram("bibleai.http.request.duration",
		metric.WithDescription("HTTP request latency by method, route and status."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// RecordBatch records one finished devotional batch.
func (m *Metrics) RecordBatch(ctx context.Context, kind, outcome string, elapsed time.Duration) {
	m.BatchOutcomes.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("outcome", outcome),
	))
	m.BatchDuration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(
		attribute.String("kind", kind),
	))
}

// RecordAggregate records one finished devotional aggregate.
func (m *Metrics) RecordAggregate(ctx context.Context, outcome string, elapsed time.Duration) {
	m.AggregateDuration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(
		attribute.String("outcome", outcome),
	))
}

// RecordCompletion records one AI backend call.
func (m *Metrics) RecordCompletion(ctx context.Context, provider, operation, status string, elapsed time.Duration) {
	m.CompletionDuration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("operation", operation),
		attribute.String("status", status),
	))
}

// RecordAudioClip counts one stored clip.
func (m *Metrics) RecordAudioClip(ctx context.Context, store string) {
	m.AudioClips.Add(ctx, 1, metric.WithAttributes(attribute.String("store", store)))
}
