package observe

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// newTestMetrics returns a Metrics instance backed by a ManualReader for
// programmatic metric inspection.
func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp)
	require.NoError(t, err)
	return m, reader
}

// collect gathers all metric data from the reader.
func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	return rm
}

// findMetric searches for a metric by name across all scope metrics.
func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func counterValue(t *testing.T, m *metricdata.Metrics, attrs ...attribute.KeyValue) int64 {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "metric %s is not an int64 sum", m.Name)

	want := attribute.NewSet(attrs...)
	for _, dp := range sum.DataPoints {
		if dp.Attributes.Equals(&want) {
			return dp.Value
		}
	}
	return 0
}

func histogramCount(t *testing.T, m *metricdata.Metrics) uint64 {
	t.Helper()
	hist, ok := m.Data.(metricdata.Histogram[float64])
	require.True(t, ok, "metric %s is not a float64 histogram", m.Name)

	var total uint64
	for _, dp := range hist.DataPoints {
		total += dp.Count
	}
	return total
}

func TestRecordBatch(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordBatch(ctx, "verse", "parsed", 2*time.Second)
	m.RecordBatch(ctx, "verse", "parsed", time.Second)
	m.RecordBatch(ctx, "prayer", "fallback", 45*time.Second)

	rm := collect(t, reader)

	batches := findMetric(rm, "bibleai.devotional.batches")
	require.NotNil(t, batches)
	assert.Equal(t, int64(2), counterValue(t, batches,
		attribute.String("kind", "verse"), attribute.String("outcome", "parsed")))
	assert.Equal(t, int64(1), counterValue(t, batches,
		attribute.String("kind", "prayer"), attribute.String("outcome", "fallback")))

	duration := findMetric(rm, "bibleai.devotional.batch.duration")
	require.NotNil(t, duration)
	assert.Equal(t, uint64(3), histogramCount(t, duration))
}

func TestRecordAggregateAndCompletion(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordAggregate(ctx, "success", 3*time.Second)
	m.RecordCompletion(ctx, "openai", "complete", "ok", time.Second)
	m.RecordAudioClip(ctx, "memory")

	rm := collect(t, reader)

	aggregate := findMetric(rm, "bibleai.devotional.aggregate.duration")
	require.NotNil(t, aggregate)
	assert.Equal(t, uint64(1), histogramCount(t, aggregate))

	completion := findMetric(rm, "bibleai.ai.request.duration")
	require.NotNil(t, completion)
	assert.Equal(t, uint64(1), histogramCount(t, completion))

	clips := findMetric(rm, "bibleai.audio.clips")
	require.NotNil(t, clips)
	assert.Equal(t, int64(1), counterValue(t, clips, attribute.String("store", "memory")))
}
