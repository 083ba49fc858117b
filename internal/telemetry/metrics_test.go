package telemetry

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

func collectScrapeMetrics(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]metricdata.Aggregation)
	for _, scope := range rm.ScopeMetrics {
		if scope.Scope.Name != ScrapeMetricsMeterName {
			continue
		}
		for _, m := range scope.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func newTestScrapeMetrics(t *testing.T) (*ScrapeMetrics, *sdkmetric.ManualReader) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	metrics, err := NewScrapeMetrics(mp)
	require.NoError(t, err)
	require.NotNil(t, metrics)
	return metrics, reader
}

func TestNewScrapeMetrics(t *testing.T) {
	t.Parallel()

	t.Run("returns nil when provider is nil", func(t *testing.T) {
		t.Parallel()

		metrics, err := NewScrapeMetrics(nil)
		require.NoError(t, err)
		assert.Nil(t, metrics)
	})

	t.Run("creates all instruments", func(t *testing.T) {
		t.Parallel()

		metrics, _ := newTestScrapeMetrics(t)
		assert.NotNil(t, metrics.scrapeDuration)
		assert.NotNil(t, metrics.activeTasks)
		assert.NotNil(t, metrics.taskTerminations)
		assert.NotNil(t, metrics.resolutionFailures)
	})
}

func TestScrapeMetrics_NilSafe(t *testing.T) {
	t.Parallel()

	var metrics *ScrapeMetrics
	ctx := context.Background()

	assert.NotPanics(t, func() {
		metrics.RecordScrapeDuration(ctx, "tenant", time.Second, true)
		metrics.TaskStarted(ctx)
		metrics.RecordTaskTermination(ctx, TerminationStopped)
		metrics.RecordResolutionFailure(ctx)
	})
}

func TestScrapeMetrics_RecordScrapeDuration(t *testing.T) {
	t.Parallel()

	metrics, reader := newTestScrapeMetrics(t)
	metrics.RecordScrapeDuration(context.Background(), "tenant-a", 1500*time.Millisecond, true)

	data := collectScrapeMetrics(t, reader)
	hist, ok := data["layermap_scraper_scrape_duration_seconds"].(metricdata.Histogram[float64])
	require.True(t, ok, "expected histogram data type")
	require.Len(t, hist.DataPoints, 1)
	assert.InDelta(t, 1.5, hist.DataPoints[0].Sum, 0.001)

	tenant, ok := hist.DataPoints[0].Attributes.Value(attribute.Key("tenant_id"))
	require.True(t, ok)
	assert.Equal(t, "tenant-a", tenant.AsString())
}

func TestScrapeMetrics_TaskLifecycle(t *testing.T) {
	t.Parallel()

	metrics, reader := newTestScrapeMetrics(t)
	ctx := context.Background()

	metrics.TaskStarted(ctx)
	metrics.TaskStarted(ctx)
	metrics.TaskStarted(ctx)
	metrics.RecordTaskTermination(ctx, TerminationStopped)
	metrics.RecordTaskTermination(ctx, TerminationFetchError)

	data := collectScrapeMetrics(t, reader)

	active, ok := data["layermap_scraper_active_tasks"].(metricdata.Sum[int64])
	require.True(t, ok, "expected sum data type")
	require.Len(t, active.DataPoints, 1)
	assert.Equal(t, int64(1), active.DataPoints[0].Value)

	terminations, ok := data["layermap_scraper_task_terminations_total"].(metricdata.Sum[int64])
	require.True(t, ok, "expected sum data type")
	byReason := make(map[string]int64)
	for _, dp := range terminations.DataPoints {
		reason, _ := dp.Attributes.Value(attribute.Key("reason"))
		byReason[reason.AsString()] = dp.Value
	}
	assert.Equal(t, map[string]int64{
		TerminationStopped:    1,
		TerminationFetchError: 1,
	}, byReason)
}

func TestScrapeMetrics_RecordResolutionFailure(t *testing.T) {
	t.Parallel()

	metrics, reader := newTestScrapeMetrics(t)
	metrics.RecordResolutionFailure(context.Background())
	metrics.RecordResolutionFailure(context.Background())

	data := collectScrapeMetrics(t, reader)
	failures, ok := data["layermap_scraper_resolution_failures_total"].(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, failures.DataPoints, 1)
	assert.Equal(t, int64(2), failures.DataPoints[0].Value)
}
