package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ScrapeMetricsMeterName is the instrumentation scope for scraper metrics
const ScrapeMetricsMeterName = "github.com/stacklok/layermap-scraper/scrape"

// Termination reasons reported by RecordTaskTermination
const (
	TerminationStopped    = "stopped"
	TerminationFetchError = "fetch_error"
	TerminationWriteError = "write_error"
	TerminationShutdown   = "shutdown"
)

// ScrapeMetrics holds the OpenTelemetry instruments for the poll tasks and the
// reconciliation loop. A nil *ScrapeMetrics records nothing.
type ScrapeMetrics struct {
	scrapeDuration     metric.Float64Histogram
	activeTasks        metric.Int64UpDownCounter
	taskTerminations   metric.Int64Counter
	resolutionFailures metric.Int64Counter
}

// NewScrapeMetrics creates a new ScrapeMetrics instance with the given meter provider.
// If provider is nil, it returns nil (no-op metrics).
func NewScrapeMetrics(provider metric.MeterProvider) (*ScrapeMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(ScrapeMetricsMeterName)

	scrapeDuration, err := meter.Float64Histogram(
		"layermap_scraper_scrape_duration_seconds",
		metric.WithDescription("Duration of a single layer map fetch and write"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30),
	)
	if err != nil {
		return nil, err
	}

	activeTasks, err := meter.Int64UpDownCounter(
		"layermap_scraper_active_tasks",
		metric.WithDescription("Number of running timeline poll tasks"),
		metric.WithUnit("{task}"),
	)
	if err != nil {
		return nil, err
	}

	taskTerminations, err := meter.Int64Counter(
		"layermap_scraper_task_terminations_total",
		metric.WithDescription("Poll task terminations by reason"),
		metric.WithUnit("{task}"),
	)
	if err != nil {
		return nil, err
	}

	resolutionFailures, err := meter.Int64Counter(
		"layermap_scraper_resolution_failures_total",
		metric.WithDescription("Failed attempts to resolve the desired timeline set"),
		metric.WithUnit("{failure}"),
	)
	if err != nil {
		return nil, err
	}

	return &ScrapeMetrics{
		scrapeDuration:     scrapeDuration,
		activeTasks:        activeTasks,
		taskTerminations:   taskTerminations,
		resolutionFailures: resolutionFailures,
	}, nil
}

// RecordScrapeDuration records how long one scrape of a timeline took
func (m *ScrapeMetrics) RecordScrapeDuration(ctx context.Context, tenantID string, duration time.Duration, success bool) {
	if m == nil || m.scrapeDuration == nil {
		return
	}

	m.scrapeDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("tenant_id", tenantID),
		attribute.Bool("success", success),
	))
}

// TaskStarted increments the active task count
func (m *ScrapeMetrics) TaskStarted(ctx context.Context) {
	if m == nil || m.activeTasks == nil {
		return
	}
	m.activeTasks.Add(ctx, 1)
}

// RecordTaskTermination decrements the active task count and counts the reason
func (m *ScrapeMetrics) RecordTaskTermination(ctx context.Context, reason string) {
	if m == nil {
		return
	}
	if m.activeTasks != nil {
		m.activeTasks.Add(ctx, -1)
	}
	if m.taskTerminations != nil {
		m.taskTerminations.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
	}
}

// RecordResolutionFailure counts a failed resolution of the desired set
func (m *ScrapeMetrics) RecordResolutionFailure(ctx context.Context) {
	if m == nil || m.resolutionFailures == nil {
		return
	}
	m.resolutionFailures.Add(ctx, 1)
}
