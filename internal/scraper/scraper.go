// Package scraper implements the poll task that repeatedly fetches one
// timeline's layer map and appends it to the record writer.
package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel/trace"
	"k8s.io/utils/clock"

	"github.com/stacklok/layermap-scraper/internal/otel"
	"github.com/stacklok/layermap-scraper/internal/pageserver"
	"github.com/stacklok/layermap-scraper/internal/target"
	"github.com/stacklok/layermap-scraper/internal/telemetry"
	"github.com/stacklok/layermap-scraper/internal/writer"
)

// Scraper holds what every poll task shares. It is safe for concurrent use;
// each key is driven by its own Run call.
type Scraper struct {
	client       pageserver.Client
	writer       writer.RecordWriter
	pageserverID string
	interval     time.Duration

	clock   clock.Clock
	metrics *telemetry.ScrapeMetrics
	tracer  trace.Tracer
}

// Option configures a Scraper
type Option func(*Scraper)

// WithClock replaces the wall clock, for tests
func WithClock(c clock.Clock) Option {
	return func(s *Scraper) {
		s.clock = c
	}
}

// WithMetrics records scrape durations
func WithMetrics(m *telemetry.ScrapeMetrics) Option {
	return func(s *Scraper) {
		s.metrics = m
	}
}

// WithTracer wraps each cycle in a span
func WithTracer(t trace.Tracer) Option {
	return func(s *Scraper) {
		s.tracer = t
	}
}

// New returns a Scraper tagging records with pageserverID and sleeping
// interval between cycles.
func New(
	client pageserver.Client,
	w writer.RecordWriter,
	pageserverID string,
	interval time.Duration,
	opts ...Option,
) (*Scraper, error) {
	if client == nil {
		return nil, fmt.Errorf("pageserver client is required")
	}
	if w == nil {
		return nil, fmt.Errorf("record writer is required")
	}
	if pageserverID == "" {
		return nil, fmt.Errorf("pageserver id is required")
	}
	if interval <= 0 {
		return nil, fmt.Errorf("interval must be positive, got %s", interval)
	}

	s := &Scraper{
		client:       client,
		writer:       w,
		pageserverID: pageserverID,
		interval:     interval,
		clock:        clock.RealClock{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// PageserverID returns the identity stamped on every record
func (s *Scraper) PageserverID() string {
	return s.pageserverID
}

// ScrapeTimeline runs one cycle for key: take the capture time, fetch the
// layer map resetting all access statistics, and append one record. Errors
// are *TaskError.
func (s *Scraper) ScrapeTimeline(ctx context.Context, key target.Key) (err error) {
	ctx, span := otel.StartSpan(ctx, s.tracer, "scraper.ScrapeTimeline",
		otel.WithTimeline(key.TenantID, key.TimelineID),
		trace.WithAttributes(otel.AttrPageserverID.String(s.pageserverID)),
	)
	defer span.End()

	scrapeTime := s.clock.Now()
	defer func() {
		s.metrics.RecordScrapeDuration(ctx, key.TenantID, s.clock.Since(scrapeTime), err == nil)
		otel.RecordError(span, err)
	}()

	layerMap, err := s.client.GetLayerMap(ctx, key.TenantID, key.TimelineID, pageserver.AllStats)
	if err != nil {
		return &TaskError{Key: key, Kind: KindFetch, Err: err}
	}
	if layerMap.LaunchID != nil {
		span.SetAttributes(otel.AttrLaunchID.String(*layerMap.LaunchID))
	}

	rec := &writer.Record{
		ScrapeTime:   scrapeTime.UTC(),
		PageserverID: s.pageserverID,
		LaunchID:     layerMap.LaunchID,
		TenantID:     key.TenantID,
		TimelineID:   key.TimelineID,
		LayerMap:     layerMap.Payload,
	}
	if err := s.writer.Append(ctx, rec); err != nil {
		return &TaskError{Key: key, Kind: KindWrite, Err: err}
	}

	historic := gjson.GetBytes(layerMap.Payload, "historic_layers.#").Int()
	inMemory := gjson.GetBytes(layerMap.Payload, "in_memory_layers.#").Int()
	span.SetAttributes(otel.AttrLayerCount.Int64(historic + inMemory))

	slog.Debug("Scraped layer map",
		"tenant_id", key.TenantID,
		"timeline_id", key.TimelineID,
		"historic_layers", historic,
		"in_memory_layers", inMemory,
		"launch_id", launchIDForLog(layerMap.LaunchID),
		"record_id", rec.ID,
	)
	return nil
}

// Run polls key until stop is closed, a cycle fails, or ctx is done.
//
// stop is only checked before a cycle starts; a stop raised while the task
// sleeps takes effect when the sleep ends. ctx cancellation ends the sleep
// at once and Run returns ctx.Err(). A failed cycle is logged and returned.
func (s *Scraper) Run(ctx context.Context, key target.Key, stop <-chan struct{}) error {
	slog.Info("Poll task started", "tenant_id", key.TenantID, "timeline_id", key.TimelineID)

	for {
		select {
		case <-stop:
			slog.Info("Poll task stopped", "tenant_id", key.TenantID, "timeline_id", key.TimelineID)
			return nil
		default:
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := s.ScrapeTimeline(ctx, key); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			slog.Error("Poll task failed",
				"tenant_id", key.TenantID,
				"timeline_id", key.TimelineID,
				"error", err,
			)
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.clock.After(s.interval):
		}
	}
}

func launchIDForLog(id *string) string {
	if id == nil {
		return ""
	}
	return *id
}
