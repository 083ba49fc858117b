// Package writer persists scraped layer maps.
package writer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

//go:generate mockgen -destination=mocks/mock_record_writer.go -package=mocks -source=writer.go RecordWriter

// ErrInvalidRecord is returned by Append for a record that cannot be stored
var ErrInvalidRecord = errors.New("invalid layer map record")

// Record is one scraped layer map for one timeline.
type Record struct {
	// ID identifies the row. Append assigns one if it is uuid.Nil.
	ID uuid.UUID
	// ScrapeTime is taken immediately before the fetch was issued
	ScrapeTime time.Time
	// PageserverID is "<environment>-<pageserver id>"
	PageserverID string
	// LaunchID is the pageserver launch timestamp; nil when the pageserver did not report one
	LaunchID   *string
	TenantID   string
	TimelineID string
	// LayerMap is the pageserver's layer map document, stored as-is
	LayerMap json.RawMessage
}

// Validate checks the fields the layer_map table requires
func (r *Record) Validate() error {
	switch {
	case r == nil:
		return fmt.Errorf("%w: record is nil", ErrInvalidRecord)
	case r.ScrapeTime.IsZero():
		return fmt.Errorf("%w: scrape time is required", ErrInvalidRecord)
	case r.PageserverID == "":
		return fmt.Errorf("%w: pageserver id is required", ErrInvalidRecord)
	case r.TenantID == "" || r.TimelineID == "":
		return fmt.Errorf("%w: tenant and timeline ids are required", ErrInvalidRecord)
	case !json.Valid(r.LayerMap):
		return fmt.Errorf("%w: layer map is not valid JSON", ErrInvalidRecord)
	}
	return nil
}

// RecordWriter appends layer map records to durable storage.
// Implementations must be safe for concurrent use by many poll tasks.
type RecordWriter interface {
	// Append stores a single record. Each call is its own unit of work.
	Append(ctx context.Context, rec *Record) error
}
