package writer

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stacklok/layermap-scraper/internal/db/sqlc"
)

// dbRecordWriter is a RecordWriter that inserts into the layer_map table
type dbRecordWriter struct {
	queries sqlc.Querier
}

// NewDBRecordWriter creates a RecordWriter backed by the given connection pool.
// The caller is responsible for closing the pool when done.
func NewDBRecordWriter(pool *pgxpool.Pool) (RecordWriter, error) {
	if pool == nil {
		return nil, fmt.Errorf("pgx pool is required")
	}
	return &dbRecordWriter{queries: sqlc.New(pool)}, nil
}

// Append inserts rec as one row. The pool's autocommit gives each insert its
// own transaction, so a failure never affects previously appended records.
func (d *dbRecordWriter) Append(ctx context.Context, rec *Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}

	if err := d.queries.InsertLayerMap(ctx, insertParams(rec)); err != nil {
		return fmt.Errorf("failed to insert layer map for %s/%s: %w", rec.TenantID, rec.TimelineID, err)
	}
	return nil
}

func insertParams(rec *Record) sqlc.InsertLayerMapParams {
	launchID := pgtype.Text{}
	if rec.LaunchID != nil {
		launchID = pgtype.Text{String: *rec.LaunchID, Valid: true}
	}

	return sqlc.InsertLayerMapParams{
		ID:           pgtype.UUID{Bytes: rec.ID, Valid: true},
		ScrapeTs:     pgtype.Timestamptz{Time: rec.ScrapeTime, Valid: true},
		PageserverID: rec.PageserverID,
		LaunchID:     launchID,
		TenantID:     rec.TenantID,
		TimelineID:   rec.TimelineID,
		LayerMap:     rec.LayerMap,
	}
}
