// Package store defines the vector store boundary: segment persistence,
// nearest-neighbor search with allow/deny filters, and the link table.
package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/MEITREX/docprocai-fileingestlib/internal/models"
)

// Store is the persistence boundary the service operates against. All
// mutations are individual statements assumed atomic at the statement level;
// no method wraps a full ingestion or linking run in a transaction.
type Store interface {
	// InsertDocumentSegments persists document segments. IDs must be set by
	// the caller.
	InsertDocumentSegments(ctx context.Context, segments []models.DocumentSegment) error

	// InsertVideoSegments persists video segments. IDs must be set by the
	// caller.
	InsertVideoSegments(ctx context.Context, segments []models.VideoSegment) error

	// SegmentsByMediaRecords returns every document and video segment whose
	// media record is in ids. Unknown ids simply contribute no segments.
	SegmentsByMediaRecords(ctx context.Context, ids []uuid.UUID) ([]models.Segment, error)

	// SegmentsByIDs fetches segments by their own ids. Missing ids are
	// silently omitted from the result.
	SegmentsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Segment, error)

	// NearestSegments returns up to count segments ordered by ascending
	// vector distance to embedding, restricted to media records in whitelist
	// and not in blacklist. An empty whitelist matches nothing.
	NearestSegments(ctx context.Context, embedding []float32, count int, whitelist, blacklist []uuid.UUID) ([]models.ScoredSegment, error)

	// InsertLink persists a link between two segments.
	InsertLink(ctx context.Context, link models.Link) error

	// LinkExists reports whether a link connects the two segments in either
	// direction, regardless of content grouping.
	LinkExists(ctx context.Context, segment1ID, segment2ID uuid.UUID) (bool, error)

	// LinksByContent returns all links recorded for a content grouping.
	LinksByContent(ctx context.Context, contentID uuid.UUID) ([]models.Link, error)

	// DeleteMediaRecord removes all links touching any segment of the media
	// record, then the record's document and video segments. Links go first
	// so no dangling link is ever observable.
	DeleteMediaRecord(ctx context.Context, mediaRecordID uuid.UUID) error

	// Close releases the underlying connection.
	Close(ctx context.Context) error
}
