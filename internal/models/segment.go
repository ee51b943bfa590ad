// Package models defines the data model for indexed lecture media segments.
package models

import (
	"github.com/google/uuid"
)

// MediaRecordType identifies the kind of media a record holds. Records are
// owned by the media service; this service only reacts to them.
type MediaRecordType string

const (
	MediaRecordTypeDocument     MediaRecordType = "DOCUMENT"
	MediaRecordTypePresentation MediaRecordType = "PRESENTATION"
	MediaRecordTypeVideo        MediaRecordType = "VIDEO"
)

// MediaRecord is the resolved view of a media record: its type and where the
// raw file can be downloaded from.
type MediaRecord struct {
	ID                  uuid.UUID
	Type                MediaRecordType
	InternalDownloadURL string
}

// Segment is the tagged union over the two segment shapes. Exactly
// DocumentSegment and VideoSegment implement it.
type Segment interface {
	// SegmentID returns the generated segment identifier.
	SegmentID() uuid.UUID

	// MediaRecordID returns the media record the segment was extracted from.
	MediaRecordID() uuid.UUID

	// ComparisonText returns the text-bearing field used for cross-content
	// similarity comparison: page text for documents, on-screen text for
	// videos.
	ComparisonText() string

	// Vector returns the segment's embedding.
	Vector() []float32

	sealed()
}

// DocumentSegment is one extracted page of a PDF or presentation with
// non-empty text. Immutable after creation.
type DocumentSegment struct {
	ID          uuid.UUID
	Text        string
	MediaRecord uuid.UUID
	Page        int
	Embedding   []float32
}

func (s DocumentSegment) SegmentID() uuid.UUID     { return s.ID }
func (s DocumentSegment) MediaRecordID() uuid.UUID { return s.MediaRecord }
func (s DocumentSegment) ComparisonText() string   { return s.Text }
func (s DocumentSegment) Vector() []float32        { return s.Embedding }
func (s DocumentSegment) sealed()                  {}

// VideoSegment is one detected time-window of a lecture video. Immutable
// after creation.
type VideoSegment struct {
	ID          uuid.UUID
	ScreenText  string
	Transcript  string
	MediaRecord uuid.UUID
	StartTime   int
	Embedding   []float32
}

func (s VideoSegment) SegmentID() uuid.UUID     { return s.ID }
func (s VideoSegment) MediaRecordID() uuid.UUID { return s.MediaRecord }
func (s VideoSegment) ComparisonText() string   { return s.ScreenText }
func (s VideoSegment) Vector() []float32        { return s.Embedding }
func (s VideoSegment) sealed()                  {}

// ScoredSegment pairs a segment with its vector distance to a query.
// Smaller score means more similar.
type ScoredSegment struct {
	Score   float64
	Segment Segment
}
