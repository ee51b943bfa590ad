package models

import "github.com/google/uuid"

// Link records a discovered semantic equivalence between two segments that
// belong to different media records under the same content grouping.
// Undirected: (a,b) and (b,a) are the same link for existence checks.
type Link struct {
	ContentID  uuid.UUID
	Segment1ID uuid.UUID
	Segment2ID uuid.UUID
}

// LinkedSegments is a link resolved to its full segment shapes.
type LinkedSegments struct {
	Segment1 Segment
	Segment2 Segment
}
