// Package memory provides a brute-force in-memory implementation of the
// store boundary. Used in dev mode and by unit tests; semantics match the
// database-backed stores, with cosine distance computed in Go.
package memory

import (
	"context"
	"math"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/MEITREX/docprocai-fileingestlib/internal/models"
	"github.com/MEITREX/docprocai-fileingestlib/internal/store"
)

// Store keeps segments and links in slices guarded by a single RWMutex.
type Store struct {
	mu        sync.RWMutex
	documents []models.DocumentSegment
	videos    []models.VideoSegment
	links     []models.Link
}

var _ store.Store = (*Store)(nil)

// New creates an empty in-memory store.
func New() *Store {
	return &Store{}
}

// InsertDocumentSegments implements store.Store.
func (s *Store) InsertDocumentSegments(ctx context.Context, segments []models.DocumentSegment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents = append(s.documents, segments...)
	return nil
}

// InsertVideoSegments implements store.Store.
func (s *Store) InsertVideoSegments(ctx context.Context, segments []models.VideoSegment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.videos = append(s.videos, segments...)
	return nil
}

// SegmentsByMediaRecords implements store.Store.
func (s *Store) SegmentsByMediaRecords(ctx context.Context, ids []uuid.UUID) ([]models.Segment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idSet := toSet(ids)
	var result []models.Segment
	for _, d := range s.documents {
		if idSet[d.MediaRecord] {
			result = append(result, d)
		}
	}
	for _, v := range s.videos {
		if idSet[v.MediaRecord] {
			result = append(result, v)
		}
	}
	return result, nil
}

// SegmentsByIDs implements store.Store.
func (s *Store) SegmentsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Segment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idSet := toSet(ids)
	var result []models.Segment
	for _, d := range s.documents {
		if idSet[d.ID] {
			result = append(result, d)
		}
	}
	for _, v := range s.videos {
		if idSet[v.ID] {
			result = append(result, v)
		}
	}
	return result, nil
}

// NearestSegments implements store.Store. An empty whitelist matches nothing.
func (s *Store) NearestSegments(ctx context.Context, embedding []float32, count int, whitelist, blacklist []uuid.UUID) ([]models.ScoredSegment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	allowed := toSet(whitelist)
	denied := toSet(blacklist)

	var results []models.ScoredSegment
	consider := func(seg models.Segment) {
		record := seg.MediaRecordID()
		if !allowed[record] || denied[record] {
			return
		}
		results = append(results, models.ScoredSegment{
			Score:   cosineDistance(embedding, seg.Vector()),
			Segment: seg,
		})
	}
	for _, d := range s.documents {
		consider(d)
	}
	for _, v := range s.videos {
		consider(v)
	}

	slices.SortStableFunc(results, func(a, b models.ScoredSegment) int {
		switch {
		case a.Score < b.Score:
			return -1
		case a.Score > b.Score:
			return 1
		default:
			return 0
		}
	})

	if count >= 0 && len(results) > count {
		results = results[:count]
	}
	return results, nil
}

// InsertLink implements store.Store.
func (s *Store) InsertLink(ctx context.Context, link models.Link) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.links = append(s.links, link)
	return nil
}

// LinkExists implements store.Store. The check is undirected.
func (s *Store) LinkExists(ctx context.Context, segment1ID, segment2ID uuid.UUID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, l := range s.links {
		if (l.Segment1ID == segment1ID && l.Segment2ID == segment2ID) ||
			(l.Segment1ID == segment2ID && l.Segment2ID == segment1ID) {
			return true, nil
		}
	}
	return false, nil
}

// LinksByContent implements store.Store.
func (s *Store) LinksByContent(ctx context.Context, contentID uuid.UUID) ([]models.Link, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []models.Link
	for _, l := range s.links {
		if l.ContentID == contentID {
			result = append(result, l)
		}
	}
	return result, nil
}

// DeleteMediaRecord implements store.Store. Links are purged before segments
// so no dangling link is observable.
func (s *Store) DeleteMediaRecord(ctx context.Context, mediaRecordID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doomed := make(map[uuid.UUID]bool)
	for _, d := range s.documents {
		if d.MediaRecord == mediaRecordID {
			doomed[d.ID] = true
		}
	}
	for _, v := range s.videos {
		if v.MediaRecord == mediaRecordID {
			doomed[v.ID] = true
		}
	}

	s.links = slices.DeleteFunc(s.links, func(l models.Link) bool {
		return doomed[l.Segment1ID] || doomed[l.Segment2ID]
	})
	s.documents = slices.DeleteFunc(s.documents, func(d models.DocumentSegment) bool {
		return d.MediaRecord == mediaRecordID
	})
	s.videos = slices.DeleteFunc(s.videos, func(v models.VideoSegment) bool {
		return v.MediaRecord == mediaRecordID
	})
	return nil
}

// Close implements store.Store.
func (s *Store) Close(ctx context.Context) error {
	return nil
}

func toSet(ids []uuid.UUID) map[uuid.UUID]bool {
	set := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

// cosineDistance is 1 - cosine similarity, matching the pgvector <=>
// operator. Zero-magnitude vectors yield the maximum distance.
func cosineDistance(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}
