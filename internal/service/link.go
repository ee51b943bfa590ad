package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MEITREX/docprocai-fileingestlib/internal/metrics"
	"github.com/MEITREX/docprocai-fileingestlib/internal/models"
)

// EnqueueLinkContent schedules cross-linking of all segments belonging to the
// given media records under one content grouping. Linking runs at lower
// priority than ingestion so it always sees the freshest segments.
func (s *Service) EnqueueLinkContent(contentID uuid.UUID, mediaRecordIDs []uuid.UUID) {
	s.logger.Info("queueing content linking",
		"content", contentID,
		"media_records", len(mediaRecordIDs))

	s.sched.Enqueue(fmt.Sprintf("link %s", contentID), PriorityLink, func(ctx context.Context) error {
		return s.linkContent(ctx, contentID, mediaRecordIDs)
	})
}

// linkContent compares every segment pair across different media records and
// records a link for each pair whose texts are near-duplicates. Pairs already
// linked are skipped, so re-running is idempotent.
func (s *Service) linkContent(ctx context.Context, contentID uuid.UUID, mediaRecordIDs []uuid.UUID) error {
	start := time.Now()

	segments, err := s.store.SegmentsByMediaRecords(ctx, mediaRecordIDs)
	if err != nil {
		return fmt.Errorf("fetch segments: %w", err)
	}

	var created int
	for i := 0; i < len(segments); i++ {
		for j := i + 1; j < len(segments); j++ {
			a, b := segments[i], segments[j]
			// Segments of the same record are trivially similar.
			if a.MediaRecordID() == b.MediaRecordID() {
				continue
			}
			if s.scorer.Similarity(a.ComparisonText(), b.ComparisonText()) <= s.linkThreshold {
				continue
			}

			exists, err := s.store.LinkExists(ctx, a.SegmentID(), b.SegmentID())
			if err != nil {
				return fmt.Errorf("check link: %w", err)
			}
			if exists {
				continue
			}

			link := models.Link{
				ContentID:  contentID,
				Segment1ID: a.SegmentID(),
				Segment2ID: b.SegmentID(),
			}
			if err := s.store.InsertLink(ctx, link); err != nil {
				return fmt.Errorf("insert link: %w", err)
			}
			created++
		}
	}

	s.metrics.RecordTiming(metrics.OpLink, time.Since(start))
	s.logger.Info("content linked",
		"content", contentID,
		"segments", len(segments),
		"links_created", created,
		"duration", time.Since(start))
	return nil
}

// GetLinks returns the linked segment pairs of a content grouping, with both
// sides resolved to full segments. Links whose segments have since vanished
// are skipped with a warning.
func (s *Service) GetLinks(ctx context.Context, contentID uuid.UUID) ([]models.LinkedSegments, error) {
	links, err := s.store.LinksByContent(ctx, contentID)
	if err != nil {
		return nil, fmt.Errorf("fetch links: %w", err)
	}
	if len(links) == 0 {
		return nil, nil
	}

	ids := make([]uuid.UUID, 0, len(links)*2)
	for _, link := range links {
		ids = append(ids, link.Segment1ID, link.Segment2ID)
	}
	segments, err := s.store.SegmentsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("fetch linked segments: %w", err)
	}

	byID := make(map[uuid.UUID]models.Segment, len(segments))
	for _, seg := range segments {
		byID[seg.SegmentID()] = seg
	}

	pairs := make([]models.LinkedSegments, 0, len(links))
	for _, link := range links {
		seg1, ok1 := byID[link.Segment1ID]
		seg2, ok2 := byID[link.Segment2ID]
		if !ok1 || !ok2 {
			s.logger.Warn("link references missing segment",
				"content", contentID,
				"segment1", link.Segment1ID,
				"segment2", link.Segment2ID)
			continue
		}
		pairs = append(pairs, models.LinkedSegments{Segment1: seg1, Segment2: seg2})
	}
	return pairs, nil
}
