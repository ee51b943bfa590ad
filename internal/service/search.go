package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MEITREX/docprocai-fileingestlib/internal/metrics"
	"github.com/MEITREX/docprocai-fileingestlib/internal/models"
)

// Search embeds the query text and returns up to count segments ordered by
// ascending vector distance. Only segments of whitelisted media records are
// considered; an empty whitelist yields no results without touching the
// embedding provider.
func (s *Service) Search(ctx context.Context, query string, count int, whitelist, blacklist []uuid.UUID) ([]models.ScoredSegment, error) {
	if len(whitelist) == 0 {
		return nil, nil
	}

	start := time.Now()

	embedStart := time.Now()
	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	s.metrics.RecordTiming(metrics.OpEmbedding, time.Since(embedStart))

	results, err := s.store.NearestSegments(ctx, embedding, count, whitelist, blacklist)
	if err != nil {
		return nil, fmt.Errorf("nearest segments: %w", err)
	}

	s.metrics.RecordTiming(metrics.OpSearch, time.Since(start))
	s.logger.Debug("search completed",
		"results", len(results),
		"count", count,
		"duration", time.Since(start))
	return results, nil
}

// DeleteMediaRecord removes a media record's segments and every link touching
// them. The operation runs synchronously so callers observe a consistent
// store afterwards.
func (s *Service) DeleteMediaRecord(ctx context.Context, mediaRecordID uuid.UUID) error {
	start := time.Now()

	if err := s.store.DeleteMediaRecord(ctx, mediaRecordID); err != nil {
		return fmt.Errorf("delete media record: %w", err)
	}

	s.metrics.RecordTiming(metrics.OpDelete, time.Since(start))
	s.logger.Info("media record deleted",
		"media_record", mediaRecordID,
		"duration", time.Since(start))
	return nil
}
