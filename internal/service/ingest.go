package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MEITREX/docprocai-fileingestlib/internal/metrics"
	"github.com/MEITREX/docprocai-fileingestlib/internal/models"
)

// EnqueueIngest schedules ingestion of a media record on the background
// worker and returns immediately. Failures are logged by the worker and do
// not surface to the caller.
func (s *Service) EnqueueIngest(mediaRecordID uuid.UUID) {
	s.logger.Info("queueing media record ingestion", "media_record", mediaRecordID)

	s.sched.Enqueue(fmt.Sprintf("ingest %s", mediaRecordID), PriorityIngest, func(ctx context.Context) error {
		return s.ingest(ctx, mediaRecordID)
	})
}

// ingest downloads and segments one media record, then persists the segments
// with fresh ids. Re-running ingestion appends new segments; it never
// replaces earlier ones.
func (s *Service) ingest(ctx context.Context, mediaRecordID uuid.UUID) error {
	start := time.Now()

	record, err := s.media.Resolve(ctx, mediaRecordID)
	if err != nil {
		return fmt.Errorf("resolve media record: %w", err)
	}

	switch record.Type {
	case models.MediaRecordTypeDocument, models.MediaRecordTypePresentation:
		err = s.ingestDocument(ctx, mediaRecordID, record)
	case models.MediaRecordTypeVideo:
		err = s.ingestVideo(ctx, mediaRecordID, record)
	default:
		return &UnsupportedMediaTypeError{Type: record.Type}
	}
	if err != nil {
		return err
	}

	s.metrics.RecordTiming(metrics.OpIngest, time.Since(start))
	s.logger.Info("media record ingested",
		"media_record", mediaRecordID,
		"type", record.Type,
		"duration", time.Since(start))
	return nil
}

func (s *Service) ingestDocument(ctx context.Context, mediaRecordID uuid.UUID, record models.MediaRecord) error {
	pages, err := s.pdfGen.GeneratePDFEmbeddings(ctx, record.InternalDownloadURL)
	if err != nil {
		return fmt.Errorf("generate document embeddings: %w", err)
	}

	segments := make([]models.DocumentSegment, 0, len(pages))
	for _, page := range pages {
		// Pages without recognizable text carry no searchable signal.
		if page.Text == "" {
			continue
		}
		segments = append(segments, models.DocumentSegment{
			ID:          uuid.New(),
			Text:        page.Text,
			MediaRecord: mediaRecordID,
			Page:        page.PageNumber,
			Embedding:   page.Embedding,
		})
	}
	if len(segments) == 0 {
		s.logger.Warn("document produced no segments", "media_record", mediaRecordID)
		return nil
	}

	if err := s.store.InsertDocumentSegments(ctx, segments); err != nil {
		return fmt.Errorf("store document segments: %w", err)
	}
	return nil
}

func (s *Service) ingestVideo(ctx context.Context, mediaRecordID uuid.UUID, record models.MediaRecord) error {
	parts, err := s.videoGen.GenerateVideoEmbeddings(ctx, record.InternalDownloadURL)
	if err != nil {
		return fmt.Errorf("generate video embeddings: %w", err)
	}

	segments := make([]models.VideoSegment, 0, len(parts))
	for _, part := range parts {
		segments = append(segments, models.VideoSegment{
			ID:          uuid.New(),
			ScreenText:  part.ScreenText,
			Transcript:  part.Transcript,
			MediaRecord: mediaRecordID,
			StartTime:   part.StartTime,
			Embedding:   part.Embedding,
		})
	}
	if len(segments) == 0 {
		s.logger.Warn("video produced no segments", "media_record", mediaRecordID)
		return nil
	}

	if err := s.store.InsertVideoSegments(ctx, segments); err != nil {
		return fmt.Errorf("store video segments: %w", err)
	}
	return nil
}
