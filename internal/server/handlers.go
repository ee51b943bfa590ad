package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/MEITREX/docprocai-fileingestlib/internal/models"
)

// segmentDTO is the wire shape of a segment. Source discriminates which of
// the optional fields are populated.
type segmentDTO struct {
	Source        string `json:"source"`
	ID            string `json:"id"`
	MediaRecordID string `json:"mediaRecordId"`
	Text          string `json:"text,omitempty"`
	Page          *int   `json:"page,omitempty"`
	ScreenText    string `json:"screenText,omitempty"`
	Transcript    string `json:"transcript,omitempty"`
	StartTime     *int   `json:"startTime,omitempty"`
}

type linkedPairDTO struct {
	Segment1 segmentDTO `json:"segment1"`
	Segment2 segmentDTO `json:"segment2"`
}

type scoredSegmentDTO struct {
	Score   float64    `json:"score"`
	Segment segmentDTO `json:"segment"`
}

type linkRequest struct {
	MediaRecordIDs []uuid.UUID `json:"mediaRecordIds"`
}

type searchRequest struct {
	Query                string      `json:"query"`
	Count                int         `json:"count"`
	MediaRecordWhitelist []uuid.UUID `json:"mediaRecordWhitelist"`
	MediaRecordBlacklist []uuid.UUID `json:"mediaRecordBlacklist"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func toSegmentDTO(seg models.Segment) segmentDTO {
	switch s := seg.(type) {
	case models.DocumentSegment:
		page := s.Page
		return segmentDTO{
			Source:        "document",
			ID:            s.ID.String(),
			MediaRecordID: s.MediaRecord.String(),
			Text:          s.Text,
			Page:          &page,
		}
	case models.VideoSegment:
		start := s.StartTime
		return segmentDTO{
			Source:        "video",
			ID:            s.ID.String(),
			MediaRecordID: s.MediaRecord.String(),
			ScreenText:    s.ScreenText,
			Transcript:    s.Transcript,
			StartTime:     &start,
		}
	default:
		return segmentDTO{
			ID:            seg.SegmentID().String(),
			MediaRecordID: seg.MediaRecordID().String(),
		}
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, req *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleIngest(w http.ResponseWriter, req *http.Request) {
	id, err := uuid.Parse(req.PathValue("id"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid media record id")
		return
	}

	s.svc.EnqueueIngest(id)
	s.writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

func (s *Server) handleDelete(w http.ResponseWriter, req *http.Request) {
	id, err := uuid.Parse(req.PathValue("id"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid media record id")
		return
	}

	if err := s.svc.DeleteMediaRecord(req.Context(), id); err != nil {
		s.logger.Error("delete media record", "media_record", id, "error", err)
		s.writeError(w, http.StatusInternalServerError, "delete failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLinkContent(w http.ResponseWriter, req *http.Request) {
	contentID, err := uuid.Parse(req.PathValue("id"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid content id")
		return
	}

	var body linkRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.svc.EnqueueLinkContent(contentID, body.MediaRecordIDs)
	s.writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

func (s *Server) handleGetLinks(w http.ResponseWriter, req *http.Request) {
	contentID, err := uuid.Parse(req.PathValue("id"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid content id")
		return
	}

	pairs, err := s.svc.GetLinks(req.Context(), contentID)
	if err != nil {
		s.logger.Error("get links", "content", contentID, "error", err)
		s.writeError(w, http.StatusInternalServerError, "fetching links failed")
		return
	}

	out := make([]linkedPairDTO, 0, len(pairs))
	for _, pair := range pairs {
		out = append(out, linkedPairDTO{
			Segment1: toSegmentDTO(pair.Segment1),
			Segment2: toSegmentDTO(pair.Segment2),
		})
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSearch(w http.ResponseWriter, req *http.Request) {
	var body searchRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.Query == "" {
		s.writeError(w, http.StatusBadRequest, "query must not be empty")
		return
	}
	if body.Count <= 0 {
		s.writeError(w, http.StatusBadRequest, "count must be positive")
		return
	}

	results, err := s.svc.Search(req.Context(), body.Query, body.Count,
		body.MediaRecordWhitelist, body.MediaRecordBlacklist)
	if err != nil {
		s.logger.Error("search", "error", err)
		s.writeError(w, http.StatusInternalServerError, "search failed")
		return
	}

	out := make([]scoredSegmentDTO, 0, len(results))
	for _, res := range results {
		out = append(out, scoredSegmentDTO{
			Score:   res.Score,
			Segment: toSegmentDTO(res.Segment),
		})
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleStats(w http.ResponseWriter, req *http.Request) {
	snapshot := s.svc.Metrics()
	s.writeJSON(w, http.StatusOK, map[string]any{
		"queueLength": s.svc.QueueLength(),
		"operations":  snapshot,
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("encode response", slog.Any("error", err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, errorResponse{Error: message})
}
