package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MEITREX/docprocai-fileingestlib/internal/extract"
	"github.com/MEITREX/docprocai-fileingestlib/internal/metrics"
	"github.com/MEITREX/docprocai-fileingestlib/internal/models"
	"github.com/MEITREX/docprocai-fileingestlib/internal/scheduler"
	"github.com/MEITREX/docprocai-fileingestlib/internal/server"
	"github.com/MEITREX/docprocai-fileingestlib/internal/service"
	"github.com/MEITREX/docprocai-fileingestlib/internal/similarity"
	"github.com/MEITREX/docprocai-fileingestlib/internal/store/memory"
)

// testLogger creates a logger that discards output.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubResolver struct {
	records map[uuid.UUID]models.MediaRecord
}

func (s *stubResolver) Resolve(ctx context.Context, id uuid.UUID) (models.MediaRecord, error) {
	record, ok := s.records[id]
	if !ok {
		return models.MediaRecord{}, fmt.Errorf("media record %s not found", id)
	}
	return record, nil
}

type stubPDFGen struct {
	pages []extract.PageEmbedding
}

func (s *stubPDFGen) GeneratePDFEmbeddings(ctx context.Context, downloadURL string) ([]extract.PageEmbedding, error) {
	return s.pages, nil
}

type stubVideoGen struct{}

func (stubVideoGen) GenerateVideoEmbeddings(ctx context.Context, downloadURL string) ([]extract.VideoSegmentEmbedding, error) {
	return nil, nil
}

type stubEmbedder struct{}

func (stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{1, 0, 0}, nil
}
func (stubEmbedder) Model() string  { return "stub" }
func (stubEmbedder) Dimension() int { return 3 }

type testEnv struct {
	handler  http.Handler
	worker   *scheduler.Worker
	store    *memory.Store
	resolver *stubResolver
	pdfGen   *stubPDFGen
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := testLogger()
	st := memory.New()
	worker := scheduler.New(logger)
	worker.Start()
	t.Cleanup(worker.Stop)

	resolver := &stubResolver{records: map[uuid.UUID]models.MediaRecord{}}
	pdfGen := &stubPDFGen{}

	svc := service.New(st, resolver, pdfGen, stubVideoGen{}, stubEmbedder{},
		similarity.Levenshtein{}, worker, 0.9, metrics.NewCollector(), logger)

	srv := server.New(":0", svc, logger)
	return &testEnv{
		handler:  srv.Handler(),
		worker:   worker,
		store:    st,
		resolver: resolver,
		pdfGen:   pdfGen,
	}
}

func (e *testEnv) request(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func TestHandleHealth(t *testing.T) {
	env := newTestEnv(t)

	rec := env.request(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestHandleIngest(t *testing.T) {
	env := newTestEnv(t)

	recordID := uuid.New()
	env.resolver.records[recordID] = models.MediaRecord{
		ID:   recordID,
		Type: models.MediaRecordTypeDocument,
	}
	env.pdfGen.pages = []extract.PageEmbedding{
		{Text: "page text", PageNumber: 0, Embedding: []float32{1, 0, 0}},
	}

	rec := env.request(t, http.MethodPost, "/api/media-records/"+recordID.String()+"/ingest", nil)
	require.Equal(t, http.StatusAccepted, rec.Code)

	env.worker.Wait()

	segments, err := env.store.SegmentsByMediaRecords(context.Background(), []uuid.UUID{recordID})
	require.NoError(t, err)
	assert.Len(t, segments, 1)
}

func TestHandleIngest_InvalidID(t *testing.T) {
	env := newTestEnv(t)

	rec := env.request(t, http.MethodPost, "/api/media-records/not-a-uuid/ingest", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleSearch(t *testing.T) {
	env := newTestEnv(t)

	recordID := uuid.New()
	err := env.store.InsertDocumentSegments(context.Background(), []models.DocumentSegment{{
		ID:          uuid.New(),
		Text:        "indexed page",
		MediaRecord: recordID,
		Page:        1,
		Embedding:   []float32{1, 0, 0},
	}})
	require.NoError(t, err)

	rec := env.request(t, http.MethodPost, "/api/search", map[string]any{
		"query":                "indexed",
		"count":                5,
		"mediaRecordWhitelist": []string{recordID.String()},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var results []struct {
		Score   float64 `json:"score"`
		Segment struct {
			Source        string `json:"source"`
			MediaRecordID string `json:"mediaRecordId"`
			Text          string `json:"text"`
			Page          *int   `json:"page"`
		} `json:"segment"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &results))
	require.Len(t, results, 1)
	assert.Equal(t, "document", results[0].Segment.Source)
	assert.Equal(t, recordID.String(), results[0].Segment.MediaRecordID)
	assert.Equal(t, "indexed page", results[0].Segment.Text)
	require.NotNil(t, results[0].Segment.Page)
	assert.Equal(t, 1, *results[0].Segment.Page)
}

func TestHandleSearch_Validation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		body map[string]any
	}{
		{name: "missing query", body: map[string]any{"count": 5}},
		{name: "zero count", body: map[string]any{"query": "x", "count": 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.request(t, http.MethodPost, "/api/search", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestHandleSearch_EmptyWhitelist(t *testing.T) {
	env := newTestEnv(t)

	rec := env.request(t, http.MethodPost, "/api/search", map[string]any{
		"query": "anything",
		"count": 5,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestHandleLinksRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	docRecord, videoRecord := uuid.New(), uuid.New()
	require.NoError(t, env.store.InsertDocumentSegments(ctx, []models.DocumentSegment{{
		ID:          uuid.New(),
		Text:        "identical slide text",
		MediaRecord: docRecord,
		Page:        0,
		Embedding:   []float32{1, 0, 0},
	}}))
	require.NoError(t, env.store.InsertVideoSegments(ctx, []models.VideoSegment{{
		ID:          uuid.New(),
		ScreenText:  "identical slide text",
		Transcript:  "spoken words",
		MediaRecord: videoRecord,
		StartTime:   30,
		Embedding:   []float32{0, 1, 0},
	}}))

	contentID := uuid.New()
	rec := env.request(t, http.MethodPost, "/api/contents/"+contentID.String()+"/links", map[string]any{
		"mediaRecordIds": []string{docRecord.String(), videoRecord.String()},
	})
	require.Equal(t, http.StatusAccepted, rec.Code)

	env.worker.Wait()

	rec = env.request(t, http.MethodGet, "/api/contents/"+contentID.String()+"/links", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var pairs []struct {
		Segment1 struct {
			Source string `json:"source"`
		} `json:"segment1"`
		Segment2 struct {
			Source string `json:"source"`
		} `json:"segment2"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pairs))
	require.Len(t, pairs, 1)

	sources := map[string]bool{
		pairs[0].Segment1.Source: true,
		pairs[0].Segment2.Source: true,
	}
	assert.True(t, sources["document"] && sources["video"], "link should span document and video")
}

func TestHandleDelete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	recordID := uuid.New()
	require.NoError(t, env.store.InsertDocumentSegments(ctx, []models.DocumentSegment{{
		ID:          uuid.New(),
		Text:        "doomed",
		MediaRecord: recordID,
		Embedding:   []float32{1, 0, 0},
	}}))

	rec := env.request(t, http.MethodDelete, "/api/media-records/"+recordID.String(), nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	segments, err := env.store.SegmentsByMediaRecords(ctx, []uuid.UUID{recordID})
	require.NoError(t, err)
	assert.Empty(t, segments)
}

func TestHandleStats(t *testing.T) {
	env := newTestEnv(t)

	rec := env.request(t, http.MethodGet, "/api/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var stats struct {
		QueueLength int             `json:"queueLength"`
		Operations  json.RawMessage `json:"operations"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 0, stats.QueueLength)
	assert.NotEmpty(t, stats.Operations)
}
