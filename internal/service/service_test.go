package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"

	"github.com/MEITREX/docprocai-fileingestlib/internal/extract"
	"github.com/MEITREX/docprocai-fileingestlib/internal/metrics"
	"github.com/MEITREX/docprocai-fileingestlib/internal/models"
	"github.com/MEITREX/docprocai-fileingestlib/internal/scheduler"
	"github.com/MEITREX/docprocai-fileingestlib/internal/similarity"
	"github.com/MEITREX/docprocai-fileingestlib/internal/store/memory"
)

type fakeResolver struct {
	records map[uuid.UUID]models.MediaRecord
}

func (f *fakeResolver) Resolve(ctx context.Context, id uuid.UUID) (models.MediaRecord, error) {
	record, ok := f.records[id]
	if !ok {
		return models.MediaRecord{}, fmt.Errorf("media record %s not found", id)
	}
	return record, nil
}

type fakePDFGen struct {
	pages map[string][]extract.PageEmbedding
}

func (f *fakePDFGen) GeneratePDFEmbeddings(ctx context.Context, downloadURL string) ([]extract.PageEmbedding, error) {
	return f.pages[downloadURL], nil
}

type fakeVideoGen struct {
	segments map[string][]extract.VideoSegmentEmbedding
}

func (f *fakeVideoGen) GenerateVideoEmbeddings(ctx context.Context, downloadURL string) ([]extract.VideoSegmentEmbedding, error) {
	return f.segments[downloadURL], nil
}

type fakeEmbedder struct {
	embedding []float32
	calls     int
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	f.calls++
	return f.embedding, nil
}

func (f *fakeEmbedder) Model() string  { return "fake" }
func (f *fakeEmbedder) Dimension() int { return len(f.embedding) }

type fixture struct {
	svc      *Service
	store    *memory.Store
	worker   *scheduler.Worker
	resolver *fakeResolver
	pdfGen   *fakePDFGen
	videoGen *fakeVideoGen
	embedder *fakeEmbedder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	st := memory.New()
	worker := scheduler.New(logger)
	worker.Start()
	t.Cleanup(worker.Stop)

	f := &fixture{
		store:    st,
		worker:   worker,
		resolver: &fakeResolver{records: map[uuid.UUID]models.MediaRecord{}},
		pdfGen:   &fakePDFGen{pages: map[string][]extract.PageEmbedding{}},
		videoGen: &fakeVideoGen{segments: map[string][]extract.VideoSegmentEmbedding{}},
		embedder: &fakeEmbedder{embedding: []float32{1, 0, 0}},
	}
	f.svc = New(st, f.resolver, f.pdfGen, f.videoGen, f.embedder,
		similarity.Levenshtein{}, worker, 0.9, metrics.NewCollector(), logger)
	return f
}

// addDocument registers a document record whose extraction yields the given
// page texts, one embedding dimension apart.
func (f *fixture) addDocument(texts ...string) uuid.UUID {
	id := uuid.New()
	url := "http://files/" + id.String()
	f.resolver.records[id] = models.MediaRecord{
		ID:                  id,
		Type:                models.MediaRecordTypeDocument,
		InternalDownloadURL: url,
	}
	pages := make([]extract.PageEmbedding, 0, len(texts))
	for i, text := range texts {
		pages = append(pages, extract.PageEmbedding{
			Text:       text,
			PageNumber: i,
			Embedding:  []float32{float32(i), 1, 0},
		})
	}
	f.pdfGen.pages[url] = pages
	return id
}

func (f *fixture) addVideo(screenTexts ...string) uuid.UUID {
	id := uuid.New()
	url := "http://files/" + id.String()
	f.resolver.records[id] = models.MediaRecord{
		ID:                  id,
		Type:                models.MediaRecordTypeVideo,
		InternalDownloadURL: url,
	}
	segments := make([]extract.VideoSegmentEmbedding, 0, len(screenTexts))
	for i, text := range screenTexts {
		segments = append(segments, extract.VideoSegmentEmbedding{
			ScreenText: text,
			Transcript: "transcript " + text,
			StartTime:  i * 30,
			Embedding:  []float32{float32(i), 0, 1},
		})
	}
	f.videoGen.segments[url] = segments
	return id
}

func TestService_IngestDocument(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	recordID := f.addDocument("page one text", "", "page three text")

	f.svc.EnqueueIngest(recordID)
	f.worker.Wait()

	segments, err := f.store.SegmentsByMediaRecords(ctx, []uuid.UUID{recordID})
	if err != nil {
		t.Fatalf("SegmentsByMediaRecords failed: %v", err)
	}
	// the empty page is dropped
	if len(segments) != 2 {
		t.Fatalf("got %d segments, want 2", len(segments))
	}
	for _, seg := range segments {
		doc, ok := seg.(models.DocumentSegment)
		if !ok {
			t.Fatalf("got segment type %T, want DocumentSegment", seg)
		}
		if doc.ID == uuid.Nil {
			t.Error("segment stored without id")
		}
		if doc.Text == "" {
			t.Error("empty page was stored")
		}
	}
}

func TestService_IngestVideo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	recordID := f.addVideo("intro slide", "derivation")

	f.svc.EnqueueIngest(recordID)
	f.worker.Wait()

	segments, err := f.store.SegmentsByMediaRecords(ctx, []uuid.UUID{recordID})
	if err != nil {
		t.Fatalf("SegmentsByMediaRecords failed: %v", err)
	}
	if len(segments) != 2 {
		t.Fatalf("got %d segments, want 2", len(segments))
	}
	video, ok := segments[0].(models.VideoSegment)
	if !ok {
		t.Fatalf("got segment type %T, want VideoSegment", segments[0])
	}
	if video.Transcript == "" || video.ScreenText == "" {
		t.Error("video segment fields not persisted")
	}
}

func TestService_IngestUnsupportedTypeDoesNotHaltWorker(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	quizID := uuid.New()
	f.resolver.records[quizID] = models.MediaRecord{
		ID:   quizID,
		Type: models.MediaRecordType("QUIZ"),
	}
	docID := f.addDocument("survives the failure before it")

	f.svc.EnqueueIngest(quizID)
	f.svc.EnqueueIngest(docID)
	f.worker.Wait()

	segments, err := f.store.SegmentsByMediaRecords(ctx, []uuid.UUID{docID})
	if err != nil {
		t.Fatalf("SegmentsByMediaRecords failed: %v", err)
	}
	if len(segments) != 1 {
		t.Fatalf("task after failed ingestion did not run, got %d segments", len(segments))
	}

	quizSegments, err := f.store.SegmentsByMediaRecords(ctx, []uuid.UUID{quizID})
	if err != nil {
		t.Fatalf("SegmentsByMediaRecords failed: %v", err)
	}
	if len(quizSegments) != 0 {
		t.Fatalf("unsupported record produced %d segments", len(quizSegments))
	}
}

func TestService_LinkContent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Page text and screen text match exactly, transcript differs.
	docID := f.addDocument("eigenvalues and eigenvectors", "unrelated appendix material")
	videoID := f.addVideo("eigenvalues and eigenvectors")

	f.svc.EnqueueIngest(docID)
	f.svc.EnqueueIngest(videoID)
	contentID := uuid.New()
	f.svc.EnqueueLinkContent(contentID, []uuid.UUID{docID, videoID})
	f.worker.Wait()

	pairs, err := f.svc.GetLinks(ctx, contentID)
	if err != nil {
		t.Fatalf("GetLinks failed: %v", err)
	}
	if len(pairs) != 1 {
		t.Fatalf("got %d links, want 1", len(pairs))
	}

	records := map[uuid.UUID]bool{
		pairs[0].Segment1.MediaRecordID(): true,
		pairs[0].Segment2.MediaRecordID(): true,
	}
	if !records[docID] || !records[videoID] {
		t.Error("link does not span the two media records")
	}
}

func TestService_LinkContentIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	docID := f.addDocument("identical text")
	videoID := f.addVideo("identical text")

	f.svc.EnqueueIngest(docID)
	f.svc.EnqueueIngest(videoID)
	contentID := uuid.New()
	f.svc.EnqueueLinkContent(contentID, []uuid.UUID{docID, videoID})
	f.svc.EnqueueLinkContent(contentID, []uuid.UUID{docID, videoID})
	f.worker.Wait()

	pairs, err := f.svc.GetLinks(ctx, contentID)
	if err != nil {
		t.Fatalf("GetLinks failed: %v", err)
	}
	if len(pairs) != 1 {
		t.Fatalf("repeated linking created %d links, want 1", len(pairs))
	}
}

func TestService_LinkContentSkipsSameRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Two identical pages within one document must not link to each other.
	docID := f.addDocument("repeated chapter summary", "repeated chapter summary")

	f.svc.EnqueueIngest(docID)
	contentID := uuid.New()
	f.svc.EnqueueLinkContent(contentID, []uuid.UUID{docID})
	f.worker.Wait()

	pairs, err := f.svc.GetLinks(ctx, contentID)
	if err != nil {
		t.Fatalf("GetLinks failed: %v", err)
	}
	if len(pairs) != 0 {
		t.Fatalf("got %d links within a single record, want 0", len(pairs))
	}
}

func TestService_LinkContentBelowThreshold(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	docID := f.addDocument("gradient descent optimization")
	videoID := f.addVideo("matrix decompositions in practice")

	f.svc.EnqueueIngest(docID)
	f.svc.EnqueueIngest(videoID)
	contentID := uuid.New()
	f.svc.EnqueueLinkContent(contentID, []uuid.UUID{docID, videoID})
	f.worker.Wait()

	pairs, err := f.svc.GetLinks(ctx, contentID)
	if err != nil {
		t.Fatalf("GetLinks failed: %v", err)
	}
	if len(pairs) != 0 {
		t.Fatalf("dissimilar texts produced %d links, want 0", len(pairs))
	}
}

func TestService_Search(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	docID := f.addDocument("first page", "second page", "third page")
	f.svc.EnqueueIngest(docID)
	f.worker.Wait()

	results, err := f.svc.Search(ctx, "query", 2, []uuid.UUID{docID}, nil)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Score > results[1].Score {
		t.Errorf("results not ordered by ascending distance: %v", results)
	}
	if f.embedder.calls != 1 {
		t.Errorf("embedder called %d times, want 1", f.embedder.calls)
	}
}

func TestService_SearchEmptyWhitelist(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	docID := f.addDocument("some page")
	f.svc.EnqueueIngest(docID)
	f.worker.Wait()

	results, err := f.svc.Search(ctx, "query", 10, nil, nil)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("got %d results for empty whitelist, want 0", len(results))
	}
	if f.embedder.calls != 0 {
		t.Errorf("embedder called %d times for empty whitelist, want 0", f.embedder.calls)
	}
}

func TestService_ReingestAfterDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	recordID := f.addDocument("chapter one", "chapter two")

	f.svc.EnqueueIngest(recordID)
	f.worker.Wait()

	before, err := f.store.SegmentsByMediaRecords(ctx, []uuid.UUID{recordID})
	if err != nil {
		t.Fatalf("SegmentsByMediaRecords failed: %v", err)
	}

	if err := f.svc.DeleteMediaRecord(ctx, recordID); err != nil {
		t.Fatalf("DeleteMediaRecord failed: %v", err)
	}

	f.svc.EnqueueIngest(recordID)
	f.worker.Wait()

	after, err := f.store.SegmentsByMediaRecords(ctx, []uuid.UUID{recordID})
	if err != nil {
		t.Fatalf("SegmentsByMediaRecords failed: %v", err)
	}
	if len(after) != len(before) {
		t.Fatalf("re-ingestion produced %d segments, want %d", len(after), len(before))
	}
}

func TestService_DeleteMediaRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	docID := f.addDocument("shared slide text")
	videoID := f.addVideo("shared slide text")

	f.svc.EnqueueIngest(docID)
	f.svc.EnqueueIngest(videoID)
	contentID := uuid.New()
	f.svc.EnqueueLinkContent(contentID, []uuid.UUID{docID, videoID})
	f.worker.Wait()

	if err := f.svc.DeleteMediaRecord(ctx, docID); err != nil {
		t.Fatalf("DeleteMediaRecord failed: %v", err)
	}

	pairs, err := f.svc.GetLinks(ctx, contentID)
	if err != nil {
		t.Fatalf("GetLinks failed: %v", err)
	}
	if len(pairs) != 0 {
		t.Fatalf("got %d links after deletion, want 0", len(pairs))
	}

	results, err := f.svc.Search(ctx, "query", 10, []uuid.UUID{docID, videoID}, nil)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	for _, res := range results {
		if res.Segment.MediaRecordID() == docID {
			t.Fatal("deleted record still searchable")
		}
	}
}
