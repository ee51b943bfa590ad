// Package service implements the ingestion, linking, search, and deletion
// operations on top of the store, the embedder, and the background worker.
package service

import (
	"fmt"
	"log/slog"

	"github.com/MEITREX/docprocai-fileingestlib/internal/embedding"
	"github.com/MEITREX/docprocai-fileingestlib/internal/extract"
	"github.com/MEITREX/docprocai-fileingestlib/internal/mediaservice"
	"github.com/MEITREX/docprocai-fileingestlib/internal/metrics"
	"github.com/MEITREX/docprocai-fileingestlib/internal/models"
	"github.com/MEITREX/docprocai-fileingestlib/internal/scheduler"
	"github.com/MEITREX/docprocai-fileingestlib/internal/similarity"
	"github.com/MEITREX/docprocai-fileingestlib/internal/store"
)

// Task priorities for the background worker. Lower runs first, so ingestion
// always preempts queued linking runs.
const (
	PriorityIngest = 0
	PriorityLink   = 1
)

// UnsupportedMediaTypeError is returned by ingestion when a media record's
// type has no segment extraction pipeline.
type UnsupportedMediaTypeError struct {
	Type models.MediaRecordType
}

func (e *UnsupportedMediaTypeError) Error() string {
	return fmt.Sprintf("unsupported media record type %q", e.Type)
}

// Service wires the media record pipeline together. All dependencies are
// injected; Service holds no global state.
type Service struct {
	store    store.Store
	media    mediaservice.Resolver
	pdfGen   extract.PDFGenerator
	videoGen extract.VideoGenerator
	embedder embedding.Embedder
	scorer   similarity.Scorer
	sched    *scheduler.Worker

	linkThreshold float64

	metrics *metrics.Collector
	logger  *slog.Logger
}

// New creates a Service. linkThreshold is the minimum similarity score two
// segment texts must reach for a link to be recorded.
func New(
	st store.Store,
	media mediaservice.Resolver,
	pdfGen extract.PDFGenerator,
	videoGen extract.VideoGenerator,
	embedder embedding.Embedder,
	scorer similarity.Scorer,
	sched *scheduler.Worker,
	linkThreshold float64,
	collector *metrics.Collector,
	logger *slog.Logger,
) *Service {
	return &Service{
		store:         st,
		media:         media,
		pdfGen:        pdfGen,
		videoGen:      videoGen,
		embedder:      embedder,
		scorer:        scorer,
		sched:         sched,
		linkThreshold: linkThreshold,
		metrics:       collector,
		logger:        logger,
	}
}

// Metrics returns a snapshot of operation timings.
func (s *Service) Metrics() metrics.Snapshot {
	return s.metrics.Snapshot()
}

// QueueLength reports how many background tasks are waiting.
func (s *Service) QueueLength() int {
	return s.sched.Len()
}
