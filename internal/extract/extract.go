// Package extract defines the boundary to the embedding generators that turn
// downloaded media files into per-segment payloads.
package extract

import "context"

// PageEmbedding is one extracted PDF page with non-empty text.
type PageEmbedding struct {
	Text       string    `json:"text"`
	PageNumber int       `json:"pageNumber"`
	Embedding  []float32 `json:"embedding"`
}

// VideoSegmentEmbedding is one detected video segment.
type VideoSegmentEmbedding struct {
	ScreenText string    `json:"screenText"`
	Transcript string    `json:"transcript"`
	StartTime  int       `json:"startTime"`
	Embedding  []float32 `json:"embedding"`
}

// PDFGenerator produces per-page embeddings for a PDF or presentation
// reachable at downloadURL.
type PDFGenerator interface {
	GeneratePDFEmbeddings(ctx context.Context, downloadURL string) ([]PageEmbedding, error)
}

// VideoGenerator produces per-segment embeddings for a lecture video
// reachable at downloadURL.
type VideoGenerator interface {
	GenerateVideoEmbeddings(ctx context.Context, downloadURL string) ([]VideoSegmentEmbedding, error)
}
