package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPClient calls the OCR/ASR extractor sidecar over HTTP. The sidecar runs
// the actual models; this client only ships download URLs and receives
// segment payloads.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

var (
	_ PDFGenerator   = (*HTTPClient)(nil)
	_ VideoGenerator = (*HTTPClient)(nil)
)

// NewHTTPClient creates a client for the extractor sidecar at baseURL.
// Extraction involves model inference, so the timeout is generous.
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Minute,
		},
	}
}

type extractRequest struct {
	DownloadURL string `json:"downloadUrl"`
}

// GeneratePDFEmbeddings implements PDFGenerator.
func (c *HTTPClient) GeneratePDFEmbeddings(ctx context.Context, downloadURL string) ([]PageEmbedding, error) {
	var pages []PageEmbedding
	if err := c.post(ctx, "/extract/pdf", downloadURL, &pages); err != nil {
		return nil, fmt.Errorf("pdf extraction: %w", err)
	}
	return pages, nil
}

// GenerateVideoEmbeddings implements VideoGenerator.
func (c *HTTPClient) GenerateVideoEmbeddings(ctx context.Context, downloadURL string) ([]VideoSegmentEmbedding, error) {
	var segments []VideoSegmentEmbedding
	if err := c.post(ctx, "/extract/video", downloadURL, &segments); err != nil {
		return nil, fmt.Errorf("video extraction: %w", err)
	}
	return segments, nil
}

func (c *HTTPClient) post(ctx context.Context, path, downloadURL string, result any) error {
	reqBody, err := json.Marshal(extractRequest{DownloadURL: downloadURL})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+path, bytes.NewReader(reqBody))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("extractor error: %s - %s", resp.Status, string(body))
	}

	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}
