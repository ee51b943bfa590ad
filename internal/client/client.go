// Package client provides a JSON HTTP client for the docprocai server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
)

// Client talks to the docprocai server API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client. If baseURL is empty, uses the DOCPROCAI_SERVER_URL
// env var or defaults to localhost:9901. Timeout can be configured via
// DOCPROCAI_CLIENT_TIMEOUT (default 5m, searches wait on the embedding
// provider).
func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = os.Getenv("DOCPROCAI_SERVER_URL")
	}
	if baseURL == "" {
		baseURL = "http://localhost:9901"
	}

	timeout := 5 * time.Minute
	if t := os.Getenv("DOCPROCAI_CLIENT_TIMEOUT"); t != "" {
		if d, err := time.ParseDuration(t); err == nil {
			timeout = d
		}
	}

	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Segment is the wire shape of a segment. Source is "document" or "video".
type Segment struct {
	Source        string `json:"source"`
	ID            string `json:"id"`
	MediaRecordID string `json:"mediaRecordId"`
	Text          string `json:"text,omitempty"`
	Page          *int   `json:"page,omitempty"`
	ScreenText    string `json:"screenText,omitempty"`
	Transcript    string `json:"transcript,omitempty"`
	StartTime     *int   `json:"startTime,omitempty"`
}

// LinkedPair is a pair of cross-linked segments.
type LinkedPair struct {
	Segment1 Segment `json:"segment1"`
	Segment2 Segment `json:"segment2"`
}

// SearchResult is one ranked search hit. Lower score means closer.
type SearchResult struct {
	Score   float64 `json:"score"`
	Segment Segment `json:"segment"`
}

// Stats holds server runtime statistics.
type Stats struct {
	QueueLength int             `json:"queueLength"`
	Operations  json.RawMessage `json:"operations"`
}

type searchRequest struct {
	Query                string      `json:"query"`
	Count                int         `json:"count"`
	MediaRecordWhitelist []uuid.UUID `json:"mediaRecordWhitelist"`
	MediaRecordBlacklist []uuid.UUID `json:"mediaRecordBlacklist"`
}

type linkRequest struct {
	MediaRecordIDs []uuid.UUID `json:"mediaRecordIds"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Ingest queues ingestion of a media record.
func (c *Client) Ingest(ctx context.Context, mediaRecordID uuid.UUID) error {
	path := fmt.Sprintf("/api/media-records/%s/ingest", mediaRecordID)
	return c.do(ctx, http.MethodPost, path, nil, nil)
}

// LinkContent queues cross-linking of the media records under a content
// grouping.
func (c *Client) LinkContent(ctx context.Context, contentID uuid.UUID, mediaRecordIDs []uuid.UUID) error {
	path := fmt.Sprintf("/api/contents/%s/links", contentID)
	return c.do(ctx, http.MethodPost, path, linkRequest{MediaRecordIDs: mediaRecordIDs}, nil)
}

// GetLinks returns the linked segment pairs of a content grouping.
func (c *Client) GetLinks(ctx context.Context, contentID uuid.UUID) ([]LinkedPair, error) {
	var pairs []LinkedPair
	path := fmt.Sprintf("/api/contents/%s/links", contentID)
	if err := c.do(ctx, http.MethodGet, path, nil, &pairs); err != nil {
		return nil, err
	}
	return pairs, nil
}

// Search returns up to count segments ranked by vector distance to query.
func (c *Client) Search(ctx context.Context, query string, count int, whitelist, blacklist []uuid.UUID) ([]SearchResult, error) {
	req := searchRequest{
		Query:                query,
		Count:                count,
		MediaRecordWhitelist: whitelist,
		MediaRecordBlacklist: blacklist,
	}
	var results []SearchResult
	if err := c.do(ctx, http.MethodPost, "/api/search", req, &results); err != nil {
		return nil, err
	}
	return results, nil
}

// DeleteMediaRecord removes a media record's segments and links.
func (c *Client) DeleteMediaRecord(ctx context.Context, mediaRecordID uuid.UUID) error {
	path := fmt.Sprintf("/api/media-records/%s", mediaRecordID)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// GetStats returns server runtime statistics.
func (c *Client) GetStats(ctx context.Context) (*Stats, error) {
	var stats Stats
	if err := c.do(ctx, http.MethodGet, "/api/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload, result any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(resp.Body)
		var errResp errorResponse
		if json.Unmarshal(data, &errResp) == nil && errResp.Error != "" {
			return fmt.Errorf("server error: %s - %s", resp.Status, errResp.Error)
		}
		return fmt.Errorf("server error: %s", resp.Status)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}
