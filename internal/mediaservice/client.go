// Package mediaservice provides a GraphQL client for resolving media records
// against the media service.
package mediaservice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/MEITREX/docprocai-fileingestlib/internal/models"
)

// Resolver resolves a media record id to its type and download URL.
type Resolver interface {
	Resolve(ctx context.Context, mediaRecordID uuid.UUID) (models.MediaRecord, error)
}

// Client is a GraphQL-over-HTTP client for the media service.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

var _ Resolver = (*Client)(nil)

// New creates a media service client for the given GraphQL endpoint.
func New(endpoint string) *Client {
	return &Client{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors,omitempty"`
}

type graphQLError struct {
	Message string `json:"message"`
	Path    []any  `json:"path,omitempty"`
}

const mediaRecordQuery = `
	query ($ids: [UUID!]!) {
		mediaRecordsByIds(ids: $ids) {
			type
			internalDownloadUrl
		}
	}`

// Resolve fetches the type and internal download URL of a media record.
// Fails if the id is unknown to the media service.
func (c *Client) Resolve(ctx context.Context, mediaRecordID uuid.UUID) (models.MediaRecord, error) {
	var data struct {
		MediaRecordsByIds []struct {
			Type                string `json:"type"`
			InternalDownloadURL string `json:"internalDownloadUrl"`
		} `json:"mediaRecordsByIds"`
	}

	err := c.execute(ctx, mediaRecordQuery, map[string]any{
		"ids": []string{mediaRecordID.String()},
	}, &data)
	if err != nil {
		return models.MediaRecord{}, err
	}

	if len(data.MediaRecordsByIds) == 0 {
		return models.MediaRecord{}, fmt.Errorf("media record %s not found", mediaRecordID)
	}

	record := data.MediaRecordsByIds[0]
	return models.MediaRecord{
		ID:                  mediaRecordID,
		Type:                models.MediaRecordType(record.Type),
		InternalDownloadURL: record.InternalDownloadURL,
	}, nil
}

// execute sends a GraphQL query and unmarshals the data payload into result.
func (c *Client) execute(ctx context.Context, query string, variables map[string]any, result any) error {
	reqBody, err := json.Marshal(graphQLRequest{
		Query:     query,
		Variables: variables,
	})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.endpoint, bytes.NewReader(reqBody))
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
		return fmt.Errorf("media service error: %s - %s", resp.Status, string(body))
	}

	var gqlResp graphQLResponse
	if err := json.Unmarshal(body, &gqlResp); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}

	if len(gqlResp.Errors) > 0 {
		return fmt.Errorf("graphql error: %s", gqlResp.Errors[0].Message)
	}

	if result != nil && len(gqlResp.Data) > 0 {
		if err := json.Unmarshal(gqlResp.Data, result); err != nil {
			return fmt.Errorf("unmarshal data: %w", err)
		}
	}

	return nil
}
