// Package notion is a minimal client for the Notion database query API.
package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sleeautomation/sitehooks/config"
	"github.com/sleeautomation/sitehooks/logger"
)

// defaultClient is used for Notion requests with a timeout to avoid hanging.
var defaultClient = &http.Client{Timeout: 30 * time.Second}

// Client queries one Notion database.
type Client struct {
	baseURL    string
	apiKey     string
	version    string
	databaseID string
	http       *http.Client
}

type Option func(*Client)

// WithHTTPClient overrides the HTTP client used for requests.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.http = c
		}
	}
}

// NewClient builds a client from the notion section of the config.
func NewClient(cfg config.NotionConfig, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		version:    cfg.Version,
		databaseID: cfg.DatabaseID,
		http:       defaultClient,
	}
	if c.baseURL == "" {
		c.baseURL = config.DefaultNotionBaseURL
	}
	if c.version == "" {
		c.version = config.DefaultNotionVersion
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// APIError is the error object Notion returns on non-2xx responses.
type APIError struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("notion: status %d", e.Status)
	}
	return e.Message
}

type Filter struct {
	Property string          `json:"property"`
	Select   *SelectEquality `json:"select,omitempty"`
}

type SelectEquality struct {
	Equals string `json:"equals"`
}

type Sort struct {
	Property  string `json:"property"`
	Direction string `json:"direction"`
}

type QueryRequest struct {
	Filter      *Filter `json:"filter,omitempty"`
	Sorts       []Sort  `json:"sorts,omitempty"`
	StartCursor string  `json:"start_cursor,omitempty"`
	PageSize    int     `json:"page_size,omitempty"`
}

type QueryResponse struct {
	Results    []Page `json:"results"`
	HasMore    bool   `json:"has_more"`
	NextCursor string `json:"next_cursor"`
}

// QueryPublished returns every page whose Status select equals Published,
// newest Publish Date first. Pages are fetched until the cursor runs out; any
// failure discards what was already fetched.
func (c *Client) QueryPublished(ctx context.Context) ([]Page, error) {
	req := QueryRequest{
		Filter: &Filter{
			Property: "Status",
			Select:   &SelectEquality{Equals: config.PublishedStatus},
		},
		Sorts: []Sort{{Property: "Publish Date", Direction: "descending"}},
	}
	pages := []Page{}
	for {
		var resp QueryResponse
		if err := c.query(ctx, req, &resp); err != nil {
			return nil, err
		}
		pages = append(pages, resp.Results...)
		if !resp.HasMore || resp.NextCursor == "" {
			break
		}
		req.StartCursor = resp.NextCursor
	}
	logger.DebugCtx(ctx, "notion query complete", "database_id", c.databaseID, "pages", len(pages))
	return pages, nil
}

func (c *Client) query(ctx context.Context, body QueryRequest, out *QueryResponse) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	url := fmt.Sprintf("%s/v1/databases/%s/query", c.baseURL, c.databaseID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Notion-Version", c.version)
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		if json.Unmarshal(data, apiErr) != nil || apiErr.Message == "" {
			apiErr.Message = fmt.Sprintf("notion: unexpected status code %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
		}
		apiErr.Status = resp.StatusCode
		return apiErr
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode notion response: %w", err)
	}
	return nil
}
