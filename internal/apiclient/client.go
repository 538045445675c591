// Package apiclient is a client for a running `salesdash serve` HTTP API.
package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/theirongolddev/salesdash/internal/daemon"
)

const (
	requestTimeout = 5 * time.Second
	maxBodySize    = 8 << 20 // 8 MB
)

var (
	// ErrNotLoaded indicates the server has not loaded a dataset yet.
	ErrNotLoaded = errors.New("apiclient: dataset not loaded yet")
	// ErrBadRequest wraps client errors such as unknown columns.
	ErrBadRequest = errors.New("apiclient: bad request")
)

// Client talks to one salesdash server.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for addr, given as host:port or a full URL.
// Returns nil if addr is empty.
func NewClient(addr string) *Client {
	addr = strings.TrimRight(strings.TrimSpace(addr), "/")
	if addr == "" {
		return nil
	}
	if !strings.Contains(addr, "://") {
		addr = "http://" + addr
	}
	return &Client{
		baseURL: addr,
		http:    &http.Client{},
	}
}

// BaseURL returns the server root the client sends requests to.
func (c *Client) BaseURL() string { return c.baseURL }

// Overview is a status, summary and segmentation fetched together.
type Overview struct {
	Status    *daemon.Status
	Summary   *daemon.SummaryResponse
	Segments  []daemon.SegmentRow
	FetchedAt time.Time
	Error     error
}

// FetchAll fetches status, then summary and segments with filters applied.
// Partial data is returned even if some requests fail.
func (c *Client) FetchAll(ctx context.Context, filters map[string]string) *Overview {
	result := &Overview{FetchedAt: time.Now()}

	st, err := c.Status(ctx)
	if err != nil {
		result.Error = err
		return result
	}
	result.Status = st

	// A server still loading has no summary to give.
	summary, summaryErr := c.Summary(ctx, filters)
	if summaryErr == nil {
		result.Summary = summary
	}

	segs, segErr := c.Segments(ctx, filters)
	if segErr == nil {
		result.Segments = segs
	}

	if summaryErr != nil {
		result.Error = summaryErr
	} else if segErr != nil {
		result.Error = segErr
	}

	return result
}

// Status returns the server's reload status.
func (c *Client) Status(ctx context.Context) (*daemon.Status, error) {
	var st daemon.Status
	if err := c.getJSON(ctx, "/v1/status", nil, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// Summary returns the headline totals and monthly trend.
func (c *Client) Summary(ctx context.Context, filters map[string]string) (*daemon.SummaryResponse, error) {
	var s daemon.SummaryResponse
	if err := c.getJSON(ctx, "/v1/summary", filters, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Segments returns the business segmentation.
func (c *Client) Segments(ctx context.Context, filters map[string]string) ([]daemon.SegmentRow, error) {
	var segs []daemon.SegmentRow
	if err := c.getJSON(ctx, "/v1/segments", filters, &segs); err != nil {
		return nil, err
	}
	return segs, nil
}

// Values returns the distinct values of column.
func (c *Client) Values(ctx context.Context, column string, filters map[string]string) ([]string, error) {
	var resp struct {
		Values []string `json:"values"`
	}
	if err := c.getJSON(ctx, "/v1/values/"+url.PathEscape(column), filters, &resp); err != nil {
		return nil, err
	}
	return resp.Values, nil
}

// getJSON performs a GET with query parameters and decodes the JSON body.
func (c *Client) getJSON(ctx context.Context, path string, params map[string]string, out any) error {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	u := c.baseURL + path
	if len(params) > 0 {
		q := url.Values{}
		for k, v := range params {
			q.Set(k, v)
		}
		u += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("apiclient: creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("apiclient: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return fmt.Errorf("apiclient: reading response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusServiceUnavailable:
		return ErrNotLoaded
	case resp.StatusCode == http.StatusBadRequest:
		return fmt.Errorf("%w: %s", ErrBadRequest, errorMessage(body))
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("apiclient: unexpected status %d: %s", resp.StatusCode, errorMessage(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("apiclient: parsing %s: %w", path, err)
	}
	return nil
}

// errorMessage pulls the error text out of an API error body, falling back
// to the raw body.
func errorMessage(body []byte) string {
	var e struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &e); err == nil && e.Error != "" {
		return e.Error
	}
	return strings.TrimSpace(string(body))
}
