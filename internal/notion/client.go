// Package notion is a thin client for the task database API: a database
// query endpoint with a small filter/sort DSL, and a page endpoint used
// to resolve relation fields into human-readable names.
package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	defaultBaseURL = "https://api.notion.com"
	apiVersion     = "2022-06-28"
	clientTimeout  = 30 * time.Second
)

// FetchError reports a transport-level failure talking to the API.
type FetchError struct {
	Op  string
	Err error
}

func (e *FetchError) Error() string { return fmt.Sprintf("notion: %s: %v", e.Op, e.Err) }

func (e *FetchError) Unwrap() error { return e.Err }

// APIError is the error shape the API returns on non-success statuses.
type APIError struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("notion: api error %s (status %d): %s", e.Code, e.Status, e.Message)
}

// FieldError reports a record property that is absent or has an
// unexpected shape.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("notion: field %q: %s", e.Field, e.Reason)
}

// Client talks to one task database.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	databaseID string
	now        func() time.Time
}

// Option adjusts client construction; used by tests to point the client
// at a local server or pin the clock.
type Option func(*Client)

func WithBaseURL(u string) Option { return func(c *Client) { c.baseURL = u } }

func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.httpClient = h } }

func WithNow(now func() time.Time) Option { return func(c *Client) { c.now = now } }

// NewClient builds a Client for the given integration token and database.
func NewClient(apiKey, databaseID string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: clientTimeout},
		baseURL:    defaultBaseURL,
		apiKey:     apiKey,
		databaseID: databaseID,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// do issues one API request and decodes the response into out. A non-2xx
// response decodes into APIError when the body carries the error shape.
func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	op := method + " " + path

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &FetchError{Op: op, Err: err}
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return &FetchError{Op: op, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Notion-Version", apiVersion)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &FetchError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &FetchError{Op: op, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		if jerr := json.Unmarshal(data, apiErr); jerr != nil || apiErr.Code == "" {
			apiErr.Code = "unknown"
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		apiErr.Status = resp.StatusCode
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &FetchError{Op: op, Err: fmt.Errorf("decoding response: %w", err)}
	}
	return nil
}
