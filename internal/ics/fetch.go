package ics

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const fetchTimeout = 10 * time.Second

// FetchError reports a transport failure or a non-success HTTP status
// while retrieving an ICS feed.
type FetchError struct {
	URL    string
	Status int // 0 when the request never produced a response
	Err    error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("ics: fetch %s: %v", redactURL(e.URL), e.Err)
	}
	return fmt.Sprintf("ics: fetch %s: unexpected status %d", redactURL(e.URL), e.Status)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ParseError reports a calendar document that could not be parsed.
type ParseError struct {
	URL string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("ics: parse %s: %v", redactURL(e.URL), e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Fetcher retrieves ICS documents over HTTP. Every call is a single
// unconditional GET with a bounded timeout; responses are not cached.
type Fetcher struct {
	client *http.Client
}

// NewFetcher returns a Fetcher with the default request timeout.
func NewFetcher() *Fetcher {
	return &Fetcher{
		client: &http.Client{Timeout: fetchTimeout},
	}
}

// Fetch performs one GET and returns the raw ICS body.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if url == "" {
		return nil, &FetchError{URL: url, Err: fmt.Errorf("empty URL")}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{URL: url, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	return body, nil
}

// redactURL hides everything after the host so feed URLs with embedded
// tokens can be logged safely.
func redactURL(u string) string {
	const suffix = "/...(redacted)"

	i := strings.Index(u, "://")
	if i < 0 {
		return "ics://...(redacted)"
	}

	rest := u[i+3:]
	if j := strings.IndexByte(rest, '/'); j >= 0 {
		return u[:i+3+j] + suffix
	}
	return u + suffix
}
