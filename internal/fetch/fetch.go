// Package fetch implements the HTTP acquisition layer: a client with
// rotating request headers, a retry-with-backoff wrapper, random proxy
// rotation, and an optional headless-browser fetcher for sources that
// block plain HTTP clients.
package fetch

import (
	"context"
	"time"
)

// Fetcher retrieves the content of a URL. Implementations signal expected
// network failures through *types.FetchError, never by panicking.
type Fetcher interface {
	// Fetch issues a GET for the URL and returns the response body.
	Fetch(ctx context.Context, url string) (*Result, error)

	// Close releases any resources held by the fetcher.
	Close() error

	// Type returns the fetcher type identifier.
	Type() string
}

// Result is a successful fetch outcome.
type Result struct {
	StatusCode int
	Body       []byte
	FinalURL   string
	Duration   time.Duration
}

// Text returns the body as a string.
func (r *Result) Text() string { return string(r.Body) }
