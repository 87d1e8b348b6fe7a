package types

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for common failure modes.
var (
	ErrMaxRetries       = errors.New("max retries exceeded")
	ErrEmptyResponse    = errors.New("empty response body")
	ErrInvalidURL       = errors.New("invalid URL")
	ErrNoSources        = errors.New("no sources matched")
	ErrDuplicatePost    = errors.New("post URL already exists")
	ErrMirrorsExhausted = errors.New("all mirror instances exhausted")
)

// FetchError wraps errors that occur while fetching a URL. Retryable marks
// transient failures (timeouts, 429, 5xx, connection resets) that the retry
// wrapper may attempt again.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
	Retryable  bool
	RetryAfter time.Duration // populated from Retry-After on HTTP 429
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("fetch error for %s (status %d): %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch error for %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) IsRetryable() bool { return e.Retryable }

// ExtractError wraps extraction failures: a required selector matched
// nothing or a date could not be parsed. Always non-fatal; the offending
// item is skipped.
type ExtractError struct {
	URL      string
	Selector string
	Err      error
}

func (e *ExtractError) Error() string {
	return fmt.Sprintf("extract error for %s (selector=%q): %v", e.URL, e.Selector, e.Err)
}

func (e *ExtractError) Unwrap() error { return e.Err }

// StoreError wraps record-store failures other than duplicate URLs.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store error (%s): %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// SourceError records the total failure of one source adapter during a run.
// It is collected into RunResult.Errors and never aborts the other sources.
type SourceError struct {
	Source string
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("source %q failed: %v", e.Source, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }
