package fetch

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ratepulse/internal/config"
	"ratepulse/internal/types"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testClient(t *testing.T) *Client {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Fetcher.RequestTimeout = 5 * time.Second
	c, err := NewClient(cfg, testLogger())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestRetrierRecoversFromServerErrors(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("<html>ok</html>"))
	}))
	defer srv.Close()

	var slept []time.Duration
	r := WithRetry(testClient(t), RetryPolicy{MaxRetries: 3, Base: 10 * time.Millisecond}, testLogger())
	r.sleep = func(_ context.Context, d time.Duration) { slept = append(slept, d) }

	res, err := r.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if res.Text() != "<html>ok</html>" {
		t.Errorf("body = %q", res.Text())
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
	if len(slept) != 2 {
		t.Fatalf("sleeps = %d, want 2", len(slept))
	}
	// Exponential: second wait's deterministic part doubles the first's.
	if slept[0] < 10*time.Millisecond || slept[1] < 20*time.Millisecond {
		t.Errorf("backoff not exponential: %v", slept)
	}
}

func TestRetrierExhaustsRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	r := WithRetry(testClient(t), RetryPolicy{MaxRetries: 2, Base: time.Millisecond}, testLogger())
	r.sleep = func(context.Context, time.Duration) {}

	_, err := r.Fetch(context.Background(), srv.URL)
	if !errors.Is(err, types.ErrMaxRetries) {
		t.Fatalf("err = %v, want ErrMaxRetries", err)
	}
}

func TestRetrierDoesNotRetryClientErrors(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	r := WithRetry(testClient(t), RetryPolicy{MaxRetries: 3, Base: time.Millisecond}, testLogger())
	r.sleep = func(context.Context, time.Duration) {}

	_, err := r.Fetch(context.Background(), srv.URL)
	var fe *types.FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("err = %v, want FetchError", err)
	}
	if fe.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", fe.StatusCode)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}

func TestRetrierHonorsRetryAfter(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.Header().Set("Retry-After", "30")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	var slept []time.Duration
	r := WithRetry(testClient(t), RetryPolicy{MaxRetries: 2, Base: time.Millisecond}, testLogger())
	r.sleep = func(_ context.Context, d time.Duration) { slept = append(slept, d) }

	if _, err := r.Fetch(context.Background(), srv.URL); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(slept) != 1 || slept[0] < 30*time.Second {
		t.Errorf("Retry-After ignored: slept %v", slept)
	}
}

func TestClientRotatesUserAgents(t *testing.T) {
	agents := []string{"agent-a", "agent-b", "agent-c"}
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		seen[randomHeaders(agents)["User-Agent"]] = true
	}
	if len(seen) < 2 {
		t.Errorf("expected rotation across agents, saw %v", seen)
	}
	for ua := range seen {
		found := false
		for _, a := range agents {
			if ua == a {
				found = true
			}
		}
		if !found {
			t.Errorf("unexpected User-Agent %q", ua)
		}
	}
}

func TestParseRetryAfter(t *testing.T) {
	if d := parseRetryAfter("10"); d != 10*time.Second {
		t.Errorf("parseRetryAfter(10) = %v", d)
	}
	if d := parseRetryAfter("900"); d != 2*time.Minute {
		t.Errorf("parseRetryAfter(900) = %v, want capped 2m", d)
	}
	if d := parseRetryAfter(""); d != 5*time.Second {
		t.Errorf("parseRetryAfter empty = %v, want default 5s", d)
	}
}

func TestRandomDelayBounds(t *testing.T) {
	min, max := 10*time.Millisecond, 50*time.Millisecond
	for i := 0; i < 50; i++ {
		d := RandomDelay(min, max)
		if d < min || d > max {
			t.Fatalf("delay %v outside [%v, %v]", d, min, max)
		}
	}
	if d := RandomDelay(max, min); d != max {
		t.Errorf("inverted bounds = %v, want %v", d, max)
	}
}
