package fetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"ratepulse/internal/types"
)

// RetryPolicy controls the retry wrapper.
type RetryPolicy struct {
	// MaxRetries is the number of additional attempts after the first.
	MaxRetries int

	// Base is the backoff base: wait = Base × 2^attempt + jitter in [0,1)s.
	Base time.Duration
}

// Retrier wraps a Fetcher with retry-with-backoff for transient failures.
// Permanent failures (non-retryable statuses, cancelled contexts) pass
// through immediately.
type Retrier struct {
	inner  Fetcher
	policy RetryPolicy
	logger *slog.Logger

	// sleep is swappable for tests.
	sleep func(ctx context.Context, d time.Duration)
}

// WithRetry wraps fetcher with the given retry policy.
func WithRetry(fetcher Fetcher, policy RetryPolicy, logger *slog.Logger) *Retrier {
	if policy.Base <= 0 {
		policy.Base = time.Second
	}
	return &Retrier{
		inner:  fetcher,
		policy: policy,
		logger: logger.With("component", "retrier"),
		sleep:  Sleep,
	}
}

// Fetch attempts the fetch up to 1+MaxRetries times with exponential
// backoff between attempts.
func (r *Retrier) Fetch(ctx context.Context, url string) (*Result, error) {
	var lastErr error

	for attempt := 0; attempt <= r.policy.MaxRetries; attempt++ {
		if attempt > 0 {
			wait := r.backoff(attempt-1, lastErr)
			r.logger.Debug("retrying fetch",
				"url", url,
				"attempt", attempt,
				"wait", wait,
			)
			r.sleep(ctx, wait)
			if ctx.Err() != nil {
				return nil, &types.FetchError{URL: url, Err: ctx.Err(), Retryable: false}
			}
		}

		res, err := r.inner.Fetch(ctx, url)
		if err == nil {
			return res, nil
		}
		lastErr = err

		var fe *types.FetchError
		if !errors.As(err, &fe) || !fe.Retryable {
			return nil, err
		}
	}

	return nil, fmt.Errorf("%w after %d attempts for %s: %w",
		types.ErrMaxRetries, r.policy.MaxRetries+1, url, lastErr)
}

// Close closes the wrapped fetcher.
func (r *Retrier) Close() error { return r.inner.Close() }

// Type returns the wrapped fetcher's type.
func (r *Retrier) Type() string { return r.inner.Type() }

// backoff computes the wait before retry number attempt+1. A server-sent
// Retry-After hint takes precedence when longer than the computed wait.
func (r *Retrier) backoff(attempt int, lastErr error) time.Duration {
	wait := r.policy.Base * (1 << attempt)
	wait += time.Duration(rand.Float64() * float64(time.Second))

	var fe *types.FetchError
	if errors.As(lastErr, &fe) && fe.RetryAfter > wait {
		wait = fe.RetryAfter
	}
	return wait
}
