package services

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"
)

const (
	defaultMaxRetries     = 2
	defaultAttemptTimeout = 15 * time.Second
	defaultBackoffBase    = 1 * time.Second
	defaultBackoffMax     = 10 * time.Second
)

// RetryConfig controls RunWithRetry. Zero values fall back to defaults; a
// negative MaxRetries disables retries entirely.
type RetryConfig struct {
	// MaxRetries is the number of re-invocations after the first attempt.
	MaxRetries int
	// AttemptTimeout bounds each individual attempt.
	AttemptTimeout time.Duration
	// BackoffBase is the delay before the first retry; each subsequent
	// retry doubles it up to BackoffMax.
	BackoffBase time.Duration
	// BackoffMax caps the backoff delay, including Retry-After hints.
	BackoffMax time.Duration
	// Sleep overrides how retry waits are performed (useful for tests).
	// When nil, a context-aware timer sleep is used.
	Sleep func(ctx context.Context, d time.Duration) error
}

func (c RetryConfig) normalized() RetryConfig {
	if c.MaxRetries == 0 {
		c.MaxRetries = defaultMaxRetries
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.AttemptTimeout <= 0 {
		c.AttemptTimeout = defaultAttemptTimeout
	}
	if c.BackoffBase <= 0 {
		c.BackoffBase = defaultBackoffBase
	}
	if c.BackoffMax <= 0 {
		c.BackoffMax = defaultBackoffMax
	}
	return c
}

// RunWithRetry invokes op under a per-attempt timeout, retrying transient
// failures with exponential backoff via an explicit bounded loop. Once the
// retry budget is exhausted the last error is returned; RunWithRetry never
// panics and never retries terminal failures.
func RunWithRetry[T any](ctx context.Context, cfg RetryConfig, op func(context.Context) (T, error)) (T, error) {
	var zero T
	cfg = cfg.normalized()
	attempts := cfg.MaxRetries + 1

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		attemptCtx, cancel := context.WithTimeout(ctx, cfg.AttemptTimeout)
		result, err := op(attemptCtx)
		cancel()
		if err == nil {
			return result, nil
		}
		lastErr = err

		if attempt == attempts-1 {
			break
		}
		if ctx.Err() != nil || !Retryable(err) {
			return zero, err
		}

		delay := backoffDelay(cfg, attempt)
		var statusErr *HTTPStatusError
		if errors.As(err, &statusErr) && statusErr.RetryAfter > 0 {
			delay = statusErr.RetryAfter
			if delay > cfg.BackoffMax {
				delay = cfg.BackoffMax
			}
		}
		if err := sleep(ctx, cfg, delay); err != nil {
			return zero, err
		}
	}

	if lastErr == nil {
		lastErr = errors.New("unknown retry failure")
	}
	return zero, fmt.Errorf("failed after %d attempts: %w", attempts, lastErr)
}

// Retryable classifies an error as transient. Timeouts, network failures,
// rate limits, and upstream 408/429/5xx responses are retryable; everything
// else, including not-found and validation failures, is terminal.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrValidation),
		errors.Is(err, ErrMalformedStub),
		errors.Is(err, context.Canceled):
		return false
	case errors.Is(err, ErrRateLimited),
		errors.Is(err, ErrLookupUnavailable),
		errors.Is(err, ErrTimeout),
		errors.Is(err, ErrTransient),
		errors.Is(err, context.DeadlineExceeded):
		return true
	}

	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.StatusCode == http.StatusRequestTimeout,
			statusErr.StatusCode == http.StatusTooManyRequests,
			statusErr.StatusCode >= http.StatusInternalServerError:
			return true
		default:
			return false
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	return false
}

func backoffDelay(cfg RetryConfig, attempt int) time.Duration {
	delay := cfg.BackoffBase
	for i := 0; i < attempt; i++ {
		if delay > cfg.BackoffMax/2 {
			return cfg.BackoffMax
		}
		delay *= 2
	}
	if delay > cfg.BackoffMax {
		delay = cfg.BackoffMax
	}
	return delay
}

func sleep(ctx context.Context, cfg RetryConfig, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	if cfg.Sleep != nil {
		return cfg.Sleep(ctx, delay)
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
