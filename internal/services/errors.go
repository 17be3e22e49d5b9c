package services

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrLookupUnavailable marks upstream 5xx or network failures from the
	// metadata collaborator. Retryable.
	ErrLookupUnavailable = errors.New("lookup unavailable")
	// ErrRateLimited marks 429 responses. Retryable with backoff.
	ErrRateLimited = errors.New("rate limited")
	// ErrNotFound marks lookups that resolved to nothing. Terminal.
	ErrNotFound = errors.New("not found")
	// ErrMalformedStub marks stubs rejected before any lookup runs.
	ErrMalformedStub = errors.New("malformed stub")
	// ErrTimeout marks operations that exceeded their attempt deadline.
	ErrTimeout = errors.New("timeout")
	// ErrTransient marks failures with no more specific classification that
	// are still worth retrying.
	ErrTransient = errors.New("transient failure")
	// ErrValidation marks caller mistakes. Terminal.
	ErrValidation = errors.New("validation error")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}

// HTTPStatusError reports a non-2xx response from an HTTP collaborator.
// RetryAfter carries the server's pacing hint when one was supplied.
type HTTPStatusError struct {
	StatusCode int
	Body       string
	RetryAfter time.Duration
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("http %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

// ParseRetryAfter interprets a Retry-After header value as either a second
// count or an HTTP date.
func ParseRetryAfter(value string) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0, false
		}
		return time.Duration(seconds) * time.Second, true
	}
	if when, err := http.ParseTime(value); err == nil {
		delay := time.Until(when)
		if delay < 0 {
			return 0, false
		}
		return delay, true
	}
	return 0, false
}
