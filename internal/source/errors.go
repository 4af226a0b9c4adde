package source

import (
	"errors"
	"fmt"
	"time"
)

// Failure kinds. Every error returned by Client.Fetch matches exactly one of them via errors.Is.
var (
	ErrTimeout     = errors.New("source request timed out")
	ErrRateLimited = errors.New("source rate limited")
	ErrUpstream    = errors.New("source request failed")
)

// RateLimitError is returned for HTTP 429. RetryAfter is zero when the source sent no hint.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("%s: retry after %s", ErrRateLimited, e.RetryAfter)
	}
	return ErrRateLimited.Error()
}

func (e *RateLimitError) Unwrap() error {
	return ErrRateLimited
}

// StatusError is returned for any other non-2xx response.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: status %d %s", ErrUpstream, e.Code, e.Status)
}

func (e *StatusError) Unwrap() error {
	return ErrUpstream
}

// Kind returns a short label for logs and counters.
func Kind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrUpstream):
		return "upstream"
	default:
		return "other"
	}
}
