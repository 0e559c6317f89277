// Package retry provides the backoff policy shared by the remote service clients.
package retry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	goretry "github.com/sethvargo/go-retry"
)

const jitterPercent = 10

// Policy describes how a failing remote call is retried. Attempts counts
// retries after the first call, so the zero Policy calls once.
type Policy struct {
	Attempts     int
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

// New returns a policy with exponential backoff from initial up to max.
func New(attempts int, initial, max time.Duration) Policy {
	return Policy{Attempts: attempts, InitialDelay: initial, MaxDelay: max}
}

// None returns a policy that never retries.
func None() Policy {
	return Policy{}
}

// Do calls fn until it succeeds or returns a non-retryable error. It
// gives up once the attempts are exhausted or ctx is done, returning the
// last error from fn or the context error.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return goretry.Do(ctx, p.backoff(), func(ctx context.Context) error {
		err := fn(ctx)
		if err != nil && IsRetryable(err) {
			return goretry.RetryableError(err)
		}
		return err
	})
}

func (p Policy) backoff() goretry.Backoff {
	initial := p.InitialDelay
	if initial <= 0 {
		initial = time.Millisecond
	}
	b := goretry.NewExponential(initial)
	if p.MaxDelay > 0 {
		b = goretry.WithCappedDuration(p.MaxDelay, b)
	}
	b = goretry.WithJitterPercent(jitterPercent, b)

	attempts := p.Attempts
	if attempts < 0 {
		attempts = 0
	}
	return goretry.WithMaxRetries(uint64(attempts), b)
}

// HTTPError represents a non-2xx response from a remote service.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("API status %d", e.StatusCode)
	}
	return fmt.Sprintf("API status %d: %s", e.StatusCode, e.Message)
}

// retryableError marks an error that is worth another attempt.
type retryableError struct {
	err error
}

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

// Retryable marks err as transient.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &retryableError{err: err}
}

// IsRetryable reports whether err is transient: explicitly marked errors,
// network failures other than cancellation, and 429/5xx gateway statuses.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	var marked *retryableError
	if errors.As(err, &marked) {
		return true
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return IsRetryableStatus(httpErr.StatusCode)
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}

// IsRetryableStatus reports whether an HTTP status code is transient.
func IsRetryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}
