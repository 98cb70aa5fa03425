package resilience

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// TransientError marks a remote failure worth retrying (rate limits,
// 5xx, network timeouts).
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return e.Err.Error() }
func (e *TransientError) Unwrap() error { return e.Err }

// PermanentError marks a remote failure that must not be retried
// (malformed request, auth failure).
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

// Transient wraps err as retryable. Nil stays nil.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Err: err}
}

// Permanent wraps err as non-retryable. Nil stays nil.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// Transientf wraps a formatted error as retryable.
func Transientf(format string, args ...any) error {
	return &TransientError{Err: fmt.Errorf(format, args...)}
}

// Permanentf wraps a formatted error as non-retryable.
func Permanentf(format string, args ...any) error {
	return &PermanentError{Err: fmt.Errorf(format, args...)}
}

// retryableKeywords classify untyped upstream errors, matching what the
// LLM providers put in their error strings when overloaded.
var retryableKeywords = []string{
	"overloaded",
	"unavailable",
	"rate limit",
	"too many requests",
	"timeout",
	"connection reset",
}

// IsTransient reports whether err should be retried. Explicitly marked
// errors win; otherwise network timeouts and known keywords count as
// transient, and everything else is permanent.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var te *TransientError
	if errors.As(err, &te) {
		return true
	}
	var pe *PermanentError
	if errors.As(err, &pe) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, kw := range retryableKeywords {
		if strings.Contains(msg, kw) {
			return true
		}
	}
	return false
}

// FromHTTPStatus classifies an HTTP error status: 429 and 5xx are
// transient, other 4xx are permanent. Status < 400 returns nil.
func FromHTTPStatus(status int, msg string) error {
	if status < 400 {
		return nil
	}
	err := fmt.Errorf("http %d: %s", status, msg)
	if status == http.StatusTooManyRequests || status >= 500 {
		return &TransientError{Err: err}
	}
	return &PermanentError{Err: err}
}
