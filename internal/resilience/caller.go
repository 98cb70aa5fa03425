package resilience

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
)

// Caller combines a retry policy with a per-service circuit breaker.
// One Caller guards one remote service; every request to that service
// goes through Do.
type Caller struct {
	policy  Policy
	breaker *gobreaker.CircuitBreaker
}

// NewCaller builds a Caller named after the remote service. The breaker
// opens after five consecutive transient failures and probes again
// after thirty seconds. Permanent errors do not count against the
// breaker: they say nothing about service health.
func NewCaller(name string, policy Policy) *Caller {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    name,
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !IsTransient(err)
		},
	})
	return &Caller{policy: policy, breaker: cb}
}

// Do runs fn through the breaker with retries. An open breaker reads as
// a transient failure so the backoff schedule covers the probe window.
func (c *Caller) Do(ctx context.Context, op string, fn func(context.Context) error) error {
	return c.policy.Do(ctx, op, func(ctx context.Context) error {
		_, err := c.breaker.Execute(func() (any, error) {
			return nil, fn(ctx)
		})
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return Transient(err)
		}
		return err
	})
}
