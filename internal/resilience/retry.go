package resilience

import (
	"context"
	"math/rand"
	"time"

	"github.com/vnnyx/lumina-capital/internal/logger"
)

// Policy configures exponential-backoff retries around one remote call.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Jitter      bool

	// sleep is swappable in tests.
	sleep func(context.Context, time.Duration) error
}

// DefaultPolicy mirrors the upstream clients: three attempts starting
// at one second, capped at ten.
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: 3, BaseDelay: time.Second, MaxDelay: 10 * time.Second}
}

// Delay returns the backoff before the given retry (attempt starts at 1).
func (p Policy) Delay(attempt int) time.Duration {
	d := p.BaseDelay << uint(attempt-1)
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	if p.Jitter && d > 0 {
		d = d/2 + time.Duration(rand.Int63n(int64(d/2)+1))
	}
	return d
}

// Do invokes fn, retrying transient failures with exponential backoff.
// Permanent errors propagate immediately. On exhaustion the last error
// surfaces to the caller. op names the call for logging.
func (p Policy) Do(ctx context.Context, op string, fn func(context.Context) error) error {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	sleep := p.sleep
	if sleep == nil {
		sleep = sleepCtx
	}

	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if !IsTransient(err) {
			return err
		}
		if attempt == p.MaxAttempts {
			break
		}

		delay := p.Delay(attempt)
		logger.Warn(ctx, "Transient error, retrying",
			"op", op,
			"attempt", attempt,
			"max_attempts", p.MaxAttempts,
			"delay", delay.String(),
			"error", err,
		)
		if err := sleep(ctx, delay); err != nil {
			return err
		}
	}
	return lastErr
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
