// Package retry wraps upstream calls in a bounded exponential backoff loop.
//
// Only errors the policy classifies as retryable are repeated. Anything else
// is returned to the caller on the first attempt, unwrapped, so callers can
// still inspect the upstream error directly.
package retry

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tbourn/yt-vantage/internal/observability"
	"github.com/tbourn/yt-vantage/internal/upstream"
)

// Defaults used by DefaultPolicy.
const (
	DefaultMaxAttempts  = 3
	DefaultInitialDelay = time.Second
	DefaultMultiplier   = 2.0
)

// Policy configures Do.
type Policy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	Multiplier   float64

	// Retryable decides whether an error is worth repeating.
	// Nil means upstream.IsRetryable.
	Retryable func(error) bool

	// Sleep waits for d or until ctx is done. Nil uses a timer.
	Sleep func(ctx context.Context, d time.Duration) error

	// OnRetry runs before each backoff sleep. attempt is the 1-based number
	// of the attempt that just failed.
	OnRetry func(attempt int, delay time.Duration, err error)
}

// DefaultPolicy returns 3 attempts starting at 1s and doubling, with retries
// logged and counted.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:  DefaultMaxAttempts,
		InitialDelay: DefaultInitialDelay,
		Multiplier:   DefaultMultiplier,
		OnRetry:      LogRetry,
	}
}

// LogRetry is the OnRetry hook used by DefaultPolicy.
func LogRetry(attempt int, delay time.Duration, err error) {
	op := upstream.OpOf(err)
	observability.UpstreamRetries.WithLabelValues(op).Inc()
	log.Warn().
		Err(err).
		Str("op", op).
		Int("attempt", attempt).
		Dur("backoff", delay).
		Msg("retrying upstream call")
}

// ExhaustedError is returned when every attempt failed with a retryable error.
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("gave up after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error { return e.Err }

// Do calls fn until it succeeds, fails with a non-retryable error, or the
// attempt budget runs out. Cancelling ctx during a backoff sleep stops the
// loop and returns the last error joined with ctx.Err().
func Do[T any](ctx context.Context, p Policy, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	p = p.withDefaults()

	delay := p.InitialDelay
	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		lastErr = err
		if !p.Retryable(err) {
			return zero, err
		}
		if attempt == p.MaxAttempts {
			break
		}
		if p.OnRetry != nil {
			p.OnRetry(attempt, delay, err)
		}
		if serr := p.Sleep(ctx, delay); serr != nil {
			return zero, fmt.Errorf("%w (retry aborted: %w)", lastErr, serr)
		}
		delay = time.Duration(float64(delay) * p.Multiplier)
	}
	return zero, &ExhaustedError{Attempts: p.MaxAttempts, Err: lastErr}
}

func (p Policy) withDefaults() Policy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = DefaultMaxAttempts
	}
	if p.InitialDelay < 0 {
		p.InitialDelay = 0
	}
	if p.Multiplier < 1 {
		p.Multiplier = DefaultMultiplier
	}
	if p.Retryable == nil {
		p.Retryable = upstream.IsRetryable
	}
	if p.Sleep == nil {
		p.Sleep = sleep
	}
	return p
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
