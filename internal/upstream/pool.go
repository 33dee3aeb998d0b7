package upstream

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"github.com/tbourn/yt-vantage/internal/observability"
)

// DefaultPoolSize is the number of upstream calls allowed in flight at once.
const DefaultPoolSize = 5

// Pool bounds concurrent upstream calls. Callers beyond the limit wait for a
// slot instead of failing.
type Pool struct {
	sem      *semaphore.Weighted
	size     int
	inFlight atomic.Int64
}

// NewPool returns a pool with size slots. Non-positive sizes fall back to
// DefaultPoolSize.
func NewPool(size int) *Pool {
	if size <= 0 {
		size = DefaultPoolSize
	}
	return &Pool{sem: semaphore.NewWeighted(int64(size)), size: size}
}

// Size returns the number of slots.
func (p *Pool) Size() int { return p.size }

// InFlight returns the number of occupied slots.
func (p *Pool) InFlight() int64 { return p.inFlight.Load() }

// Run executes fn while holding one slot of p. It blocks until a slot frees up
// or ctx is done, in which case ctx.Err() is returned and fn is not called.
func Run[T any](ctx context.Context, p *Pool, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return zero, err
	}
	p.inFlight.Add(1)
	observability.UpstreamInFlight.Inc()
	defer func() {
		p.inFlight.Add(-1)
		observability.UpstreamInFlight.Dec()
		p.sem.Release(1)
	}()
	return fn(ctx)
}
