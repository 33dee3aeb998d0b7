// Package jobs holds background maintenance workers.
package jobs

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tbourn/yt-vantage/internal/observability"
)

// Defaults for Pruner fields left at zero.
const (
	DefaultInterval = time.Hour
	DefaultCacheTTL = 6 * time.Hour
)

// Store is the subset of the persistence layer the pruner needs.
type Store interface {
	PruneCache(ctx context.Context, ttl time.Duration) (int64, error)
	PruneMessageStates(ctx context.Context, olderThan time.Duration) (int64, error)
}

// Ticker abstracts time.Ticker so tests can drive ticks by hand.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct{ t *time.Ticker }

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

// Result counts the rows removed by one pass.
type Result struct {
	CacheRows int64
	StateRows int64
}

// Pruner periodically deletes expired cache rows and old message states.
// The first pass runs one Interval after Start.
type Pruner struct {
	Store Store
	// Interval between passes.
	Interval time.Duration
	// CacheTTL is the age past which any cache row is deleted. It should be
	// at least the longest TTL readers use, or rows are dropped while fresh.
	CacheTTL time.Duration
	// StateRetention is the age past which message states are deleted;
	// zero keeps them forever.
	StateRetention time.Duration

	// NewTicker overrides the ticker source (tests).
	NewTicker func(time.Duration) Ticker

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewPruner constructs a Pruner with the default interval and cache TTL.
func NewPruner(store Store, stateRetention time.Duration) *Pruner {
	return &Pruner{
		Store:          store,
		Interval:       DefaultInterval,
		CacheTTL:       DefaultCacheTTL,
		StateRetention: stateRetention,
	}
}

// Start launches the worker. Calling Start again, even after Stop, is a
// no-op.
// The worker exits when ctx is cancelled or Stop is called.
func (p *Pruner) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done != nil {
		return
	}

	interval := p.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	newTicker := p.NewTicker
	if newTicker == nil {
		newTicker = func(d time.Duration) Ticker { return timeTicker{t: time.NewTicker(d)} }
	}

	workerCtx, cancel := context.WithCancel(ctx)
	ticker := newTicker(interval)
	done := make(chan struct{})
	p.cancel, p.done = cancel, done

	go func() {
		defer func() {
			ticker.Stop()
			close(done)
		}()
		log.Info().Dur("interval", interval).Msg("pruner started")
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C():
				_, _ = p.RunOnce(workerCtx)
			}
		}
	}()
}

// Stop cancels the worker and waits for it to exit. Safe to call more than
// once, and before Start.
func (p *Pruner) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// RunOnce performs a single pass. A failure on one table does not skip the
// other; errors are logged, counted and returned joined.
func (p *Pruner) RunOnce(ctx context.Context) (Result, error) {
	var res Result
	ttl := p.CacheTTL
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}

	n, cacheErr := p.Store.PruneCache(ctx, ttl)
	res.CacheRows = n
	p.record("cache", n, cacheErr)

	var stateErr error
	if p.StateRetention > 0 {
		n, stateErr = p.Store.PruneMessageStates(ctx, p.StateRetention)
		res.StateRows = n
		p.record("message_state", n, stateErr)
	}

	err := errors.Join(cacheErr, stateErr)
	if err == nil {
		log.Info().
			Int64("cache_rows", res.CacheRows).
			Int64("state_rows", res.StateRows).
			Msg("prune pass complete")
	}
	return res, err
}

func (p *Pruner) record(table string, rows int64, err error) {
	if err != nil {
		observability.PruneFailures.WithLabelValues(table).Inc()
		log.Error().Err(err).Str("table", table).Msg("prune failed")
		return
	}
	observability.PrunedRows.WithLabelValues(table).Add(float64(rows))
}
