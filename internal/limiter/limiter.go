package limiter

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"tileproxy/pkg/metrics"
)

// SlotPool is a resource with finite capacity. Acquire blocks until a slot is
// free or the context ends; the returned release must be called exactly once.
type SlotPool interface {
	Acquire(ctx context.Context) (release func(), ok bool)
}

type chanPool struct {
	sem chan struct{}
}

// NewChanPool creates a channel-backed pool with the given capacity.
func NewChanPool(max int) SlotPool {
	return &chanPool{sem: make(chan struct{}, max)}
}

func (p *chanPool) Acquire(ctx context.Context) (func(), bool) {
	select {
	case p.sem <- struct{}{}:
		return func() { <-p.sem }, true
	case <-ctx.Done():
		return nil, false
	}
}

// Pools holds the named per-source limiters shared by all requests. A layer
// referencing an unknown tag gets unlimited capacity.
type Pools struct {
	pools          map[string]SlotPool
	rates          map[string]*rate.Limiter
	acquireTimeout time.Duration
}

// NewPools builds the limiter set from the configured capacities and optional
// per-tag request rates.
func NewPools(concurrency map[string]int, ratePerSecond map[string]float64, acquireTimeout time.Duration) *Pools {
	pools := make(map[string]SlotPool, len(concurrency))
	for tag, max := range concurrency {
		if max > 0 {
			pools[tag] = NewChanPool(max)
		}
	}

	rates := make(map[string]*rate.Limiter, len(ratePerSecond))
	for tag, rps := range ratePerSecond {
		if rps > 0 {
			rates[tag] = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}

	return &Pools{
		pools:          pools,
		rates:          rates,
		acquireTimeout: acquireTimeout,
	}
}

// Acquire claims a slot for the given tag, waiting for the tag's rate limiter
// first when one is configured. The release function must be called exactly
// once, on success and on failure alike.
func (p *Pools) Acquire(ctx context.Context, tag string) (func(), error) {
	start := time.Now()
	defer func() {
		metrics.LimiterWait.Observe(time.Since(start).Seconds())
	}()

	if lim, ok := p.rates[tag]; ok {
		if err := lim.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter %q: %w", tag, err)
		}
	}

	pool, ok := p.pools[tag]
	if !ok {
		return func() {}, nil
	}

	acqCtx := ctx
	if p.acquireTimeout > 0 {
		var cancel context.CancelFunc
		acqCtx, cancel = context.WithTimeout(ctx, p.acquireTimeout)
		defer cancel()
	}

	release, ok := pool.Acquire(acqCtx)
	if !ok {
		return nil, fmt.Errorf("no slot on limiter %q: %w", tag, acqCtx.Err())
	}
	return release, nil
}
