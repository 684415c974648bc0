package usecase

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"tileproxy/internal/compose"
	"tileproxy/internal/fetch"
	"tileproxy/internal/registry"
	"tileproxy/internal/repository/cache"
	"tileproxy/internal/translate"
	"tileproxy/pkg/logger"
	"tileproxy/pkg/metrics"
)

// TileKey is the canonical coalescing and cache key: one key, one composited
// output for the map's configuration.
type TileKey struct {
	Map string
	Z   int
	X   int
	Y   int
}

func (k TileKey) String() string {
	return fmt.Sprintf("%s/%d/%d/%d", k.Map, k.Z, k.X, k.Y)
}

// TileUseCase orchestrates tile resolution: coalesce identical in-flight
// requests, translate coordinates per layer, fan out the fetches, composite
// and publish the result to every attached caller.
type TileUseCase struct {
	registry      *registry.Registry
	fetcher       *fetch.Fetcher
	cache         cache.TileCache
	group         singleflight.Group
	flightTimeout time.Duration
	logger        logger.Logger
}

// NewTileUseCase wires the coordinator. tileCache may be nil to disable the
// ephemeral response cache. flightTimeout bounds one whole resolution
// (all layers plus compositing).
func NewTileUseCase(reg *registry.Registry, fetcher *fetch.Fetcher, tileCache cache.TileCache, flightTimeout time.Duration, l logger.Logger) *TileUseCase {
	if flightTimeout == 0 {
		flightTimeout = 30 * time.Second
	}
	return &TileUseCase{
		registry:      reg,
		fetcher:       fetcher,
		cache:         tileCache,
		flightTimeout: flightTimeout,
		logger:        l,
	}
}

// GetTile returns the composited tile for the key. Concurrent calls for the
// same key share a single resolution and receive the same result or error.
func (uc *TileUseCase) GetTile(ctx context.Context, key TileKey) (*fetch.TileImage, error) {
	metrics.TileRequests.WithLabelValues(key.Map).Inc()

	cfg, err := uc.registry.Lookup(key.Map)
	if err != nil {
		return nil, err
	}

	if uc.cache != nil {
		cached, exists, err := uc.cache.Get(cacheKey(key))
		if err != nil {
			uc.logger.Warn("tile cache lookup failed", "key", key.String(), "error", err)
		} else if exists {
			metrics.CacheHits.Inc()
			uc.logger.Debug("tile served from cache", "key", key.String())
			return &fetch.TileImage{
				Data:   cached.Data,
				Format: cached.Format,
				Width:  cached.Width,
				Height: cached.Height,
			}, nil
		} else {
			metrics.CacheMisses.Inc()
		}
	}

	// The flight runs on a context detached from the caller so that one
	// dropped connection cannot fail the result for coalesced siblings.
	flightCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), uc.flightTimeout)
	defer cancel()

	v, err, shared := uc.group.Do(key.String(), func() (any, error) {
		return uc.resolve(flightCtx, cfg, key)
	})
	if shared {
		metrics.CoalescedRequests.Inc()
	}
	if err != nil {
		return nil, err
	}
	return v.(*fetch.TileImage), nil
}

// resolve runs the full pipeline for one key: translate, fetch every layer
// concurrently, wait for all of them, then composite in configuration order.
func (uc *TileUseCase) resolve(ctx context.Context, cfg *registry.MapConfig, key TileKey) (*fetch.TileImage, error) {
	descriptors, err := translate.Layers(cfg, key.Z, key.X, key.Y)
	if err != nil {
		return nil, err
	}

	images := make([]*fetch.TileImage, len(descriptors))
	g, gctx := errgroup.WithContext(ctx)
	for i, desc := range descriptors {
		i, desc := i, desc
		g.Go(func() error {
			img, err := uc.fetcher.Fetch(gctx, desc)
			if err != nil {
				return fmt.Errorf("layer %d: %w", i, err)
			}
			images[i] = img
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		// Any failed layer fails the whole composite. The client contract is
		// "the requested composite", never a partial image.
		return nil, err
	}

	result, err := compose.Composite(images[0], images[1:], cfg.OutputFormat)
	if err != nil {
		return nil, err
	}
	if len(images) > 1 {
		metrics.Composites.Inc()
	}

	if uc.cache != nil {
		if err := uc.cache.Set(cacheKey(key), cache.TileCacheValue{
			Data:   result.Data,
			Format: result.Format,
			Width:  result.Width,
			Height: result.Height,
		}); err != nil {
			uc.logger.Warn("failed to cache tile", "key", key.String(), "error", err)
		}
	}

	uc.logger.Info("tile resolved",
		"key", key.String(), "layers", len(images), "size", len(result.Data))
	return result, nil
}

func cacheKey(key TileKey) cache.TileCacheKey {
	return cache.TileCacheKey{MapID: key.Map, X: key.X, Y: key.Y, Z: key.Z}
}
