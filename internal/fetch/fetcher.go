package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"time"

	_ "image/jpeg"
	_ "image/png"

	"tileproxy/internal/limiter"
	"tileproxy/internal/translate"
	"tileproxy/pkg/logger"
	"tileproxy/pkg/metrics"
)

// TileImage is one fetched (or composited) tile raster.
type TileImage struct {
	Data   []byte
	Format string
	Width  int
	Height int
}

// Options tune the retry and timeout policy of a Fetcher.
type Options struct {
	FetchTimeout time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
	UserAgent    string
}

// Fetcher downloads single tile layers, throttled by the shared limiter
// pools. Transient upstream failures are retried locally; everything else
// propagates to the caller.
type Fetcher struct {
	client *http.Client
	pools  *limiter.Pools
	opts   Options
	logger logger.Logger
}

func New(pools *limiter.Pools, opts Options, l logger.Logger) *Fetcher {
	if opts.FetchTimeout == 0 {
		opts.FetchTimeout = 5 * time.Second
	}
	if opts.RetryBackoff == 0 {
		opts.RetryBackoff = 250 * time.Millisecond
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "tileproxy/1.0"
	}

	return &Fetcher{
		client: &http.Client{},
		pools:  pools,
		opts:   opts,
		logger: l,
	}
}

// Fetch retrieves and decodes one tile layer. A concurrency slot for the
// descriptor's limiter tag is held for the duration of the network call and
// released unconditionally.
func (f *Fetcher) Fetch(ctx context.Context, desc translate.FetchDescriptor) (*TileImage, error) {
	release, err := f.pools.Acquire(ctx, desc.LimiterTag)
	if err != nil {
		// A caller disconnect while waiting for a slot is not an upstream
		// timeout; only an expired deadline is.
		return nil, &UpstreamError{Cause: err, Timeout: errors.Is(err, context.DeadlineExceeded)}
	}
	defer release()

	metrics.UpstreamFetches.WithLabelValues(orDefault(desc.LimiterTag)).Inc()

	var lastErr error
	for attempt := 0; attempt <= f.opts.MaxRetries; attempt++ {
		if attempt > 0 {
			metrics.UpstreamRetries.Inc()
			select {
			case <-time.After(f.opts.RetryBackoff * time.Duration(attempt)):
			case <-ctx.Done():
				return nil, &UpstreamError{Cause: ctx.Err(), Timeout: errors.Is(ctx.Err(), context.DeadlineExceeded)}
			}
		}

		img, retryable, err := f.attempt(ctx, desc)
		if err == nil {
			return img, nil
		}
		if !retryable {
			return nil, err
		}
		lastErr = err
		f.logger.Warn("transient upstream failure, will retry",
			"url", desc.URL, "attempt", attempt+1, "error", err)
	}

	return nil, lastErr
}

// attempt performs one bounded download. The second return value reports
// whether the failure is transient.
func (f *Fetcher) attempt(ctx context.Context, desc translate.FetchDescriptor) (*TileImage, bool, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, f.opts.FetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, desc.URL, nil)
	if err != nil {
		return nil, false, &UpstreamError{Cause: err}
	}

	req.Header.Set("User-Agent", f.opts.UserAgent)
	for k, v := range desc.Headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := f.client.Do(req)
	metrics.UpstreamLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		timeout := errors.Is(err, context.DeadlineExceeded) || errors.Is(attemptCtx.Err(), context.DeadlineExceeded)
		return nil, true, &UpstreamError{Cause: err, Timeout: timeout}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		upstreamErr := &UpstreamError{Status: resp.StatusCode}
		return nil, resp.StatusCode >= 500, upstreamErr
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, &UpstreamError{Cause: err}
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(body))
	if err != nil {
		return nil, false, fmt.Errorf("%w: %s: %v", ErrDecode, desc.URL, err)
	}

	return &TileImage{
		Data:   body,
		Format: format,
		Width:  cfg.Width,
		Height: cfg.Height,
	}, false, nil
}

func orDefault(tag string) string {
	if tag == "" {
		return "default"
	}
	return tag
}
