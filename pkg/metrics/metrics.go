package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TileRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tileproxy_requests_total",
		Help: "Total number of tile requests, per map",
	}, []string{"map"})

	TileErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tileproxy_request_errors_total",
		Help: "Total number of failed tile requests, per error kind",
	}, []string{"kind"})

	CoalescedRequests = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tileproxy_coalesced_requests_total",
		Help: "Requests that attached to an identical in-flight resolution",
	})

	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tileproxy_cache_hits_total",
		Help: "Total number of in-memory tile cache hits",
	})

	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tileproxy_cache_misses_total",
		Help: "Total number of in-memory tile cache misses",
	})

	UpstreamFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tileproxy_upstream_fetches_total",
		Help: "Total number of upstream tile fetches, per limiter tag",
	}, []string{"limiter"})

	UpstreamRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tileproxy_upstream_retries_total",
		Help: "Total number of upstream fetch retries",
	})

	UpstreamLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tileproxy_upstream_latency_seconds",
		Help:    "Latency of upstream tile fetches in seconds",
		Buckets: prometheus.DefBuckets,
	})

	LimiterWait = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tileproxy_limiter_wait_seconds",
		Help:    "Time spent waiting for an upstream concurrency slot",
		Buckets: []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10},
	})

	Composites = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tileproxy_composites_total",
		Help: "Total number of multi-layer composites built",
	})
)
