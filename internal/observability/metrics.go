package observability

import "github.com/prometheus/client_golang/prometheus"

// Domain collectors. HTTP collectors live with the HTTP middleware.
//
// Label values are drawn from small fixed sets (operation names, cache kinds,
// table names) so cardinality stays bounded.
var (
	// UpstreamCalls counts video-platform API calls by operation and outcome
	// ("ok", "retryable", "permanent").
	UpstreamCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstream_calls_total",
			Help: "Upstream API calls by operation and outcome.",
		},
		[]string{"op", "outcome"},
	)

	// UpstreamRetries counts backoff sleeps taken by the retry wrapper.
	UpstreamRetries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstream_retries_total",
			Help: "Retries issued after a retryable upstream error.",
		},
		[]string{"op"},
	)

	// UpstreamInFlight gauges occupied worker-pool slots.
	UpstreamInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "upstream_pool_inflight",
			Help: "Upstream calls currently holding a worker-pool slot.",
		},
	)

	// CacheLookups counts reads by kind ("mapping", "negative", "videos")
	// and result ("hit", "miss", "stale", "corrupt").
	CacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_lookups_total",
			Help: "Cache lookups by kind and result.",
		},
		[]string{"kind", "result"},
	)

	// CacheWriteFailures counts cache writes that failed after a successful
	// upstream call.
	CacheWriteFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_write_failures_total",
			Help: "Failed cache writes following a successful upstream call.",
		},
		[]string{"kind"},
	)

	// PrunedRows counts rows removed by the background prune job.
	PrunedRows = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pruned_rows_total",
			Help: "Rows deleted by the prune job, by table.",
		},
		[]string{"table"},
	)

	// PruneFailures counts prune passes that returned an error.
	PruneFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prune_failures_total",
			Help: "Prune passes that failed, by table.",
		},
		[]string{"table"},
	)
)

func init() {
	prometheus.MustRegister(
		UpstreamCalls,
		UpstreamRetries,
		UpstreamInFlight,
		CacheLookups,
		CacheWriteFailures,
		PrunedRows,
		PruneFailures,
	)
}
