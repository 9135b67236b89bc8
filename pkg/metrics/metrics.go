// Package metrics exposes the Prometheus collectors the cache's refresh
// loop and the checkpoint-fallback retry path report against, kept as
// package-level vars the same way the teacher's pkg/metrics/broker.go
// declares its broker counters.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// CacheRefreshTotal counts snapshot cache refresh attempts, labeled by
	// outcome (success/error) and trigger (sync/async).
	CacheRefreshTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "snapshotcore_cache_refresh_total",
		Help: "Total number of snapshot cache refresh attempts",
	}, []string{"outcome", "trigger"})

	// CacheRefreshDuration measures how long a refresh (segment build +
	// snapshot construction) takes, labeled the same way.
	CacheRefreshDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "snapshotcore_cache_refresh_duration_seconds",
		Help:    "Duration of snapshot cache refresh attempts",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome", "trigger"})

	// CacheStaleness reports how long the currently served snapshot has
	// gone since it was last refreshed.
	CacheStaleness = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "snapshotcore_cache_staleness_seconds",
		Help: "Age of the currently served snapshot since its last refresh",
	})

	// CheckpointFallbackTotal counts SnapshotFactory.CreateWithRetry
	// falling back to an earlier checkpoint after corruption.
	CheckpointFallbackTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "snapshotcore_checkpoint_fallback_total",
		Help: "Total number of checkpoint-corruption fallbacks during snapshot creation",
	})

	// TableIdentityChangedTotal counts observed table identity changes
	// (a fresh table replacing the one previously cached at the same
	// log path).
	TableIdentityChangedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "snapshotcore_table_identity_changed_total",
		Help: "Total number of table identity changes observed at a log path",
	})
)
