package metrics

import (
	"time"

	"github.com/downfa11-org/snapshotcore/pkg/types"
	"github.com/downfa11-org/snapshotcore/util"
)

// PrometheusSink adapts the package-level collectors to the collaborator
// interfaces internal/snapshot and internal/cache accept by dependency
// injection (snapshot.Observer, cache.MetricsSink), the same role
// PushMetric plays for the teacher's broker pipeline but split across the
// two seams this domain actually has.
type PrometheusSink struct{}

// NewPrometheusSink returns a sink backed by the package-level collectors.
func NewPrometheusSink() PrometheusSink { return PrometheusSink{} }

// ObserveRefresh records a cache refresh attempt's outcome and duration.
// outcome is "success" or "error"; trigger is "sync" or "async".
func (PrometheusSink) ObserveRefresh(outcome, trigger string, d time.Duration) {
	CacheRefreshTotal.WithLabelValues(outcome, trigger).Inc()
	CacheRefreshDuration.WithLabelValues(outcome, trigger).Observe(d.Seconds())
}

// SetStaleness reports the currently served snapshot's age.
func (PrometheusSink) SetStaleness(d time.Duration) {
	CacheStaleness.Set(d.Seconds())
}

// OnCheckpointFallback implements snapshot.Observer.
func (PrometheusSink) OnCheckpointFallback(logPath string, fromVersion, toVersion types.Version) {
	CheckpointFallbackTotal.Inc()
	util.Warn("checkpoint fallback at %s: checkpoint %d unusable, retried with checkpoint %d", logPath, fromVersion, toVersion)
}

// OnTableIdentityChanged implements snapshot.Observer.
func (PrometheusSink) OnTableIdentityChanged(logPath, oldTableID, newTableID string) {
	TableIdentityChangedTotal.Inc()
	util.Warn("table identity changed at %s: %s -> %s", logPath, oldTableID, newTableID)
}
