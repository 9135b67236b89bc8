// Package snapshot implements SnapshotFactory: materializing a Snapshot
// from a LogSegment, retrying against an earlier checkpoint when the
// chosen one turns out corrupt.
package snapshot

import (
	"time"

	"github.com/downfa11-org/snapshotcore/pkg/types"
)

// Snapshot is the immutable, materialized view of a table at one version.
type Snapshot struct {
	Version                   types.Version
	LogSegment                types.LogSegment
	TableMetadata             types.TableMetadata
	Protocol                  types.Protocol
	MinFileRetentionTimestamp time.Time
	ChecksumOpt               *uint64
}

// IsInitial reports whether this is the sentinel pre-genesis snapshot for
// a directory with no log yet.
func (s Snapshot) IsInitial() bool {
	return s.Version.IsPreGenesis()
}

// TableID is a convenience accessor used by the identity-stability check
// in internal/cache.
func (s Snapshot) TableID() string {
	return s.TableMetadata.TableID
}

// Initial returns the InitialSnapshot variant for logPath: version -1,
// empty metadata, no checkpoint or deltas.
func Initial(logPath string) Snapshot {
	return Snapshot{
		Version: types.PreGenesis,
		LogSegment: types.LogSegment{
			LogPath: logPath,
			Version: types.PreGenesis,
		},
		TableMetadata: types.NewTableMetadata(),
	}
}

// Observer receives telemetry events the factory and cache raise but do
// not treat as fatal. A no-op implementation is always safe; production
// code wires pkg/metrics.PrometheusSink here instead of holding a back
// reference from Snapshot/Cache to each other.
type Observer interface {
	OnCheckpointFallback(logPath string, fromVersion, toVersion types.Version)
	OnTableIdentityChanged(logPath, oldTableID, newTableID string)
}

// NoopObserver discards every event; the default when no telemetry sink
// is configured.
type NoopObserver struct{}

func (NoopObserver) OnCheckpointFallback(string, types.Version, types.Version) {}
func (NoopObserver) OnTableIdentityChanged(string, string, string)             {}
