package snapshot

import (
	"errors"
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/downfa11-org/snapshotcore/internal/segment"
	"github.com/downfa11-org/snapshotcore/pkg/actions"
	"github.com/downfa11-org/snapshotcore/pkg/storage"
	"github.com/downfa11-org/snapshotcore/pkg/types"
)

// Factory wraps LogSegments into Snapshots, replaying checkpoint content
// plus trailing commit action lists, and retries with an earlier
// checkpoint when the chosen one turns out corrupt.
type Factory struct {
	backend         storage.Backend
	maxRetries      int
	retentionWindow time.Duration
	observer        Observer
}

// NewFactory returns a Factory. maxRetries is
// snapshot.loading.maxRetries (default 2); retentionWindow backs
// MinFileRetentionTimestamp (how far back a file may be vacuumed).
func NewFactory(backend storage.Backend, maxRetries int, retentionWindow time.Duration, observer Observer) *Factory {
	if observer == nil {
		observer = NoopObserver{}
	}
	return &Factory{backend: backend, maxRetries: maxRetries, retentionWindow: retentionWindow, observer: observer}
}

// CreateSnapshot materializes a Snapshot from segment: decode the chosen
// checkpoint (if any) for a base TableMetadata/Protocol, then replay each
// trailing commit's action list on top of it in order.
func (f *Factory) CreateSnapshot(seg types.LogSegment) (Snapshot, error) {
	meta := types.NewTableMetadata()
	var protocol types.Protocol

	if seg.HasCheckpoint() {
		var err error
		meta, protocol, err = f.readCheckpoint(seg.Checkpoint)
		if err != nil {
			return Snapshot{}, err
		}
	}

	for _, d := range seg.Deltas {
		data, err := f.readFile(d.Path)
		if err != nil {
			return Snapshot{}, fmt.Errorf("read commit %s: %w", d.Path, err)
		}
		acts, err := actions.DecodeActions(data)
		if err != nil {
			return Snapshot{}, fmt.Errorf("decode commit %s: %w", d.Path, err)
		}
		meta, err = actions.Replay(meta, acts)
		if err != nil {
			return Snapshot{}, fmt.Errorf("replay commit %s: %w", d.Path, err)
		}
	}

	checksum := computeChecksum(seg, meta)
	return Snapshot{
		Version:                   seg.Version,
		LogSegment:                seg,
		TableMetadata:             meta,
		Protocol:                  protocol,
		MinFileRetentionTimestamp: time.Now().Add(-f.retentionWindow),
		ChecksumOpt:               &checksum,
	}, nil
}

// CreateWithRetry implements the §4.4 retry protocol: on a
// CheckpointCorruption failure, fall back to the previous complete
// checkpoint via builder.BuildWithExclusiveCeiling and retry, up to
// maxRetries times, preserving the first error as the one eventually
// raised.
func (f *Factory) CreateWithRetry(initialSegment types.LogSegment, builder *segment.Builder) (Snapshot, error) {
	seg := initialSegment
	var firstErr error

	for attempt := 0; attempt <= f.maxRetries; attempt++ {
		snap, err := f.CreateSnapshot(seg)
		if err == nil {
			return snap, nil
		}
		if firstErr == nil {
			firstErr = err
		}
		if !errors.Is(err, types.ErrCheckpointCorruption) || !seg.HasCheckpoint() || attempt == f.maxRetries {
			return Snapshot{}, firstErr
		}

		fallback, found, ferr := builder.BuildWithExclusiveCeiling(seg.Version, *seg.CheckpointVersion)
		if ferr != nil || !found {
			return Snapshot{}, firstErr
		}
		toCheckpoint := types.PreGenesis // checkpoint-less fallback segment
		if fallback.CheckpointVersion != nil {
			toCheckpoint = *fallback.CheckpointVersion
		}
		f.observer.OnCheckpointFallback(seg.LogPath, *seg.CheckpointVersion, toCheckpoint)
		seg = fallback
	}
	return Snapshot{}, firstErr
}

func (f *Factory) readFile(path string) ([]byte, error) {
	r, err := f.backend.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	buf := make([]byte, r.Len())
	if _, err := r.ReadAt(buf, 0); err != nil {
		return nil, err
	}
	return buf, nil
}

func (f *Factory) readCheckpoint(files []types.LogFile) (types.TableMetadata, types.Protocol, error) {
	if len(files) == 1 {
		r, err := f.backend.Open(files[0].Path)
		if err != nil {
			return types.TableMetadata{}, types.Protocol{}, err
		}
		defer r.Close()
		return DecodeCheckpoint(r)
	}

	merged := types.NewTableMetadata()
	var protocol types.Protocol
	for i, part := range files {
		r, err := f.backend.Open(part.Path)
		if err != nil {
			return types.TableMetadata{}, types.Protocol{}, err
		}
		meta, p, err := DecodeCheckpoint(r)
		r.Close()
		if err != nil {
			return types.TableMetadata{}, types.Protocol{}, err
		}
		mergeCheckpointPart(&merged, meta, i == 0)
		if i == 0 {
			protocol = p
		}
	}
	return merged, protocol, nil
}

// mergeCheckpointPart folds one shard's decoded metadata into the running
// merge. Scalar, singleton fields (table id, format version, location,
// default ids, schema/spec/sort-order lists) are taken from the first
// part only; the collection fields every part may contribute distinct
// entries to are unioned.
func mergeCheckpointPart(into *types.TableMetadata, part types.TableMetadata, isFirst bool) {
	if isFirst {
		into.TableID = part.TableID
		into.FormatVersion = part.FormatVersion
		into.Location = part.Location
		into.Schemas = part.Schemas
		into.CurrentSchemaID = part.CurrentSchemaID
		into.PartitionSpecs = part.PartitionSpecs
		into.DefaultSpecID = part.DefaultSpecID
		into.SortOrders = part.SortOrders
		into.DefaultSortOrderID = part.DefaultSortOrderID
	}
	for id, entry := range part.SnapshotEntries {
		into.SnapshotEntries[id] = entry
	}
	for name, ref := range part.Refs {
		into.Refs[name] = ref
	}
	for k, v := range part.Properties {
		into.Properties[k] = v
	}
}

func computeChecksum(seg types.LogSegment, meta types.TableMetadata) uint64 {
	h := xxhash.New()
	h.WriteString(seg.LogPath)
	h.WriteString(meta.TableID)
	for _, d := range seg.Deltas {
		h.WriteString(d.Path)
	}
	for _, c := range seg.Checkpoint {
		h.WriteString(c.Path)
	}
	return h.Sum64()
}
