// Package segment implements LogSegmentBuilder: turning a directory
// listing into the minimal file manifest that reconstructs one version of
// a table.
package segment

import (
	"sort"

	"github.com/downfa11-org/snapshotcore/internal/checkpoint"
	"github.com/downfa11-org/snapshotcore/internal/logdir"
	"github.com/downfa11-org/snapshotcore/pkg/types"
)

// Builder produces LogSegments for one table's log directory.
type Builder struct {
	reader   *logdir.Reader
	selector *checkpoint.Selector
	logPath  string
}

// NewBuilder returns a Builder over the log directory at logPath.
func NewBuilder(reader *logdir.Reader, selector *checkpoint.Selector, logPath string) *Builder {
	return &Builder{reader: reader, selector: selector, logPath: logPath}
}

func partition(files []types.LogFile) (checkpoints, deltas []types.LogFile) {
	for _, f := range files {
		switch {
		case f.Kind.IsCheckpoint():
			checkpoints = append(checkpoints, f)
		case f.Kind == types.DeltaCommit:
			deltas = append(deltas, f)
		}
	}
	return checkpoints, deltas
}

// verifyContiguous checks that deltas, sorted ascending, form the strict
// consecutive range starting at from and, when to is non-nil, ending at
// *to. deltas is expected already sorted by version; this only re-checks.
func verifyContiguous(deltas []types.LogFile, from types.Version, to *types.Version) error {
	expected := from
	for _, d := range deltas {
		if d.Version < expected {
			return &types.NonContiguousVersionsError{Expected: expected, Found: d.Version}
		}
		if d.Version > expected {
			return &types.MissingDeltaFileError{Version: expected}
		}
		expected++
	}
	if to != nil {
		last := expected - 1
		if len(deltas) == 0 {
			if from > *to {
				return nil // checkpoint alone covers *to, no deltas required
			}
			return &types.MissingDeltaFileError{Version: from}
		}
		if last != *to {
			return &types.MissingDeltaFileError{Version: last + 1}
		}
	}
	return nil
}

func upperBoundFor(versionToLoad *types.Version) types.CheckpointInstance {
	if versionToLoad == nil {
		return types.MaxCheckpointInstance
	}
	return types.CheckpointInstance{Version: *versionToLoad, NumParts: types.MaxCheckpointInstance.NumParts}
}

// Build produces a LogSegment per the algorithm: list from
// startCheckpointHint (or 0), select the latest complete checkpoint not
// exceeding versionToLoad, retain and verify the trailing deltas, and fall
// back to an earlier checkpoint if the hinted one has vanished.
func (b *Builder) Build(startCheckpointHint *types.Version, versionToLoad *types.Version) (types.LogSegment, error) {
	start := types.Version(0)
	if startCheckpointHint != nil {
		start = *startCheckpointHint
	}

	files, err := b.reader.ListFrom(b.logPath, start, versionToLoad)
	if err != nil {
		return types.LogSegment{}, err
	}

	if len(files) == 0 {
		if startCheckpointHint == nil {
			return types.LogSegment{}, types.ErrEmptyDirectory
		}
		// Stale singleton state after directory recreation: retry as if
		// there had never been a hint.
		return b.Build(nil, versionToLoad)
	}

	checkpoints, deltas := partition(files)
	upperBound := upperBoundFor(versionToLoad)
	newCheckpoint, ok := b.selector.LatestComplete(checkpoints, upperBound)

	if !ok && startCheckpointHint != nil {
		snapshotVersion := types.Version(0)
		switch {
		case versionToLoad != nil:
			snapshotVersion = *versionToLoad
		case len(deltas) > 0:
			snapshotVersion = deltas[len(deltas)-1].Version
		default:
			return types.LogSegment{}, types.ErrIllegalLogState
		}

		seg, found, err := b.BuildWithExclusiveCeiling(snapshotVersion, *startCheckpointHint)
		if err != nil {
			return types.LogSegment{}, err
		}
		if !found {
			return types.LogSegment{}, &types.MissingCheckpointPartsError{Version: *startCheckpointHint}
		}
		return seg, nil
	}

	if !ok && len(deltas) == 0 && len(checkpoints) > 0 {
		return types.LogSegment{}, types.ErrIllegalLogState
	}

	c := types.Version(-1)
	if ok {
		c = newCheckpoint.Instance.Version
	}

	retained := make([]types.LogFile, 0, len(deltas))
	for _, d := range deltas {
		if d.Version > c {
			retained = append(retained, d)
		}
	}
	sort.Slice(retained, func(i, j int) bool { return retained[i].Version < retained[j].Version })

	if err := verifyContiguous(retained, c+1, versionToLoad); err != nil {
		return types.LogSegment{}, err
	}

	return buildSegment(b.logPath, c, ok, newCheckpoint, retained), nil
}

func buildSegment(logPath string, c types.Version, hasCheckpoint bool, ckpt checkpoint.Files, deltas []types.LogFile) types.LogSegment {
	seg := types.LogSegment{
		LogPath: logPath,
		Deltas:  deltas,
	}
	if hasCheckpoint {
		v := ckpt.Instance.Version
		seg.CheckpointVersion = &v
		seg.Checkpoint = ckpt.Entries
	}
	if len(deltas) > 0 {
		last := deltas[len(deltas)-1]
		seg.Version = last.Version
		seg.LastCommitTimestamp = last.ModTime
	} else {
		seg.Version = c
	}
	return seg
}

// BuildWithExclusiveCeiling implements the fallback recovery path used
// when a checkpoint we expected has disappeared or turned out corrupt: it
// searches for the previous complete checkpoint strictly before
// maxExclusiveCkpt and rebuilds up to snapshotVersion on top of it,
// falling back to a checkpoint-less segment from version 0 if none exists.
// found=false with a nil error signals verification failure (retry
// exhaustion), not an I/O problem — the caller decides how to react.
func (b *Builder) BuildWithExclusiveCeiling(snapshotVersion, maxExclusiveCkpt types.Version) (types.LogSegment, bool, error) {
	searchBound := snapshotVersion
	if maxExclusiveCkpt-1 < searchBound {
		searchBound = maxExclusiveCkpt - 1
	}

	if searchBound >= 0 {
		candidates, err := b.reader.ListFrom(b.logPath, 0, &searchBound)
		if err != nil {
			return types.LogSegment{}, false, err
		}
		checkpoints, _ := partition(candidates)
		if prev, found := b.selector.FindLastCompleteBefore(checkpoints, searchBound); found {
			list, err := b.reader.ListFrom(b.logPath, prev.Instance.Version, &snapshotVersion)
			if err != nil {
				return types.LogSegment{}, false, err
			}
			_, deltas := partition(list)
			filtered := make([]types.LogFile, 0, len(deltas))
			for _, d := range deltas {
				if d.Version > prev.Instance.Version {
					filtered = append(filtered, d)
				}
			}
			sort.Slice(filtered, func(i, j int) bool { return filtered[i].Version < filtered[j].Version })

			if err := verifyContiguous(filtered, prev.Instance.Version+1, &snapshotVersion); err != nil {
				return types.LogSegment{}, false, nil
			}
			return buildSegment(b.logPath, prev.Instance.Version, true, prev, filtered), true, nil
		}
	}

	list, err := b.reader.ListFrom(b.logPath, 0, &snapshotVersion)
	if err != nil {
		return types.LogSegment{}, false, err
	}
	_, deltas := partition(list)
	sort.Slice(deltas, func(i, j int) bool { return deltas[i].Version < deltas[j].Version })

	if err := verifyContiguous(deltas, 0, &snapshotVersion); err != nil {
		return types.LogSegment{}, false, nil
	}
	return buildSegment(b.logPath, -1, false, checkpoint.Files{}, deltas), true, nil
}
