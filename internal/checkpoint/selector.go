// Package checkpoint implements CheckpointSelector: picking the latest
// complete checkpoint not exceeding a version bound, from a raw listing of
// checkpoint log files.
package checkpoint

import (
	"fmt"
	"sort"

	"github.com/downfa11-org/snapshotcore/pkg/types"
)

// Files groups the concrete LogFile entries that make up one checkpoint
// instance: a single entry for SingleCheckpoint, or every shard (sorted by
// part) for a complete MultiPartCheckpoint.
type Files struct {
	Instance types.CheckpointInstance
	Entries  []types.LogFile
}

// Selector picks checkpoint instances out of a directory listing. It holds
// no state of its own; every call is a pure function of the candidates
// passed in.
type Selector struct{}

// NewSelector returns a ready-to-use CheckpointSelector.
func NewSelector() *Selector {
	return &Selector{}
}

type group struct {
	instance types.CheckpointInstance
	parts    map[int32]types.LogFile // keyed by 1-based part; single-part uses key 0
}

func groupKey(kind types.LogFileKind, version types.Version, numParts int32) string {
	return fmt.Sprintf("%d|%d|%d", kind, version, numParts)
}

// groupCandidates partitions checkpoint log files into candidate
// instances, keyed by (kind, version, declared total parts).
func groupCandidates(candidates []types.LogFile) map[string]*group {
	groups := make(map[string]*group)
	for _, f := range candidates {
		if !f.Kind.IsCheckpoint() {
			continue
		}
		switch f.Kind {
		case types.SingleCheckpoint:
			key := groupKey(f.Kind, f.Version, 0)
			groups[key] = &group{
				instance: types.NewSingleCheckpointInstance(f.Version),
				parts:    map[int32]types.LogFile{0: f},
			}
		case types.MultiPartCheckpoint:
			key := groupKey(f.Kind, f.Version, f.NumParts)
			g, ok := groups[key]
			if !ok {
				g = &group{
					instance: types.NewMultiPartCheckpointInstance(f.Version, f.NumParts),
					parts:    make(map[int32]types.LogFile),
				}
				groups[key] = g
			}
			g.parts[f.Part] = f
		}
	}
	return groups
}

func (g *group) isComplete() bool {
	if g.instance.NumParts == nil {
		return len(g.parts) == 1
	}
	return int32(len(g.parts)) == *g.instance.NumParts
}

func (g *group) files() []types.LogFile {
	out := make([]types.LogFile, 0, len(g.parts))
	for _, f := range g.parts {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Part < out[j].Part })
	return out
}

// LatestComplete returns the maximum complete checkpoint instance among
// candidates with instance <= upperBound, or ok=false if none is complete.
func (s *Selector) LatestComplete(candidates []types.LogFile, upperBound types.CheckpointInstance) (Files, bool) {
	groups := groupCandidates(candidates)

	var best *group
	for _, g := range groups {
		if !g.instance.LessOrEqual(upperBound) {
			continue
		}
		if !g.isComplete() {
			continue
		}
		if best == nil || best.instance.Compare(g.instance) < 0 {
			best = g
		}
	}
	if best == nil {
		return Files{}, false
	}
	return Files{Instance: best.instance, Entries: best.files()}, true
}

// FindLastCompleteBefore scans candidates for the latest complete
// checkpoint instance whose version is <= beforeVersion, disregarding part
// count — the accelerating LastCheckpointHint lookup, when available, is
// the caller's concern (it supplies a narrower candidate set or short-
// circuits entirely before reaching here).
func (s *Selector) FindLastCompleteBefore(candidates []types.LogFile, beforeVersion types.Version) (Files, bool) {
	upperBound := types.CheckpointInstance{
		Version:  beforeVersion,
		NumParts: types.MaxCheckpointInstance.NumParts,
	}
	return s.LatestComplete(candidates, upperBound)
}
