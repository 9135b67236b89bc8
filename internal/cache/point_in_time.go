package cache

import (
	lru "github.com/hashicorp/golang-lru"

	"github.com/downfa11-org/snapshotcore/internal/snapshot"
	"github.com/downfa11-org/snapshotcore/pkg/types"
)

// CheckpointHint narrows getSnapshotAt's search for a starting checkpoint;
// the caller supplies one when it already knows a usable checkpoint
// version at or before the target version.
type CheckpointHint struct {
	Version types.Version
}

// GetSnapshotAt performs a point-in-time read without mutating cache
// state: if the currently published snapshot already matches version, it
// is returned directly; otherwise a fresh segment is built starting from
// the best available checkpoint (the caller's hint if usable, else the
// latest complete checkpoint at or before version) and materialized
// through the factory. The result is never published into the cache.
func (c *Cache) GetSnapshotAt(version types.Version, hint *CheckpointHint) (snapshot.Snapshot, error) {
	current := c.Snapshot()
	if current.Version == version {
		return current, nil
	}

	if cached, ok := c.pointInTimeGet(version); ok {
		return cached, nil
	}

	var startHint *types.Version
	if hint != nil && hint.Version <= version {
		v := hint.Version
		startHint = &v
	} else if v, ok, err := c.findLastCompleteBefore(version); err == nil && ok {
		startHint = &v
	}

	seg, err := c.builder().Build(startHint, &version)
	if err != nil {
		return snapshot.Snapshot{}, err
	}

	snap, err := c.factory.CreateWithRetry(seg, c.builder())
	if err != nil {
		return snapshot.Snapshot{}, err
	}

	c.pointInTimePut(version, snap)
	return snap, nil
}

// findLastCompleteBefore lists candidates up to version and delegates to
// CheckpointSelector.FindLastCompleteBefore, the same starting-checkpoint
// lookup LogSegmentBuilder's fallback path performs.
func (c *Cache) findLastCompleteBefore(version types.Version) (types.Version, bool, error) {
	files, err := c.reader.ListFrom(c.logPath, 0, &version)
	if err != nil {
		return 0, false, err
	}
	var checkpoints []types.LogFile
	for _, f := range files {
		if f.Kind.IsCheckpoint() {
			checkpoints = append(checkpoints, f)
		}
	}
	found, ok := c.selector.FindLastCompleteBefore(checkpoints, version)
	if !ok {
		return 0, false, nil
	}
	return found.Instance.Version, true, nil
}

// pointInTimeCache lazily constructs its LRU on first use so Cache's
// zero-built tests (ones that never call GetSnapshotAt) pay no cost for it.
func (c *Cache) pointInTimeCache() *lru.Cache {
	c.ptOnce.Do(func() {
		size := c.ptCacheSize
		if size <= 0 {
			size = 32
		}
		l, _ := lru.New(size)
		c.pt = l
	})
	return c.pt
}

func (c *Cache) pointInTimeGet(version types.Version) (snapshot.Snapshot, bool) {
	v, ok := c.pointInTimeCache().Get(version)
	if !ok {
		return snapshot.Snapshot{}, false
	}
	return v.(snapshot.Snapshot), true
}

func (c *Cache) pointInTimePut(version types.Version, snap snapshot.Snapshot) {
	c.pointInTimeCache().Add(version, snap)
}
