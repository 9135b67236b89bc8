// Package cache implements SnapshotCache: a multi-reader/single-writer
// view over the current table Snapshot, arbitrating synchronous and
// asynchronous refreshes and exposing point-in-time lookups. Structured
// the way the teacher's RaftReplicationManager is built — a struct holding
// its collaborators plus a small concurrency primitive set — but with the
// lock-free publish and single-flight async dedup idiomatic Go favors
// over a reentrant mutex.
package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"golang.org/x/sync/singleflight"

	"github.com/downfa11-org/snapshotcore/internal/checkpoint"
	"github.com/downfa11-org/snapshotcore/internal/logdir"
	"github.com/downfa11-org/snapshotcore/internal/segment"
	"github.com/downfa11-org/snapshotcore/internal/snapshot"
	"github.com/downfa11-org/snapshotcore/pkg/executor"
	"github.com/downfa11-org/snapshotcore/pkg/storage"
	"github.com/downfa11-org/snapshotcore/pkg/types"
	"github.com/downfa11-org/snapshotcore/util"
)

// MetricsSink receives refresh telemetry. A nil sink (NoopMetricsSink) is
// always safe, mirroring internal/snapshot.Observer's injection pattern so
// Cache never needs a back-reference into pkg/metrics.
type MetricsSink interface {
	ObserveRefresh(outcome, trigger string, d time.Duration)
	SetStaleness(d time.Duration)
}

// NoopMetricsSink discards every observation.
type NoopMetricsSink struct{}

func (NoopMetricsSink) ObserveRefresh(string, string, time.Duration) {}
func (NoopMetricsSink) SetStaleness(time.Duration)                   {}

// Cache holds the current Snapshot for one table's log directory and
// coordinates its refresh.
type Cache struct {
	logPath string

	reader   *logdir.Reader
	selector *checkpoint.Selector
	factory  *snapshot.Factory

	stalenessLimit time.Duration
	pool           *executor.Pool
	sink           MetricsSink
	observer       snapshot.Observer // downstream telemetry; Cache forwards its own Observer callbacks here

	current          atomic.Pointer[snapshot.Snapshot]
	lastUpdateMillis atomic.Int64 // -1 until first successful update

	updateLock    chan struct{} // buffered(1): acquire=send, release=receive
	group         singleflight.Group
	asyncInFlight atomic.Bool

	ptCacheSize int
	ptOnce      sync.Once
	pt          *lru.Cache
}

// New builds a Cache over logPath. maxRetries and retentionWindow size the
// SnapshotFactory it owns internally (snapshot.loading.maxRetries and the
// checkpoint retention window, respectively). stalenessLimit is
// async.update.stalenessTimeLimit; zero forces every update onto the sync
// path. pool is the shared async executor (tests inject a size-1 pool for
// determinism); nil selects executor.Default(). ptCacheSize bounds the LRU of historical snapshots
// GetSnapshotAt keeps around. sink and observer may both be nil.
func New(logPath string, backend storage.Backend, maxRetries int, retentionWindow, stalenessLimit time.Duration, pool *executor.Pool, ptCacheSize int, sink MetricsSink, observer snapshot.Observer) *Cache {
	if sink == nil {
		sink = NoopMetricsSink{}
	}
	if observer == nil {
		observer = snapshot.NoopObserver{}
	}
	if pool == nil {
		pool = executor.Default()
	}
	c := &Cache{
		logPath:        logPath,
		reader:         logdir.NewReader(backend),
		selector:       checkpoint.NewSelector(),
		stalenessLimit: stalenessLimit,
		pool:           pool,
		sink:           sink,
		observer:       observer,
		updateLock:     make(chan struct{}, 1),
		ptCacheSize:    ptCacheSize,
	}
	// Cache implements snapshot.Observer itself and passes itself to the
	// Factory it owns, rather than having internal/snapshot import
	// internal/cache to reach the real telemetry sink directly — see
	// DESIGN.md's cyclic-reference note.
	c.factory = snapshot.NewFactory(backend, maxRetries, retentionWindow, c)
	c.lastUpdateMillis.Store(-1)
	return c
}

func (c *Cache) builder() *segment.Builder {
	return segment.NewBuilder(c.reader, c.selector, c.logPath)
}

// OnCheckpointFallback implements snapshot.Observer, forwarding to the
// downstream telemetry sink injected at construction.
func (c *Cache) OnCheckpointFallback(logPath string, fromVersion, toVersion types.Version) {
	c.observer.OnCheckpointFallback(logPath, fromVersion, toVersion)
}

// OnTableIdentityChanged implements snapshot.Observer, forwarding to the
// downstream telemetry sink injected at construction.
func (c *Cache) OnTableIdentityChanged(logPath, oldTableID, newTableID string) {
	c.observer.OnTableIdentityChanged(logPath, oldTableID, newTableID)
}

// Init performs getSnapshotAtInit: read the last-checkpoint hint, build
// and materialize the initial segment, publishing an InitialSnapshot if
// the log directory does not exist yet.
func (c *Cache) Init(ctx context.Context) error {
	hint, err := c.reader.ReadLastCheckpointHint(c.logPath)
	if err != nil {
		return err
	}

	var startHint *types.Version
	if hint != nil {
		v := hint.Version
		startHint = &v
	}

	seg, err := c.builder().Build(startHint, nil)
	if err != nil {
		if errors.Is(err, types.ErrFileNotFound) {
			c.publish(snapshot.Initial(c.logPath))
			return nil
		}
		return err
	}

	snap, err := c.factory.CreateWithRetry(seg, c.builder())
	if err != nil {
		return err
	}
	c.publish(snap)
	return nil
}

// Snapshot returns the currently cached snapshot without refreshing it.
func (c *Cache) Snapshot() snapshot.Snapshot {
	return *c.current.Load()
}

// Update implements update(stalenessAcceptable): a synchronous rebuild
// when staleness cannot be tolerated or the cache is already stale,
// otherwise a best-effort async kick that returns the current snapshot
// immediately.
func (c *Cache) Update(ctx context.Context, stalenessAcceptable bool) (snapshot.Snapshot, error) {
	doAsync := stalenessAcceptable && !c.isStale()
	if !doAsync {
		if err := c.acquireLock(ctx); err != nil {
			return snapshot.Snapshot{}, err
		}
		defer c.releaseLock()
		if err := c.updateInternal(false); err != nil {
			return snapshot.Snapshot{}, err
		}
		return c.Snapshot(), nil
	}

	c.kickAsync()
	return c.Snapshot(), nil
}

// isStale reports whether the cached snapshot's age meets or exceeds the
// configured staleness limit. A zero limit always reports stale, forcing
// every Update onto the synchronous path.
func (c *Cache) isStale() bool {
	if c.stalenessLimit <= 0 {
		return true
	}
	last := c.lastUpdateMillis.Load()
	if last < 0 {
		return true
	}
	age := time.Since(time.UnixMilli(last))
	c.sink.SetStaleness(age)
	return age >= c.stalenessLimit
}

// kickAsync spawns tryUpdate on the shared executor unless one is already
// in flight. The double-spawn race tolerated by the spec is strictly
// tightened here: singleflight.Group collapses concurrent callers onto
// one execution regardless of the atomic fast-path check.
func (c *Cache) kickAsync() {
	if !c.asyncInFlight.CompareAndSwap(false, true) {
		return
	}
	submitted := c.pool.Submit(func(ctx context.Context) {
		defer c.asyncInFlight.Store(false)
		c.tryUpdate(ctx)
	})
	if !submitted {
		c.asyncInFlight.Store(false)
	}
}

// tryUpdate is the non-blocking try_lock path: if updateLock is already
// held, another updater is active and this call is a no-op.
func (c *Cache) tryUpdate(ctx context.Context) {
	c.group.Do("update", func() (interface{}, error) {
		select {
		case c.updateLock <- struct{}{}:
		default:
			return nil, nil
		}
		defer c.releaseLock()

		if err := c.updateInternal(true); err != nil {
			util.Warn("async snapshot update failed for %s: %v", c.logPath, err)
		}
		return nil, nil
	})
}

// acquireLock blocks until updateLock is free or ctx is cancelled.
func (c *Cache) acquireLock(ctx context.Context) error {
	select {
	case c.updateLock <- struct{}{}:
		return nil
	case <-ctx.Done():
		return types.ErrCancelled
	}
}

func (c *Cache) releaseLock() {
	<-c.updateLock
}

// updateInternal implements the §4.5 algorithm. Caller must hold
// updateLock.
func (c *Cache) updateInternal(async bool) error {
	trigger := "sync"
	if async {
		trigger = "async"
	}
	start := time.Now()

	prev := c.Snapshot()
	newSeg, err := c.builder().Build(prev.LogSegment.CheckpointVersion, nil)
	if err != nil {
		if errors.Is(err, types.ErrFileNotFound) {
			var notFound *types.FileNotFoundError
			if errors.As(err, &notFound) && notFound.Replay {
				c.sink.ObserveRefresh("error", trigger, time.Since(start))
				return err
			}
			c.publish(snapshot.Initial(c.logPath))
			c.sink.ObserveRefresh("success", trigger, time.Since(start))
			return nil
		}
		c.sink.ObserveRefresh("error", trigger, time.Since(start))
		return err
	}

	if newSeg.Equals(prev.LogSegment) {
		c.lastUpdateMillis.Store(time.Now().UnixMilli())
		c.sink.ObserveRefresh("success", trigger, time.Since(start))
		return nil
	}

	newSnap, err := c.factory.CreateWithRetry(newSeg, c.builder())
	if err != nil {
		c.sink.ObserveRefresh("error", trigger, time.Since(start))
		return err
	}

	c.publish(newSnap)
	c.sink.ObserveRefresh("success", trigger, time.Since(start))
	return nil
}

// publish enforces the table-identity-stable invariant (an observation,
// not a failure, on change) and atomically makes snap the current
// snapshot.
func (c *Cache) publish(snap snapshot.Snapshot) {
	prev := c.current.Load()
	if prev != nil && !prev.Version.IsPreGenesis() && prev.TableID() != snap.TableID() {
		c.OnTableIdentityChanged(c.logPath, prev.TableID(), snap.TableID())
	}
	c.current.Store(&snap)
	c.lastUpdateMillis.Store(time.Now().UnixMilli())
}
