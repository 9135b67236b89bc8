package cache_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/downfa11-org/snapshotcore/internal/cache"
	"github.com/downfa11-org/snapshotcore/pkg/executor"
	"github.com/downfa11-org/snapshotcore/pkg/storage"
	"github.com/downfa11-org/snapshotcore/pkg/types"
)

func writeCommit(t *testing.T, dir string, v types.Version, body string) {
	t.Helper()
	if body == "" {
		body = "[]"
	}
	if err := os.WriteFile(filepath.Join(dir, types.FormatCommitName(v)), []byte(body), 0644); err != nil {
		t.Fatalf("write commit %d: %v", v, err)
	}
}

func newTestCache(t *testing.T, dir string, stalenessLimit time.Duration) (*cache.Cache, *executor.Pool) {
	t.Helper()
	pool := executor.New("test", 1, 4)
	backend := storage.NewLocalBackend()
	c := cache.New(dir, backend, 2, 7*24*time.Hour, stalenessLimit, pool, 8, nil, nil)
	return c, pool
}

// A log directory that does not exist yet at init yields the
// InitialSnapshot rather than an error.
func TestInitOnMissingDirectoryPublishesInitialSnapshot(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "does-not-exist-yet")
	c, pool := newTestCache(t, dir, time.Hour)
	defer pool.Close()

	if err := c.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	snap := c.Snapshot()
	if !snap.IsInitial() {
		t.Fatalf("expected initial snapshot for missing directory, got version %d", snap.Version)
	}
}

func TestInitReadsExistingLog(t *testing.T) {
	dir := t.TempDir()
	writeCommit(t, dir, 0, `[{"type":"AssignID","id":"t1"}]`)
	writeCommit(t, dir, 1, "")

	c, pool := newTestCache(t, dir, time.Hour)
	defer pool.Close()

	if err := c.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	snap := c.Snapshot()
	if snap.Version != 1 {
		t.Fatalf("expected version 1, got %d", snap.Version)
	}
	if snap.TableMetadata.TableID != "t1" {
		t.Fatalf("expected table id t1, got %q", snap.TableMetadata.TableID)
	}
}

func TestSyncUpdatePicksUpNewCommits(t *testing.T) {
	dir := t.TempDir()
	writeCommit(t, dir, 0, `[{"type":"AssignID","id":"t1"}]`)

	c, pool := newTestCache(t, dir, time.Hour)
	defer pool.Close()

	if err := c.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if c.Snapshot().Version != 0 {
		t.Fatalf("expected initial version 0, got %d", c.Snapshot().Version)
	}

	writeCommit(t, dir, 1, "")

	snap, err := c.Update(context.Background(), false)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if snap.Version != 1 {
		t.Fatalf("expected updated version 1, got %d", snap.Version)
	}
	if c.Snapshot().Version != 1 {
		t.Fatalf("expected cache to reflect new version, got %d", c.Snapshot().Version)
	}
}

// A sync update() that discovers no new files leaves the current
// snapshot's version and table id unchanged.
func TestUpdateWithNoNewFilesIsANoop(t *testing.T) {
	dir := t.TempDir()
	writeCommit(t, dir, 0, `[{"type":"AssignID","id":"t1"}]`)

	c, pool := newTestCache(t, dir, time.Hour)
	defer pool.Close()

	if err := c.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	before := c.Snapshot()

	snap, err := c.Update(context.Background(), false)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if snap.Version != before.Version || snap.TableMetadata.TableID != before.TableMetadata.TableID {
		t.Fatalf("expected unchanged snapshot, got version %d vs %d", snap.Version, before.Version)
	}
}

func TestAsyncUpdateEventuallyPicksUpNewCommits(t *testing.T) {
	dir := t.TempDir()
	writeCommit(t, dir, 0, `[{"type":"AssignID","id":"t1"}]`)

	// A generous staleness limit keeps the cache "not stale" right after
	// Init, so update(stalenessAcceptable=true) takes the async path
	// (doAsync = stalenessAcceptable && !isStale()) instead of blocking.
	c, pool := newTestCache(t, dir, time.Hour)
	defer pool.Close()

	if err := c.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	writeCommit(t, dir, 1, "")

	if _, err := c.Update(context.Background(), true); err != nil {
		t.Fatalf("Update: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if c.Snapshot().Version == 1 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("expected async update to publish version 1, got %d", c.Snapshot().Version)
}

func TestGetSnapshotAtReturnsHistoricalVersionWithoutPublishing(t *testing.T) {
	dir := t.TempDir()
	writeCommit(t, dir, 0, `[{"type":"AssignID","id":"t1"}]`)
	writeCommit(t, dir, 1, "")
	writeCommit(t, dir, 2, "")

	c, pool := newTestCache(t, dir, time.Hour)
	defer pool.Close()

	if err := c.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if c.Snapshot().Version != 2 {
		t.Fatalf("expected current version 2, got %d", c.Snapshot().Version)
	}

	snap, err := c.GetSnapshotAt(types.Version(0), nil)
	if err != nil {
		t.Fatalf("GetSnapshotAt: %v", err)
	}
	if snap.Version != 0 {
		t.Fatalf("expected historical version 0, got %d", snap.Version)
	}
	if c.Snapshot().Version != 2 {
		t.Fatalf("expected current cache snapshot unaffected, got %d", c.Snapshot().Version)
	}
}

// slowBackend adds a delay before every ListFrom, letting tests reliably
// hold updateLock long enough to exercise the cancellation path.
type slowBackend struct {
	storage.Backend
	delay time.Duration
}

func (s slowBackend) ListFrom(logPath string, startVersion types.Version) ([]types.LogFile, error) {
	time.Sleep(s.delay)
	return s.Backend.ListFrom(logPath, startVersion)
}

func TestUpdateCancellationReturnsErrCancelled(t *testing.T) {
	dir := t.TempDir()
	writeCommit(t, dir, 0, "")

	backend := slowBackend{Backend: storage.NewLocalBackend(), delay: 300 * time.Millisecond}
	pool := executor.New("test", 1, 4)
	defer pool.Close()
	c := cache.New(dir, backend, 2, 7*24*time.Hour, time.Hour, pool, 8, nil, nil)

	if err := c.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}

	started := make(chan struct{})
	go func() {
		close(started)
		_, _ = c.Update(context.Background(), false) // holds updateLock for ~300ms
	}()
	<-started
	time.Sleep(50 * time.Millisecond) // let the goroutine above acquire the lock first

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := c.Update(ctx, false); err == nil {
		t.Fatal("expected cancellation while waiting for updateLock")
	} else if err != types.ErrCancelled {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}
}
