package segment_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/downfa11-org/snapshotcore/internal/checkpoint"
	"github.com/downfa11-org/snapshotcore/internal/logdir"
	"github.com/downfa11-org/snapshotcore/internal/segment"
	"github.com/downfa11-org/snapshotcore/pkg/storage"
	"github.com/downfa11-org/snapshotcore/pkg/types"
)

func newBuilder(t *testing.T, dir string) *segment.Builder {
	t.Helper()
	reader := logdir.NewReader(storage.NewLocalBackend())
	return segment.NewBuilder(reader, checkpoint.NewSelector(), dir)
}

func writeCommit(t *testing.T, dir string, v types.Version) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, types.FormatCommitName(v)), []byte("[]"), 0644); err != nil {
		t.Fatalf("write commit %d: %v", v, err)
	}
}

func writeSingleCheckpoint(t *testing.T, dir string, v types.Version) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, types.FormatSingleCheckpointName(v)), []byte("ckpt"), 0644); err != nil {
		t.Fatalf("write checkpoint %d: %v", v, err)
	}
}

func writeMultiPart(t *testing.T, dir string, v types.Version, part, total int32) {
	t.Helper()
	name := types.FormatMultiPartCheckpointName(v, part, total)
	if err := os.WriteFile(filepath.Join(dir, name), []byte("ckpt-part"), 0644); err != nil {
		t.Fatalf("write checkpoint part: %v", err)
	}
}

// S1: linear log, no checkpoint.
func TestBuildLinearLog(t *testing.T) {
	dir := t.TempDir()
	for v := types.Version(0); v <= 5; v++ {
		writeCommit(t, dir, v)
	}

	seg, err := newBuilder(t, dir).Build(nil, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if seg.Version != 5 {
		t.Fatalf("expected version 5, got %d", seg.Version)
	}
	if seg.CheckpointVersion != nil {
		t.Fatalf("expected no checkpoint, got %+v", seg.CheckpointVersion)
	}
	if len(seg.Deltas) != 6 {
		t.Fatalf("expected 6 deltas, got %d", len(seg.Deltas))
	}
}

// S2: with checkpoint.
func TestBuildWithCheckpoint(t *testing.T) {
	dir := t.TempDir()
	for v := types.Version(0); v <= 10; v++ {
		writeCommit(t, dir, v)
	}
	writeSingleCheckpoint(t, dir, 7)

	seg, err := newBuilder(t, dir).Build(nil, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if seg.CheckpointVersion == nil || *seg.CheckpointVersion != 7 {
		t.Fatalf("expected checkpoint version 7, got %+v", seg.CheckpointVersion)
	}
	if len(seg.Deltas) != 3 {
		t.Fatalf("expected deltas 8,9,10, got %d", len(seg.Deltas))
	}
	if seg.Deltas[0].Version != 8 || seg.Deltas[2].Version != 10 {
		t.Fatalf("unexpected delta range: %+v", seg.Deltas)
	}
}

// S3: multi-part checkpoint, complete.
func TestBuildWithMultiPartCheckpoint(t *testing.T) {
	dir := t.TempDir()
	for v := types.Version(0); v <= 5; v++ {
		writeCommit(t, dir, v)
	}
	writeMultiPart(t, dir, 3, 1, 2)
	writeMultiPart(t, dir, 3, 2, 2)

	seg, err := newBuilder(t, dir).Build(nil, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if seg.CheckpointVersion == nil || *seg.CheckpointVersion != 3 {
		t.Fatalf("expected checkpoint version 3, got %+v", seg.CheckpointVersion)
	}
	if len(seg.Checkpoint) != 2 {
		t.Fatalf("expected both checkpoint parts, got %d", len(seg.Checkpoint))
	}
	if len(seg.Deltas) != 2 || seg.Deltas[0].Version != 4 || seg.Deltas[1].Version != 5 {
		t.Fatalf("expected deltas 4,5, got %+v", seg.Deltas)
	}
}

// S4: missing checkpoint part triggers fallback. The pre-checkpoint
// commits (0,1,2) are already reclaimed here, as they would be in a table
// old enough to have a checkpoint at v=3 with retention enabled — that is
// what actually forces MissingCheckpointParts rather than a clean rebuild
// from version 0.
func TestBuildFallbackOnMissingPart(t *testing.T) {
	dir := t.TempDir()
	for v := types.Version(3); v <= 5; v++ {
		writeCommit(t, dir, v)
	}
	writeMultiPart(t, dir, 3, 1, 2) // part 2 absent

	hint := types.Version(3)
	_, err := newBuilder(t, dir).Build(&hint, nil)
	var missingParts *types.MissingCheckpointPartsError
	if !errors.As(err, &missingParts) {
		t.Fatalf("expected MissingCheckpointPartsError with no prior checkpoint, got %v", err)
	}

	// Add an earlier complete checkpoint and its trailing commit: fallback
	// should now succeed.
	writeCommit(t, dir, 2)
	writeSingleCheckpoint(t, dir, 1)
	seg, err := newBuilder(t, dir).Build(&hint, nil)
	if err != nil {
		t.Fatalf("Build after adding fallback checkpoint: %v", err)
	}
	if seg.CheckpointVersion == nil || *seg.CheckpointVersion != 1 {
		t.Fatalf("expected fallback to checkpoint version 1, got %+v", seg.CheckpointVersion)
	}
	if len(seg.Deltas) != 4 || seg.Deltas[0].Version != 2 || seg.Deltas[3].Version != 5 {
		t.Fatalf("expected deltas 2..5, got %+v", seg.Deltas)
	}
}

// S5: gap in delta chain.
func TestBuildGapInDeltas(t *testing.T) {
	dir := t.TempDir()
	writeCommit(t, dir, 0)
	writeCommit(t, dir, 1)
	writeCommit(t, dir, 3)

	_, err := newBuilder(t, dir).Build(nil, nil)
	var missing *types.MissingDeltaFileError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingDeltaFileError, got %v", err)
	}
	if missing.Version != 2 {
		t.Fatalf("expected gap at version 2, got %d", missing.Version)
	}
}

func TestBuildEmptyDirectoryNoHint(t *testing.T) {
	dir := t.TempDir()
	_, err := newBuilder(t, dir).Build(nil, nil)
	if !errors.Is(err, types.ErrEmptyDirectory) {
		t.Fatalf("expected ErrEmptyDirectory, got %v", err)
	}
}

func TestBuildStaleHintOnEmptyDirectoryRecursesWithoutHint(t *testing.T) {
	dir := t.TempDir()
	writeCommit(t, dir, 0)
	writeCommit(t, dir, 1)

	// Hint points past everything currently in the directory (as if the
	// directory had been recreated after the hint was cached).
	staleHint := types.Version(99)
	seg, err := newBuilder(t, dir).Build(&staleHint, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if seg.Version != 1 {
		t.Fatalf("expected recovery to version 1, got %d", seg.Version)
	}
}

func TestBuildVersionToLoadTruncates(t *testing.T) {
	dir := t.TempDir()
	for v := types.Version(0); v <= 10; v++ {
		writeCommit(t, dir, v)
	}

	target := types.Version(4)
	seg, err := newBuilder(t, dir).Build(nil, &target)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if seg.Version != 4 {
		t.Fatalf("expected version 4, got %d", seg.Version)
	}
	if len(seg.Deltas) != 5 {
		t.Fatalf("expected deltas 0..4, got %d", len(seg.Deltas))
	}
}
