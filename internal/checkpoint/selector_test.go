package checkpoint_test

import (
	"testing"

	"github.com/downfa11-org/snapshotcore/internal/checkpoint"
	"github.com/downfa11-org/snapshotcore/pkg/types"
)

func single(v types.Version) types.LogFile {
	return types.LogFile{Kind: types.SingleCheckpoint, Version: v}
}

func part(v types.Version, p, total int32) types.LogFile {
	return types.LogFile{Kind: types.MultiPartCheckpoint, Version: v, Part: p, NumParts: total}
}

func TestLatestCompletePicksHighestSingle(t *testing.T) {
	s := checkpoint.NewSelector()
	candidates := []types.LogFile{single(3), single(7), single(10)}

	got, ok := s.LatestComplete(candidates, types.MaxCheckpointInstance)
	if !ok {
		t.Fatal("expected a complete checkpoint")
	}
	if got.Instance.Version != 10 {
		t.Fatalf("expected version 10, got %d", got.Instance.Version)
	}
}

func TestLatestCompleteRespectsUpperBound(t *testing.T) {
	s := checkpoint.NewSelector()
	candidates := []types.LogFile{single(3), single(7), single(10)}

	upper := types.NewSingleCheckpointInstance(8)
	got, ok := s.LatestComplete(candidates, upper)
	if !ok {
		t.Fatal("expected a complete checkpoint")
	}
	if got.Instance.Version != 7 {
		t.Fatalf("expected version 7, got %d", got.Instance.Version)
	}
}

func TestLatestCompleteMultiPart(t *testing.T) {
	s := checkpoint.NewSelector()
	candidates := []types.LogFile{part(3, 1, 2), part(3, 2, 2)}

	got, ok := s.LatestComplete(candidates, types.MaxCheckpointInstance)
	if !ok {
		t.Fatal("expected the multi-part checkpoint to be complete")
	}
	if len(got.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got.Entries))
	}
	if got.Entries[0].Part != 1 || got.Entries[1].Part != 2 {
		t.Fatalf("expected entries sorted by part, got %+v", got.Entries)
	}
}

func TestLatestCompleteMultiPartMissingShard(t *testing.T) {
	s := checkpoint.NewSelector()
	candidates := []types.LogFile{part(3, 1, 2)}

	if _, ok := s.LatestComplete(candidates, types.MaxCheckpointInstance); ok {
		t.Fatal("expected no complete checkpoint with a missing shard")
	}
}

func TestLatestCompleteSkipsIncompleteInFavorOfEarlierComplete(t *testing.T) {
	s := checkpoint.NewSelector()
	candidates := []types.LogFile{single(1), part(3, 1, 2)}

	got, ok := s.LatestComplete(candidates, types.MaxCheckpointInstance)
	if !ok {
		t.Fatal("expected the complete single checkpoint at version 1")
	}
	if got.Instance.Version != 1 {
		t.Fatalf("expected version 1, got %d", got.Instance.Version)
	}
}

func TestFindLastCompleteBefore(t *testing.T) {
	s := checkpoint.NewSelector()
	candidates := []types.LogFile{single(1), single(3), single(5)}

	got, ok := s.FindLastCompleteBefore(candidates, 4)
	if !ok {
		t.Fatal("expected a complete checkpoint before version 4")
	}
	if got.Instance.Version != 3 {
		t.Fatalf("expected version 3, got %d", got.Instance.Version)
	}
}

func TestFindLastCompleteBeforeNone(t *testing.T) {
	s := checkpoint.NewSelector()
	candidates := []types.LogFile{single(5)}

	if _, ok := s.FindLastCompleteBefore(candidates, 4); ok {
		t.Fatal("expected no complete checkpoint before version 4")
	}
}
