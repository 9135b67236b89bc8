package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/downfa11-org/snapshotcore/pkg/types"
	"golang.org/x/exp/mmap"
)

// LocalBackend is a Backend adapter over the local filesystem. It is the
// only backend this core ships; object-store-backed backends are a
// collaborator concern left to callers.
type LocalBackend struct{}

// NewLocalBackend returns a ready-to-use filesystem backend.
func NewLocalBackend() *LocalBackend {
	return &LocalBackend{}
}

// kindOrder breaks ties between entries that share a version: checkpoint
// content for a version is considered to have materialized before the
// commit of the same version, matching how a writer produces them.
func kindOrder(k types.LogFileKind) int {
	if k.IsCheckpoint() {
		return 0
	}
	return 1
}

func (b *LocalBackend) ListFrom(logPath string, startVersion types.Version) ([]types.LogFile, error) {
	entries, err := os.ReadDir(logPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &types.FileNotFoundError{Path: logPath}
		}
		return nil, fmt.Errorf("list log directory %s: %w", logPath, err)
	}

	out := make([]types.LogFile, 0, len(entries))
	for _, ent := range entries {
		if ent.IsDir() {
			continue
		}
		kind, version, part, numParts, ok := types.ParseLogFileName(ent.Name())
		if !ok || kind == types.LastCheckpointHint {
			continue
		}
		if version < startVersion {
			continue
		}
		info, err := ent.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", ent.Name(), err)
		}
		out = append(out, types.LogFile{
			Path:     filepath.Join(logPath, ent.Name()),
			ModTime:  info.ModTime(),
			Size:     info.Size(),
			Kind:     kind,
			Version:  version,
			Part:     part,
			NumParts: numParts,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Version != out[j].Version {
			return out[i].Version < out[j].Version
		}
		if ko1, ko2 := kindOrder(out[i].Kind), kindOrder(out[j].Kind); ko1 != ko2 {
			return ko1 < ko2
		}
		return out[i].Part < out[j].Part
	})
	return out, nil
}

// Open returns a memory-mapped random-access handle for path, the same
// zero-copy read path the teacher's disk index uses for binary search.
func (b *LocalBackend) Open(path string) (ReaderAt, error) {
	r, err := mmap.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &types.FileNotFoundError{Path: path}
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return r, nil
}

func (b *LocalBackend) ReadLastCheckpointHint(logPath string) (*LastCheckpointHint, error) {
	path := filepath.Join(logPath, types.LastCheckpointHintName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read checkpoint hint %s: %w", path, err)
	}

	var raw struct {
		Version int64  `json:"version"`
		Size    int64  `json:"size"`
		Parts   *int32 `json:"parts,omitempty"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse checkpoint hint %s: %w", path, err)
	}
	return &LastCheckpointHint{
		Version: Version(raw.Version),
		Size:    raw.Size,
		Parts:   raw.Parts,
	}, nil
}
