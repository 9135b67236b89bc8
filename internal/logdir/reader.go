// Package logdir implements LogDirectoryReader: listing a table's log
// directory through a storage.Backend and filtering out entries that
// cannot be trusted (half-written checkpoints).
package logdir

import (
	"github.com/downfa11-org/snapshotcore/pkg/storage"
	"github.com/downfa11-org/snapshotcore/pkg/types"
)

// Reader lists a table's log directory, layering filtering on top of
// whatever the backend returns.
type Reader struct {
	backend storage.Backend
}

// NewReader returns a Reader backed by the given storage.Backend.
func NewReader(backend storage.Backend) *Reader {
	return &Reader{backend: backend}
}

// ListFrom returns every log file under logPath with version >=
// startVersion, ascending by (version, kind), dropping zero-length
// checkpoint files (half-written, would be silently misread downstream)
// and, when ceiling is non-nil, any entry whose version exceeds it.
func (r *Reader) ListFrom(logPath string, startVersion types.Version, ceiling *types.Version) ([]types.LogFile, error) {
	files, err := r.backend.ListFrom(logPath, startVersion)
	if err != nil {
		return nil, err
	}

	out := make([]types.LogFile, 0, len(files))
	for _, f := range files {
		if f.Kind.IsCheckpoint() && f.Size == 0 {
			continue
		}
		if ceiling != nil && f.Version > *ceiling {
			continue
		}
		out = append(out, f)
	}
	return out, nil
}

// ReadLastCheckpointHint delegates to the backend; the hint file's absence
// is not an error (nil, nil).
func (r *Reader) ReadLastCheckpointHint(logPath string) (*storage.LastCheckpointHint, error) {
	return r.backend.ReadLastCheckpointHint(logPath)
}
