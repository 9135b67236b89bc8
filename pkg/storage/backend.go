// Package storage defines the storage backend contract the snapshot core
// consumes (spec.md §6) plus a single concrete adapter, LocalBackend.
// Cloud object-store drivers are explicitly out of scope for this core —
// they are collaborators consumed through this interface, not something
// this package implements.
package storage

import (
	"io"

	"github.com/downfa11-org/snapshotcore/pkg/types"
)

// ReaderAt is the random-access read handle returned by Backend.Open,
// shaped to match golang.org/x/exp/mmap.ReaderAt so LocalBackend can hand
// it back directly.
type ReaderAt interface {
	io.ReaderAt
	io.Closer
	Len() int
}

// LastCheckpointHint mirrors the _last_checkpoint file's fields (spec.md
// §6). It is advisory only — correctness never depends on it.
type LastCheckpointHint struct {
	Version Version
	Size    int64
	Parts   *int32
}

// Version is a local alias so callers of this package don't need to
// import pkg/types solely to read a hint's Version field back out.
type Version = types.Version

// Backend is the storage contract LogDirectoryReader and the rest of the
// core consume. A single call to ListFrom must return a snapshot-consistent
// listing; consistency across separate calls is not required — the log
// directory may be mutated by concurrent writers between calls.
type Backend interface {
	// ListFrom returns every commit/checkpoint file under logPath whose
	// version is >= startVersion, sorted ascending by (version, kind).
	// Returns *types.FileNotFoundError if logPath does not exist.
	ListFrom(logPath string, startVersion types.Version) ([]types.LogFile, error)

	// Open returns a random-access read handle for path.
	Open(path string) (ReaderAt, error)

	// ReadLastCheckpointHint reads and parses logPath's _last_checkpoint
	// file. Returns (nil, nil) if the hint file does not exist — its
	// absence is not an error, just "no hint available."
	ReadLastCheckpointHint(logPath string) (*LastCheckpointHint, error)
}
