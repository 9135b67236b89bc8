package types

import (
	"errors"
	"fmt"
)

// Sentinel error kinds from the log-integrity / cache error taxonomy.
// Use errors.Is against these; the concrete errors below wrap them with
// %w so both the sentinel and any attached detail survive.
var (
	// ErrEmptyDirectory: log directory exists but is empty and no
	// starting-checkpoint hint was supplied.
	ErrEmptyDirectory = errors.New("log directory is empty")

	// ErrMissingDeltaFile: contiguity of the delta chain is broken.
	ErrMissingDeltaFile = errors.New("missing delta file")

	// ErrNonContiguousVersions: the retained deltas are not a strict
	// consecutive range.
	ErrNonContiguousVersions = errors.New("non-contiguous delta versions")

	// ErrMissingCheckpointParts: a multi-part checkpoint is missing
	// shards and no fallback checkpoint exists.
	ErrMissingCheckpointParts = errors.New("missing checkpoint parts")

	// ErrIllegalLogState: an unreachable-state assertion fired, e.g. the
	// listing held checkpoint files but neither a complete checkpoint nor
	// any delta files.
	ErrIllegalLogState = errors.New("illegal log state")

	// ErrCheckpointCorruption: the checkpoint's content failed to parse
	// or validate once opened (as opposed to a listing problem).
	ErrCheckpointCorruption = errors.New("checkpoint is corrupt")

	// ErrFileNotFound: the log directory itself does not exist.
	ErrFileNotFound = errors.New("log directory not found")

	// ErrCancelled: the caller was interrupted while waiting for the
	// update lock.
	ErrCancelled = errors.New("snapshot update cancelled")
)

// MissingDeltaFileError carries the version at which contiguity broke.
type MissingDeltaFileError struct {
	Version Version
}

func (e *MissingDeltaFileError) Error() string {
	return fmt.Sprintf("missing delta file for version %d", e.Version)
}

func (e *MissingDeltaFileError) Unwrap() error { return ErrMissingDeltaFile }

// NonContiguousVersionsError carries the gap that broke contiguity.
type NonContiguousVersionsError struct {
	Expected Version
	Found    Version
}

func (e *NonContiguousVersionsError) Error() string {
	return fmt.Sprintf("expected version %d but found %d", e.Expected, e.Found)
}

func (e *NonContiguousVersionsError) Unwrap() error { return ErrNonContiguousVersions }

// MissingCheckpointPartsError names the checkpoint version whose shards
// could not be completed, with no fallback available.
type MissingCheckpointPartsError struct {
	Version Version
}

func (e *MissingCheckpointPartsError) Error() string {
	return fmt.Sprintf("checkpoint at version %d is missing parts and no earlier complete checkpoint exists", e.Version)
}

func (e *MissingCheckpointPartsError) Unwrap() error { return ErrMissingCheckpointParts }

// FileNotFoundError names the directory that was absent.
type FileNotFoundError struct {
	Path string
	// Replay indicates the FileNotFound surfaced while replaying a
	// commit that was listed moments ago (not while listing the
	// directory itself) — this case must be re-raised, not treated as
	// "directory recreated."
	Replay bool
}

func (e *FileNotFoundError) Error() string {
	if e.Replay {
		return fmt.Sprintf("log file vanished during replay under %s", e.Path)
	}
	return fmt.Sprintf("log directory not found: %s", e.Path)
}

func (e *FileNotFoundError) Unwrap() error { return ErrFileNotFound }
