package types

import "time"

// LogSegment is the reconstruction unit LogSegmentBuilder produces: the
// ordered set of files needed to replay a specific version. Immutable
// once built.
type LogSegment struct {
	LogPath string
	Version Version

	// Deltas holds commit files with versions (checkpointVersion+1 ..
	// Version), or (0 .. Version) when Checkpoint is empty.
	Deltas []LogFile

	// Checkpoint holds the chosen checkpoint's file set: one entry for a
	// single-part checkpoint, all shards for a multi-part one, or nil
	// when the segment has no checkpoint.
	Checkpoint []LogFile

	// CheckpointVersion is nil when Checkpoint is empty.
	CheckpointVersion *Version

	// LastCommitTimestamp is always sourced from a delta file, never a
	// checkpoint (invariant 5).
	LastCommitTimestamp time.Time
}

// Equals defines cache freshness: two segments are equal iff their
// LogPath, Version, and LastCommitTimestamp all match. Deltas/Checkpoint
// contents are not compared — they are determined by the first three
// fields for any given directory state.
func (s LogSegment) Equals(other LogSegment) bool {
	return s.LogPath == other.LogPath &&
		s.Version == other.Version &&
		s.LastCommitTimestamp.Equal(other.LastCommitTimestamp)
}

// HasCheckpoint reports whether the segment was built on top of a
// checkpoint rather than from version 0.
func (s LogSegment) HasCheckpoint() bool {
	return s.CheckpointVersion != nil
}
