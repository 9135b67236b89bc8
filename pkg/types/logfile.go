package types

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// LogFileKind classifies an entry under a table's log directory.
type LogFileKind int

const (
	UnknownLogFile LogFileKind = iota
	DeltaCommit
	SingleCheckpoint
	MultiPartCheckpoint
	LastCheckpointHint
)

func (k LogFileKind) String() string {
	switch k {
	case DeltaCommit:
		return "DeltaCommit"
	case SingleCheckpoint:
		return "SingleCheckpoint"
	case MultiPartCheckpoint:
		return "MultiPartCheckpoint"
	case LastCheckpointHint:
		return "LastCheckpointHint"
	default:
		return "Unknown"
	}
}

// IsCheckpoint reports whether the kind carries checkpoint content.
func (k LogFileKind) IsCheckpoint() bool {
	return k == SingleCheckpoint || k == MultiPartCheckpoint
}

const (
	versionDigits = 20
	partDigits    = 10
	// LastCheckpointHintName is the fixed name of the hint file.
	LastCheckpointHintName = "_last_checkpoint"
)

var (
	commitNamePattern    = regexp.MustCompile(`^(\d{20})\.json$`)
	singleCkptPattern    = regexp.MustCompile(`^(\d{20})\.checkpoint\.parquet$`)
	multiPartCkptPattern = regexp.MustCompile(`^(\d{20})\.checkpoint\.(\d{10})\.(\d{10})\.parquet$`)
)

// LogFile is one entry under a table's log directory, as classified by its
// name. FileStatus-shaped fields (ModTime, Size) are filled in by whatever
// lists the directory.
type LogFile struct {
	Path     string
	ModTime  time.Time
	Size     int64
	Kind     LogFileKind
	Version  Version
	Part     int32 // 1-based; 0 when Kind != MultiPartCheckpoint
	NumParts int32 // total parts; 0 when Kind != MultiPartCheckpoint
}

// FormatCommitName returns the canonical 20-digit commit file name.
func FormatCommitName(v Version) string {
	return fmt.Sprintf("%0*d.json", versionDigits, int64(v))
}

// FormatSingleCheckpointName returns the canonical single-part checkpoint name.
func FormatSingleCheckpointName(v Version) string {
	return fmt.Sprintf("%0*d.checkpoint.parquet", versionDigits, int64(v))
}

// FormatMultiPartCheckpointName returns the canonical name of one shard of a
// multi-part checkpoint. part is 1-based.
func FormatMultiPartCheckpointName(v Version, part, total int32) string {
	return fmt.Sprintf("%0*d.checkpoint.%0*d.%0*d.parquet", versionDigits, int64(v), partDigits, part, partDigits, total)
}

// ParseLogFileName classifies a bare file name (no directory component) and
// extracts its version/part fields. ok is false for anything that isn't a
// recognized log file — the caller is expected to skip those.
func ParseLogFileName(name string) (kind LogFileKind, version Version, part, numParts int32, ok bool) {
	if name == LastCheckpointHintName {
		return LastCheckpointHint, 0, 0, 0, true
	}
	if m := commitNamePattern.FindStringSubmatch(name); m != nil {
		v, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return UnknownLogFile, 0, 0, 0, false
		}
		return DeltaCommit, Version(v), 0, 0, true
	}
	if m := singleCkptPattern.FindStringSubmatch(name); m != nil {
		v, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return UnknownLogFile, 0, 0, 0, false
		}
		return SingleCheckpoint, Version(v), 0, 0, true
	}
	if m := multiPartCkptPattern.FindStringSubmatch(name); m != nil {
		v, err1 := strconv.ParseInt(m[1], 10, 64)
		p, err2 := strconv.ParseInt(m[2], 10, 32)
		t, err3 := strconv.ParseInt(m[3], 10, 32)
		if err1 != nil || err2 != nil || err3 != nil {
			return UnknownLogFile, 0, 0, 0, false
		}
		return MultiPartCheckpoint, Version(v), int32(p), int32(t), true
	}
	return UnknownLogFile, 0, 0, 0, false
}
