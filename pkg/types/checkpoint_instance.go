package types

import "math"

// CheckpointInstance names one candidate checkpoint: a version plus,
// for multi-part checkpoints, the number of parts it claims to have.
// NumParts is nil for a single-part checkpoint.
type CheckpointInstance struct {
	Version  Version
	NumParts *int32
}

// MaxCheckpointInstance is the synthetic upper bound used for unbounded
// "latest complete checkpoint" searches.
var MaxCheckpointInstance = CheckpointInstance{
	Version:  Version(math.MaxInt64),
	NumParts: int32Ptr(math.MaxInt32),
}

func int32Ptr(v int32) *int32 { return &v }

// NewSingleCheckpointInstance builds the instance for a single-part checkpoint.
func NewSingleCheckpointInstance(v Version) CheckpointInstance {
	return CheckpointInstance{Version: v}
}

// NewMultiPartCheckpointInstance builds the instance for a multi-part checkpoint.
func NewMultiPartCheckpointInstance(v Version, numParts int32) CheckpointInstance {
	return CheckpointInstance{Version: v, NumParts: &numParts}
}

// numPartsOrdinal returns -1 for a single-part instance (no NumParts set),
// matching "absent numParts sorts below any present value" only for the
// Compare ordering below — callers needing the actual shard count for
// completeness checks should read NumParts directly.
func (c CheckpointInstance) numPartsOrdinal() int64 {
	if c.NumParts == nil {
		return -1
	}
	return int64(*c.NumParts)
}

// Compare orders CheckpointInstance by Version ascending, then by NumParts
// ascending with an absent NumParts sorting below any present value.
// Returns <0, 0, >0 for c < other, c == other, c > other.
func (c CheckpointInstance) Compare(other CheckpointInstance) int {
	if c.Version != other.Version {
		if c.Version < other.Version {
			return -1
		}
		return 1
	}
	a, b := c.numPartsOrdinal(), other.numPartsOrdinal()
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// LessOrEqual reports whether c does not exceed other under Compare.
func (c CheckpointInstance) LessOrEqual(other CheckpointInstance) bool {
	return c.Compare(other) <= 0
}
