package snapshot

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/downfa11-org/snapshotcore/pkg/storage"
	"github.com/downfa11-org/snapshotcore/pkg/types"
)

// checkpointMagic tags a checkpoint file the way the teacher's batch
// message framing (util.EncodeBatchMessages) opens with a fixed 2-byte
// marker; a full Parquet footer decoder is out of scope here (§1), so
// checkpoint content uses this core's own compact self-describing format:
// magic | checksum | body length | JSON body.
var checkpointMagic = [4]byte{'S', 'S', 'C', 'K'}

type checkpointBody struct {
	TableMetadata types.TableMetadata `json:"tableMetadata"`
	Protocol      types.Protocol      `json:"protocol"`
}

// EncodeCheckpoint serializes meta/protocol into this core's checkpoint
// file format. Checkpoint creation itself is out of scope for the core
// (§1 Non-goals); this exists so tests and any future writer share one
// format definition with DecodeCheckpoint.
func EncodeCheckpoint(meta types.TableMetadata, protocol types.Protocol) ([]byte, error) {
	body, err := json.Marshal(checkpointBody{TableMetadata: meta, Protocol: protocol})
	if err != nil {
		return nil, fmt.Errorf("marshal checkpoint body: %w", err)
	}

	checksum := xxhash.Sum64(body)
	out := make([]byte, 0, 4+8+4+len(body))
	out = append(out, checkpointMagic[:]...)
	out = binary.BigEndian.AppendUint64(out, checksum)
	out = binary.BigEndian.AppendUint32(out, uint32(len(body)))
	out = append(out, body...)
	return out, nil
}

// DecodeCheckpoint reads and validates one checkpoint file through its
// mmap handle, returning ErrCheckpointCorruption (wrapped) for anything
// that fails to validate — truncated framing, bad magic, or a checksum
// mismatch.
func DecodeCheckpoint(r storage.ReaderAt) (types.TableMetadata, types.Protocol, error) {
	const headerLen = 4 + 8 + 4
	if r.Len() < headerLen {
		return types.TableMetadata{}, types.Protocol{}, fmt.Errorf("checkpoint header truncated: %w", types.ErrCheckpointCorruption)
	}

	header := make([]byte, headerLen)
	if _, err := r.ReadAt(header, 0); err != nil {
		return types.TableMetadata{}, types.Protocol{}, fmt.Errorf("read checkpoint header: %w", err)
	}
	if string(header[:4]) != string(checkpointMagic[:]) {
		return types.TableMetadata{}, types.Protocol{}, fmt.Errorf("bad checkpoint magic: %w", types.ErrCheckpointCorruption)
	}
	wantChecksum := binary.BigEndian.Uint64(header[4:12])
	bodyLen := int(binary.BigEndian.Uint32(header[12:16]))

	if r.Len() != headerLen+bodyLen {
		return types.TableMetadata{}, types.Protocol{}, fmt.Errorf("checkpoint body length mismatch: %w", types.ErrCheckpointCorruption)
	}

	body := make([]byte, bodyLen)
	if _, err := r.ReadAt(body, headerLen); err != nil {
		return types.TableMetadata{}, types.Protocol{}, fmt.Errorf("read checkpoint body: %w", err)
	}
	if xxhash.Sum64(body) != wantChecksum {
		return types.TableMetadata{}, types.Protocol{}, fmt.Errorf("checkpoint checksum mismatch: %w", types.ErrCheckpointCorruption)
	}

	var decoded checkpointBody
	if err := json.Unmarshal(body, &decoded); err != nil {
		return types.TableMetadata{}, types.Protocol{}, fmt.Errorf("unmarshal checkpoint body: %w", types.ErrCheckpointCorruption)
	}
	return decoded.TableMetadata, decoded.Protocol, nil
}
