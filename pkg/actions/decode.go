package actions

import (
	"encoding/json"
	"fmt"

	"github.com/downfa11-org/snapshotcore/pkg/types"
)

// envelope is the on-disk shape of one action entry in a commit file's
// action list: a type tag plus the variant's own fields, flattened into
// the same JSON object (matches how Delta/Iceberg commit logs tag each
// action entry).
type envelope struct {
	Type string `json:"type"`

	ID            string            `json:"id,omitempty"`
	FormatVersion int               `json:"formatVersion,omitempty"`
	Schema        *types.Schema     `json:"schema,omitempty"`
	LastColumnID  int               `json:"lastColumnId,omitempty"`
	SchemaID      int               `json:"schemaId,omitempty"`
	Spec          *types.PartitionSpec `json:"spec,omitempty"`
	SpecID        int               `json:"specId,omitempty"`
	SortOrder     *types.SortOrder  `json:"sortOrder,omitempty"`
	SortOrderID   int               `json:"sortOrderId,omitempty"`
	Snapshot      *types.SnapshotEntry `json:"snapshot,omitempty"`
	SnapshotID    int64             `json:"snapshotId,omitempty"`
	Name          string            `json:"name,omitempty"`
	Updated       map[string]string `json:"updated,omitempty"`
	Removed       []string          `json:"removed,omitempty"`
	Location      string            `json:"location,omitempty"`
}

// DecodeActions parses a commit file's JSON action list (one envelope per
// array element) into the typed Action variants.
func DecodeActions(data []byte) ([]Action, error) {
	var envs []envelope
	if err := json.Unmarshal(data, &envs); err != nil {
		return nil, fmt.Errorf("decode commit action list: %w", err)
	}

	out := make([]Action, 0, len(envs))
	for i, e := range envs {
		a, err := e.toAction()
		if err != nil {
			return nil, fmt.Errorf("action %d: %w", i, err)
		}
		out = append(out, a)
	}
	return out, nil
}

func (e envelope) toAction() (Action, error) {
	switch e.Type {
	case "AssignID":
		return AssignID{ID: e.ID}, nil
	case "UpgradeFormatVersion":
		return UpgradeFormatVersion{FormatVersion: e.FormatVersion}, nil
	case "AddSchema":
		if e.Schema == nil {
			return nil, fmt.Errorf("AddSchema missing schema")
		}
		return AddSchema{Schema: *e.Schema, LastColumnID: e.LastColumnID}, nil
	case "SetCurrentSchema":
		return SetCurrentSchema{SchemaID: e.SchemaID}, nil
	case "AddPartitionSpec":
		if e.Spec == nil {
			return nil, fmt.Errorf("AddPartitionSpec missing spec")
		}
		return AddPartitionSpec{Spec: *e.Spec}, nil
	case "SetDefaultPartitionSpec":
		return SetDefaultPartitionSpec{SpecID: e.SpecID}, nil
	case "AddSortOrder":
		if e.SortOrder == nil {
			return nil, fmt.Errorf("AddSortOrder missing sortOrder")
		}
		return AddSortOrder{SortOrder: *e.SortOrder}, nil
	case "SetDefaultSortOrder":
		return SetDefaultSortOrder{SortOrderID: e.SortOrderID}, nil
	case "AddSnapshot":
		if e.Snapshot == nil {
			return nil, fmt.Errorf("AddSnapshot missing snapshot")
		}
		return AddSnapshot{Entry: *e.Snapshot}, nil
	case "RemoveSnapshot":
		return RemoveSnapshot{SnapshotID: e.SnapshotID}, nil
	case "SetSnapshotRef":
		return SetSnapshotRef{Name: e.Name, SnapshotID: e.SnapshotID}, nil
	case "RemoveSnapshotRef":
		return RemoveSnapshotRef{Name: e.Name}, nil
	case "SetProperties":
		return SetProperties{Updated: e.Updated}, nil
	case "RemoveProperties":
		return RemoveProperties{Removed: e.Removed}, nil
	case "SetLocation":
		return SetLocation{Location: e.Location}, nil
	default:
		return nil, fmt.Errorf("unknown action type %q", e.Type)
	}
}
