package types

import "fmt"

// Schema, PartitionSpec, and SortOrder are intentionally thin: full
// schema/partition-expression modeling belongs to the generated-columns
// query-planning utility, which is out of scope for the snapshot core.
// The core only needs enough of each to replay actions and expose ids.
type Schema struct {
	ID           int `json:"id"`
	LastColumnID int `json:"lastColumnId"`
}

type PartitionSpec struct {
	ID int `json:"id"`
}

type SortOrder struct {
	ID int `json:"id"`
}

// SnapshotEntry is a reference to one historical commit recorded in table
// metadata (Iceberg calls this a "snapshot"; it is renamed here to avoid
// colliding with internal/snapshot's Snapshot, which is the materialized
// view of a LogSegment).
type SnapshotEntry struct {
	ID int64 `json:"id"`
}

// SnapshotRef names a branch or tag pointing at a SnapshotEntry.
type SnapshotRef struct {
	Name       string `json:"name"`
	SnapshotID int64  `json:"snapshotId"`
}

// TableMetadata is the table-level state accumulated by replaying a
// commit's action list onto a MetadataBuilder. TableID is stable across
// commits (spec.md invariant 4) and changes only when the directory is
// recreated.
type TableMetadata struct {
	TableID             string
	FormatVersion       int
	Location            string
	Schemas             []Schema
	CurrentSchemaID     int
	PartitionSpecs      []PartitionSpec
	DefaultSpecID       int
	SortOrders          []SortOrder
	DefaultSortOrderID  int
	SnapshotEntries     map[int64]SnapshotEntry
	Refs                map[string]SnapshotRef
	Properties          map[string]string
}

// NewTableMetadata returns an empty metadata value with initialized maps.
func NewTableMetadata() TableMetadata {
	return TableMetadata{
		SnapshotEntries: make(map[int64]SnapshotEntry),
		Refs:            make(map[string]SnapshotRef),
		Properties:      make(map[string]string),
	}
}

// MetadataBuilder accumulates TableMetadata as a commit's actions are
// replayed against it, the Go equivalent of Iceberg's
// TableMetadata.Builder consumed by MetadataUpdate.applyTo.
type MetadataBuilder struct {
	meta TableMetadata
}

// NewMetadataBuilder seeds a builder from a baseline (the checkpoint's
// metadata, or an empty value when there is no checkpoint).
func NewMetadataBuilder(base TableMetadata) *MetadataBuilder {
	b := &MetadataBuilder{meta: base}
	if b.meta.SnapshotEntries == nil {
		b.meta.SnapshotEntries = make(map[int64]SnapshotEntry)
	}
	if b.meta.Refs == nil {
		b.meta.Refs = make(map[string]SnapshotRef)
	}
	if b.meta.Properties == nil {
		b.meta.Properties = make(map[string]string)
	}
	return b
}

func (b *MetadataBuilder) AssignID(id string) {
	b.meta.TableID = id
}

func (b *MetadataBuilder) UpgradeFormatVersion(version int) error {
	if version < b.meta.FormatVersion {
		return fmt.Errorf("cannot downgrade format version from %d to %d", b.meta.FormatVersion, version)
	}
	b.meta.FormatVersion = version
	return nil
}

func (b *MetadataBuilder) AddSchema(s Schema) {
	b.meta.Schemas = append(b.meta.Schemas, s)
}

func (b *MetadataBuilder) SetCurrentSchema(id int) {
	b.meta.CurrentSchemaID = id
}

func (b *MetadataBuilder) AddPartitionSpec(s PartitionSpec) {
	b.meta.PartitionSpecs = append(b.meta.PartitionSpecs, s)
}

func (b *MetadataBuilder) SetDefaultPartitionSpec(id int) {
	b.meta.DefaultSpecID = id
}

func (b *MetadataBuilder) AddSortOrder(s SortOrder) {
	b.meta.SortOrders = append(b.meta.SortOrders, s)
}

func (b *MetadataBuilder) SetDefaultSortOrder(id int) {
	b.meta.DefaultSortOrderID = id
}

func (b *MetadataBuilder) AddSnapshot(entry SnapshotEntry) {
	b.meta.SnapshotEntries[entry.ID] = entry
}

func (b *MetadataBuilder) RemoveSnapshot(id int64) {
	delete(b.meta.SnapshotEntries, id)
}

func (b *MetadataBuilder) SetSnapshotRef(name string, snapshotID int64) {
	b.meta.Refs[name] = SnapshotRef{Name: name, SnapshotID: snapshotID}
}

func (b *MetadataBuilder) RemoveSnapshotRef(name string) {
	delete(b.meta.Refs, name)
}

func (b *MetadataBuilder) SetProperties(updated map[string]string) {
	for k, v := range updated {
		b.meta.Properties[k] = v
	}
}

func (b *MetadataBuilder) RemoveProperties(removed []string) {
	for _, k := range removed {
		delete(b.meta.Properties, k)
	}
}

func (b *MetadataBuilder) SetLocation(location string) {
	b.meta.Location = location
}

// Build returns the accumulated metadata.
func (b *MetadataBuilder) Build() TableMetadata {
	return b.meta
}
