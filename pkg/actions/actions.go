// Package actions implements the polymorphic update-action variant set a
// commit file's action list replays onto a types.MetadataBuilder. It is a
// direct Go transliteration of Iceberg's MetadataUpdate variants (see
// original_source/core/.../MetadataUpdate.java): one small struct per
// variant, each carrying only the data it needs, dispatched through a
// single-method interface instead of dynamic type switches.
package actions

import "github.com/downfa11-org/snapshotcore/pkg/types"

// Action is one entry in a commit's action list.
type Action interface {
	Apply(b *types.MetadataBuilder) error
}

type AssignID struct {
	ID string
}

func (a AssignID) Apply(b *types.MetadataBuilder) error {
	b.AssignID(a.ID)
	return nil
}

type UpgradeFormatVersion struct {
	FormatVersion int
}

func (a UpgradeFormatVersion) Apply(b *types.MetadataBuilder) error {
	return b.UpgradeFormatVersion(a.FormatVersion)
}

type AddSchema struct {
	Schema       types.Schema
	LastColumnID int
}

func (a AddSchema) Apply(b *types.MetadataBuilder) error {
	b.AddSchema(a.Schema)
	return nil
}

type SetCurrentSchema struct {
	SchemaID int
}

func (a SetCurrentSchema) Apply(b *types.MetadataBuilder) error {
	b.SetCurrentSchema(a.SchemaID)
	return nil
}

type AddPartitionSpec struct {
	Spec types.PartitionSpec
}

func (a AddPartitionSpec) Apply(b *types.MetadataBuilder) error {
	b.AddPartitionSpec(a.Spec)
	return nil
}

type SetDefaultPartitionSpec struct {
	SpecID int
}

func (a SetDefaultPartitionSpec) Apply(b *types.MetadataBuilder) error {
	b.SetDefaultPartitionSpec(a.SpecID)
	return nil
}

type AddSortOrder struct {
	SortOrder types.SortOrder
}

func (a AddSortOrder) Apply(b *types.MetadataBuilder) error {
	b.AddSortOrder(a.SortOrder)
	return nil
}

type SetDefaultSortOrder struct {
	SortOrderID int
}

func (a SetDefaultSortOrder) Apply(b *types.MetadataBuilder) error {
	b.SetDefaultSortOrder(a.SortOrderID)
	return nil
}

type AddSnapshot struct {
	Entry types.SnapshotEntry
}

func (a AddSnapshot) Apply(b *types.MetadataBuilder) error {
	b.AddSnapshot(a.Entry)
	return nil
}

type RemoveSnapshot struct {
	SnapshotID int64
}

func (a RemoveSnapshot) Apply(b *types.MetadataBuilder) error {
	b.RemoveSnapshot(a.SnapshotID)
	return nil
}

type SetSnapshotRef struct {
	Name       string
	SnapshotID int64
}

func (a SetSnapshotRef) Apply(b *types.MetadataBuilder) error {
	b.SetSnapshotRef(a.Name, a.SnapshotID)
	return nil
}

type RemoveSnapshotRef struct {
	Name string
}

func (a RemoveSnapshotRef) Apply(b *types.MetadataBuilder) error {
	b.RemoveSnapshotRef(a.Name)
	return nil
}

type SetProperties struct {
	Updated map[string]string
}

func (a SetProperties) Apply(b *types.MetadataBuilder) error {
	b.SetProperties(a.Updated)
	return nil
}

type RemoveProperties struct {
	Removed []string
}

func (a RemoveProperties) Apply(b *types.MetadataBuilder) error {
	b.RemoveProperties(a.Removed)
	return nil
}

type SetLocation struct {
	Location string
}

func (a SetLocation) Apply(b *types.MetadataBuilder) error {
	b.SetLocation(a.Location)
	return nil
}

// Replay applies actions in order to a builder seeded from base, returning
// the resulting metadata. The first Apply error aborts replay.
func Replay(base types.TableMetadata, acts []Action) (types.TableMetadata, error) {
	b := types.NewMetadataBuilder(base)
	for _, a := range acts {
		if err := a.Apply(b); err != nil {
			return types.TableMetadata{}, err
		}
	}
	return b.Build(), nil
}
