package types

// Protocol records the minimum reader and writer versions decoded from a
// snapshot's checkpoint. Real Delta/Iceberg protocols track separate
// reader/writer feature sets; this core only carries the two numbers.
// Action replay does not consult it: UpgradeFormatVersion is checked
// against TableMetadata.FormatVersion.
type Protocol struct {
	MinReaderVersion int
	MinWriterVersion int
}
