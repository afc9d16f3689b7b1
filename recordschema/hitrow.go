// Package recordschema defines the fixed output schema for decoded Timepix3
// hits, shared by the field extractor, the orchestrator, and every
// HitWriter implementation so the schema has exactly one definition in the
// repository.
package recordschema

// HitRow is one row of the decoded hit table.
type HitRow struct {
	DataHeader      uint8
	Header          uint8
	HitIndex        uint64
	X               uint8
	Y               uint8
	TOA             uint16
	TOT             uint16
	EventCounter    uint16
	HitCounter      uint8
	FTOA            uint8
	ScanParamID     uint16
	ChunkStartTime  float64
	ITOT            uint16
	TOAExtension    uint64
	TOACombined     uint64
}
