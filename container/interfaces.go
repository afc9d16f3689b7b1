// Package container defines the external-collaborator interfaces the decode
// pipeline is built against: a random-access raw word store, chunk
// metadata, run configuration, and a hit-table writer. A
// production implementation of these interfaces — backed by a real chunked
// columnar container — is an external collaborator and out of scope here;
// this package also ships in-memory and mmap-backed reference adapters used
// by this repository's own tests and throughput exercises.
package container

import "github.com/GasDet-Bonn/tpx3-interpretation/recordschema"

// RawWordStore provides random-access reads of 32-bit little-endian raw
// words captured from the detector readout.
type RawWordStore interface {
	// WordAt returns the raw word at absolute stream position i.
	WordAt(i uint64) (uint32, error)
	// Len reports the total number of raw words in the store.
	Len() uint64
}

// ChunkMeta is one metadata-chunk record: a contiguous raw-word range plus
// the scan parameter and error counters recorded for it at capture time.
type ChunkMeta struct {
	IndexStart     uint64
	IndexStop      uint64
	DiscardError   uint32
	DecodeError    uint32
	ScanParamID    uint16
	TimestampStart float64
}

// Errors reports whether this chunk was flagged as erroneous at capture
// time, independent of any later repair-phase cascade.
func (c ChunkMeta) Errors() uint32 {
	return c.DiscardError + c.DecodeError
}

// MetaStore supplies the ordered list of chunk metadata records.
type MetaStore interface {
	Chunks() ([]ChunkMeta, error)
}

// ConfigProvider supplies the two configuration key-value tables the
// pipeline needs: run_config (carries scan_id) and generalConfig (carries
// Op_mode and Fast_Io_en).
type ConfigProvider interface {
	RunConfig() (map[string]string, error)
	GeneralConfig() (map[string]string, error)
}

// HitWriter persists the final decoded hit table and copies the input
// container's configuration subtree verbatim.
type HitWriter interface {
	WriteHits(rows []recordschema.HitRow) error
	CopyConfiguration(src ConfigProvider) error
}
