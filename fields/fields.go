// Package fields implements component E: it expands each decoded, aligned
// 48-bit hit into the output row schema — pixel coordinates, the firmware
// counters selected by op_mode and vco, and (when extensions are active)
// the combined ToA.
package fields

import (
	"sort"

	"github.com/GasDet-Bonn/tpx3-interpretation/recordschema"
	"github.com/GasDet-Bonn/tpx3-interpretation/tables"
)

// OpMode selects which of ToT/ToA or iToT/EventCounter a hit carries; the
// two fields share the same bit range in the raw word.
type OpMode uint8

const (
	OpModeToT      OpMode = 0
	OpModeToTAlt   OpMode = 1
	OpModeEventCnt OpMode = 2
)

// ResolveOpMode maps the raw configuration value (0..3) onto the three
// field-dispatch branches: 0 and 1 are distinct, 2 and 3 share a branch.
func ResolveOpMode(raw int) OpMode {
	switch raw {
	case 0:
		return OpModeToT
	case 1:
		return OpModeToTAlt
	default:
		return OpModeEventCnt
	}
}

// Row computes one output row from a single decoded hit.
//
// aligned is the hit's extension value from align.Align (0 when scan_id is
// not DataTake or no extension covers this hit); isDataTake gates
// TOA_Extension/TOA_Combined synthesis.
func Row(tb *tables.Tables, hit uint64, hitIndex uint64, op OpMode, vco bool, isDataTake bool, aligned uint64, scanParamID uint16, chunkStartTime float64) recordschema.HitRow {
	pixel := (hit >> 28) & 0x7
	superPixel := (hit >> 31) & 0x3F
	eoc := (hit >> 37) & 0x7F
	rightCol := uint64(0)
	if pixel > 3 {
		rightCol = 1
	}

	row := recordschema.HitRow{
		DataHeader:     uint8(hit >> 47),
		Header:         uint8((hit >> 44) & 0xF),
		HitIndex:       hitIndex,
		X:              uint8(2*eoc + rightCol),
		Y:              uint8(4*superPixel + pixel - 4*rightCol),
		ScanParamID:    scanParamID,
		ChunkStartTime: chunkStartTime,
	}

	if !vco {
		row.HitCounter = uint8(tb.LFSR4[hit&0xF])
		row.FTOA = 0
	} else {
		row.HitCounter = 0
		row.FTOA = uint8(hit & 0xF)
	}

	switch op {
	case OpModeToT:
		row.ITOT = 0
		row.TOT = tb.LFSR10[(hit>>4)&0x3FF]
		row.TOA = tb.Gray14[(hit>>14)&0x3FFF]
		row.EventCounter = 0
	case OpModeToTAlt:
		row.ITOT = 0
		row.TOT = 0
		row.TOA = tb.Gray14[(hit>>14)&0x3FFF]
		row.EventCounter = 0
	default:
		row.ITOT = tb.LFSR14[(hit>>14)&0x3FFF]
		row.EventCounter = tb.LFSR10[(hit>>4)&0x3FF]
		row.TOT = 0
		row.TOA = 0
	}

	if isDataTake {
		row.TOAExtension = aligned & 0xFFFFFFFFFFFF
		row.TOACombined = (aligned & 0xFFFFFFFFC000) + uint64(row.TOA)
	} else {
		row.TOAExtension = 0
		row.TOACombined = 0
	}

	return row
}

// SortByHitIndex stable-sorts rows ascending by HitIndex, the ordering
// required before concatenation with other links' rows.
func SortByHitIndex(rows []recordschema.HitRow) {
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].HitIndex < rows[j].HitIndex })
}
