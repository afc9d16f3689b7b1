// Package align implements component D: it assigns each decoded hit its
// nearest-preceding ToA extension value and applies the single-shot parity
// correction the firmware's bit-13..12 overlap convention allows for.
package align

import "sort"

// Align returns, for every hit index in hitIndices, the 48-bit extension
// value it should carry: the extension with the greatest index that is
// less than or equal to the hit's index (clamped to the first extension
// when the hit precedes all of them), corrected at most once for the
// known boundary-wrap parity mismatch.
//
// gray14 is the Gray-14 inverse lookup table (tables.Tables.Gray14);
// extIndices must be sorted ascending, as produced by decode.Decode.
func Align(hitValues, hitIndices, extValues, extIndices []uint64, gray14 []uint16) []uint64 {
	aligned := make([]uint64, len(hitIndices))
	if len(extIndices) == 0 {
		return aligned // no extension observed yet; leave all-zero.
	}
	for i, hi := range hitIndices {
		j := nearestLowerIndex(extIndices, hi)
		candidate := extValues[j]

		toa14 := uint64(gray14[(hitValues[i]>>14)&0x3FFF])
		if (candidate & 0x3000) != (toa14 & 0x3000) {
			candidate--
		}
		// A mismatch surviving the single correction indicates a missing or
		// corrupted extension word and is left uncorrected.
		aligned[i] = candidate
	}
	return aligned
}

// nearestLowerIndex returns the position in extIndices of the greatest
// value <= target, clamped to 0 when target precedes every extension.
func nearestLowerIndex(extIndices []uint64, target uint64) int {
	j := sort.Search(len(extIndices), func(k int) bool { return extIndices[k] > target })
	j--
	if j < 0 {
		j = 0
	}
	return j
}
