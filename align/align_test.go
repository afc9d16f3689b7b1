package align

import (
	"testing"

	"github.com/GasDet-Bonn/tpx3-interpretation/tables"
)

func TestAlignNoCorrectionNeeded(t *testing.T) {
	tb := tables.New()
	// Find a 14-bit binary value whose bits 13..12 are 0b01, and recover the
	// Gray-encoded field that decodes to it.
	var toa14 uint16
	var grayField uint64
	for v := uint16(0); v < 1<<14; v++ {
		if (v>>12)&0x3 == 0b01 {
			toa14 = v
			break
		}
	}
	for g, decoded := range tb.Gray14 {
		if decoded == toa14 {
			grayField = uint64(g)
			break
		}
	}
	hit := grayField << 14

	ext := uint64(0x1000) // bits 13..12 == 0b01
	extIndices := []uint64{5}
	extValues := []uint64{ext}

	got := Align([]uint64{hit}, []uint64{10}, extValues, extIndices, tb.Gray14)
	if got[0] != ext {
		t.Fatalf("Align = %#x, want %#x (no correction)", got[0], ext)
	}
}

func TestAlignAppliesOneShotCorrection(t *testing.T) {
	tb := tables.New()
	var toa14 uint16
	var grayField uint64
	for v := uint16(0); v < 1<<14; v++ {
		if (v>>12)&0x3 == 0b00 {
			toa14 = v
			break
		}
	}
	for g, decoded := range tb.Gray14 {
		if decoded == toa14 {
			grayField = uint64(g)
			break
		}
	}
	hit := grayField << 14

	ext := uint64(0x1000) // bits 13..12 == 0b01, mismatched against toa14's 0b00;
	// decrementing borrows through the zero low 12 bits and flips 13..12 to 0b00.
	extIndices := []uint64{5}
	extValues := []uint64{ext}

	got := Align([]uint64{hit}, []uint64{10}, extValues, extIndices, tb.Gray14)
	want := ext - 1
	if got[0] != want {
		t.Fatalf("Align = %#x, want %#x (decremented once)", got[0], want)
	}
}

func TestAlignClampsToFirstExtensionWhenHitPrecedesAll(t *testing.T) {
	tb := tables.New()
	extIndices := []uint64{100, 200}
	extValues := []uint64{0x1000, 0x2000}
	got := Align([]uint64{0}, []uint64{5}, extValues, extIndices, tb.Gray14)
	if len(got) != 1 {
		t.Fatalf("got %d results, want 1", len(got))
	}
	// Clamped to the first extension (0x1000); the hit's decoded ToA is 0, so
	// bits 13..12 mismatch and the one-shot correction yields 0x1000-1.
	if want := uint64(0x1000 - 1); got[0] != want {
		t.Fatalf("Align = %#x, want %#x (first extension, decremented once)", got[0], want)
	}
}

func TestAlignReturnsZeroWhenNoExtensionsSeen(t *testing.T) {
	tb := tables.New()
	got := Align([]uint64{0, 1}, []uint64{5, 6}, nil, nil, tb.Gray14)
	if got[0] != 0 || got[1] != 0 {
		t.Fatalf("Align with no extensions = %v, want all zero", got)
	}
}

func TestNearestLowerIndex(t *testing.T) {
	idx := []uint64{10, 20, 30}
	cases := map[uint64]int{
		5:  0,
		10: 0,
		15: 0,
		20: 1,
		25: 1,
		30: 2,
		99: 2,
	}
	for target, want := range cases {
		if got := nearestLowerIndex(idx, target); got != want {
			t.Fatalf("nearestLowerIndex(%v, %d) = %d, want %d", idx, target, got, want)
		}
	}
}
