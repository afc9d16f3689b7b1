package fields

import (
	"testing"

	"github.com/GasDet-Bonn/tpx3-interpretation/recordschema"
	"github.com/GasDet-Bonn/tpx3-interpretation/tables"
)

// buildHit assembles a 48-bit hit value from its constituent fields, the
// inverse of Row's extraction, for use as test fixtures.
func buildHit(dataHeader, header uint64, eoc, superPixel, pixel uint64, loBits uint64) uint64 {
	return (dataHeader << 47) | (header << 44) | (eoc << 37) | (superPixel << 31) | (pixel << 28) | loBits
}

func TestRowSingleCleanHit(t *testing.T) {
	tb := tables.New()
	// pixel=5 (right_col), super_pixel=3, eoc=10 => x=21, y=12+5-4=13.
	hit := buildHit(0, 0, 10, 3, 5, 0)
	row := Row(tb, hit, 7, OpModeToT, false, false, 0, 0, 0)

	if row.X != 21 {
		t.Fatalf("X = %d, want 21", row.X)
	}
	if row.Y != 13 {
		t.Fatalf("Y = %d, want 13", row.Y)
	}
	if row.HitIndex != 7 {
		t.Fatalf("HitIndex = %d, want 7", row.HitIndex)
	}
	if row.TOACombined != 0 {
		t.Fatalf("TOACombined = %d, want 0 (not DataTake)", row.TOACombined)
	}
}

func TestRowHitCounterVsFTOADispatch(t *testing.T) {
	tb := tables.New()
	hit := buildHit(0, 0, 0, 0, 0, 0xA)
	withoutVCO := Row(tb, hit, 0, OpModeToT, false, false, 0, 0, 0)
	if withoutVCO.FTOA != 0 {
		t.Fatalf("FTOA = %d, want 0 when vco=false", withoutVCO.FTOA)
	}
	if withoutVCO.HitCounter != uint8(tb.LFSR4[0xA]) {
		t.Fatalf("HitCounter = %d, want lfsr4_inv[0xA] = %d", withoutVCO.HitCounter, tb.LFSR4[0xA])
	}

	withVCO := Row(tb, hit, 0, OpModeToT, true, false, 0, 0, 0)
	if withVCO.HitCounter != 0 {
		t.Fatalf("HitCounter = %d, want 0 when vco=true", withVCO.HitCounter)
	}
	if withVCO.FTOA != 0xA {
		t.Fatalf("FTOA = %d, want 0xA when vco=true", withVCO.FTOA)
	}
}

func TestRowOpModeDispatch(t *testing.T) {
	tb := tables.New()
	hit := buildHit(0, 0, 0, 0, 0, 0)

	r0 := Row(tb, hit, 0, OpModeToT, false, false, 0, 0, 0)
	if r0.ITOT != 0 || r0.EventCounter != 0 {
		t.Fatalf("op_mode 0 should zero iTOT and EventCounter")
	}

	r1 := Row(tb, hit, 0, OpModeToTAlt, false, false, 0, 0, 0)
	if r1.TOT != 0 {
		t.Fatalf("op_mode 1 should zero TOT")
	}

	r2 := Row(tb, hit, 0, OpModeEventCnt, false, false, 0, 0, 0)
	if r2.TOA != 0 || r2.TOT != 0 {
		t.Fatalf("op_mode 2/3 should zero TOA and TOT")
	}
}

func TestResolveOpMode(t *testing.T) {
	cases := map[int]OpMode{0: OpModeToT, 1: OpModeToTAlt, 2: OpModeEventCnt, 3: OpModeEventCnt}
	for raw, want := range cases {
		if got := ResolveOpMode(raw); got != want {
			t.Fatalf("ResolveOpMode(%d) = %v, want %v", raw, got, want)
		}
	}
}

// TestRowDataTakeCombinesExtension exercises P1:
// (TOA_Extension & 0xFFFFFFFFC000) + TOA == TOA_Combined.
func TestRowDataTakeCombinesExtension(t *testing.T) {
	tb := tables.New()
	hit := buildHit(0, 0, 0, 0, 0, 0)
	aligned := uint64(0x123456789ABC)

	row := Row(tb, hit, 0, OpModeToT, false, true, aligned, 0, 0)
	wantExt := aligned & 0xFFFFFFFFFFFF
	if row.TOAExtension != wantExt {
		t.Fatalf("TOAExtension = %#x, want %#x", row.TOAExtension, wantExt)
	}
	wantCombined := (aligned & 0xFFFFFFFFC000) + uint64(row.TOA)
	if row.TOACombined != wantCombined {
		t.Fatalf("TOACombined = %#x, want %#x", row.TOACombined, wantCombined)
	}
	if (row.TOAExtension&0xFFFFFFFFC000)+uint64(row.TOA) != row.TOACombined {
		t.Fatalf("P1 invariant violated")
	}
}

func TestSortByHitIndexStable(t *testing.T) {
	rows := []recordschema.HitRow{
		{HitIndex: 5, X: 1},
		{HitIndex: 2, X: 2},
		{HitIndex: 2, X: 3},
		{HitIndex: 8, X: 4},
	}
	SortByHitIndex(rows)
	for i := 1; i < len(rows); i++ {
		if rows[i-1].HitIndex > rows[i].HitIndex {
			t.Fatalf("rows not sorted by HitIndex: %+v", rows)
		}
	}
	if rows[0].X != 2 || rows[1].X != 3 {
		t.Fatalf("stability violated for equal HitIndex: %+v", rows[:2])
	}
}
