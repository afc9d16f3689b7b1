// Package chunkrepair implements component B of the decoding pipeline: it
// walks the ordered chunk metadata list once, sequentially, repairing
// half-word orphans introduced at chunk boundaries (by the chunked transfer
// itself, or by a preceding erroneous chunk) before the embarrassingly
// parallel decode phase begins. Repairs must propagate forward — a trailing
// orphan in chunk i becomes a leading addition to chunk i+1 — so this phase
// cannot be parallelized; see the "Parallel phase after sequential phase"
// design note.
package chunkrepair

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/GasDet-Bonn/tpx3-interpretation/container"
)

const extensionHeader = 0b0101

// Window describes, after repair, exactly which absolute raw-stream
// positions belong to one chunk's decode input. It is built from the
// chunk's original [Start, Stop) range plus a handful of boundary
// adjustments instead of a fully materialized index slice, keeping peak
// memory O(chunk size) as required by the resource model.
type Window struct {
	Meta      container.ChunkMeta
	Start     uint64
	Stop      uint64
	Exclude   map[uint64]struct{} // positions in [Start, Stop) to skip (orphan-dropped or moved out)
	Extra     []uint64            // positions below Start, carried forward from the predecessor
	Discarded bool                // true if this chunk's whole index range was dropped
	dropped   int                 // count of Exclude entries that are true drops, not relocations
}

// Indices returns the effective, ascending list of absolute raw-stream
// positions this chunk should be decoded from.
func (w *Window) Indices() []uint64 {
	out := make([]uint64, 0, len(w.Extra)+int(w.Stop-w.Start))
	out = append(out, w.Extra...)
	for i := w.Start; i < w.Stop; i++ {
		if _, skip := w.Exclude[i]; skip {
			continue
		}
		out = append(out, i)
	}
	return out
}

// Stats summarizes the recoverable errors seen during repair, reported once
// at the end of the run.
type Stats struct {
	TotalWords     uint64
	DiscardedWords uint64
	DiscardedChunks int
}

// Repair walks the full chunk list once, sequentially, and returns one
// Window per chunk (discarded chunks have Discarded set and an empty
// Indices()).
func Repair(metas []container.ChunkMeta, raw container.RawWordStore) ([]*Window, Stats, error) {
	windows := make([]*Window, len(metas))
	errCount := make([]uint32, len(metas))
	chunksAfterErrors := make(map[int]bool, len(metas))

	for i, m := range metas {
		windows[i] = &Window{
			Meta:    m,
			Start:   m.IndexStart,
			Stop:    m.IndexStop,
			Exclude: make(map[uint64]struct{}),
		}
		errCount[i] = m.Errors()
		if errCount[i] != 0 && i+1 < len(metas) {
			chunksAfterErrors[i+1] = true
		}
	}

	for i := range metas {
		if errCount[i] != 0 {
			continue
		}
		w := windows[i]
		idx := w.Indices()
		if len(idx) == 0 {
			continue
		}

		words := make([]uint32, len(idx))
		for k, pos := range idx {
			word, err := raw.WordAt(pos)
			if err != nil {
				return nil, Stats{}, errors.Wrapf(err, "chunkrepair: reading word at %d (chunk %d)", pos, i)
			}
			words[k] = word
		}

		hitsByLink, extHalf0, extHalf1 := partition(idx, words)

		if chunksAfterErrors[i] {
			removeLeadingOrphans(hitsByLink, extHalf0, extHalf1, w)
		}

		hard := false
		for link := 0; link < 8; link++ {
			h0, h1 := hitsByLink[link].half0, hitsByLink[link].half1
			h0, h1 = dropExcluded(h0, w.Exclude), dropExcluded(h1, w.Exclude)
			if diff := abs(len(h0) - len(h1)); diff > 1 {
				hard = true
				break
			}
		}

		if hard {
			errCount[i]++
			if i+1 < len(metas) {
				chunksAfterErrors[i+1] = true
			}
			continue
		}

		if i+1 < len(metas) {
			handTrailingOrphans(hitsByLink, extHalf0, extHalf1, w, windows[i+1])
		}
	}

	stats := Stats{}
	for i, m := range metas {
		stats.TotalWords += m.IndexStop - m.IndexStart
		if errCount[i] != 0 {
			windows[i].Discarded = true
			stats.DiscardedWords += m.IndexStop - m.IndexStart
			stats.DiscardedWords += uint64(len(windows[i].Extra))
			stats.DiscardedChunks++
			windows[i].Exclude = nil
			windows[i].Extra = nil
			windows[i].Start = m.IndexStop // empty range
		} else {
			stats.DiscardedWords += uint64(windows[i].dropped)
		}
		sort.Slice(windows[i].Extra, func(a, b int) bool { return windows[i].Extra[a] < windows[i].Extra[b] })
	}

	return windows, stats, nil
}

type halfLists struct {
	half0, half1 []uint64
}

// partition classifies each raw word in the chunk by header/link/half,
// returning per-link hit half-word index lists and the extension half-0 /
// half-1 index lists.
func partition(idx []uint64, words []uint32) (hitsByLink [8]halfLists, extHalf0, extHalf1 []uint64) {
	for k, word := range words {
		pos := idx[k]
		header := (word >> 28) & 0xF
		if header == extensionHeader {
			switch (word >> 24) & 0x3 {
			case 0b01:
				extHalf0 = append(extHalf0, pos)
			case 0b10:
				extHalf1 = append(extHalf1, pos)
			}
			continue
		}
		link := (word >> 25) & 0x7
		if (word>>24)&0x1 == 0 {
			hitsByLink[link].half0 = append(hitsByLink[link].half0, pos)
		} else {
			hitsByLink[link].half1 = append(hitsByLink[link].half1, pos)
		}
	}
	return
}

// removeLeadingOrphans handles a chunk immediately after an error chunk,
// which may open mid-pair: its first half-1 (per link, and for extensions)
// is dropped if no half-0 precedes it.
func removeLeadingOrphans(hitsByLink [8]halfLists, extHalf0, extHalf1 []uint64, w *Window) {
	for link := 0; link < 8; link++ {
		markLeadingOrphan(hitsByLink[link].half0, hitsByLink[link].half1, w)
	}
	markLeadingOrphan(extHalf0, extHalf1, w)
}

func markLeadingOrphan(half0, half1 []uint64, w *Window) {
	if len(half1) == 0 {
		return
	}
	if len(half0) == 0 || half1[0] < half0[0] {
		w.Exclude[half1[0]] = struct{}{}
		w.dropped++
	}
}

// handTrailingOrphans moves an unpaired trailing half-1 (removed here,
// inserted there) to the successor chunk; the last one or two
// extension-stream positions are additionally copied (not removed) into the
// successor so it can resolve extensions for its earliest hits.
func handTrailingOrphans(hitsByLink [8]halfLists, extHalf0, extHalf1 []uint64, cur, next *Window) {
	for link := 0; link < 8; link++ {
		h0 := dropExcluded(hitsByLink[link].half0, cur.Exclude)
		h1 := dropExcluded(hitsByLink[link].half1, cur.Exclude)
		if len(h1) == 0 {
			continue
		}
		// A trailing orphan exists only when this link has one more half-1
		// than half-0; a link with equal counts is fully paired even though
		// its last half-0 position always precedes its last half-1 position.
		if len(h1) > len(h0) {
			moved := h1[len(h1)-1]
			cur.Exclude[moved] = struct{}{}
			next.Extra = append(next.Extra, moved)
		}
	}

	allExt := make([]uint64, 0, len(extHalf0)+len(extHalf1))
	allExt = append(allExt, extHalf0...)
	allExt = append(allExt, extHalf1...)
	sort.Slice(allExt, func(a, b int) bool { return allExt[a] < allExt[b] })
	n := 2
	if len(allExt) < n {
		n = len(allExt)
	}
	if n > 0 {
		next.Extra = append(next.Extra, allExt[len(allExt)-n:]...)
	}
}

func dropExcluded(positions []uint64, exclude map[uint64]struct{}) []uint64 {
	if len(exclude) == 0 {
		return positions
	}
	out := positions[:0:0]
	for _, p := range positions {
		if _, skip := exclude[p]; !skip {
			out = append(out, p)
		}
	}
	return out
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
