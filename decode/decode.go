// Package decode implements component C of the pipeline: given one chunk's
// repaired, ordered raw-word indices it classifies every word by header,
// pairs hit half-words per link into 48-bit records, and — when extensions
// are active — assembles the 48-bit ToA extension stream. It has no
// knowledge of chunk boundaries; that bookkeeping belongs to chunkrepair.
package decode

import "github.com/pkg/errors"

const extensionHeader = 0b0101

// LinkHits is one link's paired 48-bit hit values and the absolute
// stream index of each hit's half-0 source word.
type LinkHits struct {
	Values  []uint64
	Indices []uint64
}

// Chunk is the decoded output of one repaired chunk: per-link hits plus,
// when extensions are active, the assembled extension stream.
type Chunk struct {
	Links        [8]LinkHits
	Extensions   []uint64 // 48-bit assembled extension values, only if HasExtensions
	ExtIndices   []uint64 // absolute stream index of each extension's half-0 word
	HasExtensions bool
}

// Decode reads the raw words at the given absolute stream indices (already
// repaired and in ascending order) and classifies them into per-link hit
// pairs and, when withExtensions is true, the ToA extension stream.
//
// A half-word count difference of exactly one on any link or on the
// extension stream truncates the longer side by one (the companion is
// assumed to straddle a chunk boundary, already handled by chunkrepair); a
// difference greater than one is a hard failure for the whole chunk.
func Decode(indices []uint64, words []uint32, withExtensions bool) (Chunk, error) {
	var out Chunk
	out.HasExtensions = withExtensions

	var hitHalf0, hitHalf1 [8][]uint64     // values
	var hitHalf0Idx, hitHalf1Idx [8][]uint64 // indices
	var extHalf0, extHalf1 []uint64
	var extHalf0Idx, extHalf1Idx []uint64

	for k, word := range words {
		pos := indices[k]
		header := (word >> 28) & 0xF
		if header == extensionHeader {
			if !withExtensions {
				continue
			}
			switch (word >> 24) & 0x3 {
			case 0b01:
				extHalf0 = append(extHalf0, uint64(word&0xFFFFFF))
				extHalf0Idx = append(extHalf0Idx, pos)
			case 0b10:
				extHalf1 = append(extHalf1, uint64(word&0xFFFFFF))
				extHalf1Idx = append(extHalf1Idx, pos)
			}
			continue
		}
		link := (word >> 25) & 0x7
		payload := uint64(word & 0xFFFFFF)
		if (word>>24)&0x1 == 0 {
			hitHalf0[link] = append(hitHalf0[link], payload)
			hitHalf0Idx[link] = append(hitHalf0Idx[link], pos)
		} else {
			hitHalf1[link] = append(hitHalf1[link], payload)
			hitHalf1Idx[link] = append(hitHalf1Idx[link], pos)
		}
	}

	for link := 0; link < 8; link++ {
		h0, h1 := hitHalf0[link], hitHalf1[link]
		n, err := pairLength(len(h0), len(h1))
		if err != nil {
			return Chunk{}, errors.Wrapf(err, "decode: link %d", link)
		}
		values := make([]uint64, n)
		idx := make([]uint64, n)
		for k := 0; k < n; k++ {
			values[k] = (h0[k] << 24) | h1[k]
			idx[k] = hitHalf0Idx[link][k]
		}
		out.Links[link] = LinkHits{Values: values, Indices: idx}
	}

	if withExtensions {
		n, err := pairLength(len(extHalf0), len(extHalf1))
		if err != nil {
			return Chunk{}, errors.Wrap(err, "decode: extensions")
		}
		out.Extensions = make([]uint64, n)
		out.ExtIndices = make([]uint64, n)
		for k := 0; k < n; k++ {
			out.Extensions[k] = ((extHalf1[k] & 0xFFFFFF) << 24) | (extHalf0[k] & 0xFFF000)
			out.ExtIndices[k] = extHalf0Idx[k]
		}
	}

	return out, nil
}

// pairLength applies the truncation/hard-failure policy for half-word
// counts and returns the number of complete pairs to assemble.
func pairLength(n0, n1 int) (int, error) {
	diff := n0 - n1
	if diff < 0 {
		diff = -diff
	}
	if diff > 1 {
		return 0, errors.Errorf("half-word count imbalance %d vs %d exceeds tolerance", n0, n1)
	}
	if n0 < n1 {
		return n0, nil
	}
	return n1, nil
}
