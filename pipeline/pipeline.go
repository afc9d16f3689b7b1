// Package pipeline implements component F: the two-phase orchestrator that
// runs the sequential chunk repair, then fans the surviving chunks out
// across a bounded worker pool for decode→align→field-extraction, and
// finally concatenates and globally sorts the result.
package pipeline

import (
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/GasDet-Bonn/tpx3-interpretation/align"
	"github.com/GasDet-Bonn/tpx3-interpretation/chunkrepair"
	"github.com/GasDet-Bonn/tpx3-interpretation/container"
	"github.com/GasDet-Bonn/tpx3-interpretation/decode"
	"github.com/GasDet-Bonn/tpx3-interpretation/fields"
	"github.com/GasDet-Bonn/tpx3-interpretation/recordschema"
	"github.com/GasDet-Bonn/tpx3-interpretation/runconfig"
	"github.com/GasDet-Bonn/tpx3-interpretation/tables"
)

// Stats summarizes one run for the final, single end-of-job report.
type Stats struct {
	TotalWords      uint64
	DiscardedWords  uint64
	DiscardedChunks int
	DecodeFailures  int
}

// DiscardedPercent reports the discarded fraction as a percentage.
func (s Stats) DiscardedPercent() float64 {
	if s.TotalWords == 0 {
		return 0
	}
	return 100 * float64(s.DiscardedWords) / float64(s.TotalWords)
}

// Run executes the full decode pipeline: sequential repair, then a
// worker_count-bounded parallel decode of surviving chunks, then a global
// stable sort by TOA_Combined. It returns the final row set and stats, but
// does not write anything — callers pass rows to a container.HitWriter.
func Run(raw container.RawWordStore, metas []container.ChunkMeta, cfg runconfig.Config, workerCount int, progress func(done, total int)) ([]recordschema.HitRow, Stats, error) {
	if workerCount < 1 {
		workerCount = 1
	}

	windows, repairStats, err := chunkrepair.Repair(metas, raw)
	if err != nil {
		return nil, Stats{}, errors.Wrap(err, "pipeline: repair phase")
	}

	tb := tables.New()

	type result struct {
		rows []recordschema.HitRow
		err  error
	}

	results := make([]result, len(windows))
	sem := make(chan struct{}, workerCount)
	var wg sync.WaitGroup
	var doneCount int
	var doneMu sync.Mutex

	for i, w := range windows {
		if w.Discarded {
			continue
		}
		i, w := i, w
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			rows, err := decodeChunk(tb, w, raw, cfg)
			results[i] = result{rows: rows, err: err}
			if progress != nil {
				doneMu.Lock()
				doneCount++
				progress(doneCount, len(windows))
				doneMu.Unlock()
			}
		}()
	}
	wg.Wait()

	var allRows []recordschema.HitRow
	stats := Stats{
		TotalWords:      repairStats.TotalWords,
		DiscardedWords:  repairStats.DiscardedWords,
		DiscardedChunks: repairStats.DiscardedChunks,
	}
	for i, w := range windows {
		if w.Discarded {
			continue
		}
		r := results[i]
		if r.err != nil {
			// A hard decode failure drops the chunk and continues; nothing
			// aborts the whole job over one bad chunk.
			stats.DecodeFailures++
			stats.DiscardedChunks++
			stats.DiscardedWords += w.Meta.IndexStop - w.Meta.IndexStart
			continue
		}
		allRows = append(allRows, r.rows...)
	}

	sort.SliceStable(allRows, func(a, b int) bool { return allRows[a].TOACombined < allRows[b].TOACombined })

	return allRows, stats, nil
}

// decodeChunk runs decode, align and field extraction over one repaired
// chunk window.
func decodeChunk(tb *tables.Tables, w *chunkrepair.Window, raw container.RawWordStore, cfg runconfig.Config) ([]recordschema.HitRow, error) {
	indices := w.Indices()
	if len(indices) == 0 {
		return nil, nil
	}

	words := make([]uint32, len(indices))
	for k, pos := range indices {
		word, err := raw.WordAt(pos)
		if err != nil {
			return nil, errors.Wrapf(err, "pipeline: reading raw word %d", pos)
		}
		words[k] = word
	}

	chunk, err := decode.Decode(indices, words, cfg.DataTake)
	if err != nil {
		return nil, errors.Wrap(err, "pipeline: decode phase")
	}

	op := fields.ResolveOpMode(cfg.OpMode)

	var rows []recordschema.HitRow
	for link := 0; link < 8; link++ {
		lh := chunk.Links[link]
		if len(lh.Values) == 0 {
			continue
		}

		var aligned []uint64
		if cfg.DataTake {
			aligned = align.Align(lh.Values, lh.Indices, chunk.Extensions, chunk.ExtIndices, tb.Gray14)
		}

		for k := range lh.Values {
			var a uint64
			if cfg.DataTake {
				a = aligned[k]
			}
			rows = append(rows, fields.Row(tb, lh.Values[k], lh.Indices[k], op, cfg.VCO, cfg.DataTake, a, w.Meta.ScanParamID, w.Meta.TimestampStart))
		}
	}

	fields.SortByHitIndex(rows)
	return rows, nil
}
