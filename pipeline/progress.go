package pipeline

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/fatih/color"
)

// ProgressReporter periodically prints the chunk-completion counter to
// stdout, generalized from a ticker-driven SNMP dump into a single
// human-readable line instead of a CSV row. Discard counts are printed only
// once, by ReportFinal.
type ProgressReporter struct {
	Interval time.Duration
	Quiet    bool

	ticker *time.Ticker
	stop   chan struct{}
}

// Start begins printing a status line every Interval until Stop is called.
// total is the denominator shown in each status line; the returned
// callback ignores its own total argument.
func (p *ProgressReporter) Start(total int) func(done, total int) {
	if p.Quiet || p.Interval <= 0 {
		return func(done, total int) {}
	}

	var lastDone int64
	p.ticker = time.NewTicker(p.Interval)
	p.stop = make(chan struct{})
	go func() {
		for {
			select {
			case <-p.ticker.C:
				fmt.Printf("decoded %d/%d chunks\n", atomic.LoadInt64(&lastDone), total)
			case <-p.stop:
				return
			}
		}
	}()

	return func(done, total int) { atomic.StoreInt64(&lastDone, int64(done)) }
}

// Stop halts the periodic ticker goroutine started by Start.
func (p *ProgressReporter) Stop() {
	if p.ticker != nil {
		p.ticker.Stop()
		close(p.stop)
	}
}

// ReportFinal prints the one-time end-of-job summary: total raw words,
// discarded words, and the discarded percentage.
func ReportFinal(stats Stats) {
	line := fmt.Sprintf("decode complete: %d words total, %d discarded (%.2f%%)",
		stats.TotalWords, stats.DiscardedWords, stats.DiscardedPercent())
	if stats.DiscardedWords > 0 {
		color.Red(line)
	} else {
		fmt.Println(line)
	}
}
