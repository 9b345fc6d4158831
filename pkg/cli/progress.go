package cli

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// ProgressReporter reports progress for long-running operations such as
// journal scans.
type ProgressReporter interface {
	Start(total int64)
	Update(current int64)
	Finish()
	Error(err error)
}

// textProgress rewrites a single carriage-returned line per update.
type textProgress struct {
	mu      sync.Mutex
	total   int64
	current int64
	started time.Time
	writer  io.Writer
}

// NewProgressReporter creates a reporter writing to w. A nil w defaults
// to os.Stderr so progress never pollutes piped command output.
func NewProgressReporter(w io.Writer) ProgressReporter {
	if w == nil {
		w = os.Stderr
	}
	return &textProgress{writer: w}
}

// Start begins reporting against a known total. A total of zero or less
// switches the reporter to count-only mode.
func (p *textProgress) Start(total int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.total = total
	p.current = 0
	p.started = time.Now()

	p.render()
}

func (p *textProgress) Update(current int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.current = current
	p.render()
}

// Finish completes the line and moves off it.
func (p *textProgress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.total > 0 {
		p.current = p.total
	}
	p.render()
	fmt.Fprintln(p.writer)
}

// Error abandons the progress line and reports why.
func (p *textProgress) Error(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintf(p.writer, "\naborted: %v\n", err)
}

func (p *textProgress) render() {
	if p.total <= 0 {
		fmt.Fprintf(p.writer, "\r%d scanned", p.current)
		return
	}

	percent := float64(p.current) / float64(p.total) * 100

	var rate float64
	if elapsed := time.Since(p.started).Seconds(); elapsed > 0 {
		rate = float64(p.current) / elapsed
	}

	fmt.Fprintf(p.writer, "\r%d/%d (%.0f%%) %.0f/s", p.current, p.total, percent, rate)
}
