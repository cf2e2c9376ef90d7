package indexing

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// ProgressTracker tracks and reports progress of an indexing run.
// The total grows as files are queued.
type ProgressTracker struct {
	writer         io.Writer
	total          int
	current        int
	reportInterval int
	lastReported   int
	startTime      time.Time
	started        bool
	mu             sync.Mutex
}

// NewProgressTracker creates a new progress tracker.
// writer: where to write progress output (typically os.Stderr)
// reportInterval: report progress every N files
func NewProgressTracker(writer io.Writer, reportInterval int) *ProgressTracker {
	if reportInterval < 1 {
		reportInterval = 1
	}
	return &ProgressTracker{
		writer:         writer,
		reportInterval: reportInterval,
	}
}

// Start begins tracking progress.
func (p *ProgressTracker) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.startTime = time.Now()
	p.started = true
	p.total = 0
	p.current = 0
	p.lastReported = 0
}

// AddTotal grows the number of files expected.
func (p *ProgressTracker) AddTotal(delta int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.total += delta
}

// Increment increases the current progress by the specified amount.
func (p *ProgressTracker) Increment(delta int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return
	}

	p.current += delta
	if p.current > p.total {
		p.current = p.total
	}

	if p.current-p.lastReported >= p.reportInterval {
		p.report()
		p.lastReported = p.current
	}
}

// Finish marks the run as complete and prints final progress.
func (p *ProgressTracker) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return
	}

	p.current = p.total
	p.report()
	fmt.Fprintln(p.writer)
	p.started = false
}

// Elapsed returns the time elapsed since Start was called.
func (p *ProgressTracker) Elapsed() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return 0
	}

	return time.Since(p.startTime)
}

// report prints the current progress. Must be called with lock held.
func (p *ProgressTracker) report() {
	elapsed := time.Since(p.startTime)
	rate := float64(p.current) / elapsed.Seconds()

	percentage := 0.0
	if p.total > 0 {
		percentage = float64(p.current) / float64(p.total) * 100.0
	}

	fmt.Fprintf(p.writer, "\rIndexed: %d/%d (%.1f%%) - %.1f files/s",
		p.current, p.total, percentage, rate)
}

// progressMonitor drives a ProgressTracker from scan hooks.
type progressMonitor struct {
	noopMonitor
	tracker *ProgressTracker
}

// NewProgressMonitor returns a ScanMonitor printing progress to w.
func NewProgressMonitor(w io.Writer, reportInterval int) ScanMonitor {
	return &progressMonitor{tracker: NewProgressTracker(w, reportInterval)}
}

func (m *progressMonitor) ScanStarted(_ uint64, _ []string) { m.tracker.Start() }
func (m *progressMonitor) FileQueued(_ string)              { m.tracker.AddTotal(1) }
func (m *progressMonitor) FileProcessed(_ Outcome)          { m.tracker.Increment(1) }
func (m *progressMonitor) ScanFinished(_ *ScanReport)       { m.tracker.Finish() }
