package metrics

import (
	"time"

	"github.com/UBH-Fall-2024/FileSeekr/core"
	"github.com/UBH-Fall-2024/FileSeekr/indexing"
	"github.com/UBH-Fall-2024/FileSeekr/search"
)

// ScanMonitor records scan activity. It is stateless and safe to share.
type ScanMonitor struct{}

var _ indexing.ScanMonitor = ScanMonitor{}

func (ScanMonitor) ScanStarted(_ uint64, _ []string) {}

func (ScanMonitor) RootFailed(_ string, _ error) {
	RootErrors.Inc()
}

func (ScanMonitor) FileQueued(_ string) {}

func (ScanMonitor) FileProcessed(o indexing.Outcome) {
	FileDuration.Observe(o.Duration.Seconds())
	switch {
	case o.Discarded:
		FilesProcessed.WithLabelValues("discarded").Inc()
	case !o.Written:
		FilesProcessed.WithLabelValues("unchanged").Inc()
	case o.Status == core.StatusFailed:
		FilesProcessed.WithLabelValues("failed").Inc()
		FileFailures.WithLabelValues(o.Reason).Inc()
	default:
		FilesProcessed.WithLabelValues("indexed").Inc()
	}
}

func (ScanMonitor) FileDeleted(_ string) {
	FilesDeleted.Inc()
}

func (ScanMonitor) ScanFinished(report *indexing.ScanReport) {
	ScansTotal.Inc()
	ScanDuration.Observe(report.Duration.Seconds())
}

// searchMonitor times one search.
type searchMonitor struct {
	start  time.Time
	failed bool
}

// NewSearchMonitor returns a monitor for a single search call.
func NewSearchMonitor() search.SearchMonitor {
	return &searchMonitor{}
}

func (m *searchMonitor) Start(_ string) {
	m.start = time.Now()
}

func (m *searchMonitor) AfterEmbedding(_ core.SpaceID)                {}
func (m *searchMonitor) AfterSpaceQuery(_ core.SpaceID, _ []core.Hit) {}

func (m *searchMonitor) Failed(_ error) {
	m.failed = true
}

func (m *searchMonitor) Finish(results []*core.SearchResult) {
	SearchDuration.Observe(time.Since(m.start).Seconds())
	SearchResults.Observe(float64(len(results)))
	if m.failed {
		SearchesTotal.WithLabelValues("error").Inc()
		return
	}
	SearchesTotal.WithLabelValues("ok").Inc()
}
