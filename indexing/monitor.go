package indexing

// ScanMonitor provides hooks to observe a scan.
// Implementations must be safe for concurrent use; FileProcessed is called
// from worker goroutines.
type ScanMonitor interface {
	ScanStarted(version uint64, roots []string)
	RootFailed(root string, err error)
	FileQueued(path string)
	FileProcessed(outcome Outcome)
	FileDeleted(path string)
	ScanFinished(report *ScanReport)
}

// noopMonitor is a no-op implementation of ScanMonitor
type noopMonitor struct{}

var _ ScanMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) ScanStarted(_ uint64, _ []string) {}
func (n *noopMonitor) RootFailed(_ string, _ error)     {}
func (n *noopMonitor) FileQueued(_ string)              {}
func (n *noopMonitor) FileProcessed(_ Outcome)          {}
func (n *noopMonitor) FileDeleted(_ string)             {}
func (n *noopMonitor) ScanFinished(_ *ScanReport)       {}

// MultiMonitor fans every hook out to each of monitors.
func MultiMonitor(monitors ...ScanMonitor) ScanMonitor {
	return multiMonitor(monitors)
}

type multiMonitor []ScanMonitor

func (m multiMonitor) ScanStarted(version uint64, roots []string) {
	for _, mon := range m {
		mon.ScanStarted(version, roots)
	}
}

func (m multiMonitor) RootFailed(root string, err error) {
	for _, mon := range m {
		mon.RootFailed(root, err)
	}
}

func (m multiMonitor) FileQueued(path string) {
	for _, mon := range m {
		mon.FileQueued(path)
	}
}

func (m multiMonitor) FileProcessed(outcome Outcome) {
	for _, mon := range m {
		mon.FileProcessed(outcome)
	}
}

func (m multiMonitor) FileDeleted(path string) {
	for _, mon := range m {
		mon.FileDeleted(path)
	}
}

func (m multiMonitor) ScanFinished(report *ScanReport) {
	for _, mon := range m {
		mon.ScanFinished(report)
	}
}
