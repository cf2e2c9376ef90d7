package indexing

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/UBH-Fall-2024/FileSeekr/settings"
)

// DefaultScanInterval is the period between scheduled scans.
const DefaultScanInterval = 15 * time.Minute

// Scheduler decides when scans run: once at start, after every settings
// change, periodically, and on demand. Triggers arriving during a scan are
// coalesced into one follow-up scan.
type Scheduler struct {
	scanner  *Scanner
	store    *settings.Store
	watcher  *Watcher
	interval time.Duration
	trigger  chan struct{}
	last     atomic.Pointer[ScanReport]
	logger   *slog.Logger
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithInterval sets the periodic scan interval. Zero disables periodic scans.
func WithInterval(d time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		s.interval = d
	}
}

// WithWatcher attaches a filesystem watcher. The scheduler keeps its roots in
// step with the settings and scans after it reports changes.
func WithWatcher(w *Watcher) SchedulerOption {
	return func(s *Scheduler) {
		s.watcher = w
	}
}

// WithSchedulerLogger sets a custom logger.
func WithSchedulerLogger(logger *slog.Logger) SchedulerOption {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewScheduler creates a Scheduler.
func NewScheduler(scanner *Scanner, store *settings.Store, opts ...SchedulerOption) (*Scheduler, error) {
	if scanner == nil {
		return nil, ErrScannerRequired
	}
	if store == nil {
		return nil, ErrSettingsRequired
	}
	s := &Scheduler{
		scanner:  scanner,
		store:    store,
		interval: DefaultScanInterval,
		trigger:  make(chan struct{}, 1),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "scheduler")
	return s, nil
}

// Trigger requests a scan. It never blocks.
func (s *Scheduler) Trigger() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

// LastReport returns the report of the most recent completed scan, or nil.
func (s *Scheduler) LastReport() *ScanReport {
	return s.last.Load()
}

// Run scans until ctx is canceled.
func (s *Scheduler) Run(ctx context.Context) error {
	versions, unsubscribe := s.store.Subscribe()
	defer unsubscribe()

	// Removed roots are canceled as soon as settings change, even while a
	// scan is blocked waiting on their jobs.
	removals, stopRemovals := s.store.Subscribe()
	defer stopRemovals()
	go func() {
		for range removals {
			s.scanner.Retain(s.store.Current())
		}
	}()

	var tick <-chan time.Time
	if s.interval > 0 {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	s.Trigger()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case v := <-versions:
			s.logger.Info("settings changed, rescanning", "version", v)
		case <-tick:
		case <-s.trigger:
		}
		s.runOnce(ctx)
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	snapshot := s.store.Current()
	report, err := s.scanner.Scan(ctx, snapshot)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			s.logger.Error("scan failed", "err", err)
		}
		return
	}
	s.last.Store(report)
	if s.watcher != nil {
		s.watcher.SetRoots(report.Roots)
	}
}
