package indexing

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/UBH-Fall-2024/FileSeekr/ai"
	"github.com/UBH-Fall-2024/FileSeekr/core"
	"github.com/UBH-Fall-2024/FileSeekr/extract"
	"github.com/UBH-Fall-2024/FileSeekr/settings"
	"github.com/UBH-Fall-2024/FileSeekr/storage"
)

// ScanReport summarizes one scan cycle.
type ScanReport struct {
	SettingsVersion uint64
	Roots           []string
	RootErrors      map[string]error
	MissingCloud    []core.CloudService
	Discovered      int // Eligible files found on disk
	Enqueued        int // Jobs accepted by the pipeline
	Unchanged       int // Files skipped because their record is current
	Busy            int // Files skipped because a job was already in flight
	Indexed         int // Records written as indexed
	Failed          int // Records written as failed
	Deleted         int // Records removed
	Discarded       int // Jobs canceled before writing
	StartedAt       time.Time
	Duration        time.Duration
}

// Mutations is the number of index writes the scan caused.
func (r *ScanReport) Mutations() int {
	return r.Indexed + r.Failed + r.Deleted
}

// Scanner reconciles the file index with the filesystem.
type Scanner struct {
	files    storage.FileRepository
	registry *ai.Registry
	pipeline *Pipeline
	monitor  ScanMonitor
	resolve  func(*core.Settings) settings.Resolution
	logger   *slog.Logger
	mu       sync.Mutex

	retainMu sync.Mutex
	retained uint64 // settings version last passed to the pipeline
}

// ScannerOption configures a Scanner.
type ScannerOption func(*Scanner) error

// WithScanMonitor sets the monitor notified of scan progress.
func WithScanMonitor(monitor ScanMonitor) ScannerOption {
	return func(s *Scanner) error {
		if monitor == nil {
			monitor = &noopMonitor{}
		}
		s.monitor = monitor
		return nil
	}
}

// WithRootResolver overrides how settings map to scan roots.
func WithRootResolver(resolve func(*core.Settings) settings.Resolution) ScannerOption {
	return func(s *Scanner) error {
		if resolve == nil {
			return errors.New("root resolver cannot be nil")
		}
		s.resolve = resolve
		return nil
	}
}

// WithScannerLogger sets a custom logger.
func WithScannerLogger(logger *slog.Logger) ScannerOption {
	return func(s *Scanner) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewScanner creates a Scanner feeding pipeline.
func NewScanner(files storage.FileRepository, registry *ai.Registry, pipeline *Pipeline, opts ...ScannerOption) (*Scanner, error) {
	if files == nil {
		return nil, ErrFileRepositoryRequired
	}
	if registry == nil {
		return nil, ErrRegistryRequired
	}
	if pipeline == nil {
		return nil, ErrPipelineRequired
	}
	s := &Scanner{
		files:    files,
		registry: registry,
		pipeline: pipeline,
		monitor:  &noopMonitor{},
		resolve:  settings.ResolveRoots,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "scanner")
	return s, nil
}

// Retain cancels in-flight jobs under roots that snapshot no longer resolves.
// Unlike Scan it does not wait for a running scan, so a removed root stops
// producing writes immediately. Snapshots older than one already retained are
// ignored.
func (s *Scanner) Retain(snapshot *core.Settings) {
	s.retainMu.Lock()
	defer s.retainMu.Unlock()
	if snapshot.Version < s.retained {
		return
	}
	s.retained = snapshot.Version
	s.pipeline.RetainRoots(s.resolve(snapshot).Roots)
}

// Scan runs one reconciliation cycle against snapshot and waits for the jobs
// it queued. Scans are serialized.
func (s *Scanner) Scan(ctx context.Context, snapshot *core.Settings) (*ScanReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := s.resolve(snapshot)
	report := &ScanReport{
		SettingsVersion: snapshot.Version,
		Roots:           res.Roots,
		RootErrors:      make(map[string]error),
		MissingCloud:    res.MissingCloud,
		StartedAt:       time.Now(),
	}
	s.monitor.ScanStarted(snapshot.Version, res.Roots)
	s.logger.Info("scan started", "version", snapshot.Version, "roots", len(res.Roots))
	for _, svc := range res.MissingCloud {
		s.logger.Warn("no local folder for cloud service", "service", svc)
	}

	// Drop work for roots that are gone before their records are deleted.
	s.Retain(snapshot)

	stored, err := s.files.List(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrIndexUnavailable, err)
	}
	byPath := make(map[string]*core.FileRecord, len(stored))
	for _, r := range stored {
		byPath[r.Path] = r
	}

	var (
		indexed, failed, discarded atomic.Int64
		jobs                       sync.WaitGroup
	)
	done := func(o Outcome) {
		defer jobs.Done()
		switch {
		case o.Discarded:
			discarded.Add(1)
		case o.Written && o.Status == core.StatusIndexed:
			indexed.Add(1)
		case o.Written && o.Status == core.StatusFailed:
			failed.Add(1)
		}
		s.monitor.FileProcessed(o)
	}

	seen := make(map[string]struct{})
	for _, root := range res.Roots {
		err := s.walkRoot(ctx, root, snapshot.FileTypeEnabled, func(path string, info fs.FileInfo, fileType core.FileType) error {
			report.Discovered++
			seen[path] = struct{}{}

			job, ok := s.reconcile(byPath[path], path, root, info, fileType, snapshot)
			if !ok {
				report.Unchanged++
				return nil
			}
			jobs.Add(1)
			s.monitor.FileQueued(path)
			accepted, err := s.pipeline.Submit(job, done)
			if err != nil || !accepted {
				jobs.Done()
				if err != nil {
					return err
				}
				report.Busy++
				return nil
			}
			report.Enqueued++
			return nil
		})
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				jobs.Wait()
				return nil, ctxErr
			}
			if errors.Is(err, ErrPipelineReleased) {
				jobs.Wait()
				return nil, err
			}
			report.RootErrors[root] = err
			s.monitor.RootFailed(root, err)
			s.logger.Warn("root unavailable", "root", root, "err", err)
		}
	}

	jobs.Wait()

	var toDelete []string
	for _, r := range stored {
		if _, ok := seen[r.Path]; ok {
			continue
		}
		if s.underFailedRoot(r.Path, report.RootErrors) {
			continue
		}
		if s.pipeline.InFlight(r.Path) {
			continue
		}
		toDelete = append(toDelete, r.Path)
	}
	if len(toDelete) > 0 {
		if err := s.files.Delete(ctx, toDelete...); err != nil {
			return nil, fmt.Errorf("%w: %w", core.ErrIndexUnavailable, err)
		}
		for _, p := range toDelete {
			s.monitor.FileDeleted(p)
		}
	}

	report.Indexed = int(indexed.Load())
	report.Failed = int(failed.Load())
	report.Discarded = int(discarded.Load())
	report.Deleted = len(toDelete)
	report.Duration = time.Since(report.StartedAt)

	s.monitor.ScanFinished(report)
	s.logger.Info("scan finished",
		"version", report.SettingsVersion,
		"discovered", report.Discovered,
		"enqueued", report.Enqueued,
		"indexed", report.Indexed,
		"failed", report.Failed,
		"deleted", report.Deleted,
		"rootErrors", len(report.RootErrors),
		"duration", report.Duration)
	return report, nil
}

// reconcile decides whether a file needs a job.
func (s *Scanner) reconcile(record *core.FileRecord, path, root string, info fs.FileInfo, fileType core.FileType, snapshot *core.Settings) (Job, bool) {
	job := Job{
		Path:       path,
		Root:       root,
		FileType:   fileType,
		SizeBytes:  info.Size(),
		ModTime:    info.ModTime().UTC().Truncate(time.Microsecond),
		OCREnabled: snapshot.OCREnabled,
	}
	if record == nil {
		return job, true
	}

	sameStat := record.SizeBytes == job.SizeBytes && record.ModTime.Equal(job.ModTime)
	if !sameStat {
		hash, err := core.HashFile(path)
		if err != nil {
			// Let the job record the read failure.
			return job, true
		}
		job.ContentHash = hash
		if hash != record.ContentHash {
			return job, true
		}
	}

	switch record.Status {
	case core.StatusIndexed:
		binding, err := s.registry.Lookup(record.Space)
		if err != nil || !versionCurrent(record, binding.Space, snapshot.OCREnabled) {
			return job, true
		}
		return job, false
	case core.StatusFailed:
		if sameStat && isPermanentFailure(record.FailureReason, snapshot.OCREnabled) {
			return job, false
		}
		return job, true
	default:
		return job, true
	}
}

// isPermanentFailure reports whether retrying unchanged content cannot help.
func isPermanentFailure(reason string, ocrEnabled bool) bool {
	switch extract.Reason(reason) {
	case extract.ReasonUnsupportedFormat, extract.ReasonTooLarge:
		return true
	case extract.ReasonOCRFailure:
		return ocrEnabled
	}
	return false
}

func (s *Scanner) underFailedRoot(path string, rootErrors map[string]error) bool {
	for root := range rootErrors {
		if core.IsUnder(path, root) {
			return true
		}
	}
	return false
}

type visitFunc func(path string, info fs.FileInfo, fileType core.FileType) error

// walkRoot enumerates files below root whose type is enabled. Hidden entries and symlinks
// are skipped; unreadable subdirectories are logged and skipped. An error is
// returned only when root itself cannot be read or visit fails.
func (s *Scanner) walkRoot(ctx context.Context, root string, enabled func(core.FileType) bool, visit visitFunc) error {
	info, err := os.Stat(root)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", core.ErrInvalidPath, root)
	}
	if _, err := os.ReadDir(root); err != nil {
		return err
	}

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			if path == root {
				return err
			}
			s.logger.Debug("skipping unreadable entry", "path", path, "err", err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if path == root {
			return nil
		}
		if isHidden(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 || d.IsDir() || !d.Type().IsRegular() {
			return nil
		}

		fileType := extract.ClassifyByExtension(path)
		if fileType == core.FileTypeOther {
			// Unknown or missing extension: fall back to the content signature.
			if fileType, err = extract.ClassifyFile(path); err != nil {
				s.logger.Debug("skipping unreadable file", "path", path, "err", err)
				return nil
			}
		}
		if fileType == core.FileTypeOther || !enabled(fileType) {
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			return nil
		}
		return visit(path, fi, fileType)
	})
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
