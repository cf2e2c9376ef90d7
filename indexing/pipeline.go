package indexing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/UBH-Fall-2024/FileSeekr/ai"
	"github.com/UBH-Fall-2024/FileSeekr/core"
	"github.com/UBH-Fall-2024/FileSeekr/extract"
	"github.com/UBH-Fall-2024/FileSeekr/storage"
	"github.com/panjf2000/ants/v2"
)

// DefaultJobTimeout is the wall-clock budget for one file.
const DefaultJobTimeout = 60 * time.Second

// ocrVersionSuffix marks image records produced with OCR enabled, so toggling
// OCR makes them stale.
const ocrVersionSuffix = "+ocr"

// Job describes one file to (re)index.
type Job struct {
	Path        string
	Root        string
	FileType    core.FileType
	SizeBytes   int64
	ModTime     time.Time
	ContentHash string // Computed by the job when empty
	OCREnabled  bool
}

// Outcome reports what happened to a job.
type Outcome struct {
	Path      string
	Status    core.Status
	Reason    string
	Written   bool // The index was mutated
	Discarded bool // The job was canceled and its result dropped
	Duration  time.Duration
}

// rootScope carries the cancellation of every job under one root.
// Jobs hold mu for reading while they write; RetainRoots takes it for
// writing after cancel so no write lands once a root is dropped.
type rootScope struct {
	ctx    context.Context
	cancel context.CancelFunc
	mu     sync.RWMutex
}

// Pipeline runs extraction, embedding and upsert jobs on a bounded worker pool.
type Pipeline struct {
	files      storage.FileRepository
	registry   *ai.Registry
	extractor  *extract.Extractor
	pool       *ants.Pool
	jobTimeout time.Duration
	logger     *slog.Logger

	mu       sync.Mutex
	inFlight map[string]struct{}
	roots    map[string]*rootScope
	retained map[string]struct{} // nil until the first RetainRoots
	released bool
	wg       sync.WaitGroup
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		if p.pool != nil {
			p.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithJobTimeout sets the per-file budget.
func WithJobTimeout(d time.Duration) Option {
	return func(p *Pipeline) error {
		if d <= 0 {
			return fmt.Errorf("job timeout must be positive, got %s", d)
		}
		p.jobTimeout = d
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new indexing pipeline.
func NewPipeline(
	files storage.FileRepository,
	registry *ai.Registry,
	extractor *extract.Extractor,
	opts ...Option,
) (*Pipeline, error) {
	if files == nil {
		return nil, ErrFileRepositoryRequired
	}
	if registry == nil {
		return nil, ErrRegistryRequired
	}
	if extractor == nil {
		return nil, ErrExtractorRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		files:      files,
		registry:   registry,
		extractor:  extractor,
		pool:       pool,
		jobTimeout: DefaultJobTimeout,
		logger:     slog.Default(),
		inFlight:   make(map[string]struct{}),
		roots:      make(map[string]*rootScope),
	}
	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}
	p.logger = p.logger.With("component", "pipeline")
	return p, nil
}

// InFlight reports whether a job for path is queued or running, including
// extraction work still draining after its job timed out.
func (p *Pipeline) InFlight(path string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.inFlight[path]
	return ok
}

// Submit queues job. It returns false without queuing when a job for the same
// path is already in flight. done, if non-nil, is called exactly once for every
// accepted job. A job under a root dropped by RetainRoots is accepted and
// reported as discarded without running. Submit blocks while the pool is
// saturated.
func (p *Pipeline) Submit(job Job, done func(Outcome)) (bool, error) {
	p.mu.Lock()
	if p.released {
		p.mu.Unlock()
		return false, ErrPipelineReleased
	}
	if _, busy := p.inFlight[job.Path]; busy {
		p.mu.Unlock()
		return false, nil
	}
	if p.retained != nil {
		if _, ok := p.retained[job.Root]; !ok {
			p.mu.Unlock()
			p.logger.Debug("job discarded, root removed", "path", job.Path, "root", job.Root)
			if done != nil {
				done(Outcome{Path: job.Path, Discarded: true})
			}
			return true, nil
		}
	}
	scope := p.scopeLocked(job.Root)
	p.inFlight[job.Path] = struct{}{}
	p.wg.Add(1)
	p.mu.Unlock()

	err := p.pool.Submit(func() {
		outcome, drained := p.run(scope, job)
		if drained == nil {
			p.clearInFlight(job.Path)
		} else {
			// Keep the path busy until the abandoned extraction returns.
			go func() {
				<-drained
				p.clearInFlight(job.Path)
			}()
		}
		p.wg.Done()
		if done != nil {
			done(outcome)
		}
	})
	if err != nil {
		p.clearInFlight(job.Path)
		p.wg.Done()
		return false, fmt.Errorf("submitting %s: %w", job.Path, err)
	}
	return true, nil
}

func (p *Pipeline) clearInFlight(path string) {
	p.mu.Lock()
	delete(p.inFlight, path)
	p.mu.Unlock()
}

// Wait blocks until every accepted job has finished.
func (p *Pipeline) Wait() {
	p.wg.Wait()
}

// RetainRoots cancels jobs under any root not in roots and refuses later jobs
// under them. When it returns, no canceled job will write to the index.
func (p *Pipeline) RetainRoots(roots []string) {
	p.mu.Lock()
	p.retained = make(map[string]struct{}, len(roots))
	for _, root := range roots {
		p.retained[root] = struct{}{}
	}
	var dropped []*rootScope
	for root, scope := range p.roots {
		if !slices.Contains(roots, root) {
			delete(p.roots, root)
			dropped = append(dropped, scope)
			p.logger.Info("canceling jobs for removed root", "root", root)
		}
	}
	p.mu.Unlock()

	for _, scope := range dropped {
		scope.cancel()
		scope.mu.Lock()
		scope.mu.Unlock() //nolint:staticcheck // waits for writers holding the read lock
	}
}

// Release cancels outstanding jobs and releases the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	p.mu.Lock()
	if p.released {
		p.mu.Unlock()
		return
	}
	p.released = true
	for _, scope := range p.roots {
		scope.cancel()
	}
	p.mu.Unlock()

	if p.pool != nil {
		p.pool.Release()
	}
}

func (p *Pipeline) scopeLocked(root string) *rootScope {
	if scope, ok := p.roots[root]; ok {
		return scope
	}
	ctx, cancel := context.WithCancel(context.Background())
	scope := &rootScope{ctx: ctx, cancel: cancel}
	p.roots[root] = scope
	return scope
}

type production struct {
	hash    string
	content *extract.Content
	space   ai.Space
	vector  []float32
	err     error
}

// run processes one job and writes its record unless the job was canceled.
// drained is nil when extraction finished within the budget. Otherwise it is
// closed once the abandoned extraction goroutine returns.
func (p *Pipeline) run(scope *rootScope, job Job) (outcome Outcome, drained <-chan struct{}) {
	start := time.Now()
	outcome = Outcome{Path: job.Path}

	ctx, cancel := context.WithTimeout(scope.ctx, p.jobTimeout)
	defer cancel()

	// The work runs in its own goroutine so a strategy that ignores ctx cannot
	// hold the slot past the budget.
	results := make(chan production, 1)
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		results <- p.produce(ctx, job)
	}()

	var prod production
	select {
	case prod = <-results:
	case <-ctx.Done():
		prod = production{err: ctx.Err()}
		drained = finished
	}

	record := p.buildRecord(job, prod)

	scope.mu.RLock()
	defer scope.mu.RUnlock()

	if errors.Is(prod.err, context.Canceled) || scope.ctx.Err() != nil {
		outcome.Discarded = true
		outcome.Duration = time.Since(start)
		p.logger.Debug("job discarded", "path", job.Path)
		return outcome, drained
	}

	outcome.Status = record.Status
	outcome.Reason = record.FailureReason
	written, err := p.write(record)
	if err != nil {
		p.logger.Error("error writing file record", "path", job.Path, "err", err)
	}
	outcome.Written = written
	outcome.Duration = time.Since(start)
	return outcome, drained
}

// produce hashes, extracts and embeds. It never panics.
func (p *Pipeline) produce(ctx context.Context, job Job) (prod production) {
	defer func() {
		if r := recover(); r != nil {
			prod = production{err: fmt.Errorf("panic: %v", r)}
		}
	}()

	hash := job.ContentHash
	if hash == "" {
		var err error
		if hash, err = core.HashFile(job.Path); err != nil {
			return production{err: &extract.ExtractionError{Path: job.Path, Reason: extract.ReasonReadError, Err: err}}
		}
	}

	content, err := p.extractor.Extract(ctx, job.Path, job.OCREnabled)
	if err != nil {
		return production{hash: hash, err: err}
	}

	binding, err := p.registry.Lookup(content.Space())
	if err != nil {
		return production{hash: hash, content: content, err: err}
	}

	var vec []float32
	if content.Image != nil {
		vec, err = p.registry.EmbedImage(ctx, binding.Space.ID, content.Image)
	} else {
		vec, err = p.registry.EmbedText(ctx, binding.Space.ID, content.Text)
	}
	if err != nil {
		return production{hash: hash, content: content, err: err}
	}
	return production{hash: hash, content: content, space: binding.Space, vector: vec}
}

func (p *Pipeline) buildRecord(job Job, prod production) *core.FileRecord {
	record := &core.FileRecord{
		Path:        job.Path,
		FileType:    job.FileType,
		SizeBytes:   job.SizeBytes,
		ModTime:     job.ModTime,
		ContentHash: job.ContentHash,
	}
	if prod.hash != "" {
		record.ContentHash = prod.hash
	}
	if prod.content != nil {
		record.FileType = prod.content.FileType
		record.Thumbnail = prod.content.Thumbnail
		record.Truncated = prod.content.Truncated
	}

	if prod.err != nil {
		record.Status = core.StatusFailed
		record.FailureReason = failureReason(prod.err)
		if record.FailureReason != ReasonTimeout {
			p.logger.Warn("file failed", "path", job.Path, "reason", record.FailureReason, "err", prod.err)
		} else {
			p.logger.Warn("file timed out", "path", job.Path, "budget", p.jobTimeout)
		}
		return record
	}

	record.Status = core.StatusIndexed
	record.Space = prod.space.ID
	record.ModelVersion = recordVersion(prod.space.ModelVersion, record.FileType, job.OCREnabled)
	record.Embedding = prod.vector
	record.IndexedAt = time.Now().UTC().Truncate(time.Microsecond)
	return record
}

// write upserts record unless it repeats the stored failure for the same content.
func (p *Pipeline) write(record *core.FileRecord) (bool, error) {
	ctx := context.Background()
	if record.Status == core.StatusFailed {
		existing, err := p.files.Get(ctx, record.Path)
		if err == nil && sameFailure(existing, record) {
			return false, nil
		}
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return false, err
		}
	}
	if err := p.files.Upsert(ctx, record); err != nil {
		return false, err
	}
	return true, nil
}

func sameFailure(a, b *core.FileRecord) bool {
	return a.Status == core.StatusFailed &&
		a.FailureReason == b.FailureReason &&
		a.ContentHash == b.ContentHash &&
		a.SizeBytes == b.SizeBytes &&
		a.ModTime.Equal(b.ModTime) &&
		a.FileType == b.FileType
}

func failureReason(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return ReasonTimeout
	}
	if reason := extract.ReasonOf(err); reason != "" {
		return string(reason)
	}
	return ReasonEmbeddingFailure
}

// recordVersion is the model version stored on a record. Images carry a marker
// when OCR was enabled.
func recordVersion(modelVersion string, fileType core.FileType, ocrEnabled bool) string {
	if fileType == core.FileTypeImage && ocrEnabled {
		return modelVersion + ocrVersionSuffix
	}
	return modelVersion
}

// versionCurrent reports whether an indexed record matches the space's model
// and, for images, the OCR setting.
func versionCurrent(record *core.FileRecord, space ai.Space, ocrEnabled bool) bool {
	base, withOCR := strings.CutSuffix(record.ModelVersion, ocrVersionSuffix)
	if base != space.ModelVersion {
		return false
	}
	if record.FileType == core.FileTypeImage && withOCR != ocrEnabled {
		return false
	}
	return true
}
