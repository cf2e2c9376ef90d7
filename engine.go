package fileseekr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/UBH-Fall-2024/FileSeekr/ai"
	"github.com/UBH-Fall-2024/FileSeekr/ai/fastembed"
	"github.com/UBH-Fall-2024/FileSeekr/ai/hashing"
	"github.com/UBH-Fall-2024/FileSeekr/ai/openai"
	"github.com/UBH-Fall-2024/FileSeekr/ai/visual"
	"github.com/UBH-Fall-2024/FileSeekr/config"
	"github.com/UBH-Fall-2024/FileSeekr/core"
	"github.com/UBH-Fall-2024/FileSeekr/extract"
	"github.com/UBH-Fall-2024/FileSeekr/indexing"
	"github.com/UBH-Fall-2024/FileSeekr/metrics"
	"github.com/UBH-Fall-2024/FileSeekr/opener"
	"github.com/UBH-Fall-2024/FileSeekr/search"
	"github.com/UBH-Fall-2024/FileSeekr/settings"
	"github.com/UBH-Fall-2024/FileSeekr/storage"
	"github.com/UBH-Fall-2024/FileSeekr/storage/badger"
)

// Engine wires the file index, settings, indexing and search together.
type Engine struct {
	cfg       *config.Config
	backend   *badger.Backend
	files     storage.FileRepository
	settings  *settings.Store
	provider  ai.AIProvider
	registry  *ai.Registry
	pipeline  *indexing.Pipeline
	scanner   *indexing.Scanner
	scheduler *indexing.Scheduler
	watcher   *indexing.Watcher
	searcher  *search.Searcher
	opener    *opener.Opener
	logger    *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	logger   *slog.Logger
	provider ai.AIProvider
	opener   *opener.Opener
	monitors []indexing.ScanMonitor
	noTools  bool
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(o *engineOptions) {
		o.logger = logger
	}
}

// WithProvider replaces the text embedding provider chosen by the config.
// The engine takes ownership and closes it.
func WithProvider(p ai.AIProvider) EngineOption {
	return func(o *engineOptions) {
		o.provider = p
	}
}

// WithOpener replaces the platform file launcher.
func WithOpener(op *opener.Opener) EngineOption {
	return func(o *engineOptions) {
		o.opener = op
	}
}

// WithScanMonitor adds a monitor notified of every scan.
func WithScanMonitor(m indexing.ScanMonitor) EngineOption {
	return func(o *engineOptions) {
		o.monitors = append(o.monitors, m)
	}
}

// WithoutExternalTools skips the lookup of tesseract and ffprobe.
func WithoutExternalTools() EngineOption {
	return func(o *engineOptions) {
		o.noTools = true
	}
}

// NewEngine opens the index described by cfg and builds every component.
func NewEngine(ctx context.Context, cfg *config.Config, opts ...EngineOption) (*Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	options := &engineOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}
	logger := options.logger

	e := &Engine{cfg: cfg, logger: logger.With("component", "engine")}
	ok := false
	defer func() {
		if !ok {
			e.Close()
		}
	}()

	var err error
	e.backend, err = badger.OpenBackend(cfg.Storage.Path, cfg.Storage.InMemory, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open index: %w", err)
	}

	e.provider = options.provider
	if e.provider == nil {
		e.provider, err = NewProvider(cfg.AIConfig())
		if err != nil {
			return nil, fmt.Errorf("failed to create embedding provider: %w", err)
		}
	}

	e.registry, err = newRegistry(e.provider)
	if err != nil {
		return nil, err
	}

	fileOpts := []badger.FileOption{badger.WithFileLogger(logger)}
	for id, dim := range e.registry.Dimensions() {
		fileOpts = append(fileOpts, badger.WithDimension(id, dim))
	}
	e.files, err = badger.NewFileRepository(e.backend, fileOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create file index: %w", err)
	}

	e.settings, err = settings.NewStore(ctx, badger.NewSettingsRepository(e.backend), settings.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	extractor, err := newExtractor(cfg, options.noTools, logger)
	if err != nil {
		return nil, err
	}

	pipeOpts := []indexing.Option{
		indexing.WithJobTimeout(cfg.Indexing.JobTimeout),
		indexing.WithLogger(logger),
	}
	if cfg.Indexing.Workers > 0 {
		pipeOpts = append(pipeOpts, indexing.WithPoolSize(cfg.Indexing.Workers))
	}
	e.pipeline, err = indexing.NewPipeline(e.files, e.registry, extractor, pipeOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline: %w", err)
	}

	monitors := append([]indexing.ScanMonitor{metrics.ScanMonitor{}, &indexSizeMonitor{files: e.files, logger: e.logger}}, options.monitors...)
	e.scanner, err = indexing.NewScanner(e.files, e.registry, e.pipeline,
		indexing.WithScanMonitor(indexing.MultiMonitor(monitors...)),
		indexing.WithScannerLogger(logger),
	)
	if err != nil {
		return nil, err
	}

	schedOpts := []indexing.SchedulerOption{
		indexing.WithInterval(cfg.Indexing.ScanInterval),
		indexing.WithSchedulerLogger(logger),
	}
	if cfg.Indexing.WatchEnabled() {
		e.watcher, err = indexing.NewWatcher(func() { e.scheduler.Trigger() },
			indexing.WithDebounce(cfg.Indexing.Debounce),
			indexing.WithWatcherLogger(logger),
		)
		if err != nil {
			e.logger.Warn("live watching disabled", "err", err)
			e.watcher = nil
		} else {
			schedOpts = append(schedOpts, indexing.WithWatcher(e.watcher))
		}
	}
	e.scheduler, err = indexing.NewScheduler(e.scanner, e.settings, schedOpts...)
	if err != nil {
		return nil, err
	}

	e.searcher, err = search.NewSearcher(e.files, e.registry,
		search.WithSettings(e.settings),
		search.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}

	e.opener = options.opener
	if e.opener == nil {
		e.opener = opener.New()
	}

	ok = true
	return e, nil
}

// NewProvider builds the text embedding provider named by cfg.Provider.
func NewProvider(cfg *ai.Config) (ai.AIProvider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Provider {
	case ai.ProviderOpenAI:
		return openai.NewProvider(cfg)
	case ai.ProviderFastEmbed:
		return fastembed.NewProvider(cfg)
	default:
		return hashing.NewProvider(cfg.Dimension)
	}
}

// newRegistry registers the three embedding spaces. Text uses the configured
// provider; media descriptions always use the local hashing embedder so they
// stay comparable to queries without a remote call per file.
func newRegistry(provider ai.AIProvider) (*ai.Registry, error) {
	registry := ai.NewRegistry()
	if err := registry.RegisterText(ai.Space{
		ID:           core.SpaceText,
		Dimension:    provider.Dimension(),
		Metric:       core.MetricCosine,
		ModelVersion: provider.ModelVersion(),
	}, provider.Embedder()); err != nil {
		return nil, err
	}

	media, err := hashing.NewEmbedder(hashing.DefaultDimension)
	if err != nil {
		return nil, err
	}
	if err := registry.RegisterText(ai.Space{
		ID:           core.SpaceMedia,
		Dimension:    media.Dimension(),
		Metric:       core.MetricCosine,
		ModelVersion: media.ModelVersion(),
	}, media); err != nil {
		return nil, err
	}

	if err := registry.RegisterImage(ai.Space{
		ID:           core.SpaceVisual,
		Dimension:    visual.Dimension,
		Metric:       core.MetricEuclidean,
		ModelVersion: visual.ModelVersion,
	}, visual.NewEmbedder()); err != nil {
		return nil, err
	}
	return registry, nil
}

// newExtractor attaches tesseract and ffprobe when they are installed.
func newExtractor(cfg *config.Config, noTools bool, logger *slog.Logger) (*extract.Extractor, error) {
	opts := []extract.Option{
		extract.WithMaxDocumentBytes(cfg.Indexing.MaxDocumentBytes),
		extract.WithMaxFileBytes(cfg.Indexing.MaxFileBytes),
		extract.WithLogger(logger),
	}
	if !noTools {
		if ocr, err := extract.NewTesseract(cfg.Indexing.OCRLanguage); err == nil {
			opts = append(opts, extract.WithOCR(ocr))
		} else {
			logger.Info("OCR unavailable, images use visual embeddings only", "err", err)
		}
		if probe, err := extract.NewFFProbe(); err == nil {
			opts = append(opts, extract.WithMediaProber(probe))
		} else {
			logger.Info("ffprobe unavailable, media described from tags and filename", "err", err)
		}
	}
	return extract.NewExtractor(opts...)
}

// Run indexes continuously until ctx is canceled.
func (e *Engine) Run(ctx context.Context) error {
	if e.watcher != nil {
		e.watcher.Start(ctx)
		defer e.watcher.Stop()
	}
	err := e.scheduler.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Scan runs one reconciliation scan against the current settings.
func (e *Engine) Scan(ctx context.Context) (*indexing.ScanReport, error) {
	return e.scanner.Scan(ctx, e.settings.Current())
}

// Search ranks indexed files against query.
func (e *Engine) Search(ctx context.Context, query string, maxHits int) ([]*core.SearchResult, error) {
	if maxHits < 1 {
		maxHits = e.cfg.Search.MaxHits
	}
	return e.searcher.SearchWithMonitor(ctx, query, maxHits, metrics.NewSearchMonitor())
}

// Open launches path in its default application.
func (e *Engine) Open(ctx context.Context, path string) error {
	return e.opener.Open(ctx, path)
}

// Settings returns the settings store.
func (e *Engine) Settings() *settings.Store {
	return e.settings
}

// Files returns the file index.
func (e *Engine) Files() storage.FileRepository {
	return e.files
}

// Close stops indexing and releases the index.
func (e *Engine) Close() error {
	if e.pipeline != nil {
		e.pipeline.Release()
		e.pipeline.Wait()
	}
	if e.provider != nil {
		if err := e.provider.Close(); err != nil {
			e.logger.Error("error closing embedding provider", "err", err)
		}
	}
	if e.files != nil {
		if err := e.files.Close(); err != nil {
			e.logger.Error("error closing file index", "err", err)
		}
	}
	if e.backend != nil {
		if err := e.backend.Close(); err != nil {
			e.logger.Error("error closing backend storage", "err", err)
			return err
		}
	}
	return nil
}

// indexSizeMonitor refreshes the index size gauges after each scan.
type indexSizeMonitor struct {
	files  storage.FileRepository
	logger *slog.Logger
}

func (m *indexSizeMonitor) ScanStarted(_ uint64, _ []string) {}
func (m *indexSizeMonitor) RootFailed(_ string, _ error)     {}
func (m *indexSizeMonitor) FileQueued(_ string)              {}
func (m *indexSizeMonitor) FileProcessed(_ indexing.Outcome) {}
func (m *indexSizeMonitor) FileDeleted(_ string)             {}

func (m *indexSizeMonitor) ScanFinished(_ *indexing.ScanReport) {
	total, indexed, err := m.files.Count(context.Background())
	if err != nil {
		m.logger.Warn("failed to count index records", "err", err)
		return
	}
	metrics.UpdateIndexSize(total, indexed)
}
