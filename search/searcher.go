package search

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/UBH-Fall-2024/FileSeekr/ai"
	"github.com/UBH-Fall-2024/FileSeekr/core"
	"github.com/UBH-Fall-2024/FileSeekr/storage"
	"golang.org/x/sync/errgroup"
)

// DefaultMaxHits is used when a caller asks for zero or fewer results.
const DefaultMaxHits = 10

// SettingsSource supplies the current settings snapshot.
type SettingsSource interface {
	Current() *core.Settings
}

// Searcher ranks indexed files against a text query.
type Searcher struct {
	files    storage.FileRepository
	registry *ai.Registry
	settings SettingsSource
	logger   *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithSettings makes the searcher omit file types disabled in the current settings.
func WithSettings(src SettingsSource) Option {
	return func(s *Searcher) error {
		s.settings = src
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(files storage.FileRepository, registry *ai.Registry, opts ...Option) (*Searcher, error) {
	if files == nil {
		return nil, ErrFileRepositoryRequired
	}
	if registry == nil {
		return nil, ErrRegistryRequired
	}

	s := &Searcher{
		files:    files,
		registry: registry,
		logger:   slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Search returns up to maxHits files ranked by similarity to query.
// Only an empty query is reported as an error; any other failure yields an
// empty result.
func (s *Searcher) Search(ctx context.Context, query string, maxHits int) ([]*core.SearchResult, error) {
	return s.SearchWithMonitor(ctx, query, maxHits, nil)
}

// SearchWithMonitor is Search with callbacks at each stage.
func (s *Searcher) SearchWithMonitor(ctx context.Context, query string, maxHits int, monitor SearchMonitor) ([]*core.SearchResult, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	if err := core.ValidateQuery(query); err != nil {
		return nil, err
	}
	if maxHits < 1 {
		maxHits = DefaultMaxHits
	}

	monitor.Start(query)

	var enabled func(core.FileType) bool
	k := maxHits
	if s.settings != nil {
		snapshot := s.settings.Current()
		enabled = snapshot.FileTypeEnabled
		if len(snapshot.FileTypes) < len(core.SelectableFileTypes) {
			// Filtered hits would otherwise leave fewer than maxHits.
			k = maxHits * 2
		}
	}

	hits, err := s.collect(ctx, query, k, monitor)
	if err != nil {
		s.logger.Error("search failed", "query", query, "err", err)
		monitor.Failed(err)
		results := []*core.SearchResult{}
		monitor.Finish(results)
		return results, nil
	}

	results := rank(hits, enabled, maxHits)
	monitor.Finish(results)
	return results, nil
}

// spaceHit is a hit tagged with the space that produced it.
type spaceHit struct {
	space core.SpaceID
	hit   core.Hit
}

// collect queries every text space concurrently.
func (s *Searcher) collect(ctx context.Context, query string, k int, monitor SearchMonitor) ([]spaceHit, error) {
	spaces := s.registry.TextSpaces()
	if len(spaces) == 0 {
		return nil, fmt.Errorf("%w: no text spaces registered", ai.ErrUnknownSpace)
	}

	var (
		mu  sync.Mutex
		all []spaceHit
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, space := range spaces {
		g.Go(func() error {
			vec, err := s.registry.EmbedText(gctx, space.ID, query)
			if err != nil {
				return fmt.Errorf("embedding query for %s: %w", space.ID, err)
			}
			monitor.AfterEmbedding(space.ID)

			hits, err := s.files.Query(gctx, space.ID, space.Metric, vec, k)
			if err != nil {
				return fmt.Errorf("%w: querying %s: %w", core.ErrIndexUnavailable, space.ID, err)
			}
			monitor.AfterSpaceQuery(space.ID, hits)

			mu.Lock()
			for _, h := range hits {
				all = append(all, spaceHit{space: space.ID, hit: h})
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return all, nil
}

// rank filters, orders and truncates hits. Higher similarity first; ties go to
// the more recently indexed file, then to path order.
func rank(hits []spaceHit, enabled func(core.FileType) bool, maxHits int) []*core.SearchResult {
	results := make([]*core.SearchResult, 0, min(len(hits), maxHits))
	for _, sh := range hits {
		r := sh.hit.Record
		if r == nil || r.Status != core.StatusIndexed {
			continue
		}
		if enabled != nil && !enabled(r.FileType) {
			continue
		}
		results = append(results, &core.SearchResult{
			Similarity: clamp01(sh.hit.Similarity),
			Filename:   r.Filename(),
			FileType:   r.FileType,
			SizeBytes:  r.SizeBytes,
			Thumbnail:  r.Thumbnail,
			Path:       r.Path,
			Space:      sh.space,
			IndexedAt:  r.IndexedAt,
		})
	}

	slices.SortFunc(results, func(a, b *core.SearchResult) int {
		if c := cmp.Compare(b.Similarity, a.Similarity); c != 0 {
			return c
		}
		if c := b.IndexedAt.Compare(a.IndexedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.Path, b.Path)
	})

	if len(results) > maxHits {
		results = results[:maxHits]
	}
	return results
}

func clamp01(v float32) float32 {
	return max(0, min(1, v))
}
