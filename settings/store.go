package settings

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/UBH-Fall-2024/FileSeekr/core"
	"github.com/UBH-Fall-2024/FileSeekr/storage"
)

// Store holds the current settings snapshot and persists changes.
// Readers never block writers; Save is serialized.
type Store struct {
	repo    storage.SettingsRepository
	current atomic.Pointer[core.Settings]
	saveMu  sync.Mutex
	subsMu  sync.Mutex
	subs    map[chan uint64]struct{}
	logger  *slog.Logger
}

// Option configures a Store.
type Option func(*Store) error

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) error {
		s.logger = logger
		return nil
	}
}

// NewStore loads persisted settings, falling back to defaults on first run.
func NewStore(ctx context.Context, repo storage.SettingsRepository, opts ...Option) (*Store, error) {
	s := &Store{
		repo: repo,
		subs: make(map[chan uint64]struct{}),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.logger = s.logger.With("component", "settings")

	loaded, err := repo.LoadSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}
	if loaded == nil {
		loaded = core.DefaultSettings()
	} else if err := core.ValidateSettings(loaded); err != nil {
		s.logger.Warn("stored settings are invalid, using defaults", "err", err)
		loaded = core.DefaultSettings()
	}
	s.current.Store(loaded)
	return s, nil
}

// Current returns a copy of the current snapshot.
func (s *Store) Current() *core.Settings {
	return s.current.Load().Clone()
}

// Version returns the version of the current snapshot.
func (s *Store) Version() uint64 {
	return s.current.Load().Version
}

// Save validates next, persists it and makes it current. On any error the
// current snapshot is unchanged. The returned snapshot carries the new version.
func (s *Store) Save(ctx context.Context, next *core.Settings) (*core.Settings, error) {
	if err := core.ValidateSettings(next); err != nil {
		return nil, err
	}

	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	prev := s.current.Load()
	snapshot := normalize(next)
	snapshot.Version = prev.Version + 1

	if err := s.repo.SaveSettings(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("saving settings: %w", err)
	}
	s.current.Store(snapshot)
	s.logger.Info("settings saved",
		"version", snapshot.Version,
		"paths", len(snapshot.Paths),
		"fileTypes", len(snapshot.FileTypes),
		"ocr", snapshot.OCREnabled)

	s.notify(snapshot.Version)
	return snapshot.Clone(), nil
}

// Subscribe returns a channel that receives the version after every successful
// Save, and a function that cancels the subscription. Notifications are
// coalesced; a slow reader sees only the latest version.
func (s *Store) Subscribe() (<-chan uint64, func()) {
	ch := make(chan uint64, 1)
	s.subsMu.Lock()
	s.subs[ch] = struct{}{}
	s.subsMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subsMu.Lock()
			delete(s.subs, ch)
			s.subsMu.Unlock()
			close(ch)
		})
	}
}

func (s *Store) notify(version uint64) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	for ch := range s.subs {
		select {
		case ch <- version:
		default:
			// Replace the pending notification with the newer one.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- version:
			default:
			}
		}
	}
}

// normalize returns a copy with cleaned paths and sorted, unique file types.
func normalize(in *core.Settings) *core.Settings {
	out := in.Clone()
	for i, p := range out.Paths {
		out.Paths[i] = core.CleanSettingsPath(p)
	}
	if out.Paths == nil {
		out.Paths = []string{}
	}
	slices.Sort(out.FileTypes)
	out.FileTypes = slices.Compact(out.FileTypes)
	slices.Sort(out.CloudServices)
	out.CloudServices = slices.Compact(out.CloudServices)
	return out
}
