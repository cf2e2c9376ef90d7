package indexing

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/UBH-Fall-2024/FileSeekr/core"
	"github.com/fsnotify/fsnotify"
)

// ErrWatcherFailed indicates the filesystem watcher failed to initialize.
var ErrWatcherFailed = errors.New("failed to initialize filesystem watcher")

const (
	// DefaultDebounce is how long the watcher waits for events to settle.
	DefaultDebounce = 2 * time.Second
	// DefaultMaxWatches bounds the number of watched directories.
	DefaultMaxWatches = 8192
)

// Watcher reports filesystem changes below the scan roots.
// fsnotify watches single directories, so every non-hidden directory below a
// root is added. Bursts of events are collapsed into one callback.
type Watcher struct {
	watcher    *fsnotify.Watcher
	onChange   func()
	debounce   time.Duration
	maxWatches int
	logger     *slog.Logger

	mu      sync.Mutex
	roots   []string
	watched map[string]struct{}
	started atomic.Bool
	stop    chan struct{}
	done    chan struct{}
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce sets the quiet period before onChange fires.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithMaxWatches bounds the number of watched directories.
func WithMaxWatches(n int) WatcherOption {
	return func(w *Watcher) {
		if n > 0 {
			w.maxWatches = n
		}
	}
}

// WithWatcherLogger sets a custom logger.
func WithWatcherLogger(logger *slog.Logger) WatcherOption {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// NewWatcher creates a watcher that calls onChange after filesystem activity.
func NewWatcher(onChange func(), opts ...WatcherOption) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWatcherFailed, err)
	}
	w := &Watcher{
		watcher:    fw,
		onChange:   onChange,
		debounce:   DefaultDebounce,
		maxWatches: DefaultMaxWatches,
		logger:     slog.Default(),
		watched:    make(map[string]struct{}),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.With("component", "watcher")
	return w, nil
}

// Start begins processing events in a background goroutine.
// Call Stop to release resources.
func (w *Watcher) Start(ctx context.Context) {
	if w.started.Swap(true) {
		return
	}
	go w.processEvents(ctx)
}

// Stop stops the watcher and waits for the event loop to exit.
func (w *Watcher) Stop() {
	select {
	case <-w.stop:
		return
	default:
		close(w.stop)
		_ = w.watcher.Close()
	}
	if w.started.Load() {
		<-w.done
	}
}

// SetRoots replaces the watched trees.
func (w *Watcher) SetRoots(roots []string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for dir := range w.watched {
		_ = w.watcher.Remove(dir)
		delete(w.watched, dir)
	}
	w.roots = append([]string(nil), roots...)
	for _, root := range roots {
		w.addTreeLocked(root)
	}
	w.logger.Debug("watching directories", "roots", len(roots), "dirs", len(w.watched))
}

// WatchedCount returns the number of watched directories.
func (w *Watcher) WatchedCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.watched)
}

func (w *Watcher) addTreeLocked(root string) {
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if path != root && isHidden(d.Name()) {
			return filepath.SkipDir
		}
		if len(w.watched) >= w.maxWatches {
			w.logger.Warn("watch limit reached, relying on periodic scans", "limit", w.maxWatches)
			return filepath.SkipAll
		}
		if err := w.watcher.Add(path); err != nil {
			w.logger.Debug("cannot watch directory", "path", path, "err", err)
			return nil
		}
		w.watched[path] = struct{}{}
		return nil
	})
}

func (w *Watcher) underRootLocked(path string) bool {
	for _, root := range w.roots {
		if core.IsUnder(path, root) {
			return true
		}
	}
	return false
}

func (w *Watcher) processEvents(ctx context.Context) {
	defer close(w.done)

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	pending := false

	for {
		select {
		case <-w.stop:
			timer.Stop()
			return
		case <-ctx.Done():
			timer.Stop()
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.handleEvent(event) {
				continue
			}
			pending = true
			timer.Reset(w.debounce)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", "err", err)
		case <-timer.C:
			if pending {
				pending = false
				w.onChange()
			}
		}
	}
}

// handleEvent tracks new directories and reports whether the event matters.
func (w *Watcher) handleEvent(event fsnotify.Event) bool {
	if isHidden(filepath.Base(event.Name)) {
		return false
	}
	if event.Op == fsnotify.Chmod {
		return false
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.underRootLocked(event.Name) {
		return false
	}
	if event.Has(fsnotify.Create) {
		w.addTreeLocked(event.Name)
	}
	if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		if _, ok := w.watched[event.Name]; ok {
			delete(w.watched, event.Name)
		}
	}
	return true
}
