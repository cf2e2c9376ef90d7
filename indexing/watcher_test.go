package indexing

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_DebouncedChange(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sub"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".git"), 0o755))

	var calls atomic.Int64
	w, err := NewWatcher(func() { calls.Add(1) }, WithDebounce(100*time.Millisecond))
	require.NoError(t, err)
	defer w.Stop()

	w.SetRoots([]string{root})
	assert.Equal(t, 2, w.WatchedCount(), "root and sub, hidden directories skipped")

	w.Start(context.Background())

	for i := 0; i < 5; i++ {
		writeFile(t, filepath.Join(root, "sub", "burst.txt"), "change")
	}
	require.Eventually(t, func() bool { return calls.Load() == 1 }, 5*time.Second, 20*time.Millisecond)

	// Hidden paths do not trigger.
	writeFile(t, filepath.Join(root, ".git", "HEAD"), "ref")
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, int64(1), calls.Load())
}

func TestWatcher_TracksNewDirectories(t *testing.T) {
	root := t.TempDir()

	var calls atomic.Int64
	w, err := NewWatcher(func() { calls.Add(1) }, WithDebounce(50*time.Millisecond))
	require.NoError(t, err)
	defer w.Stop()

	w.SetRoots([]string{root})
	w.Start(context.Background())

	require.NoError(t, os.MkdirAll(filepath.Join(root, "new"), 0o755))
	require.Eventually(t, func() bool { return w.WatchedCount() == 2 }, 5*time.Second, 20*time.Millisecond)

	w.SetRoots(nil)
	assert.Zero(t, w.WatchedCount())
}

func TestWatcher_MaxWatches(t *testing.T) {
	root := t.TempDir()
	for _, d := range []string{"a", "b", "c"} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, d), 0o755))
	}

	w, err := NewWatcher(func() {}, WithMaxWatches(2))
	require.NoError(t, err)
	defer w.Stop()

	w.SetRoots([]string{root})
	assert.Equal(t, 2, w.WatchedCount())
}

func TestWatcher_StopIdempotent(t *testing.T) {
	w, err := NewWatcher(func() {})
	require.NoError(t, err)
	w.Start(context.Background())
	w.Stop()
	w.Stop()
}
