package fileseekr

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UBH-Fall-2024/FileSeekr/config"
	"github.com/UBH-Fall-2024/FileSeekr/core"
	"github.com/UBH-Fall-2024/FileSeekr/indexing"
	"github.com/UBH-Fall-2024/FileSeekr/opener"
)

func newTestEngine(t *testing.T, opts ...EngineOption) *Engine {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg := config.Default()
	cfg.Storage.InMemory = true
	cfg.Storage.Path = ""
	watch := false
	cfg.Indexing.Watch = &watch
	cfg.Indexing.ScanInterval = 0
	cfg.Embeddings.Dimension = 128
	require.NoError(t, cfg.Validate())

	opts = append([]EngineOption{WithoutExternalTools()}, opts...)
	engine, err := NewEngine(context.Background(), cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { engine.Close() })
	return engine
}

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func TestEngine_IndexAndSearch(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t)
	root := writeTree(t, map[string]string{
		"report.txt": "quarterly revenue up",
		"notes.txt":  "grocery list: milk, eggs",
	})

	_, err := engine.Settings().Save(ctx, &core.Settings{
		Paths:     []string{root},
		FileTypes: core.SelectableFileTypes,
	})
	require.NoError(t, err)

	report, err := engine.Scan(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Indexed)
	assert.Zero(t, report.Failed)

	results, err := engine.Search(ctx, "revenue", 0)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "report.txt", results[0].Filename)
	for i, r := range results {
		assert.GreaterOrEqual(t, r.Similarity, float32(0))
		assert.LessOrEqual(t, r.Similarity, float32(1))
		if i > 0 {
			assert.LessOrEqual(t, r.Similarity, results[i-1].Similarity)
		}
	}
	if len(results) > 1 {
		assert.Greater(t, results[0].Similarity, results[1].Similarity)
	}

	again, err := engine.Scan(ctx)
	require.NoError(t, err)
	assert.Zero(t, again.Mutations())
}

func TestEngine_EmptyQuery(t *testing.T) {
	engine := newTestEngine(t)
	_, err := engine.Search(context.Background(), "   ", 5)
	assert.ErrorIs(t, err, core.ErrEmptyQuery)
}

func TestEngine_Open(t *testing.T) {
	var launched []string
	op := opener.NewWithRunner("linux", func(ctx context.Context, name string, args ...string) ([]byte, error) {
		launched = append(launched, name)
		launched = append(launched, args...)
		return nil, nil
	})
	engine := newTestEngine(t, WithOpener(op))
	root := writeTree(t, map[string]string{"a.txt": "hello"})

	require.NoError(t, engine.Open(context.Background(), filepath.Join(root, "a.txt")))
	assert.Equal(t, []string{"xdg-open", filepath.Join(root, "a.txt")}, launched)

	err := engine.Open(context.Background(), filepath.Join(root, "missing.txt"))
	assert.ErrorIs(t, err, core.ErrNotFound)
}

type reportCollector struct {
	reports chan *indexing.ScanReport
}

func (c *reportCollector) ScanStarted(_ uint64, _ []string) {}
func (c *reportCollector) RootFailed(_ string, _ error)     {}
func (c *reportCollector) FileQueued(_ string)              {}
func (c *reportCollector) FileProcessed(_ indexing.Outcome) {}
func (c *reportCollector) FileDeleted(_ string)             {}

func (c *reportCollector) ScanFinished(r *indexing.ScanReport) {
	select {
	case c.reports <- r:
	default:
	}
}

func TestEngine_RunRescansOnSettingsChange(t *testing.T) {
	collector := &reportCollector{reports: make(chan *indexing.ScanReport, 8)}
	engine := newTestEngine(t, WithScanMonitor(collector))
	root := writeTree(t, map[string]string{"doc.txt": "semantic search"})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- engine.Run(ctx) }()

	select {
	case <-collector.reports:
	case <-time.After(10 * time.Second):
		t.Fatal("initial scan did not finish")
	}

	_, err := engine.Settings().Save(context.Background(), &core.Settings{
		Paths:     []string{root},
		FileTypes: core.SelectableFileTypes,
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		select {
		case r := <-collector.reports:
			return r.Indexed == 1
		default:
			return false
		}
	}, 10*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
