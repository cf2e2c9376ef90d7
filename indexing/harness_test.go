package indexing

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/UBH-Fall-2024/FileSeekr/ai"
	"github.com/UBH-Fall-2024/FileSeekr/ai/mock"
	"github.com/UBH-Fall-2024/FileSeekr/ai/visual"
	"github.com/UBH-Fall-2024/FileSeekr/core"
	"github.com/UBH-Fall-2024/FileSeekr/extract"
	"github.com/UBH-Fall-2024/FileSeekr/storage"
	"github.com/UBH-Fall-2024/FileSeekr/storage/badger"
	"github.com/stretchr/testify/require"
)

const testDim = 16

// Text containing these markers makes the test embedder misbehave.
const (
	poisonMarker = "POISON"
	slowMarker   = "SLOW"
)

type harness struct {
	files    storage.FileRepository
	registry *ai.Registry
	embedder *mock.MockEmbedder
	pipeline *Pipeline
	scanner  *Scanner
}

type harnessConfig struct {
	textVersion string
	jobTimeout  time.Duration
	monitor     ScanMonitor
}

func newHarness(t *testing.T, opts ...func(*harnessConfig)) *harness {
	t.Helper()
	cfg := harnessConfig{textVersion: "mock-v1", jobTimeout: 5 * time.Second}
	for _, opt := range opts {
		opt(&cfg)
	}

	spaces := map[core.SpaceID]int{
		core.SpaceText:   testDim,
		core.SpaceMedia:  testDim,
		core.SpaceVisual: visual.Dimension,
	}
	files, _, backend, err := badger.NewMemoryRepositories(spaces)
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	h := &harness{files: files}
	h.registry, h.embedder = newTestRegistry(t, cfg.textVersion)

	extractor, err := extract.NewExtractor()
	require.NoError(t, err)

	h.pipeline, err = NewPipeline(files, h.registry, extractor, WithPoolSize(4), WithJobTimeout(cfg.jobTimeout))
	require.NoError(t, err)
	t.Cleanup(h.pipeline.Release)

	h.scanner, err = NewScanner(files, h.registry, h.pipeline, WithScanMonitor(cfg.monitor))
	require.NoError(t, err)
	return h
}

func newTestRegistry(t *testing.T, textVersion string) (*ai.Registry, *mock.MockEmbedder) {
	t.Helper()
	embedder := mock.NewMockEmbedder(testDim).WithEmbedTextFunc(func(ctx context.Context, text string) ([]float32, error) {
		if strings.Contains(text, poisonMarker) {
			return nil, errors.New("embedding backend rejected input")
		}
		if strings.Contains(text, slowMarker) {
			<-ctx.Done()
			return nil, ctx.Err()
		}
		return mock.DeterministicVector(text, testDim), nil
	})

	registry := ai.NewRegistry()
	require.NoError(t, registry.RegisterText(ai.Space{
		ID: core.SpaceText, Dimension: testDim, Metric: core.MetricCosine, ModelVersion: textVersion,
	}, embedder))
	require.NoError(t, registry.RegisterText(ai.Space{
		ID: core.SpaceMedia, Dimension: testDim, Metric: core.MetricCosine, ModelVersion: "mock-media-v1",
	}, mock.NewMockEmbedder(testDim)))
	require.NoError(t, registry.RegisterImage(ai.Space{
		ID: core.SpaceVisual, Dimension: visual.Dimension, Metric: core.MetricEuclidean, ModelVersion: visual.ModelVersion,
	}, visual.NewEmbedder()))
	return registry, embedder
}

func settingsFor(roots ...string) *core.Settings {
	s := core.DefaultSettings()
	s.Paths = roots
	return s
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func writePNG(t *testing.T, path string, c color.Color) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func (h *harness) scan(t *testing.T, s *core.Settings) *ScanReport {
	t.Helper()
	report, err := h.scanner.Scan(context.Background(), s)
	require.NoError(t, err)
	return report
}

func (h *harness) record(t *testing.T, path string) *core.FileRecord {
	t.Helper()
	r, err := h.files.Get(context.Background(), path)
	require.NoError(t, err)
	return r
}

func mustExtractor(t *testing.T) *extract.Extractor {
	t.Helper()
	e, err := extract.NewExtractor()
	require.NoError(t, err)
	return e
}

func testSpace(version string) ai.Space {
	return ai.Space{ID: core.SpaceText, Dimension: testDim, Metric: core.MetricCosine, ModelVersion: version}
}
