package indexing

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/UBH-Fall-2024/FileSeekr/ai"
	"github.com/UBH-Fall-2024/FileSeekr/ai/mock"
	"github.com/UBH-Fall-2024/FileSeekr/core"
	"github.com/UBH-Fall-2024/FileSeekr/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jobFor(t *testing.T, root, path string) Job {
	t.Helper()
	info, err := os.Stat(path)
	require.NoError(t, err)
	return Job{
		Path:      path,
		Root:      root,
		FileType:  core.FileTypeDocument,
		SizeBytes: info.Size(),
		ModTime:   info.ModTime().UTC().Truncate(time.Microsecond),
	}
}

func TestNewPipeline_RequiresDependencies(t *testing.T) {
	h := newHarness(t)

	_, err := NewPipeline(nil, h.registry, mustExtractor(t))
	assert.ErrorIs(t, err, ErrFileRepositoryRequired)
	_, err = NewPipeline(h.files, nil, mustExtractor(t))
	assert.ErrorIs(t, err, ErrRegistryRequired)
	_, err = NewPipeline(h.files, ai.NewRegistry(), nil)
	assert.ErrorIs(t, err, ErrExtractorRequired)
	_, err = NewPipeline(h.files, h.registry, mustExtractor(t), WithJobTimeout(0))
	assert.Error(t, err)
}

func TestPipeline_OneJobPerPath(t *testing.T) {
	h := newHarness(t)
	root := t.TempDir()
	path := filepath.Join(root, "slow.txt")
	writeFile(t, path, "SLOW content")

	outcomes := make(chan Outcome, 2)
	accepted, err := h.pipeline.Submit(jobFor(t, root, path), func(o Outcome) { outcomes <- o })
	require.NoError(t, err)
	require.True(t, accepted)
	assert.True(t, h.pipeline.InFlight(path))

	accepted, err = h.pipeline.Submit(jobFor(t, root, path), func(o Outcome) { outcomes <- o })
	require.NoError(t, err)
	assert.False(t, accepted, "second job for an in-flight path is refused")

	h.pipeline.RetainRoots(nil)
	select {
	case o := <-outcomes:
		assert.True(t, o.Discarded)
		assert.False(t, o.Written)
	case <-time.After(5 * time.Second):
		t.Fatal("job did not finish after its root was removed")
	}

	h.pipeline.Wait()
	assert.Eventually(t, func() bool { return !h.pipeline.InFlight(path) }, 5*time.Second, 10*time.Millisecond)
	_, err = h.files.Get(context.Background(), path)
	assert.ErrorIs(t, err, storage.ErrNotFound, "canceled job must not write")
}

func TestPipeline_TimedOutExtractionKeepsPathBusy(t *testing.T) {
	h := newHarness(t, func(c *harnessConfig) { c.jobTimeout = 50 * time.Millisecond })
	root := t.TempDir()
	path := filepath.Join(root, "stuck.txt")
	writeFile(t, path, "never finishes")

	// An embedder that ignores its context, like a wedged external tool.
	unblock := make(chan struct{})
	h.embedder.WithEmbedTextFunc(func(_ context.Context, text string) ([]float32, error) {
		<-unblock
		return mock.DeterministicVector(text, testDim), nil
	})

	done := make(chan Outcome, 1)
	accepted, err := h.pipeline.Submit(jobFor(t, root, path), func(o Outcome) { done <- o })
	require.NoError(t, err)
	require.True(t, accepted)

	select {
	case o := <-done:
		assert.Equal(t, ReasonTimeout, o.Reason)
	case <-time.After(5 * time.Second):
		t.Fatal("job did not time out")
	}
	h.pipeline.Wait()

	assert.True(t, h.pipeline.InFlight(path), "path stays busy while extraction drains")
	accepted, err = h.pipeline.Submit(jobFor(t, root, path), nil)
	require.NoError(t, err)
	assert.False(t, accepted, "no second extraction while the first is running")

	close(unblock)
	assert.Eventually(t, func() bool { return !h.pipeline.InFlight(path) }, 5*time.Second, 10*time.Millisecond)
}

func TestPipeline_RefusesJobsUnderRemovedRoot(t *testing.T) {
	h := newHarness(t)
	kept := t.TempDir()
	removed := t.TempDir()
	path := filepath.Join(removed, "late.txt")
	writeFile(t, path, "queued after its root was dropped")

	h.pipeline.RetainRoots([]string{kept})

	var outcome Outcome
	accepted, err := h.pipeline.Submit(jobFor(t, removed, path), func(o Outcome) { outcome = o })
	require.NoError(t, err)
	require.True(t, accepted)
	assert.True(t, outcome.Discarded)
	assert.False(t, h.pipeline.InFlight(path))

	_, err = h.files.Get(context.Background(), path)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestPipeline_WritesIndexedRecord(t *testing.T) {
	h := newHarness(t)
	root := t.TempDir()
	path := filepath.Join(root, "a.txt")
	writeFile(t, path, "hello world")

	done := make(chan Outcome, 1)
	accepted, err := h.pipeline.Submit(jobFor(t, root, path), func(o Outcome) { done <- o })
	require.NoError(t, err)
	require.True(t, accepted)

	o := <-done
	assert.True(t, o.Written)
	assert.Equal(t, core.StatusIndexed, o.Status)

	rec := h.record(t, path)
	assert.Equal(t, core.HashBytes([]byte("hello world")), rec.ContentHash)
	assert.Equal(t, "icon:document", rec.Thumbnail)
}

func TestPipeline_SubmitAfterRelease(t *testing.T) {
	h := newHarness(t)
	h.pipeline.Release()

	_, err := h.pipeline.Submit(Job{Path: "/x/a.txt"}, nil)
	assert.ErrorIs(t, err, ErrPipelineReleased)
}

func TestFailureReason(t *testing.T) {
	assert.Equal(t, ReasonTimeout, failureReason(context.DeadlineExceeded))
	assert.Equal(t, ReasonEmbeddingFailure, failureReason(assert.AnError))
}
