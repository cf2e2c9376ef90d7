package mock

import (
	"context"
	"fmt"
	"hash/fnv"
	"image"
	"sync"
	"sync/atomic"

	"github.com/UBH-Fall-2024/FileSeekr/ai"
)

// MockEmbedder is a test double for ai.Embedder.
// It allows custom behavior injection via function fields.
type MockEmbedder struct {
	mu             sync.RWMutex
	embedTextFunc  func(ctx context.Context, text string) ([]float32, error)
	embedTextsFunc func(ctx context.Context, texts []string) ([][]float32, error)

	dimension int
	callCount atomic.Int64
}

var _ ai.Embedder = (*MockEmbedder)(nil)

// NewMockEmbedder creates a mock embedder with default deterministic behavior.
// Note: Returns concrete type to allow test assertions.
func NewMockEmbedder(dimension int) *MockEmbedder {
	return &MockEmbedder{dimension: dimension}
}

// WithEmbedTextFunc overrides EmbedText.
func (m *MockEmbedder) WithEmbedTextFunc(fn func(ctx context.Context, text string) ([]float32, error)) *MockEmbedder {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.embedTextFunc = fn
	return m
}

// WithEmbedTextsFunc overrides EmbedTexts.
func (m *MockEmbedder) WithEmbedTextsFunc(fn func(ctx context.Context, texts []string) ([][]float32, error)) *MockEmbedder {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.embedTextsFunc = fn
	return m
}

// EmbedText generates a deterministic embedding based on text hash.
func (m *MockEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	m.callCount.Add(1)

	m.mu.RLock()
	fn := m.embedTextFunc
	m.mu.RUnlock()
	if fn != nil {
		return fn(ctx, text)
	}

	return DeterministicVector(text, m.dimension), nil
}

// EmbedTexts generates deterministic embeddings for multiple texts.
func (m *MockEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	m.callCount.Add(1)

	m.mu.RLock()
	fn := m.embedTextsFunc
	m.mu.RUnlock()
	if fn != nil {
		return fn(ctx, texts)
	}

	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		embeddings[i] = DeterministicVector(text, m.dimension)
	}
	return embeddings, nil
}

// CallCount returns the number of times any method was called.
func (m *MockEmbedder) CallCount() int {
	return int(m.callCount.Load())
}

// Reset clears the call count and injected behavior.
func (m *MockEmbedder) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount.Store(0)
	m.embedTextFunc = nil
	m.embedTextsFunc = nil
}

// MockImageEmbedder is a test double for ai.ImageEmbedder.
type MockImageEmbedder struct {
	mu             sync.RWMutex
	embedImageFunc func(ctx context.Context, img image.Image) ([]float32, error)

	dimension int
	callCount atomic.Int64
}

var _ ai.ImageEmbedder = (*MockImageEmbedder)(nil)

// NewMockImageEmbedder creates a mock image embedder.
func NewMockImageEmbedder(dimension int) *MockImageEmbedder {
	return &MockImageEmbedder{dimension: dimension}
}

// WithEmbedImageFunc overrides EmbedImage.
func (m *MockImageEmbedder) WithEmbedImageFunc(fn func(ctx context.Context, img image.Image) ([]float32, error)) *MockImageEmbedder {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.embedImageFunc = fn
	return m
}

// EmbedImage returns a vector derived from the image bounds and corner pixels.
func (m *MockImageEmbedder) EmbedImage(ctx context.Context, img image.Image) ([]float32, error) {
	m.callCount.Add(1)

	m.mu.RLock()
	fn := m.embedImageFunc
	m.mu.RUnlock()
	if fn != nil {
		return fn(ctx, img)
	}

	b := img.Bounds()
	r, g, bl, _ := img.At(b.Min.X, b.Min.Y).RGBA()
	return DeterministicVector(fmt.Sprintf("%v:%d:%d:%d", b, r, g, bl), m.dimension), nil
}

// CallCount returns the number of EmbedImage calls.
func (m *MockImageEmbedder) CallCount() int {
	return int(m.callCount.Load())
}

// DeterministicVector creates a unit vector from text.
// It uses FNV hash to ensure the same text always produces the same vector.
func DeterministicVector(text string, dim int) []float32 {
	h := fnv.New32a()
	h.Write([]byte(text))
	seed := h.Sum32()

	vector := make([]float32, dim)
	for i := 0; i < dim; i++ {
		seed = seed*1664525 + 1013904223 // LCG constants
		vector[i] = float32(seed%1000)/1000.0 + 0.001
	}

	return ai.NormalizeVector(vector)
}
