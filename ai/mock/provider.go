package mock

import "github.com/UBH-Fall-2024/FileSeekr/ai"

// MockProvider is a test double for ai.AIProvider.
type MockProvider struct {
	embedder *MockEmbedder
	version  string
	closed   bool
}

// NewMockProvider creates a new mock provider with a default mock embedder.
//
// Returns ai.AIProvider interface for consistency with production constructors.
// Use GetMockEmbedder() to access the concrete type for test assertions.
func NewMockProvider(dimension int) ai.AIProvider {
	return NewMockProviderWithEmbedder(NewMockEmbedder(dimension), "mock-v1")
}

// NewMockProviderWithEmbedder creates a mock provider with a custom embedder and model version.
func NewMockProviderWithEmbedder(embedder *MockEmbedder, version string) ai.AIProvider {
	return &MockProvider{
		embedder: embedder,
		version:  version,
	}
}

// Embedder returns the mock embedder.
func (p *MockProvider) Embedder() ai.Embedder {
	return p.embedder
}

// Dimension returns the mock embedder's dimension.
func (p *MockProvider) Dimension() int {
	return p.embedder.dimension
}

// ModelVersion returns the configured version string.
func (p *MockProvider) ModelVersion() string {
	return p.version
}

// Close marks the provider closed.
func (p *MockProvider) Close() error {
	p.closed = true
	return nil
}

// Closed reports whether Close was called.
func (p *MockProvider) Closed() bool {
	return p.closed
}

// GetMockEmbedder returns the underlying mock embedder for test assertions.
func (p *MockProvider) GetMockEmbedder() *MockEmbedder {
	return p.embedder
}
