package hashing

import (
	"github.com/UBH-Fall-2024/FileSeekr/ai"
)

// Provider implements ai.AIProvider with a hashing Embedder.
type Provider struct {
	embedder *Embedder
}

// NewProvider creates a provider whose vectors have the given dimension.
//
// Returns ai.AIProvider interface to enforce abstraction.
func NewProvider(dimension int) (ai.AIProvider, error) {
	embedder, err := NewEmbedder(dimension)
	if err != nil {
		return nil, err
	}
	return &Provider{embedder: embedder}, nil
}

// Embedder returns the hashing embedder.
func (p *Provider) Embedder() ai.Embedder {
	return p.embedder
}

// Dimension returns the vector length.
func (p *Provider) Dimension() int {
	return p.embedder.Dimension()
}

// ModelVersion returns the embedder's version string.
func (p *Provider) ModelVersion() string {
	return p.embedder.ModelVersion()
}

// Close is a no-op.
func (p *Provider) Close() error {
	return nil
}
