package openai

import (
	"fmt"
	"log/slog"

	"github.com/UBH-Fall-2024/FileSeekr/ai"
)

// Provider implements ai.AIProvider using OpenAI-compatible services.
type Provider struct {
	config   *ai.Config
	embedder ai.Embedder
	logger   *slog.Logger
}

// NewProvider creates a new AI provider with an OpenAI-compatible embedder.
// The config is validated and normalized before use.
//
// Returns ai.AIProvider interface (not *Provider) to enforce abstraction
// and prevent coupling to OpenAI-specific implementation details.
func NewProvider(config *ai.Config) (ai.AIProvider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	embedder, err := newEmbedder(config)
	if err != nil {
		return nil, err
	}

	return &Provider{
		config:   config,
		embedder: ai.WithRetry(embedder, config.MaxAttempts, config.RetryDelay),
		logger:   slog.Default().With("component", "openai-provider"),
	}, nil
}

// Embedder returns the text embedding service.
func (p *Provider) Embedder() ai.Embedder {
	return p.embedder
}

// Dimension returns the configured model dimension.
func (p *Provider) Dimension() int {
	return p.config.Dimension
}

// ModelVersion combines host and model, since the same model name may differ between servers.
func (p *Provider) ModelVersion() string {
	return fmt.Sprintf("openai:%s@%s/%d", p.config.EmbeddingModel, p.config.EmbeddingHost, p.config.Dimension)
}

// Close releases resources held by the provider.
// Currently a no-op as the underlying clients don't require explicit cleanup.
func (p *Provider) Close() error {
	p.logger.Debug("closing OpenAI provider")
	return nil
}
