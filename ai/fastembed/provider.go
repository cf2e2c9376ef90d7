//go:build cgo

package fastembed

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/UBH-Fall-2024/FileSeekr/ai"
	fastembed "github.com/anush008/fastembed-go"
)

// batchSize is the number of passages embedded per ONNX run.
const batchSize = 256

var modelMapping = map[string]fastembed.EmbeddingModel{
	"BAAI/bge-small-en-v1.5":                 fastembed.BGESmallENV15,
	"BAAI/bge-small-en":                      fastembed.BGESmallEN,
	"BAAI/bge-base-en-v1.5":                  fastembed.BGEBaseENV15,
	"BAAI/bge-base-en":                       fastembed.BGEBaseEN,
	"sentence-transformers/all-MiniLM-L6-v2": fastembed.AllMiniLML6V2,
	"fast-bge-small-en-v1.5":                 fastembed.BGESmallENV15,
	"fast-bge-small-en":                      fastembed.BGESmallEN,
	"fast-bge-base-en-v1.5":                  fastembed.BGEBaseENV15,
	"fast-bge-base-en":                       fastembed.BGEBaseEN,
	"fast-all-MiniLM-L6-v2":                  fastembed.AllMiniLML6V2,
}

// Provider implements ai.AIProvider with a local fastembed model.
// Passages are embedded with the passage prefix, and single texts (queries)
// with the query prefix, as recommended for BGE models.
type Provider struct {
	mu        sync.RWMutex
	model     *fastembed.FlagEmbedding
	name      string
	dimension int
	logger    *slog.Logger
}

var _ ai.Embedder = (*Provider)(nil)

// NewProvider loads the configured model, downloading it to config.CacheDir if needed.
//
// Returns ai.AIProvider interface to enforce abstraction.
func NewProvider(config *ai.Config) (ai.AIProvider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	model, ok := modelMapping[config.EmbeddingModel]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedModel, config.EmbeddingModel)
	}
	dimension := modelDimensions[config.EmbeddingModel]

	cacheDir := config.CacheDir
	if cacheDir == "" {
		cacheDir = filepath.Join(".", "local_cache")
	}
	showProgress := false

	flagEmbed, err := fastembed.NewFlagEmbedding(&fastembed.InitOptions{
		Model:                model,
		CacheDir:             cacheDir,
		MaxLength:            512,
		ShowDownloadProgress: &showProgress,
	})
	if err != nil {
		return nil, fmt.Errorf("initializing fastembed: %w", err)
	}

	return &Provider{
		model:     flagEmbed,
		name:      config.EmbeddingModel,
		dimension: dimension,
		logger:    slog.Default().With("component", "fastembed"),
	}, nil
}

// Embedder returns the provider itself.
func (p *Provider) Embedder() ai.Embedder {
	return p
}

// Dimension returns the model dimension.
func (p *Provider) Dimension() int {
	return p.dimension
}

// ModelVersion returns the model name.
func (p *Provider) ModelVersion() string {
	return "fastembed:" + p.name
}

// EmbedText embeds a query.
func (p *Provider) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.RLock()
	defer p.mu.RUnlock()

	vec, err := p.model.QueryEmbed(text)
	if err != nil {
		return nil, fmt.Errorf("fastembed: %w", err)
	}
	return ai.NormalizeVector(vec), nil
}

// EmbedTexts embeds passages.
func (p *Provider) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.RLock()
	defer p.mu.RUnlock()

	p.logger.Debug("embedding passages", "count", len(texts))
	vectors, err := p.model.PassageEmbed(texts, batchSize)
	if err != nil {
		return nil, fmt.Errorf("fastembed: %w", err)
	}
	for i, v := range vectors {
		vectors[i] = ai.NormalizeVector(v)
	}
	return vectors, nil
}

// Close releases the ONNX session.
func (p *Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.model == nil {
		return nil
	}
	err := p.model.Destroy()
	p.model = nil
	return err
}
