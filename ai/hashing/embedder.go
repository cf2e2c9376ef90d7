// Package hashing implements a deterministic text embedder based on feature
// hashing. It needs no model download or network access, so it is the default
// for the media space and a fallback for the text space.
package hashing

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"

	"github.com/UBH-Fall-2024/FileSeekr/ai"
)

const (
	// DefaultDimension is the vector length used when none is configured.
	DefaultDimension = 384

	bigramWeight = 0.5
	version      = "hashing-v1"
)

// Embedder maps text to a unit vector by hashing unigrams and bigrams into
// buckets with a sign bit, then damping term frequency logarithmically.
// Output is bit-stable for a given input and dimension.
type Embedder struct {
	dimension int
}

var _ ai.Embedder = (*Embedder)(nil)

// NewEmbedder creates an Embedder producing vectors of length dimension.
func NewEmbedder(dimension int) (*Embedder, error) {
	if dimension < 1 {
		return nil, fmt.Errorf("hashing: invalid dimension %d", dimension)
	}
	return &Embedder{dimension: dimension}, nil
}

// Dimension returns the vector length.
func (e *Embedder) Dimension() int {
	return e.dimension
}

// ModelVersion identifies the algorithm and dimension.
func (e *Embedder) ModelVersion() string {
	return fmt.Sprintf("%s/%d", version, e.dimension)
}

// EmbedText embeds a single text. Text without any token yields a zero vector.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return e.embed(text), nil
}

// EmbedTexts embeds texts in order.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = e.embed(text)
	}
	return out, nil
}

func (e *Embedder) embed(text string) []float32 {
	acc := make([]float64, e.dimension)
	tokens := Tokenize(text)
	for i, tok := range tokens {
		e.add(acc, tok, 1)
		if i > 0 {
			e.add(acc, tokens[i-1]+" "+tok, bigramWeight)
		}
	}

	vec := make([]float32, e.dimension)
	for i, v := range acc {
		switch {
		case v > 0:
			vec[i] = float32(math.Log1p(v))
		case v < 0:
			vec[i] = -float32(math.Log1p(-v))
		}
	}
	return ai.NormalizeVector(vec)
}

func (e *Embedder) add(acc []float64, feature string, weight float64) {
	h := fnv.New64a()
	h.Write([]byte(feature))
	sum := h.Sum64()
	idx := sum % uint64(e.dimension)
	if sum>>63 == 1 {
		weight = -weight
	}
	acc[idx] += weight
}
