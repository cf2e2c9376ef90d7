package ai

import (
	"context"
	"fmt"
	"image"
	"sync"

	"github.com/UBH-Fall-2024/FileSeekr/core"
)

// Space describes an embedding space. Dimension, Metric and ModelVersion are
// fixed for the lifetime of the stored vectors; changing ModelVersion causes
// every record of the space to be re-embedded on the next scan.
type Space struct {
	ID           core.SpaceID
	Dimension    int
	Metric       core.Metric
	ModelVersion string
}

// Check verifies that vec belongs to the space.
func (s Space) Check(vec []float32) error {
	if len(vec) == 0 {
		return fmt.Errorf("%w: space %s", ErrEmptyEmbedding, s.ID)
	}
	if len(vec) != s.Dimension {
		return fmt.Errorf("%w: space %s expects %d, got %d", core.ErrDimensionMismatch, s.ID, s.Dimension, len(vec))
	}
	return nil
}

// Binding ties a Space to the embedder producing its vectors.
// Exactly one of Text and Image is set.
type Binding struct {
	Space Space
	Text  Embedder
	Image ImageEmbedder
}

// TextQueryable reports whether a free-text query can be embedded into the space.
func (b *Binding) TextQueryable() bool {
	return b.Text != nil
}

// Registry records which embedder produces each space.
// It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	bindings map[core.SpaceID]*Binding
	order    []core.SpaceID
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{bindings: make(map[core.SpaceID]*Binding)}
}

// RegisterText binds a text embedder to space.
func (r *Registry) RegisterText(space Space, embedder Embedder) error {
	if embedder == nil {
		return fmt.Errorf("%w: nil embedder for space %s", core.ErrValidation, space.ID)
	}
	return r.register(&Binding{Space: space, Text: embedder})
}

// RegisterImage binds an image embedder to space.
func (r *Registry) RegisterImage(space Space, embedder ImageEmbedder) error {
	if embedder == nil {
		return fmt.Errorf("%w: nil embedder for space %s", core.ErrValidation, space.ID)
	}
	return r.register(&Binding{Space: space, Image: embedder})
}

func (r *Registry) register(b *Binding) error {
	if b.Space.ID == "" || b.Space.Dimension < 1 {
		return fmt.Errorf("%w: invalid space %+v", core.ErrValidation, b.Space)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bindings[b.Space.ID]; ok {
		return fmt.Errorf("%w: %s", ErrSpaceExists, b.Space.ID)
	}
	r.bindings[b.Space.ID] = b
	r.order = append(r.order, b.Space.ID)
	return nil
}

// Lookup returns the binding for id.
func (r *Registry) Lookup(id core.SpaceID) (*Binding, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.bindings[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSpace, id)
	}
	return b, nil
}

// Spaces returns all registered spaces in registration order.
func (r *Registry) Spaces() []Space {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Space, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.bindings[id].Space)
	}
	return out
}

// TextSpaces returns the spaces a free-text query can be embedded into.
func (r *Registry) TextSpaces() []Space {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Space
	for _, id := range r.order {
		if b := r.bindings[id]; b.TextQueryable() {
			out = append(out, b.Space)
		}
	}
	return out
}

// Dimensions maps every registered space to its dimension.
func (r *Registry) Dimensions() map[core.SpaceID]int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	dims := make(map[core.SpaceID]int, len(r.bindings))
	for id, b := range r.bindings {
		dims[id] = b.Space.Dimension
	}
	return dims
}

// EmbedText embeds text into space id and checks the result against the space.
func (r *Registry) EmbedText(ctx context.Context, id core.SpaceID, text string) ([]float32, error) {
	b, err := r.Lookup(id)
	if err != nil {
		return nil, err
	}
	if b.Text == nil {
		return nil, fmt.Errorf("%w: %s is not a text space", ErrWrongModality, id)
	}
	vec, err := b.Text.EmbedText(ctx, text)
	if err != nil {
		return nil, err
	}
	if err := b.Space.Check(vec); err != nil {
		return nil, err
	}
	return vec, nil
}

// EmbedImage embeds img into space id and checks the result against the space.
func (r *Registry) EmbedImage(ctx context.Context, id core.SpaceID, img image.Image) ([]float32, error) {
	b, err := r.Lookup(id)
	if err != nil {
		return nil, err
	}
	if b.Image == nil {
		return nil, fmt.Errorf("%w: %s is not an image space", ErrWrongModality, id)
	}
	vec, err := b.Image.EmbedImage(ctx, img)
	if err != nil {
		return nil, err
	}
	if err := b.Space.Check(vec); err != nil {
		return nil, err
	}
	return vec, nil
}
