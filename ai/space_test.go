package ai

import (
	"context"
	"image"
	"testing"

	"github.com/UBH-Fall-2024/FileSeekr/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedEmbedder struct{ vec []float32 }

func (f fixedEmbedder) EmbedText(context.Context, string) ([]float32, error) { return f.vec, nil }

func (f fixedEmbedder) EmbedTexts(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = f.vec
	}
	return out, nil
}

type fixedImageEmbedder struct{ vec []float32 }

func (f fixedImageEmbedder) EmbedImage(context.Context, image.Image) ([]float32, error) {
	return f.vec, nil
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	textSpace := Space{ID: core.SpaceText, Dimension: 2, Metric: core.MetricCosine, ModelVersion: "t1"}
	visualSpace := Space{ID: core.SpaceVisual, Dimension: 3, Metric: core.MetricEuclidean, ModelVersion: "v1"}

	require.NoError(t, r.RegisterText(textSpace, fixedEmbedder{vec: []float32{1, 0}}))
	require.NoError(t, r.RegisterImage(visualSpace, fixedImageEmbedder{vec: []float32{1, 0}}))

	err := r.RegisterText(textSpace, fixedEmbedder{})
	assert.ErrorIs(t, err, ErrSpaceExists)

	assert.Equal(t, []Space{textSpace, visualSpace}, r.Spaces())
	assert.Equal(t, []Space{textSpace}, r.TextSpaces())
	assert.Equal(t, map[core.SpaceID]int{core.SpaceText: 2, core.SpaceVisual: 3}, r.Dimensions())

	ctx := context.Background()
	vec, err := r.EmbedText(ctx, core.SpaceText, "hello")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0}, vec)

	_, err = r.EmbedText(ctx, core.SpaceVisual, "hello")
	assert.ErrorIs(t, err, ErrWrongModality)

	_, err = r.EmbedImage(ctx, core.SpaceVisual, image.NewGray(image.Rect(0, 0, 1, 1)))
	assert.ErrorIs(t, err, core.ErrDimensionMismatch)

	_, err = r.EmbedText(ctx, core.SpaceMedia, "hello")
	assert.ErrorIs(t, err, ErrUnknownSpace)
}
