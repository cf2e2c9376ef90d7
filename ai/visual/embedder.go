// Package visual implements a perceptual image embedder. Images are reduced
// to a small color layout plus a coarse color histogram, so near-duplicates
// and visually similar pictures land close to each other under Euclidean
// distance.
package visual

import (
	"context"
	"image"
	"image/color"
	"math"

	"github.com/UBH-Fall-2024/FileSeekr/ai"
	"golang.org/x/image/draw"
)

const (
	gridSize      = 8
	histBins      = 4 // per channel
	layoutDims    = gridSize * gridSize * 3
	histogramDims = histBins * histBins * histBins

	// Dimension is the length of every visual embedding.
	Dimension = layoutDims + histogramDims

	// ModelVersion identifies the embedding algorithm.
	ModelVersion = "visual-v1"

	// partWeight gives layout and histogram equal weight in a unit vector.
	partWeight = 1 / math.Sqrt2
)

// Embedder implements ai.ImageEmbedder.
type Embedder struct{}

var _ ai.ImageEmbedder = (*Embedder)(nil)

// NewEmbedder creates a visual embedder.
func NewEmbedder() *Embedder {
	return &Embedder{}
}

// EmbedImage returns a unit-length vector describing img.
func (e *Embedder) EmbedImage(ctx context.Context, img image.Image) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	small := image.NewRGBA(image.Rect(0, 0, gridSize, gridSize))
	draw.ApproxBiLinear.Scale(small, small.Bounds(), img, img.Bounds(), draw.Src, nil)

	vec := make([]float32, Dimension)

	// Color layout, centered so that overall brightness does not dominate.
	var mean float64
	for y := 0; y < gridSize; y++ {
		for x := 0; x < gridSize; x++ {
			r, g, b := rgb(small.RGBAAt(x, y))
			i := (y*gridSize + x) * 3
			vec[i], vec[i+1], vec[i+2] = float32(r), float32(g), float32(b)
			mean += r + g + b
		}
	}
	mean /= layoutDims
	for i := 0; i < layoutDims; i++ {
		vec[i] -= float32(mean)
	}
	layout := ai.NormalizeVector(vec[:layoutDims])

	// Histogram over the full image, sampled on a bounded grid.
	hist := histogram(img)

	copy(vec, scale(layout, partWeight))
	copy(vec[layoutDims:], scale(hist, partWeight))
	return ai.NormalizeVector(vec), nil
}

func histogram(img image.Image) []float32 {
	hist := make([]float32, histogramDims)
	b := img.Bounds()
	stepX := max(1, b.Dx()/64)
	stepY := max(1, b.Dy()/64)
	for y := b.Min.Y; y < b.Max.Y; y += stepY {
		for x := b.Min.X; x < b.Max.X; x += stepX {
			r, g, bl := rgb(color.RGBAModel.Convert(img.At(x, y)).(color.RGBA))
			ri := bin(r)
			gi := bin(g)
			bi := bin(bl)
			hist[(ri*histBins+gi)*histBins+bi]++
		}
	}
	return ai.NormalizeVector(hist)
}

func rgb(c color.RGBA) (r, g, b float64) {
	return float64(c.R) / 255, float64(c.G) / 255, float64(c.B) / 255
}

func bin(v float64) int {
	i := int(v * histBins)
	if i >= histBins {
		i = histBins - 1
	}
	return i
}

func scale(v []float32, f float64) []float32 {
	out := make([]float32, len(v))
	for i := range v {
		out[i] = float32(float64(v[i]) * f)
	}
	return out
}
