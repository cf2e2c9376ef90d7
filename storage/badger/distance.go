package badger

import (
	"math"

	"github.com/UBH-Fall-2024/FileSeekr/core"
)

// distance returns the metric distance between a and b and the similarity
// derived from it, clamped to [0, 1].
//
// Cosine: similarity = cos(a, b), distance = 1 - cos.
// Euclidean on unit vectors: distance = |a - b| in [0, 2], similarity = 1 - distance/2.
func distance(metric core.Metric, a, b []float32) (dist float32, similarity float32) {
	switch metric {
	case core.MetricEuclidean:
		var sum float64
		for i := range a {
			d := float64(a[i]) - float64(b[i])
			sum += d * d
		}
		dist = float32(math.Sqrt(sum))
		return dist, clamp01(1 - dist/2)
	default:
		cos := cosine(a, b)
		return 1 - cos, clamp01(cos)
	}
}

// cosine calculates cosine similarity; a zero vector has similarity 0 to anything.
func cosine(a, b []float32) float32 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}

func clamp01(v float32) float32 {
	if v < 0 || math.IsNaN(float64(v)) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
