package badger

import (
	"testing"
	"time"

	"github.com/UBH-Fall-2024/FileSeekr/core"
	"github.com/stretchr/testify/assert"
)

func TestCandidateQueue(t *testing.T) {
	now := time.Now()
	q := newCandidateQueue(3)
	for i, d := range []float32{0.5, 0.1, 0.9, 0.3, 0.7, 0.2} {
		q.offer(&candidate{path: string(rune('a' + i)), distance: d, indexedAt: now})
	}

	got := q.sorted()
	assert.Len(t, got, 3)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, []float32{got[0].distance, got[1].distance, got[2].distance})
}

func TestDistance(t *testing.T) {
	d, s := distance(core.MetricCosine, []float32{1, 0}, []float32{1, 0})
	assert.InDelta(t, 0, d, 1e-6)
	assert.InDelta(t, 1, s, 1e-6)

	_, s = distance(core.MetricCosine, []float32{1, 0}, []float32{-1, 0})
	assert.Equal(t, float32(0), s)

	_, s = distance(core.MetricCosine, []float32{0, 0}, []float32{1, 0})
	assert.Equal(t, float32(0), s)

	d, s = distance(core.MetricEuclidean, []float32{1, 0}, []float32{-1, 0})
	assert.InDelta(t, 2, d, 1e-6)
	assert.InDelta(t, 0, s, 1e-6)
}
