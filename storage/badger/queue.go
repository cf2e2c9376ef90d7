package badger

import (
	"container/heap"
	"time"
)

// Compile time check to ensure candidateQueue satisfies the heap interface.
var _ heap.Interface = (*candidateQueue)(nil)

type candidate struct {
	path       string
	distance   float32
	similarity float32
	indexedAt  time.Time
}

// better reports whether a ranks ahead of b: smaller distance, then newer IndexedAt, then path.
func (a *candidate) better(b *candidate) bool {
	if a.distance != b.distance {
		return a.distance < b.distance
	}
	if !a.indexedAt.Equal(b.indexedAt) {
		return a.indexedAt.After(b.indexedAt)
	}
	return a.path < b.path
}

// candidateQueue is a bounded max-heap holding the best k candidates seen so far.
// The root is the worst of them, so it is the one evicted.
type candidateQueue struct {
	k     int
	items []*candidate
}

func newCandidateQueue(k int) *candidateQueue {
	return &candidateQueue{k: k, items: make([]*candidate, 0, k)}
}

func (q *candidateQueue) Len() int { return len(q.items) }

func (q *candidateQueue) Less(i, j int) bool { return q.items[j].better(q.items[i]) }

func (q *candidateQueue) Swap(i, j int) { q.items[i], q.items[j] = q.items[j], q.items[i] }

func (q *candidateQueue) Push(x any) { q.items = append(q.items, x.(*candidate)) }

func (q *candidateQueue) Pop() any {
	old := q.items
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	q.items = old[:n-1]
	return item
}

// offer adds c if the queue has room or c beats the current worst.
func (q *candidateQueue) offer(c *candidate) {
	if len(q.items) < q.k {
		heap.Push(q, c)
		return
	}
	if c.better(q.items[0]) {
		q.items[0] = c
		heap.Fix(q, 0)
	}
}

// sorted drains the queue, best first.
func (q *candidateQueue) sorted() []*candidate {
	out := make([]*candidate, len(q.items))
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(q).(*candidate)
	}
	return out
}
