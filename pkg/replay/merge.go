package replay

import (
	"container/heap"

	"github.com/c9s/kfeed/pkg/types"
)

// batchCursor points at the next event of one pair's batch.
type batchCursor struct {
	pair int
	pos  int
	at   int64
}

// cursorHeap orders batch heads by corrected time, then by pair enumeration
// order. Within one pair the archive order is kept since only the head of
// each batch is ever in the heap.
type cursorHeap []batchCursor

func (h cursorHeap) Len() int { return len(h) }

func (h cursorHeap) Less(i, j int) bool {
	if h[i].at != h[j].at {
		return h[i].at < h[j].at
	}
	return h[i].pair < h[j].pair
}

func (h cursorHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *cursorHeap) Push(x any) {
	*h = append(*h, x.(batchCursor))
}

func (h *cursorHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// mergeBatches emits the events of all batches ordered by AvailableAt.
// Every batch must already be ordered by AvailableAt. It returns false when
// yield asked to stop.
func mergeBatches(batches [][]types.KLineEvent, yield func(types.KLineEvent) bool) bool {
	h := make(cursorHeap, 0, len(batches))
	for pair, batch := range batches {
		if len(batch) > 0 {
			h = append(h, batchCursor{pair: pair, at: batch[0].AvailableAt()})
		}
	}
	heap.Init(&h)

	for h.Len() > 0 {
		head := h[0]
		batch := batches[head.pair]

		if !yield(batch[head.pos]) {
			return false
		}

		if next := head.pos + 1; next < len(batch) {
			h[0] = batchCursor{pair: head.pair, pos: next, at: batch[next].AvailableAt()}
			heap.Fix(&h, 0)
		} else {
			heap.Pop(&h)
		}
	}

	return true
}
