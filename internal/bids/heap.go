// Package bids keeps recycling bids in per-product max-heaps ordered by price.
package bids

import (
	"container/heap"

	"github.com/and161185/ecocycle/internal/model"
)

type entry struct {
	bid model.Bid
	seq uint64
}

// entries implements heap.Interface. The root holds the highest price;
// equal prices keep insertion order.
type entries []entry

func (h entries) Len() int { return len(h) }
func (h entries) Less(i, j int) bool {
	if h[i].bid.Price != h[j].bid.Price {
		return h[i].bid.Price > h[j].bid.Price
	}
	return h[i].seq < h[j].seq
}
func (h entries) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *entries) Push(x any)   { *h = append(*h, x.(entry)) }
func (h *entries) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// Heap is a binary max-heap of bids keyed by price. Not safe for concurrent use.
type Heap struct {
	items entries
	seq   uint64
}

// NewHeap builds a heap from bids in O(n).
func NewHeap(bs ...model.Bid) *Heap {
	h := &Heap{items: make(entries, 0, len(bs))}
	for _, b := range bs {
		h.items = append(h.items, entry{bid: b, seq: h.seq})
		h.seq++
	}
	heap.Init(&h.items)
	return h
}

// Push inserts a bid in O(log n).
func (h *Heap) Push(b model.Bid) {
	heap.Push(&h.items, entry{bid: b, seq: h.seq})
	h.seq++
}

// Peek returns the highest bid without removing it.
func (h *Heap) Peek() (model.Bid, bool) {
	if len(h.items) == 0 {
		return model.Bid{}, false
	}
	return h.items[0].bid, true
}

// Pop removes and returns the highest bid in O(log n).
func (h *Heap) Pop() (model.Bid, bool) {
	if len(h.items) == 0 {
		return model.Bid{}, false
	}
	return heap.Pop(&h.items).(entry).bid, true
}

// Clear drops every bid.
func (h *Heap) Clear() { h.items = h.items[:0] }

// Len is the number of bids held.
func (h *Heap) Len() int { return len(h.items) }

// Bids returns the held bids, highest first. The heap is left untouched.
func (h *Heap) Bids() []model.Bid {
	cp := make(entries, len(h.items))
	copy(cp, h.items)
	out := make([]model.Bid, 0, len(cp))
	for cp.Len() > 0 {
		out = append(out, heap.Pop(&cp).(entry).bid)
	}
	return out
}
