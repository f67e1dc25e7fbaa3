package bids

import (
	"context"
	"sync"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/ecocycle/internal/model"
)

// Loader reads the durable bids of a product.
type Loader func(ctx context.Context, productID uuid.UUID) ([]model.Bid, error)

// Book caches one heap per product. The durable store is the source of truth:
// a product's heap is built from Loader on first use and rebuilt after Forget.
type Book struct {
	mu    sync.Mutex
	load  Loader
	heaps map[uuid.UUID]*Heap
}

// NewBook constructs a Book backed by load.
func NewBook(load Loader) *Book {
	return &Book{load: load, heaps: make(map[uuid.UUID]*Heap)}
}

func (b *Book) heapFor(ctx context.Context, productID uuid.UUID) (*Heap, error) {
	if h, ok := b.heaps[productID]; ok {
		return h, nil
	}
	bs, err := b.load(ctx, productID)
	if err != nil {
		return nil, err
	}
	h := NewHeap(bs...)
	b.heaps[productID] = h
	return h, nil
}

// Record adds a bid that has already been persisted.
// If the product is not cached yet the next read loads it, bid included.
func (b *Book) Record(productID uuid.UUID, bid model.Bid) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if h, ok := b.heaps[productID]; ok {
		h.Push(bid)
	}
}

// Peek returns the product's highest bid.
func (b *Book) Peek(ctx context.Context, productID uuid.UUID) (model.Bid, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	h, err := b.heapFor(ctx, productID)
	if err != nil {
		return model.Bid{}, false, err
	}
	bid, ok := h.Peek()
	return bid, ok, nil
}

// Len returns the number of bids on the product.
func (b *Book) Len(ctx context.Context, productID uuid.UUID) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	h, err := b.heapFor(ctx, productID)
	if err != nil {
		return 0, err
	}
	return h.Len(), nil
}

// Bids lists the product's bids, highest first.
func (b *Book) Bids(ctx context.Context, productID uuid.UUID) ([]model.Bid, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	h, err := b.heapFor(ctx, productID)
	if err != nil {
		return nil, err
	}
	return h.Bids(), nil
}

// Settle removes the winning bid and then every remaining bid, after the
// acceptance was committed durably. It returns the popped winner and drops
// the product from the cache, so a later read reflects storage only.
func (b *Book) Settle(productID uuid.UUID) (model.Bid, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	h, ok := b.heaps[productID]
	if !ok {
		return model.Bid{}, false
	}
	w, ok := h.Pop()
	h.Clear()
	delete(b.heaps, productID)
	return w, ok
}

// Forget drops the cached heap so the next read resynchronises from storage.
func (b *Book) Forget(productID uuid.UUID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.heaps, productID)
}
