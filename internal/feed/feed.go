// Package feed holds the most-recent-first view of the review log.
// It is a derived cache: the review repository is the source of truth and
// every Feed is rebuilt from it at start-up.
package feed

import (
	"context"
	"sync"

	"github.com/and161185/ecocycle/internal/model"
)

// Feed is the fast, newest-first view over reviews.
type Feed interface {
	// Prepend puts r in front of the feed.
	Prepend(ctx context.Context, r model.Review) error
	// List returns the feed, newest first.
	List(ctx context.Context) ([]model.Review, error)
	// Reset replaces the feed with rs, which must already be newest first.
	Reset(ctx context.Context, rs []model.Review) error
}

// Memory keeps the feed in process memory. Reviews are stored oldest first so
// Prepend is an amortised O(1) append; List walks the slice backwards.
type Memory struct {
	mu    sync.RWMutex
	items []model.Review
}

// NewMemory returns an empty in-memory feed.
func NewMemory() *Memory { return &Memory{} }

// Prepend implements Feed.
func (m *Memory) Prepend(_ context.Context, r model.Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append(m.items, r)
	return nil
}

// List implements Feed.
func (m *Memory) List(_ context.Context) ([]model.Review, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Review, len(m.items))
	for i, r := range m.items {
		out[len(m.items)-1-i] = r
	}
	return out, nil
}

// Reset implements Feed.
func (m *Memory) Reset(_ context.Context, rs []model.Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = make([]model.Review, len(rs))
	for i, r := range rs {
		m.items[len(rs)-1-i] = r
	}
	return nil
}
