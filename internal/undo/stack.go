// Package undo provides a LIFO of snapshots used to reverse deletions.
package undo

import "sync"

// Stack is a mutex-guarded LIFO. The zero value is ready to use.
type Stack[T any] struct {
	mu    sync.Mutex
	items []T
}

// Push stores a snapshot on top.
func (s *Stack[T]) Push(v T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, v)
}

// Pop removes and returns the most recent snapshot.
func (s *Stack[T]) Pop() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var zero T
	if len(s.items) == 0 {
		return zero, false
	}
	v := s.items[len(s.items)-1]
	s.items[len(s.items)-1] = zero
	s.items = s.items[:len(s.items)-1]
	return v, true
}

// Peek returns the most recent snapshot without removing it.
func (s *Stack[T]) Peek() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var zero T
	if len(s.items) == 0 {
		return zero, false
	}
	return s.items[len(s.items)-1], true
}

// NonEmpty reports whether there is anything to undo.
func (s *Stack[T]) NonEmpty() bool { return s.Len() > 0 }

// Len is the number of snapshots held.
func (s *Stack[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
