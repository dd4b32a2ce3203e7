// Package store holds a component's local copy of an upstream collection.
package store

import "sync"

// List is an ordered, mutex-guarded collection keyed by an id accessor.
// Reads return copies, so callers may filter and sort freely.
type List[T any] struct {
	mu     sync.RWMutex
	items  []T
	id     func(T) int64
	loaded bool
}

// NewList creates an empty list keyed by id.
func NewList[T any](id func(T) int64) *List[T] {
	return &List[T]{items: []T{}, id: id}
}

// Replace swaps the whole dataset (a fresh fetch).
func (l *List[T]) Replace(items []T) {
	cp := make([]T, len(items))
	copy(cp, items)
	l.mu.Lock()
	l.items = cp
	l.loaded = true
	l.mu.Unlock()
}

// Loaded reports whether Replace has ever been called.
func (l *List[T]) Loaded() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.loaded
}

// Prepend inserts at the head.
func (l *List[T]) Prepend(item T) {
	l.mu.Lock()
	l.items = append([]T{item}, l.items...)
	l.mu.Unlock()
}

// Append inserts at the tail.
func (l *List[T]) Append(item T) {
	l.mu.Lock()
	l.items = append(l.items, item)
	l.mu.Unlock()
}

// UpdateByID replaces every row with the same id as item. Reports whether one matched.
func (l *List[T]) UpdateByID(item T) bool {
	want := l.id(item)
	found := false
	l.mu.Lock()
	for i := range l.items {
		if l.id(l.items[i]) == want {
			l.items[i] = item
			found = true
		}
	}
	l.mu.Unlock()
	return found
}

// RemoveByID drops the row with the given id. Reports whether one was removed.
func (l *List[T]) RemoveByID(id int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := l.items[:0:0]
	for _, it := range l.items {
		if l.id(it) != id {
			out = append(out, it)
		}
	}
	removed := len(out) != len(l.items)
	l.items = out
	return removed
}

// Get finds a row by id.
func (l *List[T]) Get(id int64) (T, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, it := range l.items {
		if l.id(it) == id {
			return it, true
		}
	}
	var zero T
	return zero, false
}

// All returns a copy of the rows in order.
func (l *List[T]) All() []T {
	l.mu.RLock()
	defer l.mu.RUnlock()
	cp := make([]T, len(l.items))
	copy(cp, l.items)
	return cp
}
