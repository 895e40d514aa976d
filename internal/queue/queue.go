// Package queue holds the FIFO used to stage battles for export.
package queue

import "sync"

// Queue is a thread-safe FIFO.
type Queue[T any] struct {
	mu    sync.Mutex
	items []T
}

func New[T any]() *Queue[T] {
	return &Queue[T]{}
}

// Push appends items at the tail.
func (q *Queue[T]) Push(items ...T) {
	q.mu.Lock()
	q.items = append(q.items, items...)
	q.mu.Unlock()
}

// PushFront returns items to the head, ahead of anything pushed since they
// were drained. Their relative order is kept.
func (q *Queue[T]) PushFront(items ...T) {
	if len(items) == 0 {
		return
	}
	q.mu.Lock()
	q.items = append(append(make([]T, 0, len(items)+len(q.items)), items...), q.items...)
	q.mu.Unlock()
}

func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Drain removes and returns every queued item, oldest first.
func (q *Queue[T]) Drain() []T {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.items
	q.items = nil
	return out
}
