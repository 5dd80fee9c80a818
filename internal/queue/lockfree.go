// Package queue implements an unbounded multi-producer multi-consumer FIFO
// that never blocks. It is a Michael-Scott queue over atomic pointers; the
// garbage collector reclaims unlinked nodes, so there is no ABA hazard.
package queue

import "sync/atomic"

type node[T any] struct {
	value T
	next  atomic.Pointer[node[T]]
}

// LockFree is a non-blocking FIFO queue. The zero value is not usable;
// construct with New.
type LockFree[T any] struct {
	head   atomic.Pointer[node[T]]
	tail   atomic.Pointer[node[T]]
	length atomic.Int64
}

// New creates an empty queue
func New[T any]() *LockFree[T] {
	q := &LockFree[T]{}
	dummy := &node[T]{}
	q.head.Store(dummy)
	q.tail.Store(dummy)
	return q
}

// Push appends v. Safe for concurrent use; never blocks.
func (q *LockFree[T]) Push(v T) {
	n := &node[T]{value: v}
	for {
		tail := q.tail.Load()
		next := tail.next.Load()
		if tail != q.tail.Load() {
			continue
		}
		if next != nil {
			// tail is lagging, help it forward
			q.tail.CompareAndSwap(tail, next)
			continue
		}
		if tail.next.CompareAndSwap(nil, n) {
			q.tail.CompareAndSwap(tail, n)
			q.length.Add(1)
			return
		}
	}
}

// Pop removes the oldest element. It returns false when the queue is empty.
func (q *LockFree[T]) Pop() (T, bool) {
	for {
		head := q.head.Load()
		tail := q.tail.Load()
		next := head.next.Load()
		if head != q.head.Load() {
			continue
		}
		if next == nil {
			var zero T
			return zero, false
		}
		if head == tail {
			q.tail.CompareAndSwap(tail, next)
			continue
		}
		v := next.value
		if q.head.CompareAndSwap(head, next) {
			q.length.Add(-1)
			return v, true
		}
	}
}

// Len returns an approximate element count
func (q *LockFree[T]) Len() int {
	n := q.length.Load()
	if n < 0 {
		return 0
	}
	return int(n)
}

// Empty reports whether the queue currently has no elements
func (q *LockFree[T]) Empty() bool {
	return q.head.Load().next.Load() == nil
}
