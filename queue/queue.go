// Package queue holds the per-job outbox: replies are staged in order and
// only handed to the transport once every payload has been produced.
package queue

// Queue is a FIFO of staged items.
type Queue[T any] struct {
	items []T
}

// New creates an empty queue.
func New[T any]() *Queue[T] {
	return &Queue[T]{}
}

// Enqueue stages an item at the back.
func (q *Queue[T]) Enqueue(items ...T) {
	q.items = append(q.items, items...)
}

// Dequeue removes and returns the front item. The boolean is false when the
// queue is empty.
func (q *Queue[T]) Dequeue() (T, bool) {
	if len(q.items) == 0 {
		var zero T
		return zero, false
	}
	item := q.items[0]
	q.items = q.items[1:]
	return item, true
}

func (q *Queue[T]) Len() int {
	return len(q.items)
}

// Drain hands items to send in FIFO order. It stops at the first error and
// returns it with the count of items sent before it; unsent items stay
// queued.
func (q *Queue[T]) Drain(send func(T) error) (int, error) {
	sent := 0
	for len(q.items) > 0 {
		if err := send(q.items[0]); err != nil {
			return sent, err
		}
		q.items = q.items[1:]
		sent++
	}
	return sent, nil
}
