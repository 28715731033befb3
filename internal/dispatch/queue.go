package dispatch

import (
	"context"
	"sync"

	"github.com/desertthunder/strum/internal/shared"
)

// Queue is the dispatcher's pending-intent buffer: FIFO within a class, with
// superseding classes collapsed to their most recent instance.
//
// Any number of goroutines may enqueue; exactly one worker dequeues.
type Queue struct {
	mu     sync.Mutex
	items  []Intent
	wake   chan struct{}
	closed bool
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{wake: make(chan struct{}, 1)}
}

// Enqueue appends an intent, first discarding any pending intent of the same
// class when that class is superseding. Fails with
// [shared.ErrDispatcherStopped] after [Queue.Close].
func (q *Queue) Enqueue(in Intent) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return shared.ErrDispatcherStopped
	}

	if superseding(in.Class()) {
		kept := q.items[:0]
		for _, pending := range q.items {
			if pending.Class() != in.Class() {
				kept = append(kept, pending)
			}
		}
		q.items = kept
	}
	q.items = append(q.items, in)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
	return nil
}

// Dequeue blocks until an intent is available, the context is done, or the
// queue is closed. Close discards pending intents: a closed queue returns
// [shared.ErrDispatcherStopped] even if items remain.
func (q *Queue) Dequeue(ctx context.Context) (Intent, error) {
	for {
		q.mu.Lock()
		if q.closed {
			q.mu.Unlock()
			return nil, shared.ErrDispatcherStopped
		}
		if len(q.items) > 0 {
			in := q.items[0]
			q.items = q.items[1:]
			q.mu.Unlock()
			return in, nil
		}
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-q.wake:
		}
	}
}

// Close rejects further enqueues and unblocks the worker. Pending intents are
// discarded.
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.items = nil
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Len reports the number of pending intents.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
