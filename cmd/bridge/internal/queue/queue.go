package queue

import (
	"github.com/faroukBakari/tws-redis-bridge/pkg/models"
)

// Queue is the bounded hand-off between the feed callback thread and the
// aggregation loop. Both sides are non-blocking: the producer drops on a full
// queue, the consumer polls. A buffered channel gives the single-producer /
// single-consumer safety and per-producer FIFO order without extra locking.
type Queue struct {
	ch chan models.TickEvent
}

// New allocates a queue with the given fixed capacity.
func New(capacity int) *Queue {
	if capacity <= 0 {
		capacity = 1
	}
	return &Queue{ch: make(chan models.TickEvent, capacity)}
}

// TryEnqueue adds an event without blocking. Returns false when the queue is
// at capacity; the event is then lost and the caller must count the drop.
func (q *Queue) TryEnqueue(e models.TickEvent) bool {
	select {
	case q.ch <- e:
		return true
	default:
		return false
	}
}

// TryDequeue removes the oldest event without blocking. The second return is
// false when the queue is empty.
func (q *Queue) TryDequeue() (models.TickEvent, bool) {
	select {
	case e := <-q.ch:
		return e, true
	default:
		return models.TickEvent{}, false
	}
}

// Len returns the number of queued events.
func (q *Queue) Len() int { return len(q.ch) }

// Cap returns the fixed capacity.
func (q *Queue) Cap() int { return cap(q.ch) }
