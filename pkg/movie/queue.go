// ABOUTME: Bounded non-blocking frame hand-off queue
// ABOUTME: Sole synchronization point between the stream reader and the facade
package movie

import (
	"sync"

	"github.com/StimKit/stimkit-go/pkg/media"
)

// Entry is one unit of hand-off from the stream reader to the facade: a
// decoded frame together with the metadata and stream status current at
// the time it was produced.
type Entry struct {
	Metadata media.Metadata
	Frame    *media.Frame
	Status   media.StreamStatus
}

// FrameQueue is a bounded FIFO hand-off queue. Neither side ever
// blocks: a put on a full queue discards the entry, a get on an empty
// queue reports no entry. Blocking behaviour, where wanted, is built by
// the caller polling with a sleep interval.
type FrameQueue struct {
	mu    sync.Mutex
	items []Entry
	head  int
	count int
}

// NewFrameQueue creates a queue with the given capacity. Capacities
// below 1 are raised to 1.
func NewFrameQueue(capacity int) *FrameQueue {
	if capacity < 1 {
		capacity = 1
	}
	return &FrameQueue{items: make([]Entry, capacity)}
}

// TryPut appends an entry without blocking. Returns false if the queue
// is full, in which case the entry is discarded; queued entries are
// never overwritten.
func (q *FrameQueue) TryPut(e Entry) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.count == len(q.items) {
		return false
	}

	q.items[(q.head+q.count)%len(q.items)] = e
	q.count++
	return true
}

// TryGet removes and returns the oldest entry without blocking. The
// second return value is false if the queue is empty.
func (q *FrameQueue) TryGet() (Entry, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.count == 0 {
		return Entry{}, false
	}

	e := q.items[q.head]
	q.items[q.head] = Entry{}
	q.head = (q.head + 1) % len(q.items)
	q.count--
	return e, true
}

// Flush discards all queued entries.
func (q *FrameQueue) Flush() {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i := range q.items {
		q.items[i] = Entry{}
	}
	q.head = 0
	q.count = 0
}

// Len returns the number of queued entries.
func (q *FrameQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}

// Cap returns the queue capacity.
func (q *FrameQueue) Cap() int {
	return len(q.items)
}

// Empty reports whether the queue holds no entries.
func (q *FrameQueue) Empty() bool {
	return q.Len() == 0
}

// Full reports whether the queue is at capacity.
func (q *FrameQueue) Full() bool {
	return q.Len() == len(q.items)
}
