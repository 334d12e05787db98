// Package queue hands partitions from the planner to the workers.
//
// The in-memory queue is a bounded channel. Producers either try once with
// Enqueue or wait for room with Put.
package queue

import (
	"context"
	"sync"

	"github.com/okian/cutflow/internal/domain/model"
	"github.com/okian/cutflow/pkg/metrics"
)

const defaultQueueCapacity = 1024

// Partition is the payload type flowing through the queue.
type Partition = model.Partition

// Queue provides bounded enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a partition without waiting.
	// Returns false if the queue is full or closed.
	Enqueue(ctx context.Context, p Partition) bool

	// Put adds a partition, waiting for room until ctx is done or the queue
	// is closed.
	Put(ctx context.Context, p Partition) error

	// Dequeue returns a channel that receives partitions as they become
	// available. The channel is closed once the queue is closed and drained.
	Dequeue(ctx context.Context) <-chan Partition

	// Len returns the current number of queued partitions.
	Len(ctx context.Context) int

	// Close stops accepting partitions. Queued partitions are still delivered.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	items    chan Partition
	capacity int

	mu        sync.RWMutex
	closed    bool
	done      chan struct{}
	closeOnce sync.Once
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity: defaultQueueCapacity,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(q)
	}
	q.items = make(chan Partition, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	metrics.UpdateQueueUtilization(0.0)

	return q
}

// Enqueue adds a partition to the queue if there is room.
func (q *InMemoryQueue) Enqueue(ctx context.Context, p Partition) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "closed")
		return false
	}

	select {
	case q.items <- p:
		q.enqueued()
		return true
	case <-ctx.Done():
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "context_cancelled")
		return false
	default:
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "queue_full")
		return false
	}
}

// Put adds a partition, blocking while the queue is full.
func (q *InMemoryQueue) Put(ctx context.Context, p Partition) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError()
		return ErrQueueClosed
	}

	select {
	case q.items <- p:
		q.enqueued()
		return nil
	case <-q.done:
		metrics.RecordQueueEnqueueError()
		return ErrQueueClosed
	case <-ctx.Done():
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "context_cancelled")
		return ctx.Err()
	}
}

func (q *InMemoryQueue) enqueued() {
	metrics.RecordQueueEnqueue()
	q.updateSize(len(q.items))
}

func (q *InMemoryQueue) updateSize(size int) {
	metrics.UpdateQueueSize(size)
	metrics.UpdateQueueUtilization(float64(size) / float64(q.capacity))
}

// Dequeue returns a channel that will receive partitions as they become
// available.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Partition {
	out := make(chan Partition)
	go func() {
		defer close(out)
		for p := range q.items {
			select {
			case out <- p:
				metrics.RecordQueueDequeue()
				q.updateSize(len(q.items))
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Len returns the current number of queued partitions.
func (q *InMemoryQueue) Len(ctx context.Context) int {
	size := len(q.items)
	q.updateSize(size)
	return size
}

// Close stops accepting partitions.
func (q *InMemoryQueue) Close() error {
	// done wakes blocked Put calls, which hold the read lock.
	q.closeOnce.Do(func() { close(q.done) })

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	close(q.items)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
