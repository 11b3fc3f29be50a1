package validation

import (
	"context"
	"errors"
	"sync"
)

// DefaultQueueCapacity bounds the number of pending validation tasks.
const DefaultQueueCapacity = 1000

// ErrQueueClosed is returned once the queue stops accepting or handing out tasks.
var ErrQueueClosed = errors.New("validation queue closed")

// Queue is the hand-off between URL creation and the worker pool.
type Queue interface {
	// Enqueue blocks while the queue is full.
	Enqueue(ctx context.Context, url string) error
	// Dequeue blocks until a task is available. After Close it keeps returning
	// pending tasks, then ErrQueueClosed.
	Dequeue(ctx context.Context) (string, error)
	Close() error
}

// ChannelQueue is a bounded in-process FIFO backed by a buffered channel.
type ChannelQueue struct {
	tasks   chan string
	mu      sync.RWMutex
	closed  bool
	closing chan struct{} // unblocks producers waiting on a full queue
	sealed  chan struct{} // no producer is in flight any more
	once    sync.Once
}

// NewChannelQueue creates a queue holding at most capacity pending tasks.
func NewChannelQueue(capacity int) *ChannelQueue {
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}

	return &ChannelQueue{
		tasks:   make(chan string, capacity),
		closing: make(chan struct{}),
		sealed:  make(chan struct{}),
	}
}

func (q *ChannelQueue) Enqueue(ctx context.Context, url string) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.tasks <- url:
		return nil
	case <-q.closing:
		return ErrQueueClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *ChannelQueue) Dequeue(ctx context.Context) (string, error) {
	select {
	case url := <-q.tasks:
		return url, nil
	case <-q.sealed:
		select {
		case url := <-q.tasks:
			return url, nil
		default:
			return "", ErrQueueClosed
		}
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Close stops accepting tasks. Producers blocked on a full queue get
// ErrQueueClosed; tasks already accepted stay available to Dequeue.
func (q *ChannelQueue) Close() error {
	q.once.Do(func() {
		close(q.closing)

		q.mu.Lock()
		q.closed = true
		q.mu.Unlock()

		close(q.sealed)
	})

	return nil
}

// Len returns the number of pending tasks.
func (q *ChannelQueue) Len() int {
	return len(q.tasks)
}

// Cap returns the queue capacity.
func (q *ChannelQueue) Cap() int {
	return cap(q.tasks)
}
