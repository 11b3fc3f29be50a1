package validation

import (
	"context"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/serroba/trusted-shortener/internal/messaging"
)

// TopicValidationTasks carries validation tasks between server instances.
const TopicValidationTasks = "validation.tasks"

// Task is the payload of a validation task on the stream.
type Task struct {
	URL        string    `json:"url"`
	EnqueuedAt time.Time `json:"enqueuedAt"`
}

// StreamQueue is a Queue backed by a watermill topic, so tasks survive restarts
// and are shared by every instance in the consumer group. Backpressure is
// bounded by the broker rather than by a fixed capacity.
type StreamQueue struct {
	publish    messaging.Publish[Task]
	subscriber message.Subscriber
	msgs       <-chan *message.Message
	cancel     context.CancelFunc
	closing    chan struct{}
	once       sync.Once
}

// NewStreamQueue subscribes to the task topic and returns a ready queue.
func NewStreamQueue(
	ctx context.Context, publisher message.Publisher, subscriber message.Subscriber,
) (*StreamQueue, error) {
	ctx, cancel := context.WithCancel(ctx)

	msgs, err := subscriber.Subscribe(ctx, TopicValidationTasks)
	if err != nil {
		cancel()

		return nil, err
	}

	return &StreamQueue{
		publish:    messaging.NewPublishFunc[Task](publisher, TopicValidationTasks),
		subscriber: subscriber,
		msgs:       msgs,
		cancel:     cancel,
		closing:    make(chan struct{}),
	}, nil
}

func (q *StreamQueue) Enqueue(ctx context.Context, url string) error {
	select {
	case <-q.closing:
		return ErrQueueClosed
	default:
	}

	return q.publish(ctx, &Task{URL: url, EnqueuedAt: time.Now()})
}

// Dequeue acks a message as soon as it is decoded: a task is handed to one
// worker and never redelivered, matching the in-process queue.
func (q *StreamQueue) Dequeue(ctx context.Context) (string, error) {
	for {
		select {
		case msg, ok := <-q.msgs:
			if !ok {
				return "", ErrQueueClosed
			}

			task, err := messaging.Decode[Task](msg)
			msg.Ack()

			if err != nil || task.URL == "" {
				continue
			}

			return task.URL, nil
		case <-q.closing:
			return "", ErrQueueClosed
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}

// Close stops the subscription. Undelivered tasks remain on the stream for
// the next consumer.
func (q *StreamQueue) Close() error {
	var err error

	q.once.Do(func() {
		close(q.closing)
		q.cancel()
		err = q.subscriber.Close()
	})

	return err
}
