package messaging

import (
	"context"
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.uber.org/zap"
)

// Handler processes a single event. Handlers are synchronous and easy to test.
type Handler[T any] func(ctx context.Context, event *T) error

// Consumer subscribes to a topic and processes messages with a typed handler.
type Consumer[T any] struct {
	subscriber message.Subscriber
	topic      string
	handler    Handler[T]
	logger     *zap.Logger
	cancel     context.CancelFunc
	done       chan struct{}
}

// NewConsumer creates a new generic consumer for a specific event type.
func NewConsumer[T any](
	subscriber message.Subscriber,
	topic string,
	handler Handler[T],
	logger *zap.Logger,
) *Consumer[T] {
	return &Consumer[T]{
		subscriber: subscriber,
		topic:      topic,
		handler:    handler,
		logger:     logger,
		done:       make(chan struct{}),
	}
}

// Topic returns the topic this consumer subscribes to.
func (c *Consumer[T]) Topic() string {
	return c.topic
}

// Start begins consuming messages from the topic.
func (c *Consumer[T]) Start(ctx context.Context) error {
	ctx, c.cancel = context.WithCancel(ctx)

	msgs, err := c.subscriber.Subscribe(ctx, c.topic)
	if err != nil {
		c.cancel()
		close(c.done)

		return err
	}

	go c.consumeLoop(ctx, msgs)

	return nil
}

func (c *Consumer[T]) consumeLoop(ctx context.Context, msgs <-chan *message.Message) {
	defer close(c.done)

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}

			c.handleMessage(ctx, msg)
		}
	}
}

// handleMessage acks processed messages and nacks transient failures so the
// broker redelivers them. Payloads that cannot be decoded and permanent
// failures are acked and dropped.
func (c *Consumer[T]) handleMessage(ctx context.Context, msg *message.Message) {
	fields := []zap.Field{
		zap.String("topic", c.topic),
		zap.String("message_id", msg.UUID),
	}

	event, err := Decode[T](msg)
	if err != nil {
		c.logger.Warn("dropping undecodable event", append(fields, zap.Error(err))...)
		msg.Ack()

		return
	}

	err = c.handle(ctx, event)

	switch {
	case err == nil:
		msg.Ack()
		c.logger.Debug("processed event", fields...)
	case errors.Is(err, ErrPermanent):
		c.logger.Warn("dropping event", append(fields, zap.Error(err))...)
		msg.Ack()
	default:
		c.logger.Error("failed to handle event", append(fields, zap.Error(err))...)
		msg.Nack()
	}
}

// handle turns a handler panic into an error so the loop keeps running.
func (c *Consumer[T]) handle(ctx context.Context, event *T) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()

	return c.handler(ctx, event)
}

// Shutdown stops the consumer and waits for in-flight messages to complete.
func (c *Consumer[T]) Shutdown() error {
	if c.cancel != nil {
		c.cancel()
	}

	<-c.done

	return nil
}
