package messaging_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/serroba/trusted-shortener/internal/analytics"
	"github.com/serroba/trusted-shortener/internal/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockSubscriber struct {
	msgChan      chan *message.Message
	subscribeErr error
	mu           sync.Mutex
	closed       bool
}

func newMockSubscriber() *mockSubscriber {
	return &mockSubscriber{
		msgChan: make(chan *message.Message, 10),
	}
}

func (m *mockSubscriber) Subscribe(_ context.Context, _ string) (<-chan *message.Message, error) {
	if m.subscribeErr != nil {
		return nil, m.subscribeErr
	}

	return m.msgChan, nil
}

func (m *mockSubscriber) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.closed {
		m.closed = true
		close(m.msgChan)
	}

	return nil
}

// clickStore records saved clicks.
type clickStore struct {
	mu     sync.Mutex
	clicks []*analytics.ClickEvent
	err    error
}

func (s *clickStore) SaveLinkCreated(context.Context, *analytics.LinkCreatedEvent) error {
	return nil
}

func (s *clickStore) SaveClick(_ context.Context, event *analytics.ClickEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return s.err
	}

	s.clicks = append(s.clicks, event)

	return nil
}

func clickMessage(t *testing.T, hash string) *message.Message {
	t.Helper()

	payload, err := json.Marshal(&analytics.ClickEvent{Hash: hash, ClickedAt: time.Now()})
	require.NoError(t, err)

	return message.NewMessage(uuid.NewString(), payload)
}

// settled waits for msg to be acked or nacked and reports whether it was acked.
func settled(t *testing.T, msg *message.Message) bool {
	t.Helper()

	select {
	case <-msg.Acked():
		return true
	case <-msg.Nacked():
		return false
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for ack or nack")

		return false
	}
}

func startClickConsumer(t *testing.T, store analytics.Store) (*mockSubscriber, *messaging.Consumer[analytics.ClickEvent]) {
	t.Helper()

	sub := newMockSubscriber()
	consumer := messaging.NewConsumer[analytics.ClickEvent](
		sub,
		analytics.TopicLinkClicked,
		analytics.NewRecorder(store).RecordClick,
		zap.NewNop(),
	)

	require.NoError(t, consumer.Start(context.Background()))
	t.Cleanup(func() { _ = consumer.Shutdown() })

	return sub, consumer
}

func TestConsumer_Start(t *testing.T) {
	t.Run("starts successfully", func(t *testing.T) {
		_, consumer := startClickConsumer(t, &clickStore{})

		assert.Equal(t, analytics.TopicLinkClicked, consumer.Topic())
	})

	t.Run("returns error when subscribe fails", func(t *testing.T) {
		sub := &mockSubscriber{subscribeErr: errors.New("subscribe error")}
		consumer := messaging.NewConsumer(
			sub,
			analytics.TopicLinkClicked,
			func(_ context.Context, _ *analytics.ClickEvent) error { return nil },
			zap.NewNop(),
		)

		err := consumer.Start(context.Background())

		require.Error(t, err)
		assert.NoError(t, consumer.Shutdown(), "shutdown after failed start must not block")
	})
}

func TestConsumer_HandleMessage(t *testing.T) {
	t.Run("acks stored clicks", func(t *testing.T) {
		store := &clickStore{}
		sub, _ := startClickConsumer(t, store)

		msg := clickMessage(t, "5f1c2e9a0b3d")
		sub.msgChan <- msg

		require.True(t, settled(t, msg))

		store.mu.Lock()
		defer store.mu.Unlock()

		require.Len(t, store.clicks, 1)
		assert.Equal(t, "5f1c2e9a0b3d", store.clicks[0].Hash)
	})

	t.Run("acks and drops undecodable payloads", func(t *testing.T) {
		sub, _ := startClickConsumer(t, &clickStore{})

		msg := message.NewMessage(uuid.NewString(), []byte("invalid json"))
		sub.msgChan <- msg

		assert.True(t, settled(t, msg))
	})

	t.Run("acks and drops permanent failures", func(t *testing.T) {
		store := &clickStore{}
		sub, _ := startClickConsumer(t, store)

		msg := clickMessage(t, "")
		sub.msgChan <- msg

		assert.True(t, settled(t, msg))
		assert.Empty(t, store.clicks)
	})

	t.Run("nacks transient store errors for redelivery", func(t *testing.T) {
		sub, _ := startClickConsumer(t, &clickStore{err: errors.New("connection reset")})

		msg := clickMessage(t, "5f1c2e9a0b3d")
		sub.msgChan <- msg

		assert.False(t, settled(t, msg))
	})
}

func TestConsumer_HandlerPanic(t *testing.T) {
	sub := newMockSubscriber()

	var calls int

	consumer := messaging.NewConsumer(
		sub,
		analytics.TopicLinkClicked,
		func(_ context.Context, event *analytics.ClickEvent) error {
			calls++
			if event.Hash == "boom" {
				panic("unexpected event")
			}

			return nil
		},
		zap.NewNop(),
	)

	require.NoError(t, consumer.Start(context.Background()))

	badMsg := clickMessage(t, "boom")
	goodMsg := clickMessage(t, "ok")

	sub.msgChan <- badMsg
	sub.msgChan <- goodMsg

	assert.False(t, settled(t, badMsg), "panicking message should be nacked")
	assert.True(t, settled(t, goodMsg), "consumer stopped after panic")

	require.NoError(t, consumer.Shutdown())

	assert.Equal(t, 2, calls)
}

func TestDecode(t *testing.T) {
	t.Run("decodes payload", func(t *testing.T) {
		event, err := messaging.Decode[analytics.ClickEvent](clickMessage(t, "abc"))

		require.NoError(t, err)
		assert.Equal(t, "abc", event.Hash)
	})

	t.Run("rejects invalid payload", func(t *testing.T) {
		_, err := messaging.Decode[analytics.ClickEvent](message.NewMessage(uuid.NewString(), []byte("{")))

		assert.Error(t, err)
	})
}

func TestPermanent(t *testing.T) {
	cause := errors.New("bad event")

	err := messaging.Permanent(cause)

	assert.ErrorIs(t, err, messaging.ErrPermanent)
	assert.ErrorIs(t, err, cause)
}

func TestConsumer_Shutdown(t *testing.T) {
	t.Run("stops when the subscription closes", func(t *testing.T) {
		sub := newMockSubscriber()
		consumer := messaging.NewConsumer(
			sub,
			analytics.TopicLinkClicked,
			func(_ context.Context, _ *analytics.ClickEvent) error { return nil },
			zap.NewNop(),
		)

		require.NoError(t, consumer.Start(context.Background()))
		require.NoError(t, sub.Close())

		assert.NoError(t, consumer.Shutdown())
	})
}
