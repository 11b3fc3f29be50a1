package messaging_test

import (
	"context"
	"errors"
	"testing"

	"github.com/serroba/trusted-shortener/internal/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockRunnable struct {
	name        string
	order       *[]string
	started     bool
	shutdown    bool
	startErr    error
	shutdownErr error
}

func (m *mockRunnable) Start(_ context.Context) error {
	if m.startErr != nil {
		return m.startErr
	}

	m.started = true

	return nil
}

func (m *mockRunnable) Shutdown() error {
	m.shutdown = true

	if m.order != nil {
		*m.order = append(*m.order, m.name)
	}

	return m.shutdownErr
}

type mockCloser struct {
	closed bool
	err    error
}

func (m *mockCloser) Close() error {
	m.closed = true

	return m.err
}

func TestGroup_Start(t *testing.T) {
	t.Run("starts all members", func(t *testing.T) {
		group := messaging.NewGroup("consumers", newMockSubscriber(), zap.NewNop())
		consumer1 := &mockRunnable{}
		consumer2 := &mockRunnable{}

		group.Add(consumer1)
		group.Add(consumer2)

		err := group.Start(context.Background())

		require.NoError(t, err)
		assert.Equal(t, 2, group.Len())
		assert.True(t, consumer1.started)
		assert.True(t, consumer2.started)
	})

	t.Run("rolls back on failure", func(t *testing.T) {
		group := messaging.NewGroup("consumers", newMockSubscriber(), zap.NewNop())
		consumer1 := &mockRunnable{}
		consumer2 := &mockRunnable{startErr: errors.New("start error")}

		group.Add(consumer1)
		group.Add(consumer2)

		err := group.Start(context.Background())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "consumers")
		assert.True(t, consumer1.started)
		assert.True(t, consumer1.shutdown) // Should be rolled back
		assert.False(t, consumer2.started)
	})
}

func TestGroup_Shutdown(t *testing.T) {
	t.Run("shuts down members in reverse order then closes", func(t *testing.T) {
		var order []string

		closer := &mockCloser{}
		group := messaging.NewGroup("workers", closer, zap.NewNop())
		group.Add(&mockRunnable{name: "first", order: &order})
		group.Add(&mockRunnable{name: "second", order: &order})
		_ = group.Start(context.Background())

		err := group.Shutdown()

		require.NoError(t, err)
		assert.Equal(t, []string{"second", "first"}, order)
		assert.True(t, closer.closed)
	})

	t.Run("nil closer is allowed", func(t *testing.T) {
		group := messaging.NewGroup("workers", nil, zap.NewNop())
		group.Add(&mockRunnable{})

		assert.NoError(t, group.Shutdown())
	})

	t.Run("joins errors but shuts down all", func(t *testing.T) {
		closer := &mockCloser{err: errors.New("close error")}
		group := messaging.NewGroup("consumers", closer, zap.NewNop())
		consumer1 := &mockRunnable{shutdownErr: errors.New("shutdown error 1")}
		consumer2 := &mockRunnable{shutdownErr: errors.New("shutdown error 2")}

		group.Add(consumer1)
		group.Add(consumer2)
		_ = group.Start(context.Background())

		err := group.Shutdown()

		require.Error(t, err)
		assert.Contains(t, err.Error(), "shutdown error 1")
		assert.Contains(t, err.Error(), "shutdown error 2")
		assert.Contains(t, err.Error(), "close error")
		assert.True(t, consumer1.shutdown)
		assert.True(t, consumer2.shutdown) // Still attempted
		assert.True(t, closer.closed)
	})
}
