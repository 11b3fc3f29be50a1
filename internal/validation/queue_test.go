package validation_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/serroba/trusted-shortener/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannelQueue(t *testing.T) {
	ctx := context.Background()

	t.Run("is fifo", func(t *testing.T) {
		q := validation.NewChannelQueue(3)

		for _, url := range []string{"a", "b", "c"} {
			require.NoError(t, q.Enqueue(ctx, url))
		}

		assert.Equal(t, 3, q.Len())

		for _, want := range []string{"a", "b", "c"} {
			got, err := q.Dequeue(ctx)

			require.NoError(t, err)
			assert.Equal(t, want, got)
		}
	})

	t.Run("defaults capacity", func(t *testing.T) {
		q := validation.NewChannelQueue(0)

		assert.Equal(t, validation.DefaultQueueCapacity, q.Cap())
	})

	t.Run("enqueue blocks while full", func(t *testing.T) {
		q := validation.NewChannelQueue(1)
		require.NoError(t, q.Enqueue(ctx, "first"))

		enqueued := make(chan error, 1)

		go func() {
			enqueued <- q.Enqueue(ctx, "second")
		}()

		select {
		case <-enqueued:
			t.Fatal("enqueue should block on a full queue")
		case <-time.After(50 * time.Millisecond):
		}

		got, _ := q.Dequeue(ctx)
		assert.Equal(t, "first", got)

		select {
		case err := <-enqueued:
			require.NoError(t, err)
		case <-time.After(time.Second):
			t.Fatal("enqueue did not resume after dequeue")
		}

		got, _ = q.Dequeue(ctx)
		assert.Equal(t, "second", got)
	})

	t.Run("enqueue honours context", func(t *testing.T) {
		q := validation.NewChannelQueue(1)
		require.NoError(t, q.Enqueue(ctx, "first"))

		cctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
		defer cancel()

		err := q.Enqueue(cctx, "second")

		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("dequeue blocks until a task arrives", func(t *testing.T) {
		q := validation.NewChannelQueue(1)
		got := make(chan string, 1)

		go func() {
			url, _ := q.Dequeue(ctx)
			got <- url
		}()

		time.Sleep(20 * time.Millisecond)
		require.NoError(t, q.Enqueue(ctx, "late"))

		select {
		case url := <-got:
			assert.Equal(t, "late", url)
		case <-time.After(time.Second):
			t.Fatal("dequeue did not wake up")
		}
	})

	t.Run("close drains pending tasks then signals shutdown", func(t *testing.T) {
		q := validation.NewChannelQueue(2)
		require.NoError(t, q.Enqueue(ctx, "pending"))
		require.NoError(t, q.Close())

		got, err := q.Dequeue(ctx)
		require.NoError(t, err)
		assert.Equal(t, "pending", got)

		_, err = q.Dequeue(ctx)
		assert.ErrorIs(t, err, validation.ErrQueueClosed)

		err = q.Enqueue(ctx, "rejected")
		assert.ErrorIs(t, err, validation.ErrQueueClosed)
	})

	t.Run("close wakes blocked consumers and producers", func(t *testing.T) {
		q := validation.NewChannelQueue(1)
		require.NoError(t, q.Enqueue(ctx, "fill"))

		var wg sync.WaitGroup

		producerErr := make(chan error, 1)

		wg.Add(1)

		go func() {
			defer wg.Done()
			producerErr <- q.Enqueue(ctx, "blocked")
		}()

		time.Sleep(20 * time.Millisecond)
		require.NoError(t, q.Close())
		wg.Wait()

		assert.ErrorIs(t, <-producerErr, validation.ErrQueueClosed)

		_, _ = q.Dequeue(ctx)

		done := make(chan error, 1)

		go func() {
			_, err := q.Dequeue(ctx)
			done <- err
		}()

		select {
		case err := <-done:
			assert.ErrorIs(t, err, validation.ErrQueueClosed)
		case <-time.After(time.Second):
			t.Fatal("dequeue blocked after close")
		}
	})

	t.Run("close is idempotent", func(t *testing.T) {
		q := validation.NewChannelQueue(1)

		require.NoError(t, q.Close())
		require.NoError(t, q.Close())
	})
}
