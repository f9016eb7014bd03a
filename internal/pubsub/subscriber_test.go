package pubsub_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skiffworks/skiff/internal/pubsub"
)

func TestReceiveTimeoutBounds(t *testing.T) {
	bus := pubsub.New()
	defer bus.Close()

	sub, err := pubsub.NewSubscriber(bus, "/quiet")
	require.NoError(t, err)
	defer sub.Close()

	const wait = 100 * time.Millisecond
	start := time.Now()
	_, err = sub.ReceiveTimeout(wait)
	elapsed := time.Since(start)

	assert.ErrorIs(t, err, pubsub.ErrTimeout)
	assert.GreaterOrEqual(t, elapsed, wait, "timeout must not fire early")
	assert.Less(t, elapsed, 2*time.Second, "timeout should fire reasonably close to the deadline")
}

func TestReceiveContextCancel(t *testing.T) {
	bus := pubsub.New()
	defer bus.Close()

	sub, err := pubsub.NewSubscriber(bus, "/quiet")
	require.NoError(t, err)
	defer sub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	_, err = sub.Receive(ctx)
	assert.ErrorIs(t, err, context.Canceled, "an explicit cancel is not a timeout")
	assert.NotErrorIs(t, err, pubsub.ErrTimeout)
}

func TestSubscriberClose(t *testing.T) {
	t.Run("receive after close returns ErrDisconnected", func(t *testing.T) {
		bus := pubsub.New()
		defer bus.Close()

		sub, err := pubsub.NewSubscriber(bus, "/chatter")
		require.NoError(t, err)
		require.NoError(t, sub.Close())

		_, err = sub.ReceiveTimeout(time.Second)
		assert.ErrorIs(t, err, pubsub.ErrDisconnected)
	})

	t.Run("close is idempotent", func(t *testing.T) {
		bus := pubsub.New()
		defer bus.Close()

		sub, err := pubsub.NewSubscriber(bus, "/chatter")
		require.NoError(t, err)
		require.NoError(t, sub.Close())
		require.NoError(t, sub.Close())
	})

	t.Run("close wakes a blocked receiver", func(t *testing.T) {
		bus := pubsub.New()
		defer bus.Close()

		sub, err := pubsub.NewSubscriber(bus, "/chatter")
		require.NoError(t, err)

		done := make(chan error, 1)
		go func() {
			_, err := sub.Receive(context.Background())
			done <- err
		}()

		time.Sleep(50 * time.Millisecond)
		require.NoError(t, sub.Close())

		select {
		case err := <-done:
			assert.ErrorIs(t, err, pubsub.ErrDisconnected)
		case <-time.After(time.Second):
			t.Fatal("receiver did not wake after subscriber close")
		}
	})
}

func TestOverflowPolicies(t *testing.T) {
	ctx := context.Background()

	t.Run("drop newest keeps the head of the queue", func(t *testing.T) {
		bus := pubsub.New()
		defer bus.Close()

		sub, err := pubsub.NewSubscriber(bus, "/burst",
			pubsub.WithQueueDepth(2), pubsub.WithOverflow(pubsub.OverflowDropNewest))
		require.NoError(t, err)
		defer sub.Close()

		pub, err := pubsub.NewPublisher(bus, "/burst")
		require.NoError(t, err)
		for i := 1; i <= 3; i++ {
			require.NoError(t, pub.Publish(ctx, []byte(fmt.Sprintf("msg-%d", i))))
		}

		msg, err := sub.ReceiveTimeout(time.Second)
		require.NoError(t, err)
		assert.Equal(t, []byte("msg-1"), msg.Payload)
		msg, err = sub.ReceiveTimeout(time.Second)
		require.NoError(t, err)
		assert.Equal(t, []byte("msg-2"), msg.Payload)

		assert.Equal(t, uint64(1), sub.Dropped(), "the third message should have been discarded")
	})

	t.Run("drop oldest keeps the freshest messages", func(t *testing.T) {
		bus := pubsub.New()
		defer bus.Close()

		sub, err := pubsub.NewSubscriber(bus, "/burst",
			pubsub.WithQueueDepth(2), pubsub.WithOverflow(pubsub.OverflowDropOldest))
		require.NoError(t, err)
		defer sub.Close()

		pub, err := pubsub.NewPublisher(bus, "/burst")
		require.NoError(t, err)
		for i := 1; i <= 3; i++ {
			require.NoError(t, pub.Publish(ctx, []byte(fmt.Sprintf("msg-%d", i))))
		}

		msg, err := sub.ReceiveTimeout(time.Second)
		require.NoError(t, err)
		assert.Equal(t, []byte("msg-2"), msg.Payload)
		msg, err = sub.ReceiveTimeout(time.Second)
		require.NoError(t, err)
		assert.Equal(t, []byte("msg-3"), msg.Payload)

		assert.Equal(t, uint64(1), sub.Dropped(), "the oldest message should have been evicted")
	})

	t.Run("fail policy never fails the publish", func(t *testing.T) {
		bus := pubsub.New()
		defer bus.Close()

		sub, err := pubsub.NewSubscriber(bus, "/burst",
			pubsub.WithQueueDepth(1), pubsub.WithOverflow(pubsub.OverflowFail))
		require.NoError(t, err)
		defer sub.Close()

		pub, err := pubsub.NewPublisher(bus, "/burst")
		require.NoError(t, err)
		require.NoError(t, pub.Publish(ctx, []byte("kept")))
		require.NoError(t, pub.Publish(ctx, []byte("rejected")),
			"a full queue is the subscriber's problem, not the publisher's")

		assert.Equal(t, uint64(1), sub.Dropped())
		assert.Equal(t, uint64(1), bus.Stats().Dropped)

		msg, err := sub.ReceiveTimeout(time.Second)
		require.NoError(t, err)
		assert.Equal(t, []byte("kept"), msg.Payload)
	})

	t.Run("block policy applies backpressure until the queue drains", func(t *testing.T) {
		bus := pubsub.New()
		defer bus.Close()

		sub, err := pubsub.NewSubscriber(bus, "/burst",
			pubsub.WithQueueDepth(1), pubsub.WithOverflow(pubsub.OverflowBlock))
		require.NoError(t, err)
		defer sub.Close()

		pub, err := pubsub.NewPublisher(bus, "/burst")
		require.NoError(t, err)
		require.NoError(t, pub.Publish(ctx, []byte("first")))

		// The queue is full; drain it shortly after the second publish parks.
		go func() {
			time.Sleep(50 * time.Millisecond)
			_, _ = sub.Receive(context.Background())
		}()

		start := time.Now()
		require.NoError(t, pub.Publish(ctx, []byte("second")))
		assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond,
			"the publish should have waited for the drain")

		assert.Equal(t, uint64(0), sub.Dropped(), "blocking must not lose messages")
	})

	t.Run("blocked publish respects the context deadline", func(t *testing.T) {
		bus := pubsub.New()
		defer bus.Close()

		sub, err := pubsub.NewSubscriber(bus, "/burst",
			pubsub.WithQueueDepth(1), pubsub.WithOverflow(pubsub.OverflowBlock))
		require.NoError(t, err)
		defer sub.Close()

		pub, err := pubsub.NewPublisher(bus, "/burst")
		require.NoError(t, err)
		require.NoError(t, pub.Publish(ctx, []byte("first")))

		deadlineCtx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
		defer cancel()
		err = pub.Publish(deadlineCtx, []byte("second"))
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestSubscriberPending(t *testing.T) {
	bus := pubsub.New()
	defer bus.Close()

	sub, err := pubsub.NewSubscriber(bus, "/chatter", pubsub.WithQueueDepth(4))
	require.NoError(t, err)
	defer sub.Close()

	pub, err := pubsub.NewPublisher(bus, "/chatter")
	require.NoError(t, err)

	assert.Equal(t, 0, sub.Pending())
	require.NoError(t, pub.Publish(context.Background(), []byte("a")))
	require.NoError(t, pub.Publish(context.Background(), []byte("b")))
	assert.Equal(t, 2, sub.Pending())

	_, err = sub.ReceiveTimeout(time.Second)
	require.NoError(t, err)
	assert.Equal(t, 1, sub.Pending())
}

func TestProfileValidation(t *testing.T) {
	bus := pubsub.New()
	defer bus.Close()

	t.Run("zero depth is rejected", func(t *testing.T) {
		_, err := pubsub.NewSubscriber(bus, "/chatter", pubsub.WithQueueDepth(0))
		assert.Error(t, err)
	})

	t.Run("unknown overflow policy is rejected", func(t *testing.T) {
		_, err := pubsub.NewSubscriber(bus, "/chatter", pubsub.WithOverflow("bounce"))
		assert.Error(t, err)
	})

	t.Run("default profile is valid", func(t *testing.T) {
		assert.NoError(t, pubsub.DefaultProfile().Validate())
		assert.Equal(t, pubsub.DefaultQueueDepth, pubsub.DefaultProfile().Depth)
		assert.Equal(t, pubsub.OverflowBlock, pubsub.DefaultProfile().Overflow)
	})
}
