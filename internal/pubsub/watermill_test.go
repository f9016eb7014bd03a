package pubsub_test

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skiffworks/skiff/internal/pubsub"
)

func TestBridgePublishFansOutToBus(t *testing.T) {
	bus := pubsub.New()
	defer bus.Close()

	sub, err := pubsub.NewSubscriber(bus, "/bridge/in")
	require.NoError(t, err)
	defer sub.Close()

	bridge := pubsub.NewBridge(bus)
	defer bridge.Close()

	wmMsg := message.NewMessage(watermill.NewUUID(), []byte("via watermill"))
	wmMsg.Metadata.Set("origin", "router")
	wmMsg.Metadata.Set("skiff_type", "chatLine")
	require.NoError(t, bridge.Publish("/bridge/in", wmMsg))

	env, err := sub.ReceiveTimeout(time.Second)
	require.NoError(t, err)
	assert.Equal(t, wmMsg.UUID, env.ID)
	assert.Equal(t, "/bridge/in", env.Topic)
	assert.Equal(t, "chatLine", env.Type)
	assert.Equal(t, []byte("via watermill"), env.Payload)
	assert.Equal(t, "router", env.Metadata["origin"])
	assert.NotContains(t, env.Metadata, "skiff_type", "the discriminant belongs on the envelope, not in metadata")
}

func TestBridgePublishRejectsInvalidTopic(t *testing.T) {
	bus := pubsub.New()
	defer bus.Close()

	bridge := pubsub.NewBridge(bus)
	defer bridge.Close()

	err := bridge.Publish("no-slash", message.NewMessage(watermill.NewUUID(), nil))
	assert.ErrorIs(t, err, pubsub.ErrInvalidTopicName)
}

func TestBridgeSubscribeDeliversBusTraffic(t *testing.T) {
	bus := pubsub.New()
	defer bus.Close()

	bridge := pubsub.NewBridge(bus)
	defer bridge.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := bridge.Subscribe(ctx, "/bridge/out")
	require.NoError(t, err)

	pub, err := pubsub.NewPublisher(bus, "/bridge/out")
	require.NoError(t, err)
	require.NoError(t, pub.PublishMsg(ctx, pubsub.Message{
		Type:     "chatLine",
		Payload:  []byte("to watermill"),
		Metadata: map[string]string{"origin": "bus"},
	}))

	var first *message.Message
	select {
	case first = <-ch:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for bridged message")
	}
	assert.Equal(t, []byte("to watermill"), []byte(first.Payload))
	assert.Equal(t, "chatLine", first.Metadata.Get("skiff_type"))
	assert.Equal(t, "bus", first.Metadata.Get("origin"))
	assert.NotEmpty(t, first.UUID)
	first.Ack()

	// The pump waits for the ack, then offers the next message.
	require.NoError(t, pub.Publish(ctx, []byte("second")))
	select {
	case second := <-ch:
		assert.Equal(t, []byte("second"), []byte(second.Payload))
		second.Ack()
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for second bridged message")
	}

	// Cancelling the consumer context ends the stream.
	cancel()
	select {
	case _, ok := <-ch:
		assert.False(t, ok, "channel should close after context cancellation")
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for channel close")
	}
}

func TestBridgeNackDropsMessage(t *testing.T) {
	bus := pubsub.New()
	defer bus.Close()

	bridge := pubsub.NewBridge(bus)
	defer bridge.Close()

	ctx := context.Background()
	ch, err := bridge.Subscribe(ctx, "/bridge/out")
	require.NoError(t, err)

	pub, err := pubsub.NewPublisher(bus, "/bridge/out")
	require.NoError(t, err)
	require.NoError(t, pub.Publish(ctx, []byte("rejected")))
	require.NoError(t, pub.Publish(ctx, []byte("accepted")))

	select {
	case wmMsg := <-ch:
		assert.Equal(t, []byte("rejected"), []byte(wmMsg.Payload))
		wmMsg.Nack()
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for first message")
	}

	// No redelivery: the next message off the channel is the second publish.
	select {
	case wmMsg := <-ch:
		assert.Equal(t, []byte("accepted"), []byte(wmMsg.Payload))
		wmMsg.Ack()
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for second message")
	}
}

func TestBridgeClose(t *testing.T) {
	bus := pubsub.New()
	defer bus.Close()

	bridge := pubsub.NewBridge(bus)

	ch, err := bridge.Subscribe(context.Background(), "/bridge/out")
	require.NoError(t, err)
	require.Equal(t, 1, bus.SubscriberCount("/bridge/out"))

	require.NoError(t, bridge.Close())
	require.NoError(t, bridge.Close(), "close should be idempotent")

	select {
	case _, ok := <-ch:
		assert.False(t, ok, "channel should close when the bridge shuts down")
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for channel close")
	}
	assert.Equal(t, 0, bus.SubscriberCount("/bridge/out"))

	err = bridge.Publish("/bridge/out", message.NewMessage(watermill.NewUUID(), nil))
	assert.Error(t, err)

	// The bus itself is untouched.
	assert.False(t, bus.Closed())
}
