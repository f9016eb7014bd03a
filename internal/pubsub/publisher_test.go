package pubsub_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skiffworks/skiff/internal/pubsub"
)

func TestPublisherTopic(t *testing.T) {
	bus := pubsub.New()
	defer bus.Close()

	pub, err := pubsub.NewPublisher(bus, "/chatter")
	require.NoError(t, err)
	assert.Equal(t, "/chatter", pub.Topic())
}

func TestPublishMsgForcesTopicAndFillsID(t *testing.T) {
	bus := pubsub.New()
	defer bus.Close()

	sub, err := pubsub.NewSubscriber(bus, "/chatter")
	require.NoError(t, err)
	defer sub.Close()

	pub, err := pubsub.NewPublisher(bus, "/chatter")
	require.NoError(t, err)

	// A hand-built envelope with the wrong topic and no ID still lands on
	// the publisher's topic, with an ID assigned on the way out.
	err = pub.PublishMsg(context.Background(), pubsub.Message{
		Topic:    "/somewhere/else",
		Payload:  []byte("payload"),
		Metadata: map[string]string{"origin": "test"},
	})
	require.NoError(t, err)

	msg, err := sub.ReceiveTimeout(time.Second)
	require.NoError(t, err)
	assert.Equal(t, "/chatter", msg.Topic)
	assert.NotEmpty(t, msg.ID)
	assert.Equal(t, "test", msg.Metadata["origin"])
}

func TestPublishMsgKeepsCallerID(t *testing.T) {
	bus := pubsub.New()
	defer bus.Close()

	sub, err := pubsub.NewSubscriber(bus, "/chatter")
	require.NoError(t, err)
	defer sub.Close()

	pub, err := pubsub.NewPublisher(bus, "/chatter")
	require.NoError(t, err)

	err = pub.PublishMsg(context.Background(), pubsub.Message{
		ID:      "caller-chosen",
		Payload: []byte("payload"),
	})
	require.NoError(t, err)

	msg, err := sub.ReceiveTimeout(time.Second)
	require.NoError(t, err)
	assert.Equal(t, "caller-chosen", msg.ID)
}
