package node_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skiffworks/skiff/internal/node"
	"github.com/skiffworks/skiff/internal/param"
	"github.com/skiffworks/skiff/internal/pubsub"
)

func TestNewNodeValidation(t *testing.T) {
	bus := pubsub.New()
	defer bus.Close()

	tests := []struct {
		name      string
		nodeName  string
		namespace string
		wantErr   error
	}{
		{name: "simple global node", nodeName: "talker", namespace: ""},
		{name: "namespaced node", nodeName: "talker", namespace: "/demo"},
		{name: "relative namespace gains slash", nodeName: "talker", namespace: "demo"},
		{name: "trailing slash trimmed", nodeName: "talker", namespace: "/demo/"},
		{name: "root namespace is global", nodeName: "talker", namespace: "/"},
		{name: "empty name", nodeName: "", namespace: "", wantErr: node.ErrInvalidNodeName},
		{name: "name with slash", nodeName: "demo/talker", namespace: "", wantErr: node.ErrInvalidNodeName},
		{name: "uppercase name", nodeName: "Talker", namespace: "", wantErr: node.ErrInvalidNodeName},
		{name: "bad namespace segment", nodeName: "talker", namespace: "/De mo", wantErr: node.ErrInvalidNamespace},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := node.New(bus, tt.nodeName, tt.namespace)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			defer n.Close()
			assert.NotEmpty(t, n.ID())
		})
	}
}

func TestFullyQualifiedName(t *testing.T) {
	bus := pubsub.New()
	defer bus.Close()

	global, err := node.New(bus, "talker", "")
	require.NoError(t, err)
	defer global.Close()
	assert.Equal(t, "/talker", global.FullyQualifiedName())
	assert.Equal(t, "", global.Namespace())

	scoped, err := node.New(bus, "talker", "/demo")
	require.NoError(t, err)
	defer scoped.Close()
	assert.Equal(t, "/demo/talker", scoped.FullyQualifiedName())
	assert.Equal(t, "/demo", scoped.Namespace())
	assert.Equal(t, "talker", scoped.Name())
}

func TestResolveTopic(t *testing.T) {
	bus := pubsub.New()
	defer bus.Close()

	scoped, err := node.New(bus, "talker", "/demo")
	require.NoError(t, err)
	defer scoped.Close()

	global, err := node.New(bus, "talker", "")
	require.NoError(t, err)
	defer global.Close()

	tests := []struct {
		name  string
		node  *node.Node
		topic string
		want  string
	}{
		{name: "absolute passes through", node: scoped, topic: "/chatter", want: "/chatter"},
		{name: "relative joins namespace", node: scoped, topic: "chatter", want: "/demo/chatter"},
		{name: "relative in global namespace", node: global, topic: "chatter", want: "/chatter"},
		{name: "absolute ignores namespace", node: scoped, topic: "/other/place", want: "/other/place"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.node.ResolveTopic(tt.topic))
		})
	}
}

func TestNodePublisherAndSubscriberResolve(t *testing.T) {
	bus := pubsub.New()
	defer bus.Close()

	n, err := node.New(bus, "talker", "/demo")
	require.NoError(t, err)
	defer n.Close()

	// Relative on both ends: they meet on /demo/chatter.
	sub, err := n.NewSubscriber("chatter")
	require.NoError(t, err)
	assert.Equal(t, "/demo/chatter", sub.Topic())

	pub, err := n.NewPublisher("chatter")
	require.NoError(t, err)
	assert.Equal(t, "/demo/chatter", pub.Topic())

	require.NoError(t, pub.Publish(context.Background(), []byte("resolved")))
	msg, err := sub.ReceiveTimeout(time.Second)
	require.NoError(t, err)
	assert.Equal(t, []byte("resolved"), msg.Payload)
	assert.Equal(t, "/demo/chatter", msg.Topic)
}

func TestNodeCloseReleasesSubscriptions(t *testing.T) {
	bus := pubsub.New()
	defer bus.Close()

	n, err := node.New(bus, "listener", "/demo")
	require.NoError(t, err)

	sub, err := n.NewSubscriber("chatter")
	require.NoError(t, err)
	require.Equal(t, 1, bus.SubscriberCount("/demo/chatter"))

	// A blocked receive must wake when the node closes.
	done := make(chan error, 1)
	go func() {
		_, err := sub.Receive(context.Background())
		done <- err
	}()
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, n.Close())

	select {
	case err := <-done:
		assert.ErrorIs(t, err, pubsub.ErrDisconnected)
	case <-time.After(time.Second):
		t.Fatal("blocked receive did not wake on node close")
	}
	assert.Equal(t, 0, bus.SubscriberCount("/demo/chatter"))

	// The node refuses new work after Close, and Close stays idempotent.
	_, err = n.NewSubscriber("chatter")
	assert.ErrorIs(t, err, node.ErrNodeClosed)
	_, err = n.NewPublisher("chatter")
	assert.ErrorIs(t, err, node.ErrNodeClosed)
	assert.NoError(t, n.Close())
}

func TestNodeParamsScope(t *testing.T) {
	bus := pubsub.New()
	defer bus.Close()

	n, err := node.New(bus, "talker", "/demo")
	require.NoError(t, err)
	defer n.Close()

	params := n.Params()
	require.NotNil(t, params)
	assert.Equal(t, "/demo/talker", params.Scope())

	params.Declare("publish_rate_hz", param.Float(2))
	v, err := params.Get("publish_rate_hz")
	require.NoError(t, err)
	hz, err := v.GetFloat()
	require.NoError(t, err)
	assert.Equal(t, 2.0, hz)
}

func TestNodeIDsAreUnique(t *testing.T) {
	bus := pubsub.New()
	defer bus.Close()

	n1, err := node.New(bus, "talker", "/demo")
	require.NoError(t, err)
	defer n1.Close()

	n2, err := node.New(bus, "talker", "/demo")
	require.NoError(t, err)
	defer n2.Close()

	assert.NotEqual(t, n1.ID(), n2.ID(), "two instances of the same node keep distinct IDs")
}
