package pubsub

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"
)

// Bridge exposes a Bus as a watermill message.Publisher and
// message.Subscriber, so watermill tooling (routers, middleware, handlers)
// can ride the in-process bus without standing up a broker.
//
// Delivery through the bridge keeps the bus's semantics: at-most-once per
// subscriber, best effort. A nacked message is logged and dropped, never
// redelivered.
type Bridge struct {
	bus *Bus

	mu      sync.Mutex
	pubs    map[string]*Publisher
	subs    []*Subscriber
	closing chan struct{}
	closed  bool
}

// Compile-time interface compliance checks.
var (
	_ message.Publisher  = (*Bridge)(nil)
	_ message.Subscriber = (*Bridge)(nil)
)

const (
	// Metadata key used to carry the envelope's type discriminant through
	// watermill's message. The envelope ID travels as the watermill UUID and
	// the topic as the watermill topic.
	metaKeyType = "skiff_type"
)

var errBridgeClosed = errors.New("pubsub: bridge closed")

// NewBridge wraps the bus. Closing the bridge releases the subscriptions it
// created but leaves the bus itself running.
func NewBridge(bus *Bus) *Bridge {
	return &Bridge{
		bus:     bus,
		pubs:    make(map[string]*Publisher),
		closing: make(chan struct{}),
	}
}

// toWatermillMessage converts a bus envelope to a watermill message.
func toWatermillMessage(env Message) *message.Message {
	wmMsg := message.NewMessage(env.ID, env.Payload)
	for k, v := range env.Metadata {
		wmMsg.Metadata.Set(k, v)
	}
	if env.Type != "" {
		wmMsg.Metadata.Set(metaKeyType, env.Type)
	}
	return wmMsg
}

// toEnvelope converts a watermill message back to a bus envelope.
func toEnvelope(topic string, wmMsg *message.Message) Message {
	metadata := make(map[string]string)
	for k, v := range wmMsg.Metadata {
		if k != metaKeyType {
			metadata[k] = v
		}
	}

	return Message{
		ID:       wmMsg.UUID,
		Topic:    topic,
		Type:     wmMsg.Metadata.Get(metaKeyType),
		Payload:  wmMsg.Payload,
		Metadata: metadata,
	}
}

// Publish implements message.Publisher. Each message fans out to the topic's
// current subscribers under the bus's usual rules.
func (br *Bridge) Publish(topic string, messages ...*message.Message) error {
	br.mu.Lock()
	if br.closed {
		br.mu.Unlock()
		return errBridgeClosed
	}
	pub, ok := br.pubs[topic]
	if !ok {
		var err error
		pub, err = NewPublisher(br.bus, topic)
		if err != nil {
			br.mu.Unlock()
			return err
		}
		br.pubs[topic] = pub
	}
	br.mu.Unlock()

	for _, wmMsg := range messages {
		ctx := wmMsg.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		if err := pub.PublishMsg(ctx, toEnvelope(topic, wmMsg)); err != nil {
			return err
		}
	}
	return nil
}

// Subscribe implements message.Subscriber. It registers a bus subscription
// and pumps envelopes into the returned channel until ctx ends, the bridge
// closes, or the bus shuts down. Each message waits for its Ack or Nack
// before the next one is offered, matching watermill's ordering contract.
func (br *Bridge) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	sub, err := NewSubscriber(br.bus, topic)
	if err != nil {
		return nil, err
	}

	br.mu.Lock()
	if br.closed {
		br.mu.Unlock()
		_ = sub.Close()
		return nil, errBridgeClosed
	}
	br.subs = append(br.subs, sub)
	br.mu.Unlock()

	out := make(chan *message.Message)
	go br.consume(ctx, sub, out)
	return out, nil
}

func (br *Bridge) consume(ctx context.Context, sub *Subscriber, out chan *message.Message) {
	defer close(out)
	defer func() { _ = sub.Close() }()

	for {
		env, err := sub.Receive(ctx)
		if err != nil {
			slog.Debug("Subscription message loop ended", "topic", sub.Topic(), "reason", err)
			return
		}

		wmMsg := toWatermillMessage(env)
		wmMsg.SetContext(ctx)

		select {
		case out <- wmMsg:
		case <-ctx.Done():
			return
		case <-br.closing:
			return
		}

		select {
		case <-wmMsg.Acked():
		case <-wmMsg.Nacked():
			// At-most-once delivery: the consumer saw it and rejected it,
			// and there is nothing to retry against.
			slog.Error("Message nacked, dropping", "topic", sub.Topic(), "msg_id", env.ID)
		case <-ctx.Done():
			return
		case <-br.closing:
			return
		}
	}
}

// Close implements the Publisher and Subscriber interface to shut down the
// bridge. Subscriptions created through Subscribe are released; the bus
// itself stays up.
func (br *Bridge) Close() error {
	br.mu.Lock()
	if br.closed {
		br.mu.Unlock()
		return nil
	}
	br.closed = true
	close(br.closing)
	subs := br.subs
	br.subs = nil
	br.mu.Unlock()

	for _, sub := range subs {
		_ = sub.Close()
	}
	return nil
}
