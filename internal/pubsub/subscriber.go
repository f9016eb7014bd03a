package pubsub

import (
	"context"
	"sync/atomic"
	"time"
)

// Subscriber receives messages published on a single topic of one Bus. It
// owns the read side of its queue exclusively; the bus only ever touches the
// write side during fan-out.
//
// Receive methods may be called from any goroutine, but messages are handed
// out one at a time in publish order, so concurrent receivers split the
// stream between them.
type Subscriber struct {
	bus    *Bus
	topic  string
	ep     *endpoint
	closed atomic.Bool
}

// SubscribeOption configures a single subscription.
type SubscribeOption func(*subscribeConfig)

type subscribeConfig struct {
	profile Profile
}

// WithProfile sets the subscription's full queue profile.
func WithProfile(p Profile) SubscribeOption {
	return func(c *subscribeConfig) {
		c.profile = p
	}
}

// WithQueueDepth overrides only the queue capacity.
func WithQueueDepth(depth int) SubscribeOption {
	return func(c *subscribeConfig) {
		c.profile.Depth = depth
	}
}

// WithOverflow overrides only the overflow policy.
func WithOverflow(policy OverflowPolicy) SubscribeOption {
	return func(c *subscribeConfig) {
		c.profile.Overflow = policy
	}
}

// NewSubscriber registers a new subscription on the topic. The queue and its
// registry slot are created together, so the first Publish after this call
// returns already reaches the subscriber; anything published before it is
// gone forever.
//
// The topic name must be non-empty and absolute, same as for publishers.
func NewSubscriber(bus *Bus, topic string, opts ...SubscribeOption) (*Subscriber, error) {
	if err := ValidateTopicName(topic); err != nil {
		return nil, err
	}

	cfg := subscribeConfig{profile: bus.defaultProfile}
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.profile.Validate(); err != nil {
		return nil, err
	}

	ep := newEndpoint(bus.nextID.Add(1), topic, cfg.profile, bus.done)
	if err := bus.register(topic, ep); err != nil {
		return nil, err
	}

	return &Subscriber{
		bus:   bus,
		topic: topic,
		ep:    ep,
	}, nil
}

// Topic returns the topic this subscriber listens on.
func (s *Subscriber) Topic() string {
	return s.topic
}

// Receive blocks until a message arrives or ctx ends. A deadline expiry maps
// to ErrTimeout so polling loops can treat it as routine; an explicit cancel
// comes back as the context's own error. Once the subscriber or its bus is
// closed, queued messages are drained first and then every call returns
// ErrDisconnected.
func (s *Subscriber) Receive(ctx context.Context) (Message, error) {
	if s.closed.Load() {
		return Message{}, errDisconnected(s.topic)
	}
	return s.ep.receive(ctx)
}

// ReceiveTimeout waits up to d for a message. It returns ErrTimeout when the
// window elapses quietly and ErrDisconnected when no message can ever arrive
// again.
func (s *Subscriber) ReceiveTimeout(d time.Duration) (Message, error) {
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	return s.Receive(ctx)
}

// Close deregisters the subscription. The registry slot is removed on the
// spot rather than waiting for a publisher to trip over it, publishers
// blocked on this queue wake immediately, and later receives return
// ErrDisconnected. Close is idempotent and never fails.
func (s *Subscriber) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	// The endpoint must die before the slot is removed: an in-flight fan-out
	// may be parked on this queue while holding the topic lock deregister
	// needs, and closing the endpoint is what wakes it.
	s.ep.close()
	s.bus.deregister(s.topic, s.ep)
	return nil
}

// Pending returns how many messages are queued waiting to be received.
func (s *Subscriber) Pending() int {
	return s.ep.pending()
}

// Dropped returns how many messages this subscription has lost to its
// overflow policy since it was created.
func (s *Subscriber) Dropped() uint64 {
	return s.ep.dropped.Load()
}
