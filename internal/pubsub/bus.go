package pubsub

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// Bus is the communication context for one process: the topic registry plus
// the write side of every live subscription. Publishers and Subscribers are
// always constructed against exactly one Bus, so two buses never share
// traffic and tests can run on isolated instances.
//
// Topic entries persist once created; memory grows with the number of
// distinct topic names ever subscribed, not with traffic. Dead subscriptions
// are removed eagerly on Subscriber.Close and swept lazily when a fan-out
// trips over them.
type Bus struct {
	log            *slog.Logger
	tracer         trace.Tracer
	defaultProfile Profile

	mu     sync.Mutex
	topics map[string]*topicEntry
	closed bool
	done   chan struct{}
	nextID atomic.Uint64

	startTime time.Time
	published atomic.Uint64
	delivered atomic.Uint64
	dropped   atomic.Uint64
	swept     atomic.Uint64
}

// topicEntry is the slot table for one topic. Its mutex serializes fan-out
// and membership changes for that topic only, so a slow subscriber on one
// topic never stalls publishes on another.
type topicEntry struct {
	mu        sync.Mutex
	endpoints []*endpoint
}

// Option configures a Bus.
type Option func(*Bus)

// WithLogger sets the logger used for delivery diagnostics.
func WithLogger(log *slog.Logger) Option {
	return func(b *Bus) {
		b.log = log
	}
}

// WithDefaultProfile sets the queue profile subscriptions get when they do
// not choose their own.
func WithDefaultProfile(p Profile) Option {
	return func(b *Bus) {
		b.defaultProfile = p
	}
}

// WithTracer enables OpenTelemetry spans around publish operations.
func WithTracer(tracer trace.Tracer) Option {
	return func(b *Bus) {
		b.tracer = tracer
	}
}

// New creates an empty Bus. The zero configuration is ready for production
// use: default profiles block publishers instead of losing messages, and
// diagnostics go to the default slog logger.
func New(opts ...Option) *Bus {
	b := &Bus{
		log:            slog.Default(),
		defaultProfile: DefaultProfile(),
		topics:         make(map[string]*topicEntry),
		done:           make(chan struct{}),
		startTime:      time.Now(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// ValidateTopicName checks the construction-time naming rule: names must be
// non-empty and absolute (start with '/'). The topicmgr directory enforces
// the full grammar for declared topics; the bus itself only insists on the
// part that routing depends on.
func ValidateTopicName(name string) error {
	if name == "" || !strings.HasPrefix(name, "/") {
		return errInvalidTopicName(name)
	}
	return nil
}

// register adds a subscription's write side to the topic's slot table,
// creating the entry if this is the topic's first subscriber.
func (b *Bus) register(topic string, ep *endpoint) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return errBusClosed(topic)
	}
	e, ok := b.topics[topic]
	if !ok {
		e = &topicEntry{}
		b.topics[topic] = e
	}
	e.mu.Lock()
	e.endpoints = append(e.endpoints, ep)
	e.mu.Unlock()
	b.mu.Unlock()

	b.log.Debug("Subscriber registered", "topic", topic, "sub_id", ep.id, "depth", ep.profile.Depth, "overflow", ep.profile.Overflow)
	return nil
}

// deregister removes a subscription's write side immediately. Called from
// Subscriber.Close so the registry never keeps a slot for a handle the
// caller has already destroyed.
func (b *Bus) deregister(topic string, ep *endpoint) {
	b.mu.Lock()
	e, ok := b.topics[topic]
	b.mu.Unlock()
	if !ok {
		return
	}

	e.mu.Lock()
	for i, cur := range e.endpoints {
		if cur == ep {
			e.endpoints = append(e.endpoints[:i], e.endpoints[i+1:]...)
			break
		}
	}
	e.mu.Unlock()

	b.log.Debug("Subscriber deregistered", "topic", topic, "sub_id", ep.id)
}

// fanOut delivers one message to every endpoint currently registered for its
// topic. Deliveries are independent: a dead or full endpoint is logged and
// counted but never stops the rest, and the call reports success even when
// nobody is listening. Only a closed bus or a canceled context fails it.
func (b *Bus) fanOut(ctx context.Context, msg Message) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return errBusClosed(msg.Topic)
	}
	e := b.topics[msg.Topic]
	b.mu.Unlock()

	b.published.Add(1)
	if e == nil {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	sweep := false
	for _, ep := range e.endpoints {
		before := ep.dropped.Load()
		err := ep.send(ctx, msg.clone())
		// ep.dropped moves only under this entry's lock, so the delta is
		// exactly what this send evicted or discarded.
		if d := ep.dropped.Load() - before; d > 0 {
			b.dropped.Add(d)
		}
		switch {
		case err == nil:
			b.delivered.Add(1)
		case err == errEndpointClosed:
			sweep = true
			b.log.Debug("Skipping dead subscriber", "topic", msg.Topic, "sub_id", ep.id, "msg_id", msg.ID)
		case err == errDiscarded:
			b.log.Debug("Queue full, discarding incoming message", "topic", msg.Topic, "sub_id", ep.id, "msg_id", msg.ID)
		case err == errQueueFull:
			b.log.Warn("Subscriber queue full, message not delivered", "topic", msg.Topic, "sub_id", ep.id, "msg_id", msg.ID)
		default:
			// Context ended while a Block-policy endpoint had us parked.
			// The publisher asked to stop waiting; undelivered endpoints
			// simply miss this message.
			if sweep {
				b.sweepLocked(e, msg.Topic)
			}
			return err
		}
	}

	if sweep {
		b.sweepLocked(e, msg.Topic)
	}
	return nil
}

// sweepLocked compacts the slot table, dropping endpoints that reported
// themselves closed during a fan-out. Caller holds e.mu.
func (b *Bus) sweepLocked(e *topicEntry, topic string) {
	live := e.endpoints[:0]
	removed := 0
	for _, ep := range e.endpoints {
		if ep.isClosed() {
			removed++
			continue
		}
		live = append(live, ep)
	}
	for i := len(live); i < len(e.endpoints); i++ {
		e.endpoints[i] = nil
	}
	e.endpoints = live

	if removed > 0 {
		b.swept.Add(uint64(removed))
		b.log.Debug("Swept dead subscribers", "topic", topic, "removed", removed, "remaining", len(live))
	}
}

// Close shuts the bus down. Every subscription's write side is closed, which
// wakes blocked receivers; they drain whatever was already queued and then
// see ErrDisconnected. Register and publish calls made after Close fail with
// ErrBusClosed. Close is idempotent.
func (b *Bus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	// Closing done aborts any fan-out parked on a full Block-policy queue,
	// which would otherwise hold its topic lock against us forever.
	close(b.done)
	entries := make([]*topicEntry, 0, len(b.topics))
	for _, e := range b.topics {
		entries = append(entries, e)
	}
	b.mu.Unlock()

	closed := 0
	for _, e := range entries {
		e.mu.Lock()
		for _, ep := range e.endpoints {
			ep.close()
			closed++
		}
		e.endpoints = nil
		e.mu.Unlock()
	}

	b.log.Debug("Bus closed", "subscribers_closed", closed,
		"published", b.published.Load(), "delivered", b.delivered.Load(), "dropped", b.dropped.Load())
	return nil
}

// Closed reports whether Close has been called.
func (b *Bus) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

// Topics returns the names of all topics that have ever had a subscriber,
// sorted for stable output.
func (b *Bus) Topics() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	names := make([]string, 0, len(b.topics))
	for name := range b.topics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SubscriberCount returns the number of live subscriptions on a topic.
func (b *Bus) SubscriberCount(topic string) int {
	b.mu.Lock()
	e, ok := b.topics[topic]
	b.mu.Unlock()
	if !ok {
		return 0
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	count := 0
	for _, ep := range e.endpoints {
		if !ep.isClosed() {
			count++
		}
	}
	return count
}

// BusStats is a point-in-time snapshot of bus activity.
type BusStats struct {
	Topics         int            `json:"topics"`
	Subscribers    int            `json:"subscribers"`
	Published      uint64         `json:"published"`
	Delivered      uint64         `json:"delivered"`
	Dropped        uint64         `json:"dropped"`
	Swept          uint64         `json:"swept"`
	Uptime         time.Duration  `json:"uptime"`
	TopicBreakdown map[string]int `json:"topic_breakdown"`
}

// Stats returns a snapshot of bus activity: cumulative publish and delivery
// counters plus live subscriber counts per topic.
func (b *Bus) Stats() BusStats {
	b.mu.Lock()
	entries := make(map[string]*topicEntry, len(b.topics))
	for name, e := range b.topics {
		entries[name] = e
	}
	b.mu.Unlock()

	stats := BusStats{
		Topics:         len(entries),
		Published:      b.published.Load(),
		Delivered:      b.delivered.Load(),
		Dropped:        b.dropped.Load(),
		Swept:          b.swept.Load(),
		Uptime:         time.Since(b.startTime),
		TopicBreakdown: make(map[string]int, len(entries)),
	}

	for name, e := range entries {
		e.mu.Lock()
		live := 0
		for _, ep := range e.endpoints {
			if !ep.isClosed() {
				live++
			}
		}
		e.mu.Unlock()
		stats.TopicBreakdown[name] = live
		stats.Subscribers += live
	}
	return stats
}
