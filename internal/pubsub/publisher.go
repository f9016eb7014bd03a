package pubsub

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Publisher sends messages to a single topic on one Bus. Handles are cheap:
// construction only validates the topic name and keeps a reference to the
// bus, so a publisher for a topic nobody subscribes to is perfectly fine.
//
// A Publisher is safe for concurrent use.
type Publisher struct {
	bus   *Bus
	topic string
}

// NewPublisher creates a publisher for the given topic. The name must be
// non-empty and absolute; anything else fails with ErrInvalidTopicName, and
// retrying with the same name will never help.
func NewPublisher(bus *Bus, topic string) (*Publisher, error) {
	if err := ValidateTopicName(topic); err != nil {
		return nil, err
	}
	return &Publisher{
		bus:   bus,
		topic: topic,
	}, nil
}

// Topic returns the topic this publisher sends to.
func (p *Publisher) Topic() string {
	return p.topic
}

// Publish wraps the payload in a fresh envelope and delivers it to every
// subscriber registered at the moment of the call. Subscribers that cannot
// take the message (dead, queue full) are skipped, logged, and counted; they
// never make Publish fail, and neither does an empty topic. The error cases
// are structural: the bus is closed, or ctx ended while a blocking
// subscriber had us waiting.
func (p *Publisher) Publish(ctx context.Context, payload []byte) error {
	return p.publish(ctx, NewMessage(p.topic, payload))
}

// PublishMsg delivers a caller-built envelope. The topic is forced to the
// publisher's own and a missing ID is filled in; everything else is passed
// through untouched.
func (p *Publisher) PublishMsg(ctx context.Context, msg Message) error {
	msg.Topic = p.topic
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	return p.publish(ctx, msg)
}

func (p *Publisher) publish(ctx context.Context, msg Message) error {
	if p.bus.tracer == nil {
		return p.bus.fanOut(ctx, msg)
	}

	// Tracing is fire-and-forget observability; span bookkeeping must never
	// change the outcome of the publish.
	spanCtx, span := p.bus.tracer.Start(ctx, fmt.Sprintf("pubsub.publish.%s", p.topic),
		trace.WithAttributes(
			attribute.String("messaging.system", "skiff"),
			attribute.String("messaging.operation", "publish"),
			attribute.String("messaging.destination", p.topic),
			attribute.String("messaging.message_id", msg.ID),
			attribute.Int("messaging.message_payload_size_bytes", len(msg.Payload)),
		),
	)
	defer span.End()

	err := p.bus.fanOut(spanCtx, msg)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
