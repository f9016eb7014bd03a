package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/skiffworks/skiff/internal/topicmgr"
)

// Codec translates between Go values and the raw payload bytes the bus
// carries. Name() is the payload type discriminant stamped into
// Message.Type, which is how mismatched typed subscribers detect foreign
// traffic on a shared topic.
type Codec[T any] interface {
	Marshal(v T) ([]byte, error)
	Unmarshal(data []byte) (T, error)
	Name() string
}

type jsonCodec[T any] struct {
	name string
}

// JSONCodec returns a Codec backed by encoding/json. The discriminant is the
// reflected name of T.
func JSONCodec[T any]() Codec[T] {
	var zero T
	t := reflect.TypeOf(zero)
	if t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	name := "any"
	switch {
	case t == nil:
	case t.Name() != "":
		name = t.Name()
	default:
		name = t.String()
	}
	return jsonCodec[T]{name: name}
}

func (c jsonCodec[T]) Marshal(v T) ([]byte, error) {
	return json.Marshal(v)
}

func (c jsonCodec[T]) Unmarshal(data []byte) (T, error) {
	var v T
	err := json.Unmarshal(data, &v)
	return v, err
}

func (c jsonCodec[T]) Name() string {
	return c.name
}

// Event[T] couples a topic name with a payload type and its codec. Declaring
// one registers the topic in the topicmgr directory, so conflicting typed
// declarations of the same name are caught at startup rather than at
// receive time.
type Event[T any] struct {
	topicName string
	codec     Codec[T]
}

// NewEvent declares a JSON-encoded typed event and auto-registers it with
// the Default topicmgr manager. It uses reflection to record the payload's
// field names from the struct tags of T.
func NewEvent[T any](name string, description string) Event[T] {
	return NewEventWithCodec[T](name, description, JSONCodec[T]())
}

// NewEventWithCodec declares a typed event with a caller-supplied codec.
func NewEventWithCodec[T any](name string, description string, codec Codec[T]) Event[T] {
	// Reflect on T to document its fields in the directory entry.
	var zero T
	t := reflect.TypeOf(zero)
	fields := make([]string, 0)

	// Handle both struct and pointer to struct.
	if t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	if t != nil && t.Kind() == reflect.Struct {
		for i := 0; i < t.NumField(); i++ {
			field := t.Field(i)
			jsonTag := field.Tag.Get("json")
			// Extract just the name part of the tag (ignore omitempty, etc.)
			if jsonTag != "" && jsonTag != "-" {
				nameEnd := 0
				for nameEnd < len(jsonTag) && jsonTag[nameEnd] != ',' {
					nameEnd++
				}
				fields = append(fields, jsonTag[:nameEnd])
			}
		}
	}

	// The owner is the first path segment (e.g., "/diagnostics/stats" ->
	// "diagnostics").
	owner := ""
	if trimmed := strings.TrimPrefix(name, "/"); trimmed != "" {
		if idx := strings.IndexByte(trimmed, '/'); idx >= 0 {
			owner = trimmed[:idx]
		} else {
			owner = trimmed
		}
	}

	config := topicmgr.TopicConfig{
		Name:        name,
		Owner:       owner,
		Description: description,
		TypeName:    codec.Name(),
		Metadata: map[string]interface{}{
			"payload_fields": fields,
			"is_typed":       true,
		},
	}

	// Events are usually declared at package level (init time); a failure
	// here is a configuration error that should stop startup.
	topicmgr.Default().MustRegister(topicmgr.Define(config))

	return Event[T]{
		topicName: name,
		codec:     codec,
	}
}

// Name returns the topic name.
func (e Event[T]) Name() string {
	return e.topicName
}

// TypeName returns the payload type discriminant.
func (e Event[T]) TypeName() string {
	return e.codec.Name()
}

// TypedPublisher sends values of T to an event's topic, encoding them with
// the event's codec.
type TypedPublisher[T any] struct {
	pub   *Publisher
	event Event[T]
}

// NewTypedPublisher creates a publisher bound to the event's topic.
func NewTypedPublisher[T any](bus *Bus, event Event[T]) (*TypedPublisher[T], error) {
	pub, err := NewPublisher(bus, event.Name())
	if err != nil {
		return nil, err
	}
	return &TypedPublisher[T]{
		pub:   pub,
		event: event,
	}, nil
}

// Publish encodes the payload and fans it out. The compiler ensures payload
// matches T; the envelope carries the discriminant for the receiving side.
func (tp *TypedPublisher[T]) Publish(ctx context.Context, payload T) error {
	data, err := tp.event.codec.Marshal(payload)
	if err != nil {
		return &Error{
			Kind:    KindCodecFailed,
			Topic:   tp.event.Name(),
			Message: "failed to encode payload",
			Cause:   err,
		}
	}
	return tp.pub.PublishMsg(ctx, Message{
		Type:    tp.event.TypeName(),
		Payload: data,
	})
}

// Topic returns the topic this publisher sends to.
func (tp *TypedPublisher[T]) Topic() string {
	return tp.pub.Topic()
}

// TypedSubscriber receives values of T from an event's topic, decoding them
// with the event's codec.
type TypedSubscriber[T any] struct {
	sub   *Subscriber
	event Event[T]
}

// NewTypedSubscriber registers a subscription on the event's topic.
func NewTypedSubscriber[T any](bus *Bus, event Event[T], opts ...SubscribeOption) (*TypedSubscriber[T], error) {
	sub, err := NewSubscriber(bus, event.Name(), opts...)
	if err != nil {
		return nil, err
	}
	return &TypedSubscriber[T]{
		sub:   sub,
		event: event,
	}, nil
}

// Receive blocks for the next message and decodes it. Envelopes stamped with
// a different type discriminant fail with ErrTypeMismatch; the raw envelope
// is returned alongside so callers can inspect what actually arrived.
func (ts *TypedSubscriber[T]) Receive(ctx context.Context) (T, Message, error) {
	var zero T

	msg, err := ts.sub.Receive(ctx)
	if err != nil {
		return zero, Message{}, err
	}

	if msg.Type != "" && msg.Type != ts.event.TypeName() {
		return zero, msg, &Error{
			Kind:    KindTypeMismatch,
			Topic:   ts.event.Name(),
			Message: fmt.Sprintf("expected payload type %q, got %q", ts.event.TypeName(), msg.Type),
		}
	}

	v, err := ts.event.codec.Unmarshal(msg.Payload)
	if err != nil {
		return zero, msg, &Error{
			Kind:    KindCodecFailed,
			Topic:   ts.event.Name(),
			Message: "failed to decode payload",
			Cause:   err,
		}
	}
	return v, msg, nil
}

// ReceiveTimeout waits up to d for the next decodable message.
func (ts *TypedSubscriber[T]) ReceiveTimeout(d time.Duration) (T, Message, error) {
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	return ts.Receive(ctx)
}

// Close deregisters the underlying subscription.
func (ts *TypedSubscriber[T]) Close() error {
	return ts.sub.Close()
}

// PublishEvent is a convenience for one-off typed publishes without keeping
// a TypedPublisher around.
func PublishEvent[T any](ctx context.Context, bus *Bus, event Event[T], payload T) error {
	tp, err := NewTypedPublisher(bus, event)
	if err != nil {
		return err
	}
	return tp.Publish(ctx, payload)
}
