package pubsub

import (
	"errors"
	"fmt"
)

// Sentinel errors for the conditions callers branch on. Operations return
// *Error values that match these through errors.Is.
var (
	// ErrInvalidTopicName is returned by constructors when the topic name is
	// empty or not absolute. The call can never succeed with that name.
	ErrInvalidTopicName = errors.New("invalid topic name")

	// ErrBusClosed is returned when an operation needs the bus registry and
	// the bus has been closed. Nothing built on that bus will work again.
	ErrBusClosed = errors.New("bus closed")

	// ErrTimeout is returned by receives when the wait window elapses with no
	// message. It is recoverable; polling callers see it constantly.
	ErrTimeout = errors.New("receive timed out")

	// ErrDisconnected is returned by receives when the subscription can never
	// yield another message: the subscriber or its bus was closed.
	ErrDisconnected = errors.New("subscriber disconnected")

	// ErrTypeMismatch is returned by typed receives when the envelope carries
	// a different payload type than the subscriber expects.
	ErrTypeMismatch = errors.New("payload type mismatch")
)

// ErrorKind classifies an Error.
type ErrorKind string

const (
	KindInvalidTopicName ErrorKind = "invalid_topic_name"
	KindBusClosed        ErrorKind = "bus_closed"
	KindTimeout          ErrorKind = "timeout"
	KindDisconnected     ErrorKind = "disconnected"
	KindTypeMismatch     ErrorKind = "type_mismatch"
	KindCodecFailed      ErrorKind = "codec_failed"
	KindInvalidProfile   ErrorKind = "invalid_profile"
)

// Error is the structured error returned by bus operations.
type Error struct {
	Kind    ErrorKind
	Topic   string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Topic != "" {
		msg = fmt.Sprintf("%s (topic %q)", msg, e.Topic)
	}
	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is maps each kind to its sentinel so errors.Is works on wrapped values.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrInvalidTopicName:
		return e.Kind == KindInvalidTopicName
	case ErrBusClosed:
		return e.Kind == KindBusClosed
	case ErrTimeout:
		return e.Kind == KindTimeout
	case ErrDisconnected:
		return e.Kind == KindDisconnected
	case ErrTypeMismatch:
		return e.Kind == KindTypeMismatch
	}
	return false
}

func errInvalidTopicName(topic string) error {
	return &Error{
		Kind:    KindInvalidTopicName,
		Topic:   topic,
		Message: "topic name must be non-empty and start with '/'",
	}
}

func errBusClosed(topic string) error {
	return &Error{
		Kind:    KindBusClosed,
		Topic:   topic,
		Message: "bus is closed",
	}
}

func errTimeout(topic string, cause error) error {
	return &Error{
		Kind:    KindTimeout,
		Topic:   topic,
		Message: "no message received in time",
		Cause:   cause,
	}
}

func errDisconnected(topic string) error {
	return &Error{
		Kind:    KindDisconnected,
		Topic:   topic,
		Message: "subscription will never receive again",
	}
}

// Per-endpoint delivery outcomes. These stay inside the bus: delivery
// failures are logged and counted, never returned to publishers.
var (
	// errEndpointClosed marks a fan-out attempt against a dead slot.
	errEndpointClosed = errors.New("endpoint closed")
	// errQueueFull is the delivery failure under the OverflowFail policy.
	errQueueFull = errors.New("subscriber queue full")
	// errDiscarded reports an OverflowDropNewest discard, which is routine
	// rather than a failure.
	errDiscarded = errors.New("message discarded")
)
