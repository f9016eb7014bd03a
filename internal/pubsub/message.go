package pubsub

import (
	"github.com/google/uuid"
)

// Message is the envelope carried from a publisher to every subscriber of a
// topic. It is intentionally simple: raw bytes plus routing and bookkeeping
// fields, with no serialization format baked in.
type Message struct {
	// ID uniquely identifies this message on its bus.
	ID string
	// Topic is the absolute topic name the message was published on.
	Topic string
	// Type optionally names the payload encoding. The typed layer sets it to
	// the codec name; untyped publishers leave it empty.
	Type string
	// Payload contains the raw message bytes.
	Payload []byte
	// Metadata can contain arbitrary key-value pairs for context (e.g., trace IDs).
	Metadata map[string]string
}

// NewMessage builds an envelope for the given topic with a fresh ID.
func NewMessage(topic string, payload []byte) Message {
	return Message{
		ID:      uuid.NewString(),
		Topic:   topic,
		Payload: payload,
	}
}

// clone returns the copy handed to a single subscriber. Every subscriber gets
// its own payload and metadata, so one consumer mutating what it received can
// never corrupt what another one reads.
func (m Message) clone() Message {
	out := m
	if m.Payload != nil {
		out.Payload = append([]byte(nil), m.Payload...)
	}
	if m.Metadata != nil {
		out.Metadata = make(map[string]string, len(m.Metadata))
		for k, v := range m.Metadata {
			out.Metadata[k] = v
		}
	}
	return out
}
