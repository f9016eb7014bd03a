package server

import (
	"encoding/json"
	"time"

	"github.com/skiffworks/skiff/internal/param"
	"github.com/skiffworks/skiff/internal/pubsub"
	"github.com/skiffworks/skiff/internal/topicmgr"
)

// ErrorResponse is the standard format for API error responses.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// TopicSummary is one row of the topic listing: the union of what the
// directory declares about a topic and what the bus currently sees on it.
// A topic can appear with Declared=false (traffic on an undeclared name)
// or with zero Subscribers (declared but quiet).
type TopicSummary struct {
	Name        string `json:"name"`
	Owner       string `json:"owner,omitempty"`
	Description string `json:"description,omitempty"`
	TypeName    string `json:"type_name,omitempty"`
	Declared    bool   `json:"declared"`
	Subscribers int    `json:"subscribers"`
}

// TopicDetail extends the summary with the directory's full record.
type TopicDetail struct {
	TopicSummary
	Example      string                 `json:"example,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
	RegisteredAt *time.Time             `json:"registered_at,omitempty"`
	UsageCount   int64                  `json:"usage_count"`
}

// ParamsResponse lists every parameter of one scope.
type ParamsResponse struct {
	Scope  string                 `json:"scope"`
	Count  int                    `json:"count"`
	Params map[string]param.Value `json:"params"`
}

// ParamResponse is a single parameter lookup result.
type ParamResponse struct {
	Scope string      `json:"scope"`
	Name  string      `json:"name"`
	Kind  string      `json:"kind"`
	Value param.Value `json:"value"`
}

// StatsResponse combines bus delivery counters with directory statistics.
type StatsResponse struct {
	Bus       pubsub.BusStats       `json:"bus"`
	Directory topicmgr.ManagerStats `json:"directory"`
}

// TapFrame is one streamed message on the websocket tap. JSON payloads are
// inlined so debugging output stays readable; anything else is base64.
type TapFrame struct {
	ID            string            `json:"id"`
	Topic         string            `json:"topic"`
	Type          string            `json:"type,omitempty"`
	Payload       json.RawMessage   `json:"payload,omitempty"`
	PayloadBase64 []byte            `json:"payload_base64,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// newTapFrame converts a bus envelope into its streamed form.
func newTapFrame(msg pubsub.Message) TapFrame {
	frame := TapFrame{
		ID:       msg.ID,
		Topic:    msg.Topic,
		Type:     msg.Type,
		Metadata: msg.Metadata,
	}
	if json.Valid(msg.Payload) {
		frame.Payload = json.RawMessage(msg.Payload)
	} else {
		frame.PayloadBase64 = msg.Payload
	}
	return frame
}
