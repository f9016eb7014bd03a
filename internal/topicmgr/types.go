package topicmgr

import (
	"time"
)

// Topic represents a declared topic: the name plus the documentation and
// typing metadata the directory keeps about it. Declaration is separate from
// delivery; the bus routes by plain names and never consults the directory.
type Topic interface {
	// Name returns the absolute topic name (e.g., "/diagnostics/stats")
	Name() string

	// Owner returns the component that declared this topic (empty for
	// shared topics nobody claims)
	Owner() string

	// Description returns human-readable documentation
	Description() string

	// TypeName returns the payload type discriminant for typed topics
	// (empty for raw byte topics)
	TypeName() string

	// Example returns a usage example
	Example() string

	// Metadata returns additional topic information
	Metadata() map[string]interface{}
}

// DeclaredTopic is the directory's Topic implementation.
type DeclaredTopic struct {
	name        string
	owner       string
	description string
	typeName    string
	example     string
	metadata    map[string]interface{}
}

// Compile-time interface compliance check
var _ Topic = (*DeclaredTopic)(nil)

// TopicConfig holds configuration for declaring a new topic
type TopicConfig struct {
	Name        string                 `json:"name"`        // Absolute topic name
	Owner       string                 `json:"owner"`       // Declaring component (optional)
	Description string                 `json:"description"` // Human-readable description
	TypeName    string                 `json:"type_name"`   // Payload type discriminant (optional)
	Example     string                 `json:"example"`     // Usage example
	Metadata    map[string]interface{} `json:"metadata"`    // Additional data
}

// RegistryEntry is a point-in-time snapshot of one directory entry.
type RegistryEntry struct {
	Topic        Topic     `json:"topic"`
	RegisteredAt time.Time `json:"registered_at"`
	Owner        string    `json:"owner"`
	UsageCount   int64     `json:"usage_count"`
}

// TopicError represents structured errors in the topic directory
type TopicError struct {
	Type    ErrorType `json:"type"`
	Topic   string    `json:"topic"`
	Owner   string    `json:"owner"`
	Message string    `json:"message"`
	Cause   error     `json:"cause,omitempty"`
}

// ErrorType defines the type of topic directory error
type ErrorType string

const (
	ErrorTopicNotFound         ErrorType = "topic_not_found"
	ErrorDuplicateRegistration ErrorType = "duplicate_registration"
	ErrorValidationFailed      ErrorType = "validation_failed"
)

// Error implements the error interface
func (e *TopicError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap returns the underlying error
func (e *TopicError) Unwrap() error {
	return e.Cause
}

// Name returns the absolute topic name
func (t *DeclaredTopic) Name() string {
	return t.name
}

// Owner returns the component that declared this topic
func (t *DeclaredTopic) Owner() string {
	return t.owner
}

// Description returns human-readable documentation
func (t *DeclaredTopic) Description() string {
	return t.description
}

// TypeName returns the payload type discriminant
func (t *DeclaredTopic) TypeName() string {
	return t.typeName
}

// Example returns a usage example
func (t *DeclaredTopic) Example() string {
	return t.example
}

// Metadata returns additional topic information
func (t *DeclaredTopic) Metadata() map[string]interface{} {
	if t.metadata == nil {
		return make(map[string]interface{})
	}
	// Return a copy to prevent external modification
	result := make(map[string]interface{})
	for k, v := range t.metadata {
		result[k] = v
	}
	return result
}

// String returns the topic name for easy debugging
func (t *DeclaredTopic) String() string {
	return t.name
}
