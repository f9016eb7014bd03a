package topicmgr

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// Registry manages the collection of declared topics with metadata
type Registry struct {
	entries map[string]*registryEntry
	mu      sync.RWMutex
}

// registryEntry is the internal storage form; usage counts are atomic so
// lookups can bump them under the read lock.
type registryEntry struct {
	topic        Topic
	registeredAt time.Time
	usageCount   atomic.Int64
}

// NewRegistry creates a new topic registry
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]*registryEntry),
	}
}

// Register adds a topic to the registry. Names are unique: a second
// declaration of the same name fails no matter who makes it, which is what
// surfaces conflicting typed declarations at startup.
func (r *Registry) Register(topic Topic) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if topic == nil {
		return &TopicError{
			Type:    ErrorValidationFailed,
			Message: "cannot register nil topic",
		}
	}

	name := topic.Name()
	if name == "" {
		return &TopicError{
			Type:    ErrorValidationFailed,
			Topic:   name,
			Message: "topic name cannot be empty",
		}
	}

	if existing, exists := r.entries[name]; exists {
		msg := fmt.Sprintf("topic already declared: %s", name)
		if existing.topic.TypeName() != topic.TypeName() {
			msg = fmt.Sprintf("topic %s already declared with payload type %q, redeclared with %q",
				name, existing.topic.TypeName(), topic.TypeName())
		}
		return &TopicError{
			Type:    ErrorDuplicateRegistration,
			Topic:   name,
			Owner:   topic.Owner(),
			Message: msg,
		}
	}

	r.entries[name] = &registryEntry{
		topic:        topic,
		registeredAt: time.Now(),
	}
	return nil
}

// Get retrieves a topic by name
func (r *Registry) Get(name string) (Topic, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, exists := r.entries[name]
	if !exists {
		return nil, false
	}

	entry.usageCount.Add(1)
	return entry.topic, true
}

// List returns all declared topics
func (r *Registry) List() []Topic {
	r.mu.RLock()
	defer r.mu.RUnlock()

	topics := make([]Topic, 0, len(r.entries))
	for _, entry := range r.entries {
		topics = append(topics, entry.topic)
	}
	return topics
}

// ListByOwner returns topics declared by a specific component
func (r *Registry) ListByOwner(owner string) []Topic {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var topics []Topic
	for _, entry := range r.entries {
		if entry.topic.Owner() == owner {
			topics = append(topics, entry.topic)
		}
	}
	return topics
}

// GetEntry retrieves a snapshot of a registry entry by topic name
func (r *Registry) GetEntry(name string) (*RegistryEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, exists := r.entries[name]
	if !exists {
		return nil, false
	}

	return &RegistryEntry{
		Topic:        entry.topic,
		RegisteredAt: entry.registeredAt,
		Owner:        entry.topic.Owner(),
		UsageCount:   entry.usageCount.Load(),
	}, true
}

// Count returns the number of declared topics
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.entries)
}

// Reset removes all declared topics (primarily for testing)
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = make(map[string]*registryEntry)
}

// GetStats returns registry statistics
func (r *Registry) GetStats() RegistryStats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := RegistryStats{
		TotalTopics:    len(r.entries),
		OwnerBreakdown: make(map[string]int),
	}

	for _, entry := range r.entries {
		if entry.topic.TypeName() != "" {
			stats.TypedTopics++
		}
		if owner := entry.topic.Owner(); owner != "" {
			stats.OwnerBreakdown[owner]++
		}
	}

	return stats
}

// RegistryStats provides statistics about the registry
type RegistryStats struct {
	TotalTopics    int            `json:"total_topics"`
	TypedTopics    int            `json:"typed_topics"`
	OwnerBreakdown map[string]int `json:"owner_breakdown"`
}
