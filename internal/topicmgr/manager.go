package topicmgr

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Manager provides the main API for the topic directory: declaration,
// validation, and discovery.
type Manager struct {
	registry  *Registry
	validator *Validator
	mu        sync.RWMutex
	startTime time.Time
}

// NewManager creates a new topic manager with registry and validator
func NewManager() *Manager {
	return &Manager{
		registry:  NewRegistry(),
		validator: NewValidator(),
		startTime: time.Now(),
	}
}

// Define creates a declared topic from its configuration. Defining does not
// register; pass the result to Register or MustRegister.
func Define(config TopicConfig) Topic {
	return &DeclaredTopic{
		name:        config.Name,
		owner:       config.Owner,
		description: config.Description,
		typeName:    config.TypeName,
		example:     config.Example,
		metadata:    config.Metadata,
	}
}

// Register validates a topic declaration and adds it to the directory
func (m *Manager) Register(topic Topic) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.validator.ValidateDefinition(topic); err != nil {
		return &TopicError{
			Type:    ErrorValidationFailed,
			Topic:   topic.Name(),
			Owner:   topic.Owner(),
			Message: "topic validation failed",
			Cause:   err,
		}
	}

	return m.registry.Register(topic)
}

// MustRegister registers a topic and panics on error (for static initialization)
func (m *Manager) MustRegister(topic Topic) {
	if err := m.Register(topic); err != nil {
		panic(fmt.Sprintf("failed to register topic %s: %v", topic.Name(), err))
	}
}

// Get retrieves a topic by name
func (m *Manager) Get(name string) (Topic, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.registry.Get(name)
}

// GetEntry retrieves a registry entry snapshot by name
func (m *Manager) GetEntry(name string) (*RegistryEntry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.registry.GetEntry(name)
}

// List returns all declared topics
func (m *Manager) List() []Topic {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.registry.List()
}

// ListByOwner returns topics declared by a specific component
func (m *Manager) ListByOwner(owner string) []Topic {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.registry.ListByOwner(owner)
}

// ListOwners returns all unique owners that have declared topics
func (m *Manager) ListOwners() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ownerSet := make(map[string]bool)
	for _, topic := range m.registry.List() {
		if topic.Owner() != "" {
			ownerSet[topic.Owner()] = true
		}
	}

	owners := make([]string, 0, len(ownerSet))
	for owner := range ownerSet {
		owners = append(owners, owner)
	}
	return owners
}

// ListTopicsByPrefix returns topics whose names start with the given prefix
func (m *Manager) ListTopicsByPrefix(prefix string) []Topic {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var matches []Topic
	for _, topic := range m.registry.List() {
		if strings.HasPrefix(topic.Name(), prefix) {
			matches = append(matches, topic)
		}
	}
	return matches
}

// CheckTopicExists verifies if a topic is declared
func (m *Manager) CheckTopicExists(name string) bool {
	_, exists := m.Get(name)
	return exists
}

// ValidateTopicName checks if a topic name is valid without declaring it
func (m *Manager) ValidateTopicName(name string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.validator.ValidateName(name)
}

// ValidateConfiguration validates a topic configuration before declaring it
func (m *Manager) ValidateConfiguration(config TopicConfig) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.validator.ValidateDefinition(Define(config))
}

// Count returns the total number of declared topics
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.registry.Count()
}

// Reset removes all declared topics (primarily for testing)
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.registry.Reset()
}

// GetStats returns comprehensive directory statistics
func (m *Manager) GetStats() ManagerStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return ManagerStats{
		StartTime:     m.startTime,
		Uptime:        time.Since(m.startTime),
		RegistryStats: m.registry.GetStats(),
	}
}

// ManagerStats provides comprehensive statistics about the directory
type ManagerStats struct {
	StartTime     time.Time     `json:"start_time"`
	Uptime        time.Duration `json:"uptime"`
	RegistryStats RegistryStats `json:"registry_stats"`
}

// Global manager instance
var (
	defaultManager     *Manager
	defaultManagerOnce sync.Once
)

// Default returns the default global manager
func Default() *Manager {
	defaultManagerOnce.Do(func() {
		defaultManager = NewManager()
	})
	return defaultManager
}

// Package-level convenience functions that use the default manager

// Register registers a topic with the default manager
func Register(topic Topic) error {
	return Default().Register(topic)
}

// MustRegister registers a topic with the default manager and panics on error
func MustRegister(topic Topic) {
	Default().MustRegister(topic)
}

// Get retrieves a topic from the default manager
func Get(name string) (Topic, bool) {
	return Default().Get(name)
}

// List returns all topics from the default manager
func List() []Topic {
	return Default().List()
}

// ListByOwner returns topics for a specific owner from the default manager
func ListByOwner(owner string) []Topic {
	return Default().ListByOwner(owner)
}

// ListOwners returns all owner names from the default manager
func ListOwners() []string {
	return Default().ListOwners()
}

// ListTopicsByPrefix returns topics by prefix from the default manager
func ListTopicsByPrefix(prefix string) []Topic {
	return Default().ListTopicsByPrefix(prefix)
}

// CheckTopicExists verifies if a topic is declared with the default manager
func CheckTopicExists(name string) bool {
	return Default().CheckTopicExists(name)
}

// ValidateTopicName checks if a topic name is valid using the default manager
func ValidateTopicName(name string) error {
	return Default().ValidateTopicName(name)
}

// ValidateConfiguration validates a topic configuration using the default manager
func ValidateConfiguration(config TopicConfig) error {
	return Default().ValidateConfiguration(config)
}

// Count returns the number of declared topics in the default manager
func Count() int {
	return Default().Count()
}

// Reset removes all topics from the default manager (primarily for testing)
func Reset() {
	Default().Reset()
}
