package param

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

var (
	// ErrNotFound reports a lookup of a parameter that was never declared or set.
	ErrNotFound = errors.New("parameter not found")

	// ErrWrongKind reports a typed accessor applied to a value of another kind.
	ErrWrongKind = errors.New("parameter has wrong kind")
)

// ChangeFunc is called after a parameter's value changes. Callbacks run on
// the caller's goroutine, outside the store lock.
type ChangeFunc func(name string, value Value)

// Store holds the parameters of one scope (a node, or the process-wide
// configuration). Reads dominate writes, so access goes through an RWMutex.
type Store struct {
	scope string

	mu        sync.RWMutex
	values    map[string]Value
	callbacks map[string][]ChangeFunc
}

// NewStore creates an empty parameter store for the given scope. The scope
// is only used to attribute log lines and API output to their owner.
func NewStore(scope string) *Store {
	slog.Debug("Initializing parameter store", "scope", scope)
	return &Store{
		scope:     scope,
		values:    make(map[string]Value),
		callbacks: make(map[string][]ChangeFunc),
	}
}

// Scope returns the owner label of this store.
func (s *Store) Scope() string {
	return s.scope
}

// Declare installs a default value for a parameter unless one is already
// present. Values loaded from a file or set before the owner boots win over
// the declared default.
func (s *Store) Declare(name string, def Value) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.values[name]; exists {
		return
	}
	slog.Debug("Declaring parameter", "scope", s.scope, "name", name, "default", def.String())
	s.values[name] = def
}

// Set stores a parameter value, creating the parameter if it was never
// declared, and fires any change callbacks registered for it.
func (s *Store) Set(name string, value Value) {
	s.mu.Lock()
	s.values[name] = value
	cbs := append([]ChangeFunc(nil), s.callbacks[name]...)
	s.mu.Unlock()

	slog.Debug("Setting parameter", "scope", s.scope, "name", name, "value", value.String())
	for _, cb := range cbs {
		cb(name, value)
	}
}

// Get returns the value of a parameter.
func (s *Store) Get(name string) (Value, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, exists := s.values[name]
	if !exists {
		return Value{}, fmt.Errorf("%w: %q in scope %q", ErrNotFound, name, s.scope)
	}
	return value, nil
}

// Has reports whether a parameter exists.
func (s *Store) Has(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, exists := s.values[name]
	return exists
}

// List returns a snapshot of all parameters.
func (s *Store) List() map[string]Value {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := make(map[string]Value, len(s.values))
	for name, value := range s.values {
		snapshot[name] = value
	}
	return snapshot
}

// Names returns all parameter names in sorted order.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.values))
	for name := range s.values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// OnChange registers a callback fired whenever the named parameter is set.
// The callback sees the new value; registration order is preserved.
func (s *Store) OnChange(name string, fn ChangeFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.callbacks[name] = append(s.callbacks[name], fn)
}
