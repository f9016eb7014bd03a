package node

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/skiffworks/skiff/internal/param"
	"github.com/skiffworks/skiff/internal/pubsub"
)

var (
	// ErrInvalidNodeName reports a node name that is empty or not a single
	// path segment.
	ErrInvalidNodeName = errors.New("invalid node name")

	// ErrInvalidNamespace reports a namespace that does not normalize to
	// slash-separated segments.
	ErrInvalidNamespace = errors.New("invalid namespace")

	// ErrNodeClosed reports an operation on a node after Close.
	ErrNodeClosed = errors.New("node closed")
)

var segmentPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Node is a named participant on the bus. It owns a namespace that relative
// topic names resolve against, a parameter store scoped to its fully
// qualified name, and every subscription it creates, which Close releases
// deterministically.
type Node struct {
	name      string
	namespace string
	id        string
	params    *param.Store
	bus       *pubsub.Bus

	mu     sync.Mutex
	subs   []*pubsub.Subscriber
	closed bool
}

// New creates a node on the bus. The name must be a single lowercase path
// segment; the namespace may be empty (global), absolute, or relative, and
// is normalized to either "" or "/seg(/seg)*" form.
func New(bus *pubsub.Bus, name, namespace string) (*Node, error) {
	if bus == nil {
		return nil, fmt.Errorf("node requires a bus")
	}
	if !segmentPattern.MatchString(name) {
		return nil, fmt.Errorf("%w: %q must be a single lowercase segment", ErrInvalidNodeName, name)
	}

	ns, err := normalizeNamespace(namespace)
	if err != nil {
		return nil, err
	}

	n := &Node{
		name:      name,
		namespace: ns,
		id:        uuid.NewString(),
		bus:       bus,
	}
	n.params = param.NewStore(n.FullyQualifiedName())

	slog.Info("Creating node", "node", n.FullyQualifiedName(), "id", n.id)
	return n, nil
}

// normalizeNamespace maps "" and "/" to the global namespace (empty string)
// and everything else to an absolute path without a trailing slash.
func normalizeNamespace(namespace string) (string, error) {
	if namespace == "" || namespace == "/" {
		return "", nil
	}

	ns := strings.TrimSuffix(namespace, "/")
	if !strings.HasPrefix(ns, "/") {
		ns = "/" + ns
	}

	for _, seg := range strings.Split(ns[1:], "/") {
		if !segmentPattern.MatchString(seg) {
			return "", fmt.Errorf("%w: %q", ErrInvalidNamespace, namespace)
		}
	}
	return ns, nil
}

// Name returns the base name of the node.
func (n *Node) Name() string {
	return n.name
}

// Namespace returns the normalized namespace ("" for the global namespace).
func (n *Node) Namespace() string {
	return n.namespace
}

// FullyQualifiedName returns the node's absolute name (e.g., "/demo/talker").
func (n *Node) FullyQualifiedName() string {
	if n.namespace == "" {
		return "/" + n.name
	}
	return n.namespace + "/" + n.name
}

// ID returns the unique identifier of this node instance.
func (n *Node) ID() string {
	return n.id
}

// Params returns the node's parameter store.
func (n *Node) Params() *param.Store {
	return n.params
}

// ResolveTopic resolves a topic name against the node's namespace. Absolute
// names pass through untouched; relative names join the namespace, or gain a
// leading slash in the global namespace.
func (n *Node) ResolveTopic(topic string) string {
	if strings.HasPrefix(topic, "/") {
		return topic
	}
	if n.namespace == "" {
		return "/" + topic
	}
	return n.namespace + "/" + topic
}

// NewPublisher creates a publisher for a topic resolved against the node's
// namespace.
func (n *Node) NewPublisher(topic string) (*pubsub.Publisher, error) {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrNodeClosed, n.FullyQualifiedName())
	}
	n.mu.Unlock()

	resolved := n.ResolveTopic(topic)
	slog.Info("Creating publisher", "node", n.FullyQualifiedName(), "topic", resolved)
	return pubsub.NewPublisher(n.bus, resolved)
}

// NewSubscriber creates a subscription on a topic resolved against the
// node's namespace. The node tracks it and releases it on Close.
func (n *Node) NewSubscriber(topic string, opts ...pubsub.SubscribeOption) (*pubsub.Subscriber, error) {
	resolved := n.ResolveTopic(topic)

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return nil, fmt.Errorf("%w: %s", ErrNodeClosed, n.FullyQualifiedName())
	}

	sub, err := pubsub.NewSubscriber(n.bus, resolved, opts...)
	if err != nil {
		return nil, err
	}
	n.subs = append(n.subs, sub)

	slog.Info("Creating subscriber", "node", n.FullyQualifiedName(), "topic", resolved)
	return sub, nil
}

// Close releases every subscription the node created. It is idempotent, and
// blocked Receive calls on the node's subscribers wake with ErrDisconnected.
func (n *Node) Close() error {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return nil
	}
	n.closed = true
	subs := n.subs
	n.subs = nil
	n.mu.Unlock()

	for _, sub := range subs {
		_ = sub.Close()
	}

	slog.Info("Node closed", "node", n.FullyQualifiedName(), "id", n.id, "subscriptions_released", len(subs))
	return nil
}
