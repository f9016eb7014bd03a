package registry_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skiffworks/skiff/internal/config"
	"github.com/skiffworks/skiff/internal/pubsub"
	"github.com/skiffworks/skiff/internal/registry"
)

func TestRegistrySetAndGet(t *testing.T) {
	reg := registry.New(&config.Config{})

	bus := pubsub.New()
	defer bus.Close()

	registry.Set(reg, registry.BusKey, bus)

	got, ok := registry.Get(reg, registry.BusKey)
	require.True(t, ok, "service should be found after Set")
	assert.Same(t, bus, got)
}

func TestRegistryGetMissing(t *testing.T) {
	reg := registry.New(&config.Config{})

	_, ok := registry.Get(reg, registry.Key[string]("nobody.home"))
	assert.False(t, ok, "missing service should not be found")
}

func TestRegistryMustGetPanics(t *testing.T) {
	reg := registry.New(&config.Config{})

	assert.Panics(t, func() {
		registry.MustGet(reg, registry.Key[int]("not.registered"))
	})
}

func TestRegistryKeyCollisionWithDifferentType(t *testing.T) {
	reg := registry.New(&config.Config{})

	registry.Set(reg, registry.Key[string]("shared.key"), "a string")

	// Same string, different type: the lookup must miss rather than hand
	// back a value of the wrong type.
	_, ok := registry.Get(reg, registry.Key[int]("shared.key"))
	assert.False(t, ok)
}

func TestRegistryConfig(t *testing.T) {
	cfg := &config.Config{HTTPAddr: ":9999"}
	reg := registry.New(cfg)

	assert.Same(t, cfg, reg.Config())
}
