package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"

	"github.com/skiffworks/skiff/internal/pubsub"
)

var validatorInstance = validator.New()

// Config holds all configuration for the application. Every field has a
// default, so a bare process comes up without any environment set.
type Config struct {
	// HTTPAddr is the listen address of the introspection server. ENV: SKIFF_HTTP_ADDR
	HTTPAddr string `env:"SKIFF_HTTP_ADDR,default=:8090" validate:"required"`

	// QueueDepth is the default per-subscriber queue depth. ENV: SKIFF_QUEUE_DEPTH
	QueueDepth int `env:"SKIFF_QUEUE_DEPTH,default=10" validate:"gt=0,lte=65536"`

	// OverflowPolicy is the default behavior when a subscriber queue is full.
	// ENV: SKIFF_OVERFLOW_POLICY
	OverflowPolicy string `env:"SKIFF_OVERFLOW_POLICY,default=block" validate:"oneof=block drop_oldest drop_newest fail"`

	// ParamFile is an optional JSON parameter document loaded at startup.
	// ENV: SKIFF_PARAM_FILE
	ParamFile string `env:"SKIFF_PARAM_FILE,default="`

	// WatchParams reloads the parameter file when it changes on disk.
	// ENV: SKIFF_WATCH_PARAMS
	WatchParams bool `env:"SKIFF_WATCH_PARAMS,default=false"`

	// ShutdownTimeout bounds graceful shutdown. ENV: SKIFF_SHUTDOWN_TIMEOUT
	ShutdownTimeout time.Duration `env:"SKIFF_SHUTDOWN_TIMEOUT,default=10s" validate:"gt=0"`
}

// New loads configuration from a .env file (if present) and the environment.
func New() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found, relying on environment variables")
	}

	cfg := &Config{}
	if err := envdecode.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration against its struct constraints.
func (c *Config) Validate() error {
	if err := validatorInstance.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// DefaultProfile converts the queue settings into a delivery profile for the bus.
func (c *Config) DefaultProfile() pubsub.Profile {
	return pubsub.Profile{
		Depth:    c.QueueDepth,
		Overflow: pubsub.OverflowPolicy(c.OverflowPolicy),
	}
}
