// Package bootstrap runs the application's registration phase against
// throwaway services so CLI commands can inspect what a real process would
// declare without starting one.
package bootstrap

import (
	"fmt"
	"io"
	"log"
	"log/slog"

	"github.com/skiffworks/skiff/internal/app"
	"github.com/skiffworks/skiff/internal/config"
	"github.com/skiffworks/skiff/internal/param"
	"github.com/skiffworks/skiff/internal/pubsub"
	"github.com/skiffworks/skiff/internal/registry"
)

// Initialize builds the full module set and calls every module's Register
// method. Topic declarations land in the topicmgr default directory and
// declared parameter defaults land in the returned store. No module is
// booted, so nothing starts running.
func Initialize() (*param.Store, error) {
	// Suppress all logging output to make the CLI less chatty.
	log.SetOutput(io.Discard)
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))

	cfg, err := config.New()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	reg := registry.New(cfg)
	params := param.NewStore("global")

	// The bus exists only so module constructors have something to hold;
	// Register must not publish or subscribe.
	bus := pubsub.New(pubsub.WithDefaultProfile(cfg.DefaultProfile()))
	defer bus.Close()

	modules := app.NewModules(app.Dependencies{
		Bus:    bus,
		Params: params,
	})

	for _, mod := range modules {
		if err := mod.Register(reg); err != nil {
			return nil, fmt.Errorf("failed to register module %s: %w", mod.Name(), err)
		}
	}

	return params, nil
}
