package app

import (
	"github.com/skiffworks/skiff/internal/module"
	"github.com/skiffworks/skiff/internal/modules/diagnostics"
	"github.com/skiffworks/skiff/internal/modules/relay"
	"github.com/skiffworks/skiff/internal/param"
	"github.com/skiffworks/skiff/internal/pubsub"
)

// Dependencies holds the core services that are required by the application's
// modules. This struct is passed from the main application entrypoint to wire
// up the modules.
type Dependencies struct {
	Bus    *pubsub.Bus
	Params *param.Store
}

// NewModules creates and returns the list of all active modules for the
// application. This is the single source of truth for which features are
// enabled.
func NewModules(deps Dependencies) []module.Module {
	return []module.Module{
		// Add new application modules here.
		diagnostics.New(diagnostics.Dependencies{
			Bus:    deps.Bus,
			Params: deps.Params,
		}),
		relay.New(relay.Dependencies{
			Bus:    deps.Bus,
			Params: deps.Params,
		}),
	}
}
