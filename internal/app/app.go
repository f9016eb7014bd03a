package app

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/afero"

	"github.com/skiffworks/skiff/internal/config"
	"github.com/skiffworks/skiff/internal/logging"
	"github.com/skiffworks/skiff/internal/module"
	"github.com/skiffworks/skiff/internal/param"
	"github.com/skiffworks/skiff/internal/pubsub"
	"github.com/skiffworks/skiff/internal/registry"
	"github.com/skiffworks/skiff/internal/server"
	"github.com/skiffworks/skiff/internal/topicmgr"
)

// App owns the process lifecycle: it assembles the bus, parameter store,
// topic directory, and HTTP server, registers and boots the modules, and
// tears everything down in reverse on shutdown.
type App struct {
	cfg     *config.Config
	reg     *registry.Registry
	bus     *pubsub.Bus
	params  *param.Store
	fs      afero.Fs
	srv     *server.Server
	modules []module.Module

	tracingCleanup func()
}

// New assembles an application from the environment. The module list comes
// from NewModules unless the caller overrides it.
func New(modules ...module.Module) (*App, error) {
	logging.New()

	cfg, err := config.New()
	if err != nil {
		return nil, err
	}
	return NewWithConfig(cfg, modules...)
}

// NewWithConfig assembles an application from an explicit configuration.
func NewWithConfig(cfg *config.Config, modules ...module.Module) (*App, error) {
	tracingCleanup := func() {}
	busOpts := []pubsub.Option{pubsub.WithDefaultProfile(cfg.DefaultProfile())}

	tcfg := pubsub.LoadTracingConfigFromEnv()
	tracer, cleanup, err := pubsub.SetupOTel(context.Background(), tcfg)
	if err != nil {
		return nil, fmt.Errorf("failed to set up tracing: %w", err)
	}
	tracingCleanup = cleanup
	if tcfg.Enabled {
		busOpts = append(busOpts, pubsub.WithTracer(tracer))
		slog.Info("Tracing enabled", "service", tcfg.ServiceName, "zipkin_url", tcfg.ZipkinURL)
	}

	bus := pubsub.New(busOpts...)
	params := param.NewStore("global")
	fs := afero.NewOsFs()

	if cfg.ParamFile != "" {
		if err := params.LoadFile(fs, cfg.ParamFile); err != nil {
			bus.Close()
			tracingCleanup()
			return nil, err
		}
	}

	reg := registry.New(cfg)
	registry.Set(reg, registry.BusKey, bus)
	registry.Set(reg, registry.ParamsKey, params)
	registry.Set(reg, registry.TopicsKey, topicmgr.Default())
	registry.Set(reg, registry.TracerKey, tracer)

	if len(modules) == 0 {
		modules = NewModules(Dependencies{Bus: bus, Params: params})
	}

	a := &App{
		cfg:            cfg,
		reg:            reg,
		bus:            bus,
		params:         params,
		fs:             fs,
		modules:        modules,
		tracingCleanup: tracingCleanup,
	}

	for _, m := range a.modules {
		if err := m.Register(reg); err != nil {
			a.cleanup()
			return nil, fmt.Errorf("module %s failed to register: %w", m.Name(), err)
		}
	}

	// The server is built last so it sees every registered service.
	a.srv = server.New(reg)
	return a, nil
}

// Registry exposes the service registry, useful for tests and the demo entrypoint.
func (a *App) Registry() *registry.Registry {
	return a.reg
}

// Run boots the modules, starts the HTTP server, and blocks until ctx ends or
// a SIGINT/SIGTERM arrives. Shutdown then proceeds in reverse boot order,
// bounded by the configured timeout.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if a.cfg.WatchParams && a.cfg.ParamFile != "" {
		watcher := param.NewWatcher(a.params, a.fs, a.cfg.ParamFile)
		if err := watcher.Start(ctx); err != nil {
			a.cleanup()
			return err
		}
	}

	booted := make([]module.Module, 0, len(a.modules))
	for _, m := range a.modules {
		if err := m.Boot(ctx, a.reg); err != nil {
			a.shutdownModules(booted)
			a.cleanup()
			return fmt.Errorf("module %s failed to boot: %w", m.Name(), err)
		}
		booted = append(booted, m)
		slog.Info("Module booted", "module", m.Name())
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("Starting introspection server", "addr", a.srv.Addr())
		serverErr <- a.srv.Start()
	}()

	var runErr error
	select {
	case <-ctx.Done():
		slog.Info("Shutdown signal received")
	case err := <-serverErr:
		// The listener died before any signal; shut the rest down anyway.
		slog.Error("Server stopped unexpectedly", "error", err)
		runErr = err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := a.srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server shutdown failed", "error", err)
	}
	a.shutdownModules(booted)
	a.cleanup()

	slog.Info("Shutdown complete")
	return runErr
}

// shutdownModules stops modules in reverse boot order so later modules never
// outlive what they depend on.
func (a *App) shutdownModules(booted []module.Module) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	for i := len(booted) - 1; i >= 0; i-- {
		m := booted[i]
		if err := m.Shutdown(shutdownCtx); err != nil {
			slog.Error("Module shutdown failed", "module", m.Name(), "error", err)
		}
	}
}

func (a *App) cleanup() {
	if err := a.bus.Close(); err != nil {
		slog.Error("Bus close failed", "error", err)
	}
	a.tracingCleanup()
}
