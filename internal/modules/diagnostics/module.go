package diagnostics

import (
	"context"
	"log/slog"
	"time"

	"github.com/skiffworks/skiff/internal/module"
	"github.com/skiffworks/skiff/internal/modules/diagnostics/events"
	"github.com/skiffworks/skiff/internal/param"
	"github.com/skiffworks/skiff/internal/pubsub"
	"github.com/skiffworks/skiff/internal/registry"
)

// ParamPeriodMS is the parameter controlling the publish interval.
const ParamPeriodMS = "diagnostics.period_ms"

const defaultPeriod = time.Second

// Module periodically publishes bus statistics to /diagnostics/stats, so any
// subscriber (or the websocket tap) can watch delivery health without polling
// the HTTP API.
type Module struct {
	module.BaseModule
	bus    *pubsub.Bus
	params *param.Store

	cancel context.CancelFunc
	done   chan struct{}
}

// Dependencies holds the services required by the diagnostics module.
type Dependencies struct {
	Bus    *pubsub.Bus
	Params *param.Store
}

// New creates a new diagnostics module instance.
func New(deps Dependencies) *Module {
	return &Module{
		bus:    deps.Bus,
		params: deps.Params,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "diagnostics"
}

// Register declares the module's parameters. The stats topic itself is
// declared with the events package.
func (m *Module) Register(reg *registry.Registry) error {
	m.params.Declare(ParamPeriodMS, param.Int(int64(defaultPeriod/time.Millisecond)))

	slog.Info("DiagnosticsModule registered", "topic", events.Snapshot.Name())
	return nil
}

// Boot starts the periodic publisher.
func (m *Module) Boot(ctx context.Context, reg *registry.Registry) error {
	pub, err := pubsub.NewTypedPublisher(m.bus, events.Snapshot)
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.done = make(chan struct{})
	go m.run(runCtx, pub)

	slog.Info("DiagnosticsModule booted", "period", m.period())
	return nil
}

// Shutdown stops the periodic publisher and waits for it to exit.
func (m *Module) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down DiagnosticsModule...")

	if m.cancel != nil {
		m.cancel()
		select {
		case <-m.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (m *Module) run(ctx context.Context, pub *pubsub.TypedPublisher[events.StatsSnapshot]) {
	defer close(m.done)

	ticker := time.NewTicker(m.period())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.publishSnapshot(ctx, pub)
			// Parameter changes apply from the next tick.
			ticker.Reset(m.period())
		}
	}
}

func (m *Module) publishSnapshot(ctx context.Context, pub *pubsub.TypedPublisher[events.StatsSnapshot]) {
	stats := m.bus.Stats()
	snapshot := events.StatsSnapshot{
		Topics:      stats.Topics,
		Subscribers: stats.Subscribers,
		Published:   stats.Published,
		Delivered:   stats.Delivered,
		Dropped:     stats.Dropped,
		Swept:       stats.Swept,
		UptimeMS:    stats.Uptime.Milliseconds(),
		Breakdown:   stats.TopicBreakdown,
		CapturedAt:  time.Now().UTC(),
	}

	if err := pub.Publish(ctx, snapshot); err != nil {
		slog.Error("Failed to publish stats snapshot", "error", err)
	}
}

// period reads the publish interval from the parameter store, falling back to
// the default for missing or unusable values.
func (m *Module) period() time.Duration {
	v, err := m.params.Get(ParamPeriodMS)
	if err != nil {
		return defaultPeriod
	}
	ms, ok := v.AsInt()
	if !ok || ms <= 0 {
		slog.Warn("Ignoring unusable diagnostics period", "value", v.String())
		return defaultPeriod
	}
	return time.Duration(ms) * time.Millisecond
}
