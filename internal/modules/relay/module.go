package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"

	"github.com/skiffworks/skiff/internal/module"
	"github.com/skiffworks/skiff/internal/param"
	"github.com/skiffworks/skiff/internal/pubsub"
	"github.com/skiffworks/skiff/internal/registry"
	"github.com/skiffworks/skiff/internal/topicmgr"
)

// Parameters wiring the relay. When input, output, and script are all set the
// relay runs; otherwise it boots idle.
const (
	ParamInput     = "relay.input"
	ParamOutput    = "relay.output"
	ParamScript    = "relay.script"
	ParamTimeoutMS = "relay.timeout_ms"
)

const defaultTimeout = 50 * time.Millisecond

// Module forwards messages from one topic to another through a Tengo script.
// The script sees the incoming payload as the string `input` and must set
// `output` to the payload to publish; failures skip the message and never
// stall the stream.
type Module struct {
	module.BaseModule
	bus    *pubsub.Bus
	params *param.Store

	compiled *tengo.Compiled
	cancel   context.CancelFunc
	done     chan struct{}
}

// Dependencies holds the services required by the relay module.
type Dependencies struct {
	Bus    *pubsub.Bus
	Params *param.Store
}

// New creates a new relay module instance.
func New(deps Dependencies) *Module {
	return &Module{
		bus:    deps.Bus,
		params: deps.Params,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "relay"
}

// Register declares the module's parameters.
func (m *Module) Register(reg *registry.Registry) error {
	m.params.Declare(ParamTimeoutMS, param.Int(int64(defaultTimeout/time.Millisecond)))

	slog.Info("RelayModule registered")
	return nil
}

// Boot compiles the transform script and starts the worker. Without the
// wiring parameters the module stays idle; broken wiring is a configuration
// error and fails the boot.
func (m *Module) Boot(ctx context.Context, reg *registry.Registry) error {
	input, output, script, ok := m.wiring()
	if !ok {
		slog.Info("RelayModule idle, wiring parameters not set",
			"required", []string{ParamInput, ParamOutput, ParamScript})
		return nil
	}

	if err := pubsub.ValidateTopicName(input); err != nil {
		return fmt.Errorf("bad relay input topic: %w", err)
	}
	if err := pubsub.ValidateTopicName(output); err != nil {
		return fmt.Errorf("bad relay output topic: %w", err)
	}
	if input == output {
		return fmt.Errorf("relay input and output are both %q, refusing the feedback loop", input)
	}

	compiled, err := compileScript(script)
	if err != nil {
		return fmt.Errorf("failed to compile relay script: %w", err)
	}
	m.compiled = compiled

	m.declareTopic(input, "Relay input stream")
	m.declareTopic(output, "Relay output stream, script-transformed")

	sub, err := pubsub.NewSubscriber(m.bus, input)
	if err != nil {
		return err
	}
	pub, err := pubsub.NewPublisher(m.bus, output)
	if err != nil {
		sub.Close()
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.done = make(chan struct{})
	go m.run(runCtx, sub, pub)

	slog.Info("RelayModule booted", "input", input, "output", output, "timeout", m.timeout())
	return nil
}

// Shutdown stops the worker and waits for it to exit.
func (m *Module) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down RelayModule...")

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

// wiring reads the three wiring parameters. ok is false unless all three are
// present and strings.
func (m *Module) wiring() (input, output, script string, ok bool) {
	read := func(name string) (string, bool) {
		v, err := m.params.Get(name)
		if err != nil {
			return "", false
		}
		return v.AsString()
	}

	input, inOK := read(ParamInput)
	output, outOK := read(ParamOutput)
	script, srcOK := read(ParamScript)
	return input, output, script, inOK && outOK && srcOK
}

func (m *Module) timeout() time.Duration {
	if v, err := m.params.Get(ParamTimeoutMS); err == nil {
		if ms, ok := v.AsInt(); ok && ms > 0 {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return defaultTimeout
}

// declareTopic documents a relay endpoint in the directory. Another owner may
// have declared the name already; that is fine, the relay attaches to it.
func (m *Module) declareTopic(name, description string) {
	err := topicmgr.Register(topicmgr.Define(topicmgr.TopicConfig{
		Name:        name,
		Owner:       "relay",
		Description: description,
	}))
	if err != nil {
		var terr *topicmgr.TopicError
		if errors.As(err, &terr) && terr.Type == topicmgr.ErrorDuplicateRegistration {
			return
		}
		slog.Warn("Could not declare relay topic", "topic", name, "error", err)
	}
}

func (m *Module) run(ctx context.Context, sub *pubsub.Subscriber, pub *pubsub.Publisher) {
	defer close(m.done)
	defer sub.Close()

	for {
		msg, err := sub.Receive(ctx)
		if err != nil {
			if errors.Is(err, pubsub.ErrDisconnected) || errors.Is(err, context.Canceled) {
				return
			}
			slog.Error("Relay receive failed", "topic", sub.Topic(), "error", err)
			return
		}

		out, err := m.transform(ctx, msg.Payload)
		if err != nil {
			slog.Error("Relay transform failed, skipping message",
				"input", sub.Topic(), "msg_id", msg.ID, "error", err)
			continue
		}

		meta := make(map[string]string, len(msg.Metadata)+1)
		for k, v := range msg.Metadata {
			meta[k] = v
		}
		meta["relayed_from"] = msg.ID

		if err := pub.PublishMsg(ctx, pubsub.Message{Payload: out, Metadata: meta}); err != nil {
			if errors.Is(err, pubsub.ErrBusClosed) || errors.Is(err, context.Canceled) {
				return
			}
			slog.Error("Relay publish failed", "output", pub.Topic(), "msg_id", msg.ID, "error", err)
		}
	}
}

// transform runs one payload through the script, bounded by the configured
// timeout. Each run gets a fresh clone, so scripts cannot leak state from one
// message into the next.
func (m *Module) transform(ctx context.Context, payload []byte) ([]byte, error) {
	execCtx, cancel := context.WithTimeout(ctx, m.timeout())
	defer cancel()

	c := m.compiled.Clone()
	if err := c.Set("input", string(payload)); err != nil {
		return nil, fmt.Errorf("failed to set script input: %w", err)
	}
	if err := c.RunContext(execCtx); err != nil {
		return nil, fmt.Errorf("script execution failed: %w", err)
	}

	out := c.Get("output")
	if out == nil || out.Value() == nil {
		return nil, errors.New("script did not set output")
	}
	switch v := out.Value().(type) {
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	default:
		return nil, fmt.Errorf("script output must be string or bytes, got %T", v)
	}
}

// compileScript prepares the transform for repeated execution. The input
// placeholder must exist before compilation so the worker can swap the real
// payload in per message.
func compileScript(src string) (*tengo.Compiled, error) {
	script := tengo.NewScript([]byte(src))
	script.SetImports(moduleMap())

	if err := script.Add("input", ""); err != nil {
		return nil, err
	}
	return script.Compile()
}

// moduleMap exposes the safe subset of the Tengo standard library. No os, no
// network.
func moduleMap() *tengo.ModuleMap {
	modules := tengo.NewModuleMap()
	for _, name := range []string{"fmt", "text", "math", "times", "json", "base64", "hex"} {
		if mod, exists := stdlib.BuiltinModules[name]; exists {
			modules.AddBuiltinModule(name, mod)
		}
	}
	return modules
}
