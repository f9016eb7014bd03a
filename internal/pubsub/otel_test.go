package pubsub

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

func TestDefaultTracingConfig(t *testing.T) {
	config := DefaultTracingConfig()

	assert.False(t, config.Enabled, "tracing should be disabled by default")
	assert.Equal(t, "skiff", config.ServiceName)
	assert.Equal(t, "http://localhost:9411/api/v2/spans", config.ZipkinURL)
}

func TestSetupOTelDisabled(t *testing.T) {
	tracer, cleanup, err := SetupOTel(context.Background(), TracingConfig{Enabled: false})
	require.NoError(t, err)
	require.NotNil(t, tracer)
	require.NotNil(t, cleanup)

	// The no-op tracer must be safe to use and to clean up.
	_, span := tracer.Start(context.Background(), "test-span")
	span.End()
	cleanup()
}

func TestLoadTracingConfigFromEnv(t *testing.T) {
	t.Run("defaults when unset", func(t *testing.T) {
		t.Setenv("SKIFF_TRACING_ENABLED", "")
		t.Setenv("SKIFF_TRACING_SERVICE_NAME", "")
		t.Setenv("SKIFF_TRACING_ZIPKIN_URL", "")

		config := LoadTracingConfigFromEnv()
		assert.Equal(t, DefaultTracingConfig(), config)
	})

	t.Run("overrides from environment", func(t *testing.T) {
		t.Setenv("SKIFF_TRACING_ENABLED", "true")
		t.Setenv("SKIFF_TRACING_SERVICE_NAME", "skiff-test")
		t.Setenv("SKIFF_TRACING_ZIPKIN_URL", "http://zipkin.test:9411/api/v2/spans")

		config := LoadTracingConfigFromEnv()
		assert.True(t, config.Enabled)
		assert.Equal(t, "skiff-test", config.ServiceName)
		assert.Equal(t, "http://zipkin.test:9411/api/v2/spans", config.ZipkinURL)
	})

	t.Run("garbage enabled flag is ignored", func(t *testing.T) {
		t.Setenv("SKIFF_TRACING_ENABLED", "not-a-bool")

		config := LoadTracingConfigFromEnv()
		assert.False(t, config.Enabled)
	})
}

func TestTracedBusPublish(t *testing.T) {
	tracer := noop.NewTracerProvider().Tracer("test")
	bus := New(WithTracer(tracer))
	defer bus.Close()

	sub, err := NewSubscriber(bus, "/chatter")
	require.NoError(t, err)
	defer sub.Close()

	pub, err := NewPublisher(bus, "/chatter")
	require.NoError(t, err)
	require.NoError(t, pub.Publish(context.Background(), []byte("traced")))

	msg, err := sub.ReceiveTimeout(time.Second)
	require.NoError(t, err)
	assert.Equal(t, []byte("traced"), msg.Payload)
}

func TestTracingPublisherWrapsBridge(t *testing.T) {
	bus := New()
	defer bus.Close()

	sub, err := NewSubscriber(bus, "/chatter")
	require.NoError(t, err)
	defer sub.Close()

	bridge := NewBridge(bus)
	defer bridge.Close()

	tracer := noop.NewTracerProvider().Tracer("test")
	traced := NewTracingPublisher(bridge, tracer)

	require.NoError(t, traced.Publish("/chatter", message.NewMessage(watermill.NewUUID(), []byte("wrapped"))))

	env, err := sub.ReceiveTimeout(time.Second)
	require.NoError(t, err)
	assert.Equal(t, []byte("wrapped"), env.Payload)
}

func TestTracingMiddleware(t *testing.T) {
	tracer := noop.NewTracerProvider().Tracer("test")
	middleware := TracingMiddleware(tracer)

	t.Run("passes messages through", func(t *testing.T) {
		produced := message.NewMessage(watermill.NewUUID(), []byte("out"))
		handler := middleware(func(msg *message.Message) ([]*message.Message, error) {
			assert.NotNil(t, msg.Context(), "middleware should install a span context")
			return []*message.Message{produced}, nil
		})

		got, err := handler(message.NewMessage(watermill.NewUUID(), []byte("in")))
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, produced, got[0])
	})

	t.Run("propagates handler errors", func(t *testing.T) {
		wantErr := errors.New("handler exploded")
		handler := middleware(func(msg *message.Message) ([]*message.Message, error) {
			return nil, wantErr
		})

		got, err := handler(message.NewMessage(watermill.NewUUID(), nil))
		assert.ErrorIs(t, err, wantErr)
		assert.Nil(t, got)
	})
}
