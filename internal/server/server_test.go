package server_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skiffworks/skiff/internal/config"
	"github.com/skiffworks/skiff/internal/param"
	"github.com/skiffworks/skiff/internal/pubsub"
	"github.com/skiffworks/skiff/internal/registry"
	"github.com/skiffworks/skiff/internal/server"
	"github.com/skiffworks/skiff/internal/topicmgr"
)

// testFixture bundles a server with the live services behind it so tests can
// drive the bus and directory directly and observe them through the API.
type testFixture struct {
	srv    *server.Server
	bus    *pubsub.Bus
	params *param.Store
	topics *topicmgr.Manager
}

func newFixture(t *testing.T) *testFixture {
	t.Helper()

	cfg := &config.Config{
		HTTPAddr:        ":0",
		QueueDepth:      10,
		OverflowPolicy:  "block",
		ShutdownTimeout: 5 * time.Second,
	}
	require.NoError(t, cfg.Validate())

	bus := pubsub.New()
	t.Cleanup(func() { _ = bus.Close() })

	params := param.NewStore("global")
	topics := topicmgr.NewManager()

	reg := registry.New(cfg)
	registry.Set(reg, registry.BusKey, bus)
	registry.Set(reg, registry.ParamsKey, params)
	registry.Set(reg, registry.TopicsKey, topics)

	return &testFixture{
		srv:    server.New(reg),
		bus:    bus,
		params: params,
		topics: topics,
	}
}

// get performs a request against the echo instance without a real listener.
func (f *testFixture) get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	f.srv.E.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	f := newFixture(t)

	rec := f.get(t, "/healthz")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestListTopicsMergesDirectoryAndBus(t *testing.T) {
	f := newFixture(t)

	f.topics.MustRegister(topicmgr.Define(topicmgr.TopicConfig{
		Name:        "/chatter",
		Owner:       "demo",
		Description: "Plain text greetings",
	}))

	sub, err := pubsub.NewSubscriber(f.bus, "/chatter")
	require.NoError(t, err)
	defer sub.Close()

	// Traffic on a name nobody declared still shows up in the listing.
	wild, err := pubsub.NewSubscriber(f.bus, "/undeclared")
	require.NoError(t, err)
	defer wild.Close()

	rec := f.get(t, "/v1/topics")
	require.Equal(t, http.StatusOK, rec.Code)

	var rows []server.TopicSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	require.Len(t, rows, 2)

	assert.Equal(t, "/chatter", rows[0].Name)
	assert.True(t, rows[0].Declared)
	assert.Equal(t, "demo", rows[0].Owner)
	assert.Equal(t, 1, rows[0].Subscribers)

	assert.Equal(t, "/undeclared", rows[1].Name)
	assert.False(t, rows[1].Declared)
	assert.Equal(t, 1, rows[1].Subscribers)
}

func TestGetTopic(t *testing.T) {
	f := newFixture(t)

	f.topics.MustRegister(topicmgr.Define(topicmgr.TopicConfig{
		Name:        "/sensors/imu",
		Owner:       "sensors",
		Description: "Inertial measurements",
		TypeName:    "imuSample",
		Example:     `{"accel_x":0.1}`,
	}))

	t.Run("Declared Topic", func(t *testing.T) {
		rec := f.get(t, "/v1/topics/sensors/imu")
		require.Equal(t, http.StatusOK, rec.Code)

		var detail server.TopicDetail
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detail))

		assert.Equal(t, "/sensors/imu", detail.Name)
		assert.True(t, detail.Declared)
		assert.Equal(t, "sensors", detail.Owner)
		assert.Equal(t, "imuSample", detail.TypeName)
		assert.Equal(t, `{"accel_x":0.1}`, detail.Example)
		require.NotNil(t, detail.RegisteredAt)
		assert.False(t, detail.RegisteredAt.IsZero())
		assert.Equal(t, 0, detail.Subscribers)
	})

	t.Run("Live Undeclared Topic", func(t *testing.T) {
		sub, err := pubsub.NewSubscriber(f.bus, "/scratch")
		require.NoError(t, err)
		defer sub.Close()

		rec := f.get(t, "/v1/topics/scratch")
		require.Equal(t, http.StatusOK, rec.Code)

		var detail server.TopicDetail
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detail))

		assert.False(t, detail.Declared)
		assert.Equal(t, 1, detail.Subscribers)
		assert.Nil(t, detail.RegisteredAt)
	})

	t.Run("Unknown Topic", func(t *testing.T) {
		rec := f.get(t, "/v1/topics/nowhere")
		require.Equal(t, http.StatusNotFound, rec.Code)

		var resp server.ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "topic_not_found", resp.Code)
	})
}

func TestListParams(t *testing.T) {
	f := newFixture(t)

	f.params.Set("relay.script", param.String("out := input"))
	f.params.Set("diagnostics.period_ms", param.Int(1000))

	rec := f.get(t, "/v1/params")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp server.ParamsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, "global", resp.Scope)
	assert.Equal(t, 2, resp.Count)
	assert.Len(t, resp.Params, 2)
}

func TestGetParam(t *testing.T) {
	f := newFixture(t)
	f.params.Set("diagnostics.period_ms", param.Int(250))

	t.Run("Existing Parameter", func(t *testing.T) {
		rec := f.get(t, "/v1/params/diagnostics.period_ms")
		require.Equal(t, http.StatusOK, rec.Code)

		var resp server.ParamResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

		assert.Equal(t, "diagnostics.period_ms", resp.Name)
		assert.Equal(t, "int", resp.Kind)
		got, err := resp.Value.GetInt()
		require.NoError(t, err)
		assert.Equal(t, int64(250), got)
	})

	t.Run("Missing Parameter", func(t *testing.T) {
		rec := f.get(t, "/v1/params/no.such.param")
		require.Equal(t, http.StatusNotFound, rec.Code)

		var resp server.ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "param_not_found", resp.Code)
	})
}

func TestGetStats(t *testing.T) {
	f := newFixture(t)

	f.topics.MustRegister(topicmgr.Define(topicmgr.TopicConfig{
		Name:        "/chatter",
		Owner:       "demo",
		Description: "Plain text greetings",
	}))

	sub, err := pubsub.NewSubscriber(f.bus, "/chatter")
	require.NoError(t, err)
	defer sub.Close()

	pub, err := pubsub.NewPublisher(f.bus, "/chatter")
	require.NoError(t, err)
	require.NoError(t, pub.Publish(context.Background(), []byte("one")))
	require.NoError(t, pub.Publish(context.Background(), []byte("two")))

	rec := f.get(t, "/v1/stats")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp server.StatsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, uint64(2), resp.Bus.Published)
	assert.Equal(t, uint64(2), resp.Bus.Delivered)
	assert.Equal(t, 1, resp.Bus.Subscribers)
	assert.Equal(t, 1, resp.Directory.RegistryStats.TotalTopics)
}

func TestTapStreamsTraffic(t *testing.T) {
	f := newFixture(t)

	ts := httptest.NewServer(f.srv.E)
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/v1/tap?topic=/chatter"
	conn, resp, err := websocket.Dial(ctx, wsURL, nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)
	t.Cleanup(func() {
		conn.Close(websocket.StatusNormalClosure, "test complete")
	})

	// The tap subscribes before completing the handshake, so a publish after
	// Dial returns is guaranteed to reach it.
	pub, err := pubsub.NewPublisher(f.bus, "/chatter")
	require.NoError(t, err)

	require.NoError(t, pub.PublishMsg(ctx, pubsub.Message{
		Payload:  []byte(`{"text":"hello"}`),
		Metadata: map[string]string{"origin": "test"},
	}))

	_, data, err := conn.Read(ctx)
	require.NoError(t, err)

	var frame server.TapFrame
	require.NoError(t, json.Unmarshal(data, &frame))
	assert.Equal(t, "/chatter", frame.Topic)
	assert.NotEmpty(t, frame.ID)
	assert.JSONEq(t, `{"text":"hello"}`, string(frame.Payload))
	assert.Empty(t, frame.PayloadBase64)
	assert.Equal(t, "test", frame.Metadata["origin"])

	// Non-JSON payloads arrive base64-encoded instead of inlined.
	require.NoError(t, pub.Publish(ctx, []byte{0x01, 0x02, 0x03}))

	_, data, err = conn.Read(ctx)
	require.NoError(t, err)

	frame = server.TapFrame{}
	require.NoError(t, json.Unmarshal(data, &frame))
	assert.Empty(t, frame.Payload)
	assert.Equal(t, []byte{0x01, 0x02, 0x03}, frame.PayloadBase64)
}

func TestTapRejectsInvalidTopic(t *testing.T) {
	f := newFixture(t)

	rec := f.get(t, "/v1/tap?topic=no-slash")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp server.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "invalid_topic_name", resp.Code)
}
