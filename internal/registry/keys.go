package registry

import (
	"go.opentelemetry.io/otel/trace"

	"github.com/skiffworks/skiff/internal/param"
	"github.com/skiffworks/skiff/internal/pubsub"
	"github.com/skiffworks/skiff/internal/topicmgr"
)

// Keys for the core services the runtime shares with every module. Using
// typed keys prevents typos and wrong-type lookups.
var (
	BusKey    = Key[*pubsub.Bus]("core.bus")
	ParamsKey = Key[*param.Store]("core.params")
	TopicsKey = Key[*topicmgr.Manager]("core.topics")
	TracerKey = Key[trace.Tracer]("core.tracer")
)
