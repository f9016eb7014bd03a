package events

import (
	"time"

	"github.com/skiffworks/skiff/internal/pubsub"
)

// StatsSnapshot is one periodic report of bus delivery activity.
type StatsSnapshot struct {
	Topics      int            `json:"topics"`
	Subscribers int            `json:"subscribers"`
	Published   uint64         `json:"published"`
	Delivered   uint64         `json:"delivered"`
	Dropped     uint64         `json:"dropped"`
	Swept       uint64         `json:"swept"`
	UptimeMS    int64          `json:"uptime_ms"`
	Breakdown   map[string]int `json:"topic_breakdown,omitempty"`
	CapturedAt  time.Time      `json:"captured_at"`
}

// Snapshot is the typed event the diagnostics module publishes on every tick.
var Snapshot = pubsub.NewEvent[StatsSnapshot](
	"/diagnostics/stats",
	"Periodic snapshot of bus delivery counters (published by the diagnostics module)",
)
