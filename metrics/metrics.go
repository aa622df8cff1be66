package metrics

import (
	"context"
	"time"
)

// Snapshot represents the current state of the relay's in-process limiters.
type Snapshot struct {
	// TrackedKeys maps limiter name to the number of caller keys it tracks
	TrackedKeys map[string]int64 `json:"tracked_keys"`

	// Decisions maps limiter name to the cumulative decisions stored in Redis
	Decisions map[string]DecisionTotals `json:"decisions,omitempty"`

	// Timestamp when the snapshot was taken
	Timestamp time.Time `json:"timestamp"`
}

// DecisionTotals counts admissions and rejections of one limiter.
type DecisionTotals struct {
	Allowed int64 `json:"allowed"`
	Denied  int64 `json:"denied"`
}

// Collector defines the interface for reading state observed by gauges.
type Collector interface {
	// Collect gathers a full snapshot
	Collect(ctx context.Context) (Snapshot, error)

	// TrackedKeys returns the number of tracked keys per limiter
	TrackedKeys(ctx context.Context) (map[string]int64, error)

	// Decisions returns stored decision totals per limiter, empty when no store is configured
	Decisions(ctx context.Context) (map[string]DecisionTotals, error)
}
