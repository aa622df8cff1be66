package metrics

import (
	"context"
	"fmt"
	"time"
)

// Sizer is a named structure that reports how many keys it tracks
type Sizer interface {
	Name() string
	Len() int
}

// TotalsReader reads cumulative decision counts, implemented by the Redis stats store
type TotalsReader interface {
	Totals(ctx context.Context, limiter string) (allowed, denied int64, err error)
}

// LimiterCollector implements Collector over in-process limiters and an optional stats store
type LimiterCollector struct {
	limiters []Sizer
	totals   TotalsReader
}

// NewLimiterCollector creates a collector; totals may be nil
func NewLimiterCollector(totals TotalsReader, limiters ...Sizer) *LimiterCollector {
	return &LimiterCollector{
		limiters: limiters,
		totals:   totals,
	}
}

// Collect gathers every value exposed by the gauges
func (c *LimiterCollector) Collect(ctx context.Context) (Snapshot, error) {
	tracked, err := c.TrackedKeys(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("getting tracked keys: %w", err)
	}

	decisions, err := c.Decisions(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("getting decision totals: %w", err)
	}

	return Snapshot{
		TrackedKeys: tracked,
		Decisions:   decisions,
		Timestamp:   time.Now(),
	}, nil
}

// TrackedKeys returns the number of keys held by each limiter
func (c *LimiterCollector) TrackedKeys(_ context.Context) (map[string]int64, error) {
	out := make(map[string]int64, len(c.limiters))
	for _, l := range c.limiters {
		out[l.Name()] = int64(l.Len())
	}
	return out, nil
}

// Decisions returns stored totals per limiter
func (c *LimiterCollector) Decisions(ctx context.Context) (map[string]DecisionTotals, error) {
	out := make(map[string]DecisionTotals)
	if c.totals == nil {
		return out, nil
	}

	for _, l := range c.limiters {
		allowed, denied, err := c.totals.Totals(ctx, l.Name())
		if err != nil {
			return nil, fmt.Errorf("reading totals for %s: %w", l.Name(), err)
		}
		out[l.Name()] = DecisionTotals{Allowed: allowed, Denied: denied}
	}
	return out, nil
}
