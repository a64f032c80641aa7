package metrics

import "sync/atomic"

// Counter is a monotonically increasing event count.
type Counter struct {
	name  string
	value atomic.Int64
}

func newCounter(name string) *Counter {
	return &Counter{name: name}
}

// Inc adds one to the counter.
func (c *Counter) Inc() {
	c.Add(1)
}

// Add adds n to the counter.
func (c *Counter) Add(n int64) {
	if !enabled || c == nil {
		return
	}
	c.value.Add(n)
}

// Name returns the counter name.
func (c *Counter) Name() string {
	return c.name
}

// Value returns the current count.
func (c *Counter) Value() int64 {
	return c.value.Load()
}

// Reset sets the counter back to zero.
func (c *Counter) Reset() {
	c.value.Store(0)
}

// CounterStats is a snapshot of a counter.
type CounterStats struct {
	Name  string `json:"name"`
	Value int64  `json:"value"`
}

// Global counters.
var (
	// ViewNotifications counts change notifications delivered to view subscribers.
	ViewNotifications = newCounter("view_notifications")
	// ViewFallbacks counts source changes that forced a full rebuild.
	ViewFallbacks = newCounter("view_fallbacks")
	// SyncOperations counts item-level operations applied by datasource syncs.
	SyncOperations = newCounter("sync_operations")
)

// AllCounters returns all registered counters.
func AllCounters() []*Counter {
	return []*Counter{
		ViewNotifications,
		ViewFallbacks,
		SyncOperations,
	}
}

// AllCounterStats returns snapshots of the non-zero counters.
func AllCounterStats() []CounterStats {
	var stats []CounterStats
	for _, c := range AllCounters() {
		if v := c.Value(); v > 0 {
			stats = append(stats, CounterStats{Name: c.name, Value: v})
		}
	}
	return stats
}
