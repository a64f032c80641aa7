// Package metrics times and counts lv's view and source work.
//
// Timings cover view rebuilds, incremental inserts and removes, live shaping,
// file loads, snapshot syncs and TUI renders. Counters track delivered view
// notifications, rebuild fallbacks and sync operations. lv --stats prints
// both on exit. Set LV_METRICS=0 to turn collection off.
//
//	defer metrics.Timer(metrics.ViewRebuild)()
package metrics

import (
	"os"
	"sync/atomic"
	"time"
)

var enabled = os.Getenv("LV_METRICS") != "0"

// Enabled reports whether metrics are collected.
func Enabled() bool {
	return enabled
}

// SetEnabled turns collection on or off.
func SetEnabled(e bool) {
	enabled = e
}

// TimingMetric accumulates durations of one named operation.
type TimingMetric struct {
	name  string
	count atomic.Int64
	total atomic.Int64
	max   atomic.Int64
	min   atomic.Int64 // 0 until the first sample
}

func newTimingMetric(name string) *TimingMetric {
	return &TimingMetric{name: name}
}

// Record adds one sample.
func (m *TimingMetric) Record(d time.Duration) {
	if !enabled || m == nil {
		return
	}
	ns := d.Nanoseconds()
	m.count.Add(1)
	m.total.Add(ns)
	for old := m.max.Load(); ns > old; old = m.max.Load() {
		if m.max.CompareAndSwap(old, ns) {
			break
		}
	}
	for old := m.min.Load(); old == 0 || ns < old; old = m.min.Load() {
		if m.min.CompareAndSwap(old, ns) {
			break
		}
	}
}

// Name returns the metric name.
func (m *TimingMetric) Name() string {
	return m.name
}

// Count returns the number of samples.
func (m *TimingMetric) Count() int64 {
	return m.count.Load()
}

// Stats returns a snapshot in milliseconds.
func (m *TimingMetric) Stats() TimingStats {
	count, total := m.count.Load(), m.total.Load()
	s := TimingStats{
		Name:    m.name,
		Count:   count,
		TotalMs: ms(total),
		MaxMs:   ms(m.max.Load()),
		MinMs:   ms(m.min.Load()),
	}
	if count > 0 {
		s.AvgMs = ms(total / count)
	}
	return s
}

// Reset drops every sample.
func (m *TimingMetric) Reset() {
	m.count.Store(0)
	m.total.Store(0)
	m.max.Store(0)
	m.min.Store(0)
}

func ms(ns int64) float64 {
	return float64(ns) / 1e6
}

// TimingStats is a snapshot of a TimingMetric.
type TimingStats struct {
	Name    string  `json:"name"`
	Count   int64   `json:"count"`
	TotalMs float64 `json:"total_ms"`
	AvgMs   float64 `json:"avg_ms"`
	MaxMs   float64 `json:"max_ms"`
	MinMs   float64 `json:"min_ms,omitempty"`
}

// Timer starts timing m; call the result to record the elapsed time.
func Timer(m *TimingMetric) func() {
	if !enabled || m == nil {
		return func() {}
	}
	start := time.Now()
	return func() { m.Record(time.Since(start)) }
}

var (
	ViewRebuild = newTimingMetric("view_rebuild")
	ViewInsert  = newTimingMetric("view_insert")
	ViewRemove  = newTimingMetric("view_remove")
	LiveShape   = newTimingMetric("live_shape")
	SourceLoad  = newTimingMetric("source_load")
	SourceSync  = newTimingMetric("source_sync")
	UIRender    = newTimingMetric("ui_render")
)

// AllTimingMetrics returns every timing metric in reporting order.
func AllTimingMetrics() []*TimingMetric {
	return []*TimingMetric{ViewRebuild, ViewInsert, ViewRemove, LiveShape, SourceLoad, SourceSync, UIRender}
}

// ResetAll clears every timing metric and counter.
func ResetAll() {
	for _, m := range AllTimingMetrics() {
		m.Reset()
	}
	for _, c := range AllCounters() {
		c.Reset()
	}
}

// AllTimingStats returns snapshots of the metrics that have samples.
func AllTimingStats() []TimingStats {
	var stats []TimingStats
	for _, m := range AllTimingMetrics() {
		if m.Count() > 0 {
			stats = append(stats, m.Stats())
		}
	}
	return stats
}
