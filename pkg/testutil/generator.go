// Package testutil provides record fixture generators and assertions.
// All generators produce deterministic output for reproducible tests.
package testutil

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/vanderheijden86/liveview/pkg/record"
)

// GeneratorConfig controls record generation.
type GeneratorConfig struct {
	Seed        int64     // Random seed for determinism (0 = use current time)
	IDPrefix    string    // Prefix for record IDs (default: "TEST")
	BaseTime    time.Time // Base time for timestamps (default: fixed time)
	MaxPriority int       // Priorities are drawn from [0, MaxPriority] (default: 4)
	StatusMix   []string  // Status distribution (nil = all open)
	LabelPool   []string  // Labels drawn from; nil = no labels
}

// DefaultConfig returns a config suitable for most tests.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Seed:        42, // Deterministic
		IDPrefix:    "TEST",
		BaseTime:    time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
		MaxPriority: 4,
		StatusMix:   []string{"open", "open", "in_progress", "blocked", "closed"},
		LabelPool:   []string{"api", "ui", "storage", "docs"},
	}
}

// Generator creates record fixtures.
type Generator struct {
	cfg  GeneratorConfig
	rng  *rand.Rand
	next int
}

// New creates a Generator with the given config.
func New(cfg GeneratorConfig) *Generator {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if cfg.BaseTime.IsZero() {
		cfg.BaseTime = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	}
	if cfg.IDPrefix == "" {
		cfg.IDPrefix = "TEST"
	}
	if cfg.MaxPriority <= 0 {
		cfg.MaxPriority = 4
	}
	if len(cfg.StatusMix) == 0 {
		cfg.StatusMix = []string{"open"}
	}
	return &Generator{
		cfg: cfg,
		rng: rand.New(rand.NewSource(seed)),
	}
}

// NewDefault creates a Generator with default config.
func NewDefault() *Generator {
	return New(DefaultConfig())
}

// Record creates one record with the next sequential ID.
func (g *Generator) Record() *record.Record {
	i := g.next
	g.next++

	created := g.cfg.BaseTime.Add(time.Duration(i) * time.Hour)
	r := &record.Record{
		ID:        fmt.Sprintf("%s-%d", g.cfg.IDPrefix, i),
		Title:     fmt.Sprintf("Record %d %s", i, words[g.rng.Intn(len(words))]),
		Status:    g.cfg.StatusMix[g.rng.Intn(len(g.cfg.StatusMix))],
		Priority:  g.rng.Intn(g.cfg.MaxPriority + 1),
		CreatedAt: created,
		UpdatedAt: created.Add(time.Duration(g.rng.Intn(72)) * time.Hour),
	}
	if len(g.cfg.LabelPool) > 0 {
		for _, l := range g.cfg.LabelPool {
			if g.rng.Intn(3) == 0 {
				r.Labels = append(r.Labels, l)
			}
		}
	}
	return r
}

// Records creates n records.
func (g *Generator) Records(n int) []*record.Record {
	out := make([]*record.Record, n)
	for i := range out {
		out[i] = g.Record()
	}
	return out
}

// Evolution describes how Evolve derives a new snapshot.
type Evolution struct {
	Remove int // records dropped
	Change int // records with a new priority, status or title
	Add    int // records appended
}

// Evolve returns a new snapshot derived from records: cloned, with some
// records removed, some changed and new ones appended. The input is not
// modified, which makes the result suitable for syncing into a live list
// that holds the originals.
func (g *Generator) Evolve(records []*record.Record, e Evolution) []*record.Record {
	out := make([]*record.Record, 0, len(records)+e.Add)
	for _, r := range records {
		out = append(out, r.Clone())
	}

	for i := 0; i < e.Remove && len(out) > 0; i++ {
		j := g.rng.Intn(len(out))
		out = append(out[:j], out[j+1:]...)
	}

	for i := 0; i < e.Change && len(out) > 0; i++ {
		r := out[g.rng.Intn(len(out))]
		switch g.rng.Intn(3) {
		case 0:
			r.Priority = (r.Priority + 1 + g.rng.Intn(g.cfg.MaxPriority)) % (g.cfg.MaxPriority + 1)
		case 1:
			r.Status = g.cfg.StatusMix[g.rng.Intn(len(g.cfg.StatusMix))]
		default:
			r.Title += " (edited)"
		}
		r.UpdatedAt = r.UpdatedAt.Add(time.Hour)
	}

	for range e.Add {
		out = append(out, g.Record())
	}
	return out
}

var words = []string{
	"parser", "cache", "index", "sync", "layout", "cursor", "filter", "render",
	"loader", "watcher", "config", "schema",
}

// RecordID generates a standard test record ID with the given index.
// Format: "test-{index}" for consistency across tests.
func RecordID(index int) string {
	return fmt.Sprintf("test-%d", index)
}
