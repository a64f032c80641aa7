package datasource

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/vanderheijden86/liveview/pkg/debug"
	"github.com/vanderheijden86/liveview/pkg/metrics"
	"github.com/vanderheijden86/liveview/pkg/record"
)

// DefaultLoadConcurrency bounds how many files LoadMany reads at once.
const DefaultLoadConcurrency = 4

// LoadFromSource loads records from a specific DataSource, dispatching to the
// appropriate reader based on source type.
func LoadFromSource(ctx context.Context, source DataSource) ([]*record.Record, error) {
	defer metrics.Timer(metrics.SourceLoad)()

	switch source.Type {
	case SourceTypeSQLite:
		reader, err := NewSQLiteReader(source)
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite source %s: %w", source.Path, err)
		}
		defer reader.Close()
		return reader.LoadRecords(ctx)

	case SourceTypeJSONL:
		return LoadJSONL(source.Path, ParseOptions{})

	default:
		return nil, fmt.Errorf("unknown source type: %s", source.Type)
	}
}

// Load stats and loads a single file.
func Load(ctx context.Context, path string) ([]*record.Record, error) {
	source, err := Stat(path)
	if err != nil {
		return nil, err
	}
	return LoadFromSource(ctx, source)
}

// LoadMany loads every path concurrently and merges the results in argument
// order. When several files carry the same ID, the record keeps the position
// of its first occurrence and the content of its last.
func LoadMany(ctx context.Context, paths []string) ([]*record.Record, error) {
	defer debug.LogEnterExit("datasource.LoadMany")()
	results := make([][]*record.Record, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(DefaultLoadConcurrency)
	for i, path := range paths {
		g.Go(func() error {
			recs, err := Load(ctx, path)
			if err != nil {
				return fmt.Errorf("load %s: %w", path, err)
			}
			results[i] = recs
			debug.Log("datasource: loaded %d records from %s", len(recs), path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return Merge(results...), nil
}

// Merge concatenates record sets, collapsing duplicate IDs.
func Merge(sets ...[]*record.Record) []*record.Record {
	var merged []*record.Record
	index := make(map[string]int)
	for _, set := range sets {
		for _, r := range set {
			if i, ok := index[r.ID]; ok {
				merged[i] = r
				continue
			}
			index[r.ID] = len(merged)
			merged = append(merged, r)
		}
	}
	return merged
}
