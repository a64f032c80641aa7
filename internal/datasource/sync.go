package datasource

import (
	"github.com/vanderheijden86/liveview/pkg/debug"
	"github.com/vanderheijden86/liveview/pkg/metrics"
	"github.com/vanderheijden86/liveview/pkg/observable"
	"github.com/vanderheijden86/liveview/pkg/record"
)

// SyncResult counts the operations Sync applied.
type SyncResult struct {
	Added   int
	Removed int
	Updated int
}

// Changed reports whether Sync touched the list.
func (r SyncResult) Changed() bool {
	return r.Added+r.Removed+r.Updated > 0
}

// Sync folds a reloaded snapshot into list one item at a time, so views over
// the list update incrementally. Records are matched by ID. Removed records
// go first, then surviving records are updated in place through their
// setters, then new records are appended in snapshot order. Duplicate IDs in
// list are collapsed to their first occurrence.
func Sync(list *observable.List[*record.Record], snapshot []*record.Record) SyncResult {
	defer metrics.Timer(metrics.SourceSync)()

	var res SyncResult
	keep := make(map[string]*record.Record, len(snapshot))
	for _, r := range snapshot {
		keep[r.ID] = r
	}

	seen := make(map[string]bool, list.Len())
	for i := 0; i < list.Len(); {
		cur := list.At(i)
		if _, ok := keep[cur.ID]; !ok || seen[cur.ID] {
			_ = list.RemoveAt(i)
			res.Removed++
			continue
		}
		seen[cur.ID] = true
		i++
	}

	existing := make(map[string]*record.Record, list.Len())
	for _, cur := range list.All() {
		existing[cur.ID] = cur
	}
	for _, next := range snapshot {
		cur, ok := existing[next.ID]
		if !ok || cur == next {
			continue
		}
		if changed := cur.Apply(next); len(changed) > 0 {
			res.Updated++
		}
	}

	for _, next := range snapshot {
		if _, ok := existing[next.ID]; ok {
			continue
		}
		existing[next.ID] = next
		list.Add(next)
		res.Added++
	}

	metrics.SyncOperations.Add(int64(res.Added + res.Removed + res.Updated))
	debug.Log("datasource: sync +%d -%d ~%d", res.Added, res.Removed, res.Updated)
	return res
}
