package datasource

import (
	"fmt"
	"strings"

	"github.com/vanderheijden86/liveview/pkg/record"
)

// SnapshotDiff describes how a reloaded snapshot differs from the records
// currently shown.
type SnapshotDiff struct {
	// Added contains IDs present only in the new snapshot, in snapshot order
	Added []string
	// Removed contains IDs present only in the current records
	Removed []string
	// Changed contains records present in both whose mutable fields differ
	Changed []FieldDifference
	// CountOld is the number of current records
	CountOld int
	// CountNew is the number of records in the snapshot
	CountNew int
}

// FieldDifference lists the fields that differ for one record
type FieldDifference struct {
	ID     string   `json:"id"`
	Fields []string `json:"fields"`
}

// HasChanges returns true if applying the snapshot would change anything
func (d SnapshotDiff) HasChanges() bool {
	return len(d.Added) > 0 || len(d.Removed) > 0 || len(d.Changed) > 0
}

// Summary returns a human-readable summary of the differences
func (d SnapshotDiff) Summary() string {
	if !d.HasChanges() {
		return fmt.Sprintf("No changes (%d records)", d.CountOld)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d -> %d records:\n", d.CountOld, d.CountNew)
	section := func(label string, ids []string) {
		if len(ids) == 0 {
			return
		}
		fmt.Fprintf(&sb, "  - %d %s\n", len(ids), label)
		if len(ids) <= 5 {
			for _, id := range ids {
				fmt.Fprintf(&sb, "    - %s\n", id)
			}
		}
	}
	section("added", d.Added)
	section("removed", d.Removed)
	if len(d.Changed) > 0 {
		fmt.Fprintf(&sb, "  - %d changed\n", len(d.Changed))
		if len(d.Changed) <= 5 {
			for _, c := range d.Changed {
				fmt.Fprintf(&sb, "    - %s: %s\n", c.ID, strings.Join(c.Fields, ", "))
			}
		}
	}
	return sb.String()
}

// Diff compares the current records against a new snapshot by ID.
func Diff(current, snapshot []*record.Record) SnapshotDiff {
	d := SnapshotDiff{CountOld: len(current), CountNew: len(snapshot)}

	old := make(map[string]*record.Record, len(current))
	for _, r := range current {
		old[r.ID] = r
	}
	next := make(map[string]*record.Record, len(snapshot))
	for _, r := range snapshot {
		next[r.ID] = r
	}

	for _, r := range current {
		if _, ok := next[r.ID]; !ok {
			d.Removed = append(d.Removed, r.ID)
		}
	}
	for _, r := range snapshot {
		prev, ok := old[r.ID]
		if !ok {
			d.Added = append(d.Added, r.ID)
			continue
		}
		if fields := changedFields(prev, r); len(fields) > 0 {
			d.Changed = append(d.Changed, FieldDifference{ID: r.ID, Fields: fields})
		}
	}
	return d
}

// changedFields reports the mutable fields that differ, without touching a.
func changedFields(a, b *record.Record) []string {
	return a.Clone().Apply(b)
}
