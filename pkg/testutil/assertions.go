package testutil

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/liveview/pkg/record"
)

// AssertRecordCount verifies the expected number of records.
func AssertRecordCount(t *testing.T, records []*record.Record, expected int) {
	t.Helper()
	if len(records) != expected {
		t.Errorf("expected %d records, got %d", expected, len(records))
	}
}

// AssertNoDuplicateIDs verifies all record IDs are unique.
func AssertNoDuplicateIDs(t *testing.T, records []*record.Record) {
	t.Helper()
	seen := make(map[string]bool)
	for _, r := range records {
		if seen[r.ID] {
			t.Errorf("duplicate record ID: %s", r.ID)
		}
		seen[r.ID] = true
	}
}

// AssertAllValid verifies all records pass validation.
func AssertAllValid(t *testing.T, records []*record.Record) {
	t.Helper()
	for i, r := range records {
		if err := r.Validate(); err != nil {
			t.Errorf("record %d (%s) invalid: %v", i, r.ID, err)
		}
	}
}

// AssertIDs verifies the records carry exactly the given IDs, in order.
func AssertIDs(t *testing.T, records []*record.Record, ids ...string) {
	t.Helper()
	if got := GetIDs(records); !slices.Equal(got, ids) {
		t.Errorf("IDs = [%s], want [%s]", strings.Join(got, " "), strings.Join(ids, " "))
	}
}

// AssertSameContent verifies two record sets match by ID and content,
// ignoring order.
func AssertSameContent(t *testing.T, got, want []*record.Record) {
	t.Helper()
	if len(got) != len(want) {
		t.Errorf("expected %d records, got %d", len(want), len(got))
	}
	byID := BuildRecordMap(got)
	for _, w := range want {
		g, ok := byID[w.ID]
		if !ok {
			t.Errorf("record %s missing", w.ID)
			continue
		}
		if diff := g.Clone().Apply(w); len(diff) > 0 {
			t.Errorf("record %s differs in %v", w.ID, diff)
		}
	}
}

// WriteRecordsFile writes records as JSONL to dir/name and returns the path.
func WriteRecordsFile(t *testing.T, dir, name string, records []*record.Record) string {
	t.Helper()
	var sb strings.Builder
	for _, r := range records {
		data, err := json.Marshal(r)
		if err != nil {
			t.Fatalf("marshal %s: %v", r.ID, err)
		}
		sb.Write(data)
		sb.WriteByte('\n')
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// BuildRecordMap creates a map from ID to record for quick lookups.
func BuildRecordMap(records []*record.Record) map[string]*record.Record {
	m := make(map[string]*record.Record, len(records))
	for _, r := range records {
		m[r.ID] = r
	}
	return m
}

// FindRecord returns the record with the given ID, or nil if not found.
func FindRecord(records []*record.Record, id string) *record.Record {
	for _, r := range records {
		if r.ID == id {
			return r
		}
	}
	return nil
}

// GetIDs returns the IDs of records in order.
func GetIDs(records []*record.Record) []string {
	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.ID
	}
	return ids
}
