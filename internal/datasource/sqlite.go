package datasource

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	_ "modernc.org/sqlite"

	"github.com/vanderheijden86/liveview/pkg/debug"
	"github.com/vanderheijden86/liveview/pkg/record"
)

// SQLiteReader provides read access to a records database
type SQLiteReader struct {
	db   *sql.DB
	path string
}

// NewSQLiteReader opens a SQLite database for reading
func NewSQLiteReader(source DataSource) (*SQLiteReader, error) {
	if source.Type != SourceTypeSQLite {
		return nil, fmt.Errorf("source is not SQLite: %s", source.Type)
	}

	dsn := fmt.Sprintf("file:%s?mode=ro&_pragma=busy_timeout(5000)", source.Path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA cache_size = -16000",
		"PRAGMA temp_store = MEMORY",
	} {
		if _, err := db.Exec(pragma); err != nil {
			debug.Log("datasource: %s on %s: %v", pragma, source.Path, err)
		}
	}

	return &SQLiteReader{db: db, path: source.Path}, nil
}

// Close closes the database connection
func (r *SQLiteReader) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// LoadRecords reads every row of the records table in rowid order.
func (r *SQLiteReader) LoadRecords(ctx context.Context) ([]*record.Record, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, title, status, priority, labels, created_at, updated_at
		FROM records
		ORDER BY rowid
	`)
	if err != nil {
		return nil, fmt.Errorf("query records in %s: %w", r.path, err)
	}
	defer rows.Close()

	var records []*record.Record
	for rows.Next() {
		var (
			rec                  record.Record
			status, labelsJSON   sql.NullString
			priority             sql.NullInt64
			createdAt, updatedAt sql.NullString
		)
		if err := rows.Scan(&rec.ID, &rec.Title, &status, &priority, &labelsJSON, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		rec.Status = status.String
		rec.Priority = int(priority.Int64)
		if labelsJSON.Valid {
			rec.Labels = parseJSONStringArray(labelsJSON.String)
		}
		rec.CreatedAt = parseTimestamp(createdAt)
		rec.UpdatedAt = parseTimestamp(updatedAt)

		if err := rec.Validate(); err != nil {
			debug.Log("datasource: skipping row in %s: %v", r.path, err)
			continue
		}
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating records: %w", err)
	}
	return records, nil
}

// CountRecords returns the number of rows in the records table
func (r *SQLiteReader) CountRecords(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM records").Scan(&n); err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}

// timestampLayouts are the encodings SQLite tools commonly write.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05",
	time.DateOnly,
}

func parseTimestamp(s sql.NullString) time.Time {
	if !s.Valid || s.String == "" {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s.String); err == nil {
			return t
		}
	}
	return time.Time{}
}

// parseJSONStringArray decodes a JSON array of strings, falling back to a
// comma separated list.
func parseJSONStringArray(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" || s == "null" {
		return nil
	}
	var result []string
	if err := json.Unmarshal([]byte(s), &result); err == nil {
		return result
	}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}
