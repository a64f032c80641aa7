// Package datasource loads records from JSONL and SQLite files and folds
// reloaded snapshots into a live observable list.
package datasource

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// SourceType identifies the type of data source
type SourceType string

const (
	// SourceTypeJSONL is a file with one JSON record per line
	SourceTypeJSONL SourceType = "jsonl"
	// SourceTypeSQLite is a SQLite database with a records table
	SourceTypeSQLite SourceType = "sqlite"
)

// sqliteMagic is the 16-byte header every SQLite 3 database starts with.
var sqliteMagic = []byte("SQLite format 3\x00")

// DataSource describes one file the browser reads records from.
type DataSource struct {
	// Type identifies the source type
	Type SourceType `json:"type"`
	// Path is the absolute path to the source file
	Path string `json:"path"`
	// ModTime is the last modification time of the source
	ModTime time.Time `json:"mod_time"`
	// Size is the file size in bytes
	Size int64 `json:"size"`
}

// String returns a human-readable description of the source
func (s DataSource) String() string {
	return fmt.Sprintf("%s (%s, %d bytes, mod=%s)", s.Path, s.Type, s.Size, s.ModTime.Format(time.RFC3339))
}

// Stat resolves path into a DataSource, detecting its type from the extension
// and, failing that, from the file header.
func Stat(path string) (DataSource, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return DataSource{}, fmt.Errorf("resolve %s: %w", path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return DataSource{}, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return DataSource{}, fmt.Errorf("%s is a directory", path)
	}
	typ, err := DetectSourceType(abs)
	if err != nil {
		return DataSource{}, err
	}
	return DataSource{Type: typ, Path: abs, ModTime: info.ModTime(), Size: info.Size()}, nil
}

// DetectSourceType decides how to read path.
func DetectSourceType(path string) (SourceType, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsonl", ".ndjson", ".json":
		return SourceTypeJSONL, nil
	case ".db", ".sqlite", ".sqlite3":
		return SourceTypeSQLite, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	header := make([]byte, len(sqliteMagic))
	n, err := io.ReadFull(f, header)
	if err == nil && bytes.Equal(header, sqliteMagic) {
		return SourceTypeSQLite, nil
	}
	if n == 0 || bytes.HasPrefix(bytes.TrimSpace(stripBOM(header[:n])), []byte("{")) {
		return SourceTypeJSONL, nil
	}
	return "", fmt.Errorf("cannot determine source type of %s", path)
}
