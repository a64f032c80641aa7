package datasource

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/liveview/pkg/debug"
	"github.com/vanderheijden86/liveview/pkg/record"
)

// DefaultMaxBufferSize is the default maximum line size (10MB).
const DefaultMaxBufferSize = 1024 * 1024 * 10

// ParseOptions configures JSONL parsing.
type ParseOptions struct {
	// WarningHandler receives one message per skipped line. If nil, warnings
	// go to the debug log.
	WarningHandler func(msg string)

	// BufferSize sets the maximum line size (in bytes) to read at once.
	// If 0, uses DefaultMaxBufferSize (10MB).
	BufferSize int
}

// LoadJSONL reads records from a JSONL file.
func LoadJSONL(path string, opts ParseOptions) ([]*record.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open records file: %w", err)
	}
	defer f.Close()
	return ParseRecords(f, opts)
}

// ParseRecords parses JSONL content. Blank lines are ignored; malformed or
// invalid lines are skipped with a warning.
func ParseRecords(r io.Reader, opts ParseOptions) ([]*record.Record, error) {
	maxCapacity := opts.BufferSize
	if maxCapacity <= 0 {
		maxCapacity = DefaultMaxBufferSize
	}
	warn := opts.WarningHandler
	if warn == nil {
		warn = func(msg string) { debug.Log("datasource: %s", msg) }
	}

	reader := bufio.NewReaderSize(r, maxCapacity)
	var records []*record.Record
	lineNum := 0
	for {
		lineNum++
		line, isPrefix, err := reader.ReadLine()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("error reading records stream at line %d: %w", lineNum, err)
		}
		if isPrefix {
			warn(fmt.Sprintf("skipping line %d: line too long (exceeds %d bytes)", lineNum, maxCapacity))
			for isPrefix {
				_, isPrefix, err = reader.ReadLine()
				if err != nil && err != io.EOF {
					return nil, fmt.Errorf("error skipping long line %d: %w", lineNum, err)
				}
				if err == io.EOF {
					break
				}
			}
			continue
		}

		if lineNum == 1 {
			line = stripBOM(line)
		}
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		rec := &record.Record{}
		if err := json.Unmarshal(line, rec); err != nil {
			warn(fmt.Sprintf("skipping malformed JSON on line %d: %v", lineNum, err))
			continue
		}
		if err := rec.Validate(); err != nil {
			warn(fmt.Sprintf("skipping invalid record on line %d: %v", lineNum, err))
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// WriteJSONL writes records as JSONL.
func WriteJSONL(w io.Writer, records []*record.Record) error {
	enc := json.NewEncoder(w)
	for _, r := range records {
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("encode record %s: %w", r.ID, err)
		}
	}
	return nil
}

func stripBOM(b []byte) []byte {
	return bytes.TrimPrefix(b, []byte("\xef\xbb\xbf"))
}
