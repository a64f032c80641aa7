//go:build ignore

// generate_testdata.go creates record datasets for benchmarking and for
// trying lv against changing files.
// Usage: go run scripts/generate_testdata.go [-out dir] [-evolve]
//
// Creates:
//
//	<dir>/small.jsonl   (100 records)
//	<dir>/medium.jsonl  (1000 records)
//	<dir>/large.jsonl   (10000 records)
//
// With -evolve, each file is rewritten every two seconds with a few records
// removed, changed and added, so a running lv shows live updates.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/vanderheijden86/liveview/internal/datasource"
	"github.com/vanderheijden86/liveview/pkg/record"
	"github.com/vanderheijden86/liveview/pkg/testutil"
)

type datasetSpec struct {
	name string
	size int
}

var datasets = []datasetSpec{
	{"small", 100},
	{"medium", 1000},
	{"large", 10000},
}

func main() {
	outputDir := flag.String("out", "testdata/benchmark", "Output directory")
	evolve := flag.Bool("evolve", false, "Keep rewriting the datasets with small changes")
	flag.Parse()

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create output directory: %v\n", err)
		os.Exit(1)
	}

	gens := make([]*testutil.Generator, len(datasets))
	current := make([][]*record.Record, len(datasets))
	for i, ds := range datasets {
		fmt.Printf("Generating %s dataset (%d records)...\n", ds.name, ds.size)

		cfg := testutil.DefaultConfig()
		cfg.Seed = int64(ds.size) // Reproducible per-size
		cfg.IDPrefix = "BENCH"
		gens[i] = testutil.New(cfg)
		current[i] = gens[i].Records(ds.size)

		path := filepath.Join(*outputDir, ds.name+".jsonl")
		if err := writeFile(path, current[i]); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write %s: %v\n", path, err)
			os.Exit(1)
		}
		fmt.Printf("  Written %s\n", path)
	}

	if !*evolve {
		fmt.Println("\nDone! Test datasets created in", *outputDir)
		return
	}

	fmt.Println("\nEvolving datasets every 2s, Ctrl+C to stop")
	for range time.Tick(2 * time.Second) {
		for i, ds := range datasets {
			n := max(1, ds.size/100)
			current[i] = gens[i].Evolve(current[i], testutil.Evolution{Remove: n, Change: 2 * n, Add: n})
			path := filepath.Join(*outputDir, ds.name+".jsonl")
			if err := writeFile(path, current[i]); err != nil {
				fmt.Fprintf(os.Stderr, "Failed to write %s: %v\n", path, err)
				os.Exit(1)
			}
		}
	}
}

// writeFile replaces path atomically so watchers never see a partial file.
func writeFile(path string, records []*record.Record) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	if err := datasource.WriteJSONL(w, records); err != nil {
		f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
