// Command lv browses records from JSONL and SQLite files in a live,
// filtered and sorted view that follows the files as they change.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/vanderheijden86/liveview/internal/datasource"
	"github.com/vanderheijden86/liveview/pkg/config"
	"github.com/vanderheijden86/liveview/pkg/debug"
	"github.com/vanderheijden86/liveview/pkg/metrics"
	"github.com/vanderheijden86/liveview/pkg/observable"
	"github.com/vanderheijden86/liveview/pkg/record"
	"github.com/vanderheijden86/liveview/pkg/ui"
	"github.com/vanderheijden86/liveview/pkg/version"
	"github.com/vanderheijden86/liveview/pkg/view"
	"github.com/vanderheijden86/liveview/pkg/watcher"
)

// errNoFiles is returned when neither arguments nor config name a file.
var errNoFiles = errors.New("no files given and none configured")

func main() {
	configPath := flag.String("config", "", "Read configuration from this file instead of the XDG config path")
	plainFlag := flag.Bool("plain", false, "Print the view as tab-separated rows instead of starting the TUI")
	versionFlag := flag.Bool("version", false, "Show version")
	debugFlag := flag.Bool("debug", false, "Enable debug logging (to lv-debug.log in TUI mode)")
	statsFlag := flag.Bool("stats", false, "Print timing metrics on exit")
	noWatch := flag.Bool("no-watch", false, "Do not reload when files change")
	help := flag.Bool("help", false, "Show help")
	flag.Parse()

	if *help {
		fmt.Println("Usage: lv [options] <file>...")
		fmt.Println("\nA live record browser for JSONL and SQLite files.")
		flag.PrintDefaults()
		os.Exit(0)
	}

	if *versionFlag {
		fmt.Printf("lv %s\n", version.Version)
		os.Exit(0)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	files, err := resolveFiles(flag.Args(), cfg.Files)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		fmt.Fprintln(os.Stderr, "Usage: lv [options] <file>...")
		os.Exit(2)
	}

	plain := *plainFlag || !term.IsTerminal(int(os.Stdout.Fd()))
	if *debugFlag {
		debug.SetEnabled(true)
		if !plain {
			f, err := os.Create("lv-debug.log")
			if err != nil {
				fmt.Fprintf(os.Stderr, "Could not create debug log: %v\n", err)
				os.Exit(1)
			}
			defer f.Close()
			debug.SetOutput(f)
		}
	}

	list, v, err := openView(context.Background(), files, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer v.Close()

	if plain {
		if err := printPlain(os.Stdout, v); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	} else {
		var w *watcher.Watcher
		if !*noWatch && !cfg.Watch.Disabled {
			w, err = startWatcher(files, cfg.Watch)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Warning: not watching files: %v\n", err)
			} else {
				defer w.Stop()
			}
		}

		m := ui.NewModel(list, v, ui.Options{
			Load: func(ctx context.Context) ([]*record.Record, error) {
				return datasource.LoadMany(ctx, files)
			},
			Watcher:    w,
			ShowHelp:   cfg.UI.ShowHelpEnabled(),
			TitleWidth: cfg.UI.TitleWidth,
		})
		if err := runTUIProgram(m); err != nil {
			fmt.Fprintf(os.Stderr, "Error running lv: %v\n", err)
			os.Exit(1)
		}
	}

	if *statsFlag {
		printStats(os.Stderr)
	}
}

func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Load()
	}
	return config.LoadFrom(path)
}

// resolveFiles prefers command-line files over configured ones.
func resolveFiles(args, configured []string) ([]string, error) {
	files := args
	if len(files) == 0 {
		files = configured
	}
	if len(files) == 0 {
		return nil, errNoFiles
	}
	out := make([]string, len(files))
	for i, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", f, err)
		}
		out[i] = abs
	}
	return out, nil
}

// openView loads files into an observable list and builds the configured
// view over it.
func openView(ctx context.Context, files []string, cfg config.Config) (*observable.List[*record.Record], *view.CollectionView[*record.Record], error) {
	records, err := datasource.LoadMany(ctx, files)
	if err != nil {
		return nil, nil, err
	}
	opts, err := cfg.ViewOptions()
	if err != nil {
		return nil, nil, err
	}
	list := observable.NewList(records...)
	v, err := view.New[*record.Record](list, opts...)
	if err != nil {
		return nil, nil, err
	}
	return list, v, nil
}

func startWatcher(files []string, wc config.WatchConfig) (*watcher.Watcher, error) {
	w, err := watcher.NewWatcher(files,
		watcher.WithDebounceDuration(wc.Debounce),
		watcher.WithPollInterval(wc.PollInterval),
		watcher.WithForcePoll(wc.ForcePoll),
		watcher.WithOnError(func(err error) {
			debug.Log("watcher: %v", err)
		}),
	)
	if err != nil {
		return nil, err
	}
	if err := w.Start(); err != nil {
		return nil, err
	}
	return w, nil
}

func printPlain(out io.Writer, v *view.CollectionView[*record.Record]) error {
	for _, row := range ui.PlainRows(v) {
		if _, err := fmt.Fprintln(out, row); err != nil {
			return err
		}
	}
	return nil
}

func printStats(out io.Writer) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "metric\tcount\ttotal_ms\tavg_ms\tmax_ms")
	for _, s := range metrics.AllTimingStats() {
		fmt.Fprintf(tw, "%s\t%d\t%.2f\t%.3f\t%.3f\n", s.Name, s.Count, s.TotalMs, s.AvgMs, s.MaxMs)
	}
	for _, c := range metrics.AllCounterStats() {
		fmt.Fprintf(tw, "%s\t%d\t\t\t\n", c.Name, c.Value)
	}
	tw.Flush()
}

func runTUIProgram(m ui.Model) error {
	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithoutSignalHandler(),
	)

	runDone := make(chan struct{})
	defer close(runDone)

	// Graceful shutdown on SIGINT/SIGTERM.
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-runDone:
			return
		case <-sigCh:
		}

		p.Quit()

		select {
		case <-runDone:
			return
		case <-sigCh:
		case <-time.After(5 * time.Second):
		}

		p.Kill()
	}()

	// Optional auto-quit for automated tests: set LV_TUI_AUTOCLOSE_MS.
	if v := os.Getenv("LV_TUI_AUTOCLOSE_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			go func() {
				timer := time.NewTimer(time.Duration(ms) * time.Millisecond)
				defer timer.Stop()

				select {
				case <-runDone:
				case <-timer.C:
					p.Quit()
				}
			}()
		}
	}

	_, err := p.Run()
	return err
}
