// Package config handles loading and saving lv configuration.
//
// Configuration follows the XDG Base Directory specification:
//   - Config:  ~/.config/liveview/config.yaml
//
// A config declares how the browser shapes its view:
//
//	view:
//	  sort:
//	    - field: priority
//	    - field: updated_at
//	      direction: desc
//	  filters:
//	    - {field: status, op: ne, value: closed}
//	  live_shaping: true
//	watch:
//	  debounce: 200ms
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vanderheijden86/liveview/pkg/record"
	"github.com/vanderheijden86/liveview/pkg/view"
)

// SortConfig is one sort key.
type SortConfig struct {
	Field     string `yaml:"field"`
	Direction string `yaml:"direction,omitempty"` // asc (default) or desc
}

// ViewConfig shapes the record view.
type ViewConfig struct {
	Sort        []SortConfig            `yaml:"sort,omitempty"`
	Filters     []record.FieldPredicate `yaml:"filters,omitempty"` // ANDed
	Observe     []string                `yaml:"observe,omitempty"` // extra observed filter fields
	LiveShaping *bool                   `yaml:"live_shaping,omitempty"`
}

// WatchConfig controls file watching.
type WatchConfig struct {
	Disabled     bool          `yaml:"disabled,omitempty"`
	Debounce     time.Duration `yaml:"debounce,omitempty"`
	PollInterval time.Duration `yaml:"poll_interval,omitempty"`
	ForcePoll    bool          `yaml:"force_poll,omitempty"`
}

// UIConfig holds UI preference settings.
type UIConfig struct {
	ShowHelp   *bool `yaml:"show_help,omitempty"`
	TitleWidth int   `yaml:"title_width,omitempty"` // 0 = fit to terminal
}

// Config is the top-level configuration for lv.
type Config struct {
	Files []string    `yaml:"files,omitempty"` // opened when no files are given
	View  ViewConfig  `yaml:"view,omitempty"`
	Watch WatchConfig `yaml:"watch,omitempty"`
	UI    UIConfig    `yaml:"ui,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		View: ViewConfig{
			Sort: []SortConfig{{Field: record.FieldPriority}, {Field: record.FieldID}},
		},
		Watch: WatchConfig{
			Debounce:     200 * time.Millisecond,
			PollInterval: 2 * time.Second,
		},
	}
}

// ConfigDir returns the XDG config directory for lv.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "liveview")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "liveview")
}

// ConfigPath returns the full path to config.yaml.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// Load reads the config file from the XDG config directory.
// Returns DefaultConfig if the file doesn't exist.
func Load() (Config, error) {
	path := ConfigPath()
	if path == "" {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads config from a specific path and validates it.
// Returns DefaultConfig if the file doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	for i := range cfg.Files {
		cfg.Files[i] = expandHome(cfg.Files[i])
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config to the XDG config directory.
func Save(cfg Config) error {
	path := ConfigPath()
	if path == "" {
		return fmt.Errorf("cannot determine config directory")
	}
	return SaveTo(cfg, path)
}

// SaveTo writes the config to a specific path.
func SaveTo(cfg Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// Validate reports every problem in the config at once.
func (c Config) Validate() error {
	var errs []error
	if _, err := c.View.SortKeys(); err != nil {
		errs = append(errs, err)
	}
	if _, _, err := c.View.FilterSpec(); err != nil {
		errs = append(errs, err)
	}
	if c.Watch.Debounce < 0 {
		errs = append(errs, fmt.Errorf("watch.debounce must not be negative, got %v", c.Watch.Debounce))
	}
	if c.Watch.PollInterval < 0 {
		errs = append(errs, fmt.Errorf("watch.poll_interval must not be negative, got %v", c.Watch.PollInterval))
	}
	if c.UI.TitleWidth < 0 {
		errs = append(errs, fmt.Errorf("ui.title_width must not be negative, got %d", c.UI.TitleWidth))
	}
	return errors.Join(errs...)
}

// LiveShapingEnabled reports view.live_shaping, defaulting to true.
func (v ViewConfig) LiveShapingEnabled() bool {
	return v.LiveShaping == nil || *v.LiveShaping
}

// ShowHelpEnabled reports ui.show_help, defaulting to true.
func (u UIConfig) ShowHelpEnabled() bool {
	return u.ShowHelp == nil || *u.ShowHelp
}

// SortKeys converts view.sort into view sort keys on canonical record fields.
func (v ViewConfig) SortKeys() ([]view.SortKey, error) {
	keys := make([]view.SortKey, 0, len(v.Sort))
	for i, s := range v.Sort {
		field, err := record.CanonicalField(s.Field)
		if err != nil {
			return nil, fmt.Errorf("view.sort[%d]: %w", i, err)
		}
		if field == record.FieldLabels {
			return nil, fmt.Errorf("view.sort[%d]: %w: labels", i, view.ErrNotComparable)
		}
		dir, err := view.ParseDirection(s.Direction)
		if err != nil {
			return nil, fmt.Errorf("view.sort[%d]: %w", i, err)
		}
		keys = append(keys, view.SortKey{Field: field, Direction: dir})
	}
	return keys, nil
}

// FilterSpec compiles view.filters and returns the filter together with the
// fields to observe: those the filters read plus view.observe.
func (v ViewConfig) FilterSpec() (filter func(*record.Record) bool, observed []string, err error) {
	filter, observed, err = record.CompileAll(v.Filters)
	if err != nil {
		return nil, nil, fmt.Errorf("view.filters: %w", err)
	}
	for i, name := range v.Observe {
		field, err := record.CanonicalField(name)
		if err != nil {
			return nil, nil, fmt.Errorf("view.observe[%d]: %w", i, err)
		}
		if !slices.Contains(observed, field) {
			observed = append(observed, field)
		}
	}
	return filter, observed, nil
}

// ViewOptions builds the options for a record view from the config.
func (c Config) ViewOptions() ([]view.Option[*record.Record], error) {
	keys, err := c.View.SortKeys()
	if err != nil {
		return nil, err
	}
	filter, observed, err := c.View.FilterSpec()
	if err != nil {
		return nil, err
	}
	opts := []view.Option[*record.Record]{
		view.WithLiveShaping[*record.Record](c.View.LiveShapingEnabled()),
		view.WithSortKeys[*record.Record](keys...),
		view.WithObservedFilterFields[*record.Record](observed...),
	}
	if filter != nil {
		opts = append(opts, view.WithFilter[*record.Record](filter))
	}
	return opts, nil
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
