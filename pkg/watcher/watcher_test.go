package watcher

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func writeTemp(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

// changeLog collects OnChange deliveries.
type changeLog struct {
	mu    sync.Mutex
	calls [][]string
}

func (c *changeLog) record(paths []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, paths)
}

func (c *changeLog) snapshot() [][]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.calls)
}

func TestDebouncer_CoalescesRapidTriggers(t *testing.T) {
	d := NewDebouncer(50 * time.Millisecond)

	var callCount atomic.Int32
	for range 10 {
		d.Trigger(func() { callCount.Add(1) })
		time.Sleep(10 * time.Millisecond)
	}
	time.Sleep(150 * time.Millisecond)

	if count := callCount.Load(); count != 1 {
		t.Errorf("expected 1 callback invocation, got %d", count)
	}
}

func TestDebouncer_Cancel(t *testing.T) {
	d := NewDebouncer(50 * time.Millisecond)

	var called atomic.Bool
	d.Trigger(func() { called.Store(true) })
	d.Cancel()
	time.Sleep(100 * time.Millisecond)

	if called.Load() {
		t.Error("callback should not have been invoked after cancel")
	}
}

func TestDebouncer_DefaultDuration(t *testing.T) {
	if d := NewDebouncer(0); d.Duration() != DefaultDebounceDuration {
		t.Errorf("expected default duration %v, got %v", DefaultDebounceDuration, d.Duration())
	}
}

func TestWatcher_DetectsFileChange(t *testing.T) {
	tmpFile := writeTemp(t, t.TempDir(), "records.jsonl", "initial")

	var log changeLog
	w, err := NewWatcher([]string{tmpFile},
		WithDebounceDuration(50*time.Millisecond),
		WithOnChange(log.record),
	)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(tmpFile, []byte("modified content"), 0644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(400 * time.Millisecond)

	if len(log.snapshot()) == 0 {
		t.Error("expected change to be detected")
	}
}

func TestWatcher_PollingReportsOnlyChangedFiles(t *testing.T) {
	dir := t.TempDir()
	a := writeTemp(t, dir, "a.jsonl", "a")
	b := writeTemp(t, dir, "b.jsonl", "b")

	var log changeLog
	w, err := NewWatcher([]string{a, b},
		WithDebounceDuration(50*time.Millisecond),
		WithPollInterval(50*time.Millisecond),
		WithForcePoll(true),
		WithOnChange(log.record),
	)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if !w.IsPolling() {
		t.Fatal("expected watcher to be in polling mode")
	}

	time.Sleep(60 * time.Millisecond)
	if err := os.WriteFile(b, []byte("b changed"), 0644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(400 * time.Millisecond)

	calls := log.snapshot()
	if len(calls) != 1 {
		t.Fatalf("expected 1 change delivery, got %v", calls)
	}
	if !slices.Equal(calls[0], []string{b}) {
		t.Errorf("changed paths = %v, want [%s]", calls[0], b)
	}
}

func TestWatcher_ChangedChannel(t *testing.T) {
	tmpFile := writeTemp(t, t.TempDir(), "records.jsonl", "initial")

	w, err := NewWatcher([]string{tmpFile},
		WithDebounceDuration(50*time.Millisecond),
		WithPollInterval(100*time.Millisecond),
		WithForcePoll(true),
	)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	go func() {
		time.Sleep(50 * time.Millisecond)
		os.WriteFile(tmpFile, []byte("new content"), 0644)
	}()

	select {
	case <-w.Changed():
	case <-time.After(time.Second):
		t.Error("timeout waiting for change notification")
	}
}

func TestWatcher_EnvForcePoll(t *testing.T) {
	t.Setenv(ForcePollEnv, "true")
	tmpFile := writeTemp(t, t.TempDir(), "records.jsonl", "initial")

	w, err := NewWatcher([]string{tmpFile}, WithPollInterval(25*time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if !w.IsPolling() {
		t.Fatalf("expected watcher to be in polling mode when %s is set", ForcePollEnv)
	}
}

func TestWatcher_RemoteFilesystem_UsesPolling(t *testing.T) {
	tmpFile := writeTemp(t, t.TempDir(), "records.jsonl", "initial")

	orig := detectFilesystemTypeFunc
	detectFilesystemTypeFunc = func(string) FilesystemType { return FSTypeNFS }
	t.Cleanup(func() { detectFilesystemTypeFunc = orig })

	w, err := NewWatcher([]string{tmpFile}, WithPollInterval(25*time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if !w.IsPolling() {
		t.Fatal("expected watcher to use polling on remote filesystem")
	}
	if got := w.FilesystemType(); got != FSTypeNFS {
		t.Fatalf("expected filesystem type %v, got %v", FSTypeNFS, got)
	}
}

func TestWatcher_FileRemoved(t *testing.T) {
	tmpFile := writeTemp(t, t.TempDir(), "records.jsonl", "initial")

	var (
		errMu    sync.Mutex
		gotError error
	)
	w, err := NewWatcher([]string{tmpFile},
		WithDebounceDuration(50*time.Millisecond),
		WithPollInterval(50*time.Millisecond),
		WithForcePoll(true),
		WithOnError(func(err error) {
			errMu.Lock()
			gotError = err
			errMu.Unlock()
		}),
	)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	time.Sleep(60 * time.Millisecond)
	if err := os.Remove(tmpFile); err != nil {
		t.Fatal(err)
	}
	time.Sleep(300 * time.Millisecond)

	errMu.Lock()
	defer errMu.Unlock()
	if !errors.Is(gotError, ErrFileRemoved) {
		t.Errorf("expected ErrFileRemoved, got %v", gotError)
	}
}

func TestWatcher_StartStop(t *testing.T) {
	tmpFile := writeTemp(t, t.TempDir(), "records.jsonl", "initial")

	w, err := NewWatcher([]string{tmpFile})
	if err != nil {
		t.Fatal(err)
	}
	if w.IsStarted() {
		t.Error("watcher should not be started initially")
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	if !w.IsStarted() {
		t.Error("watcher should be started after Start()")
	}
	if err := w.Start(); err != ErrAlreadyStarted {
		t.Errorf("expected ErrAlreadyStarted, got %v", err)
	}

	w.Stop()
	if w.IsStarted() {
		t.Error("watcher should not be started after Stop()")
	}
	w.Stop()

	// Restart after stop is allowed.
	if err := w.Start(); err != nil {
		t.Errorf("restart: %v", err)
	}
	w.Stop()
}

func TestWatcher_Paths(t *testing.T) {
	dir := t.TempDir()
	a := writeTemp(t, dir, "a.jsonl", "a")
	b := writeTemp(t, dir, "b.db", "b")

	w, err := NewWatcher([]string{a, b, a})
	if err != nil {
		t.Fatal(err)
	}
	absA, _ := filepath.Abs(a)
	absB, _ := filepath.Abs(b)
	if got := w.Paths(); !slices.Equal(got, []string{absA, absB}) {
		t.Errorf("Paths() = %v", got)
	}

	if _, err := NewWatcher(nil); !errors.Is(err, ErrNoPaths) {
		t.Errorf("NewWatcher(nil) error = %v, want ErrNoPaths", err)
	}
}

func TestWatcher_PollInterval(t *testing.T) {
	tmpFile := writeTemp(t, t.TempDir(), "records.jsonl", "initial")

	custom := 500 * time.Millisecond
	w, err := NewWatcher([]string{tmpFile}, WithPollInterval(custom))
	if err != nil {
		t.Fatal(err)
	}
	if got := w.PollInterval(); got != custom {
		t.Errorf("expected poll interval %v, got %v", custom, got)
	}

	w, _ = NewWatcher([]string{tmpFile}, WithPollInterval(0))
	if got := w.PollInterval(); got != DefaultPollInterval {
		t.Errorf("zero interval should keep the default, got %v", got)
	}
}

func TestFilesystemType_String(t *testing.T) {
	tests := []struct {
		fsType   FilesystemType
		expected string
	}{
		{FSTypeUnknown, "unknown"},
		{FSTypeLocal, "local"},
		{FSTypeNFS, "nfs"},
		{FSTypeSMB, "smb"},
		{FSTypeSSHFS, "sshfs"},
		{FSTypeFUSE, "fuse"},
		{FilesystemType(99), "unknown"},
	}
	for _, tc := range tests {
		if got := tc.fsType.String(); got != tc.expected {
			t.Errorf("FilesystemType(%d).String() = %q, expected %q", tc.fsType, got, tc.expected)
		}
	}
}

func TestEnvBool(t *testing.T) {
	tests := []struct {
		value    string
		expected bool
	}{
		{"1", true},
		{"TRUE", true},
		{"yes", true},
		{"Y", true},
		{" on ", true},
		{"0", false},
		{"no", false},
		{"", false},
		{"invalid", false},
	}
	for _, tc := range tests {
		t.Run(tc.value, func(t *testing.T) {
			t.Setenv("TEST_ENV_BOOL", tc.value)
			if got := envBool("TEST_ENV_BOOL"); got != tc.expected {
				t.Errorf("envBool(%q) = %v, expected %v", tc.value, got, tc.expected)
			}
		})
	}
}

func TestDetectFilesystemType(t *testing.T) {
	if got := DetectFilesystemType(""); got != FSTypeUnknown {
		t.Errorf("DetectFilesystemType(\"\") = %v, expected FSTypeUnknown", got)
	}
	// Missing files fall back to their directory and must not panic.
	_ = DetectFilesystemType(filepath.Join(t.TempDir(), "does_not_exist.jsonl"))
}
