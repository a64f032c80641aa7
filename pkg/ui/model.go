// Package ui implements the lv record browser: a Bubble Tea model that renders
// a live CollectionView and drives its cursor, shaping and deferral scopes.
package ui

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/liveview/internal/datasource"
	"github.com/vanderheijden86/liveview/pkg/debug"
	"github.com/vanderheijden86/liveview/pkg/observable"
	"github.com/vanderheijden86/liveview/pkg/record"
	"github.com/vanderheijden86/liveview/pkg/view"
	"github.com/vanderheijden86/liveview/pkg/watcher"
)

// DefaultBulkSyncThreshold is the number of record changes above which a
// reload is applied inside one DeferRefresh scope instead of incrementally.
const DefaultBulkSyncThreshold = 64

// reloadTimeout bounds a single reload of all files.
const reloadTimeout = 30 * time.Second

// maxSortKeys caps how many previous sort fields survive as tie-breakers
// when the primary field is cycled.
const maxSortKeys = 3

// sortableFields is the cycle order of the sort key.
var sortableFields = []string{
	record.FieldPriority,
	record.FieldStatus,
	record.FieldTitle,
	record.FieldID,
	record.FieldCreatedAt,
	record.FieldUpdatedAt,
}

// FileChangedMsg is sent when a watched file changes on disk
type FileChangedMsg struct{}

// ReloadedMsg carries a freshly loaded snapshot of every file.
type ReloadedMsg struct {
	Records []*record.Record
	Err     error
}

// ReadyTimeoutMsg makes the UI usable even if the terminal never reports
// its size.
type ReadyTimeoutMsg struct{}

// LoadFunc loads the current contents of every file shown.
type LoadFunc func(ctx context.Context) ([]*record.Record, error)

// WatchFileCmd returns a command that waits for file changes and sends FileChangedMsg
func WatchFileCmd(w *watcher.Watcher) tea.Cmd {
	return func() tea.Msg {
		<-w.Changed()
		return FileChangedMsg{}
	}
}

// ReloadCmd runs load off the update loop and reports the result.
func ReloadCmd(load LoadFunc) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), reloadTimeout)
		defer cancel()
		records, err := load(ctx)
		return ReloadedMsg{Records: records, Err: err}
	}
}

// ReadyTimeoutCmd returns a command that sends ReadyTimeoutMsg after 100ms.
func ReadyTimeoutCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(time.Time) tea.Msg {
		return ReadyTimeoutMsg{}
	})
}

// Options configures a Model.
type Options struct {
	// Load reloads the files; reload is disabled when nil.
	Load LoadFunc
	// Watcher triggers reloads on file changes. Optional.
	Watcher *watcher.Watcher
	// ShowHelp shows the one-line key help under the table.
	ShowHelp bool
	// TitleWidth fixes the title column width; 0 fits it to the terminal.
	TitleWidth int
	// BulkSyncThreshold overrides DefaultBulkSyncThreshold when positive.
	BulkSyncThreshold int
}

// Model is the browser state. The list and view are shared pointers, so the
// copies Bubble Tea makes of Model all drive the same view.
type Model struct {
	list *observable.List[*record.Record]
	view *view.CollectionView[*record.Record]

	load    LoadFunc
	watcher *watcher.Watcher

	// Filter composed from the configured filter and the title search.
	baseFilter view.Filter[*record.Record]
	baseFields []string
	filterOn   bool
	query      string
	search     textinput.Model
	searching  bool

	keys          KeyMap
	help          help.Model
	showHelp      bool
	titleWidth    int
	bulkThreshold int

	width  int
	height int
	offset int
	ready  bool

	statusMsg     string
	statusIsError bool
}

// NewModel creates a browser over v, whose source must be list. The filter
// configured on v becomes the one toggled by the filter key.
func NewModel(list *observable.List[*record.Record], v *view.CollectionView[*record.Record], opts Options) Model {
	search := textinput.New()
	search.Prompt = "/"
	search.Placeholder = "title"
	search.CharLimit = 120

	m := Model{
		list:          list,
		view:          v,
		load:          opts.Load,
		watcher:       opts.Watcher,
		baseFilter:    v.Filter(),
		baseFields:    v.ObservedFilterFields(),
		filterOn:      v.Filter() != nil,
		search:        search,
		keys:          DefaultKeyMap(),
		help:          help.New(),
		showHelp:      opts.ShowHelp,
		titleWidth:    opts.TitleWidth,
		bulkThreshold: opts.BulkSyncThreshold,
	}
	if m.bulkThreshold <= 0 {
		m.bulkThreshold = DefaultBulkSyncThreshold
	}
	m.normalizeCursor()
	return m
}

// Init starts watching and the ready timeout.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{ReadyTimeoutCmd()}
	if m.watcher != nil {
		cmds = append(cmds, WatchFileCmd(m.watcher))
	}
	return tea.Batch(cmds...)
}

// Update handles a message.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.ready = true
		m.ensureVisible()
		return m, nil

	case ReadyTimeoutMsg:
		if !m.ready {
			m.width, m.height = 80, 24
			m.ready = true
		}
		return m, nil

	case FileChangedMsg:
		var cmds []tea.Cmd
		if m.load != nil {
			cmds = append(cmds, ReloadCmd(m.load))
		}
		if m.watcher != nil {
			cmds = append(cmds, WatchFileCmd(m.watcher))
		}
		return m, tea.Batch(cmds...)

	case ReloadedMsg:
		if msg.Err != nil {
			m.setStatus(fmt.Sprintf("Reload error: %v", msg.Err), true)
			return m, nil
		}
		m.applySnapshot(msg.Records)
		return m, nil

	case tea.KeyMsg:
		if m.searching {
			return m.updateSearch(msg)
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Down):
		m.moveBy(1)
	case key.Matches(msg, m.keys.Up):
		m.moveBy(-1)
	case key.Matches(msg, m.keys.PageDown):
		m.moveBy(m.bodyHeight())
	case key.Matches(msg, m.keys.PageUp):
		m.moveBy(-m.bodyHeight())
	case key.Matches(msg, m.keys.Top):
		m.view.MoveCurrentToFirst()
		m.ensureVisible()
	case key.Matches(msg, m.keys.Bottom):
		m.view.MoveCurrentToLast()
		m.ensureVisible()
	case key.Matches(msg, m.keys.CycleSort):
		m.cycleSort()
	case key.Matches(msg, m.keys.ToggleDir):
		m.toggleDirection()
	case key.Matches(msg, m.keys.ToggleFilter):
		if m.baseFilter == nil {
			m.setStatus("No filter configured", false)
			break
		}
		m.filterOn = !m.filterOn
		m.applyFilter()
		m.setStatus(fmt.Sprintf("Filter %s", onOff(m.filterOn)), false)
	case key.Matches(msg, m.keys.Search):
		m.searching = true
		m.search.SetValue(m.query)
		m.search.CursorEnd()
		return m, m.search.Focus()
	case key.Matches(msg, m.keys.ClearSearch):
		if m.query != "" {
			m.query = ""
			m.applyFilter()
		}
	case key.Matches(msg, m.keys.Copy):
		m.copyCurrentID()
	case key.Matches(msg, m.keys.Reload):
		if m.load != nil {
			m.setStatus("Reloading…", false)
			return m, ReloadCmd(m.load)
		}
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.ensureVisible()
	}
	return m, nil
}

// updateSearch filters on every keystroke. Enter keeps the query, esc drops it.
func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.searching = false
		m.search.Blur()
		return m, nil
	case tea.KeyEsc:
		m.searching = false
		m.search.Blur()
		m.search.SetValue("")
		if m.query != "" {
			m.query = ""
			m.applyFilter()
		}
		return m, nil
	case tea.KeyCtrlC:
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if q := strings.TrimSpace(m.search.Value()); q != m.query {
		m.query = q
		m.applyFilter()
	}
	return m, cmd
}

// applyFilter installs the configured filter (if toggled on) ANDed with the
// title search. Both assignments land in one deferral, so the view rebuilds
// and resets once.
func (m *Model) applyFilter() {
	d := m.view.DeferRefresh()

	var base view.Filter[*record.Record]
	if m.filterOn {
		base = m.baseFilter
	}
	m.view.ClearObservedFilterFields()
	m.view.ObserveFilterField(m.baseFields...)

	if m.query == "" {
		m.view.SetFilter(base)
	} else {
		q := strings.ToLower(m.query)
		m.view.ObserveFilterField(record.FieldTitle)
		m.view.SetFilter(func(r *record.Record) bool {
			if base != nil && !base(r) {
				return false
			}
			return strings.Contains(strings.ToLower(r.Title), q)
		})
	}

	d.Close()
	m.normalizeCursor()
}

func (m *Model) cycleSort() {
	keys := m.view.SortKeys()
	next := sortableFields[0]
	if len(keys) > 0 {
		i := slices.Index(sortableFields, keys[0].Field)
		next = sortableFields[(i+1)%len(sortableFields)]
	}
	rest := slices.DeleteFunc(slices.Clone(keys), func(k view.SortKey) bool { return k.Field == next })
	keys = append([]view.SortKey{view.Asc(next)}, rest...)
	if len(keys) > maxSortKeys {
		keys = keys[:maxSortKeys]
	}
	m.setSortKeys(keys)
}

func (m *Model) toggleDirection() {
	keys := slices.Clone(m.view.SortKeys())
	if len(keys) == 0 {
		keys = []view.SortKey{view.Asc(record.FieldID)}
	}
	keys[0].Direction = keys[0].Direction.Toggle()
	m.setSortKeys(keys)
}

func (m *Model) setSortKeys(keys []view.SortKey) {
	if err := m.view.SetSortKeys(keys...); err != nil {
		m.setStatus(fmt.Sprintf("Sort error: %v", err), true)
		return
	}
	m.setStatus("Sort: "+formatSortKeys(keys), false)
	m.ensureVisible()
}

// applySnapshot folds a reload into the list. Small diffs go through one
// change at a time so the cursor and scroll position follow the records;
// large ones are batched into a single rebuild.
func (m *Model) applySnapshot(records []*record.Record) {
	start := time.Now()
	diff := datasource.Diff(m.list.Items(), records)
	if !diff.HasChanges() {
		m.setStatus(fmt.Sprintf("No changes (%d records)", m.list.Len()), false)
		return
	}

	size := len(diff.Added) + len(diff.Removed) + len(diff.Changed)
	bulk := size > m.bulkThreshold
	debug.LogIf(bulk, "ui: %d changes, syncing inside one deferral", size)

	var res datasource.SyncResult
	if bulk {
		d := m.view.DeferRefresh()
		res = datasource.Sync(m.list, records)
		d.Close()
	} else {
		res = datasource.Sync(m.list, records)
	}
	debug.LogTiming("ui.apply_snapshot", time.Since(start))

	m.normalizeCursor()
	m.setStatus(fmt.Sprintf("Reloaded %d records (+%d -%d ~%d)", m.list.Len(), res.Added, res.Removed, res.Updated), false)
}

func (m *Model) copyCurrentID() {
	r, ok := m.view.CurrentItem()
	if !ok {
		return
	}
	if err := clipboard.WriteAll(r.ID); err != nil {
		m.setStatus(fmt.Sprintf("❌ Clipboard error: %v", err), true)
		return
	}
	m.setStatus(fmt.Sprintf("📋 Copied %s to clipboard", r.ID), false)
}

func (m *Model) setStatus(msg string, isErr bool) {
	m.statusMsg = msg
	m.statusIsError = isErr
}

func (m *Model) moveBy(delta int) {
	n := m.view.Len()
	if n == 0 {
		return
	}
	target := max(0, min(n-1, m.view.CurrentPosition()+delta))
	m.view.MoveCurrentToPosition(target)
	m.ensureVisible()
}

// normalizeCursor keeps the cursor on a row whenever the view is non-empty.
func (m *Model) normalizeCursor() {
	n := m.view.Len()
	pos := m.view.CurrentPosition()
	switch {
	case n == 0:
	case pos < 0:
		m.view.MoveCurrentToFirst()
	case pos >= n:
		m.view.MoveCurrentToLast()
	}
	m.ensureVisible()
}

// ensureVisible scrolls so the cursor row is on screen.
func (m *Model) ensureVisible() {
	h := m.bodyHeight()
	pos := m.view.CurrentPosition()
	if pos >= 0 {
		if pos < m.offset {
			m.offset = pos
		}
		if pos >= m.offset+h {
			m.offset = pos - h + 1
		}
	}
	m.offset = max(0, min(m.offset, m.view.Len()-h))
}

// bodyHeight is the number of table rows that fit on screen.
func (m Model) bodyHeight() int {
	if m.height <= 0 {
		return 20
	}
	// header, column header and its border, status line
	chrome := 4
	if m.showHelp || m.searching {
		chrome += lipgloss.Height(m.footer())
	}
	return max(1, m.height-chrome)
}

// CurrentRecord returns the record under the cursor.
func (m Model) CurrentRecord() (*record.Record, bool) {
	return m.view.CurrentItem()
}

// VisibleRecords returns the records in display order.
func (m Model) VisibleRecords() []*record.Record {
	return m.view.Items()
}

// StatusMessage returns the status line text and whether it reports an error.
func (m Model) StatusMessage() (string, bool) {
	return m.statusMsg, m.statusIsError
}

// Query returns the active title search.
func (m Model) Query() string {
	return m.query
}

// FilterEnabled reports whether the configured filter is applied.
func (m Model) FilterEnabled() bool {
	return m.filterOn
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func formatSortKeys(keys []view.SortKey) string {
	if len(keys) == 0 {
		return "source order"
	}
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k.String()
	}
	return strings.Join(parts, ", ")
}
