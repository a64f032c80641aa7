package ui

import "github.com/charmbracelet/bubbles/key"

// KeyMap lists the browser key bindings. It implements help.KeyMap.
type KeyMap struct {
	Up           key.Binding
	Down         key.Binding
	PageUp       key.Binding
	PageDown     key.Binding
	Top          key.Binding
	Bottom       key.Binding
	CycleSort    key.Binding
	ToggleDir    key.Binding
	ToggleFilter key.Binding
	Search       key.Binding
	ClearSearch  key.Binding
	Copy         key.Binding
	Reload       key.Binding
	Help         key.Binding
	Quit         key.Binding
}

// DefaultKeyMap returns the default bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up:           key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("↑/k", "up")),
		Down:         key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("↓/j", "down")),
		PageUp:       key.NewBinding(key.WithKeys("pgup", "ctrl+u"), key.WithHelp("pgup", "page up")),
		PageDown:     key.NewBinding(key.WithKeys("pgdown", "ctrl+d"), key.WithHelp("pgdn", "page down")),
		Top:          key.NewBinding(key.WithKeys("g", "home"), key.WithHelp("g", "first")),
		Bottom:       key.NewBinding(key.WithKeys("G", "end"), key.WithHelp("G", "last")),
		CycleSort:    key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sort field")),
		ToggleDir:    key.NewBinding(key.WithKeys("S"), key.WithHelp("S", "reverse")),
		ToggleFilter: key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "toggle filter")),
		Search:       key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search titles")),
		ClearSearch:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "clear search")),
		Copy:         key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy id")),
		Reload:       key.NewBinding(key.WithKeys("ctrl+r", "f5"), key.WithHelp("ctrl+r", "reload")),
		Help:         key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:         key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp returns the bindings shown in the one-line help.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Down, k.Up, k.CycleSort, k.ToggleDir, k.Search, k.Help, k.Quit}
}

// FullHelp returns the bindings shown in the expanded help.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.PageUp, k.PageDown, k.Top, k.Bottom},
		{k.CycleSort, k.ToggleDir, k.ToggleFilter, k.Search, k.ClearSearch},
		{k.Copy, k.Reload, k.Help, k.Quit},
	}
}
