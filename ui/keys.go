package ui

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines all keyboard bindings for the application
type KeyMap struct {
	// Navigation
	Up    key.Binding
	Down  key.Binding
	Enter key.Binding

	// View switching
	Tab       key.Binding
	Overview  key.Binding
	Sessions  key.Binding
	Cron      key.Binding
	Analytics key.Binding
	Help      key.Binding

	// Actions
	Refresh   key.Binding
	RunJob    key.Binding
	PrevRange key.Binding
	NextRange key.Binding
	Apply     key.Binding

	// Application control
	Quit key.Binding
	Back key.Binding
}

// DefaultKeyMap returns the default key bindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "move down"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "show run history"),
		),

		Tab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next view"),
		),
		Overview: key.NewBinding(
			key.WithKeys("1", "o"),
			key.WithHelp("1/o", "overview"),
		),
		Sessions: key.NewBinding(
			key.WithKeys("2", "s"),
			key.WithHelp("2/s", "sessions"),
		),
		Cron: key.NewBinding(
			key.WithKeys("3", "c"),
			key.WithHelp("3/c", "cron"),
		),
		Analytics: key.NewBinding(
			key.WithKeys("4", "a"),
			key.WithHelp("4/a", "analytics"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),

		Refresh: key.NewBinding(
			key.WithKeys("r", "f5"),
			key.WithHelp("r/F5", "refresh"),
		),
		RunJob: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "run job now"),
		),
		PrevRange: key.NewBinding(
			key.WithKeys("["),
			key.WithHelp("[", "previous range"),
		),
		NextRange: key.NewBinding(
			key.WithKeys("]"),
			key.WithHelp("]", "next range"),
		),
		Apply: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "apply range"),
		),

		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q/ctrl+c", "quit"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
	}
}

// ShortHelp returns the short help text for key bindings
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.Help,
		k.Quit,
		k.Tab,
		k.Refresh,
	}
}

// FullHelp returns all key bindings organized by category
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Enter},
		{k.Overview, k.Sessions, k.Cron, k.Analytics, k.Help},
		{k.Refresh, k.RunJob, k.PrevRange, k.NextRange, k.Apply},
		{k.Quit, k.Back},
	}
}
