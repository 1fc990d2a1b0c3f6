package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all key bindings for the study TUI.
type KeyMap struct {
	// Setup.
	Start      key.Binding
	Category   key.Binding
	Difficulty key.Binding
	Count      key.Binding

	// Study.
	Know     key.Binding
	DontKnow key.Binding
	Flip     key.Binding
	Hint     key.Binding

	Reset    key.Binding
	DarkMode key.Binding
	Help     key.Binding
	Quit     key.Binding
}

// DefaultKeyMap is the built-in key binding set.
var DefaultKeyMap = KeyMap{
	Start: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "start"),
	),
	Category: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "category"),
	),
	Difficulty: key.NewBinding(
		key.WithKeys("d"),
		key.WithHelp("d", "difficulty"),
	),
	Count: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "questions"),
	),
	Know: key.NewBinding(
		key.WithKeys("y", "right"),
		key.WithHelp("y/→", "know"),
	),
	DontKnow: key.NewBinding(
		key.WithKeys("n", "left"),
		key.WithHelp("n/←", "don't know"),
	),
	Flip: key.NewBinding(
		key.WithKeys(" ", "f"),
		key.WithHelp("space", "flip"),
	),
	Hint: key.NewBinding(
		key.WithKeys("h"),
		key.WithHelp("h", "hint"),
	),
	Reset: key.NewBinding(
		key.WithKeys("R"),
		key.WithHelp("R", "reset"),
	),
	DarkMode: key.NewBinding(
		key.WithKeys("D"),
		key.WithHelp("D", "dark mode"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// phaseKeys adapts the key map to bubbles/help for one screen.
type phaseKeys struct {
	keys     KeyMap
	studying bool
}

func (p phaseKeys) ShortHelp() []key.Binding {
	if p.studying {
		return []key.Binding{p.keys.Know, p.keys.DontKnow, p.keys.Flip, p.keys.Hint, p.keys.Help, p.keys.Quit}
	}
	return []key.Binding{p.keys.Start, p.keys.Category, p.keys.Difficulty, p.keys.Count, p.keys.Help, p.keys.Quit}
}

func (p phaseKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		p.ShortHelp(),
		{p.keys.Reset, p.keys.DarkMode},
	}
}
