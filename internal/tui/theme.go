package tui

import "github.com/charmbracelet/lipgloss"

// Theme is the colour palette of the study TUI.
type Theme struct {
	Title   lipgloss.Color
	Text    lipgloss.Color
	Faint   lipgloss.Color
	Accent  lipgloss.Color
	Known   lipgloss.Color
	Unknown lipgloss.Color
	Border  lipgloss.Color
}

var DarkTheme = Theme{
	Title:   lipgloss.Color("141"),
	Text:    lipgloss.Color("252"),
	Faint:   lipgloss.Color("243"),
	Accent:  lipgloss.Color("105"),
	Known:   lipgloss.Color("78"),
	Unknown: lipgloss.Color("203"),
	Border:  lipgloss.Color("60"),
}

var LightTheme = Theme{
	Title:   lipgloss.Color("55"),
	Text:    lipgloss.Color("235"),
	Faint:   lipgloss.Color("245"),
	Accent:  lipgloss.Color("62"),
	Known:   lipgloss.Color("28"),
	Unknown: lipgloss.Color("160"),
	Border:  lipgloss.Color("146"),
}

// ThemeFor picks the palette for the dark-mode preference.
func ThemeFor(dark bool) Theme {
	if dark {
		return DarkTheme
	}
	return LightTheme
}

type styles struct {
	title   lipgloss.Style
	text    lipgloss.Style
	faint   lipgloss.Style
	accent  lipgloss.Style
	known   lipgloss.Style
	unknown lipgloss.Style
	card    lipgloss.Style
	chip    lipgloss.Style
}

func newStyles(t Theme) styles {
	return styles{
		title:   lipgloss.NewStyle().Foreground(t.Title).Bold(true),
		text:    lipgloss.NewStyle().Foreground(t.Text),
		faint:   lipgloss.NewStyle().Foreground(t.Faint),
		accent:  lipgloss.NewStyle().Foreground(t.Accent).Bold(true),
		known:   lipgloss.NewStyle().Foreground(t.Known),
		unknown: lipgloss.NewStyle().Foreground(t.Unknown),
		card: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Border).
			Padding(1, 2).
			Width(56),
		chip: lipgloss.NewStyle().Foreground(t.Faint).Italic(true),
	}
}
