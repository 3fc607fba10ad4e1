package tui

import "github.com/charmbracelet/lipgloss"

var (
	primary = lipgloss.Color("#1e3a8a")
	muted   = lipgloss.Color("#9aa5b1")
	success = lipgloss.Color("#2e7d32")
	warning = lipgloss.Color("#ed6c02")
	danger  = lipgloss.Color("#d32f2f")
)

// Styles groups every lipgloss style the terminal form uses
type Styles struct {
	Header     lipgloss.Style
	Panel      lipgloss.Style
	Label      lipgloss.Style
	Focused    lipgloss.Style
	Banner     lipgloss.Style
	Button     lipgloss.Style
	ButtonDown lipgloss.Style
	Link       lipgloss.Style
	Footer     lipgloss.Style
	Spinner    lipgloss.Style
	Success    lipgloss.Style
	Warning    lipgloss.Style
}

// DefaultStyles returns the stock palette
func DefaultStyles() Styles {
	note := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#ffffff")).
		Padding(0, 1).
		Border(lipgloss.RoundedBorder())

	return Styles{
		Header: lipgloss.NewStyle().Bold(true).Foreground(primary).MarginBottom(1),
		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primary).
			Padding(1, 3),
		Label:      lipgloss.NewStyle().Foreground(muted),
		Focused:    lipgloss.NewStyle().Foreground(primary).Bold(true),
		Banner:     lipgloss.NewStyle().Foreground(danger).Bold(true),
		Button:     lipgloss.NewStyle().Padding(0, 2).Foreground(lipgloss.Color("#ffffff")).Background(primary),
		ButtonDown: lipgloss.NewStyle().Padding(0, 2).Foreground(muted).Background(lipgloss.Color("#3e4c59")),
		Link:       lipgloss.NewStyle().Foreground(muted).Underline(true),
		Footer:     lipgloss.NewStyle().Foreground(muted).MarginTop(1),
		Spinner:    lipgloss.NewStyle().Foreground(primary),
		Success:    note.BorderForeground(success).Background(success),
		Warning:    note.BorderForeground(warning).Background(warning),
	}
}
