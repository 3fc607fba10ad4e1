package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// Run shows the login screen until the user quits and returns the final
// model
func Run(ctx context.Context, m Model, opts ...tea.ProgramOption) (Model, error) {
	opts = append([]tea.ProgramOption{
		tea.WithContext(ctx),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	}, opts...)

	final, err := tea.NewProgram(m, opts...).Run()
	if err != nil {
		return m, fmt.Errorf("terminal ui: %w", err)
	}
	out, ok := final.(Model)
	if !ok {
		return m, fmt.Errorf("terminal ui: unexpected model %T", final)
	}
	return out, nil
}
