package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Run blocks until the user quits.
func Run(opts Options) error {
	_, err := tea.NewProgram(New(opts), tea.WithAltScreen()).Run()
	return err
}
