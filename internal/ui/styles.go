package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/loykin/gerdoo-launcher/internal/console"
	"github.com/loykin/gerdoo-launcher/internal/updater"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	runningStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	stoppedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	urlStyle     = lipgloss.NewStyle().Underline(true).Foreground(lipgloss.Color("14"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	systemStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("13"))
	stdoutStyle  = lipgloss.NewStyle()
)

func styleFor(k console.Kind) lipgloss.Style {
	switch k {
	case console.Stderr:
		return errorStyle
	case console.System:
		return systemStyle
	default:
		return stdoutStyle
	}
}

func updateStyle(s updater.State) lipgloss.Style {
	switch s {
	case updater.UpdateAvailable, updater.Complete:
		return runningStyle
	case updater.Errored:
		return errorStyle
	default:
		return dimStyle
	}
}
