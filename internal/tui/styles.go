package tui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("63")).
			Bold(true)

	sessionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	spinnerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("63"))

	runningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("75"))

	doneStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("28"))

	failedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	retryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	pendingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)
