package tui

import "github.com/charmbracelet/lipgloss"

var (
	primaryColor   = lipgloss.Color("#7C3AED")
	secondaryColor = lipgloss.Color("#6366F1")
	mutedColor     = lipgloss.Color("#6B7280")
	accentColor    = lipgloss.Color("#F59E0B")
	errorColor     = lipgloss.Color("#EF4444")
	successColor   = lipgloss.Color("#10B981")

	tableBorderStyle = lipgloss.NewStyle().
				Foreground(mutedColor)

	headerStyle = lipgloss.NewStyle().
			Foreground(primaryColor).
			Bold(true).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().
			Padding(0, 1)

	countStyle = cellStyle.
			Foreground(accentColor).
			Align(lipgloss.Right)

	linkStyle = cellStyle.
			Foreground(secondaryColor)

	titleStyle = lipgloss.NewStyle().
			Foreground(primaryColor).
			Bold(true)

	promptStyle = lipgloss.NewStyle().
			Foreground(secondaryColor)

	errorTextStyle = lipgloss.NewStyle().
			Foreground(errorColor)

	successTextStyle = lipgloss.NewStyle().
				Foreground(successColor)

	mutedTextStyle = lipgloss.NewStyle().
			Foreground(mutedColor)
)
