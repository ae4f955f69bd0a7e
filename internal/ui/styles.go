package ui

import "github.com/charmbracelet/lipgloss"

var (
	colorAccent = lipgloss.Color("39")
	colorMuted  = lipgloss.Color("241")
	colorError  = lipgloss.Color("196")
	colorChip   = lipgloss.Color("25")

	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorMuted)

	paneFocusedStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorAccent)

	paneTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorAccent)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("229")).
			Background(lipgloss.Color("57"))

	mutedStyle = lipgloss.NewStyle().Foreground(colorMuted)

	errorStyle = lipgloss.NewStyle().Foreground(colorError)

	metaKeyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("44"))

	chipStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Background(colorChip).
			Foreground(lipgloss.Color("255"))

	chipSelectedStyle = lipgloss.NewStyle().
				Padding(0, 1).
				Background(lipgloss.Color("161")).
				Foreground(lipgloss.Color("255"))

	statusStyle = lipgloss.NewStyle().Padding(0, 1)

	statusErrStyle = lipgloss.NewStyle().Padding(0, 1).Foreground(colorError)

	helpKeyStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)

	overlayStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(colorAccent).
			Padding(1, 2)
)
