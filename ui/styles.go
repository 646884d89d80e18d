package ui

import "github.com/charmbracelet/lipgloss"

var (
	subtleColor = lipgloss.AdaptiveColor{Light: "#9B9B9B", Dark: "#5C5C5C"}
	errorColor  = lipgloss.Color("196")

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().Foreground(errorColor)

	helpStyle = lipgloss.NewStyle().Foreground(subtleColor)

	noticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("141"))

	separator = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Render(" │ ")
)

func highlightStyle(color string) lipgloss.Style {
	return lipgloss.NewStyle().
		Background(lipgloss.Color(color)).
		Foreground(lipgloss.Color("0")).
		Bold(true)
}
