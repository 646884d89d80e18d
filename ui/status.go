package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/dgnsrekt/docent/tts"
)

// stateIcon returns an icon for the playback state.
func stateIcon(s tts.StateType) string {
	switch s {
	case tts.StatePlaying:
		return "▶"
	case tts.StatePaused:
		return "⏸"
	case tts.StateLoading:
		return "⟳"
	case tts.StateDisabled:
		return "✗"
	default:
		return "■"
	}
}

// stateColor returns the color of the playback state indicator.
func stateColor(s tts.StateType) lipgloss.Color {
	switch s {
	case tts.StatePlaying:
		return lipgloss.Color("#00FF00")
	case tts.StatePaused:
		return lipgloss.Color("#FFFF00")
	case tts.StateLoading:
		return lipgloss.Color("#00AAFF")
	case tts.StateDisabled:
		return lipgloss.Color("#FF0000")
	default:
		return lipgloss.Color("#888888")
	}
}
