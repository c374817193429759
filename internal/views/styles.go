package views

import "github.com/charmbracelet/lipgloss"

var (
	// Colors
	brandPrimary = lipgloss.Color("#7C3AED") // Purple
	brandAccent  = lipgloss.Color("#10B981") // Emerald
	textMuted    = lipgloss.Color("#6B7280") // Gray

	// Styles
	titleStyle   = lipgloss.NewStyle().Foreground(brandPrimary).Bold(true)
	phaseStyle   = lipgloss.NewStyle().Foreground(brandAccent)
	channelStyle = lipgloss.NewStyle().Bold(true)
	dimStyle     = lipgloss.NewStyle().Foreground(textMuted)
)
