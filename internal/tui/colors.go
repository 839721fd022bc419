// Package tui renders a live debate in the terminal.
package tui

import "github.com/charmbracelet/lipgloss"

// Color palette
var (
	ColorPrimary   = lipgloss.Color("#7C3AED") // Purple
	ColorFor       = lipgloss.Color("#06B6D4") // Cyan
	ColorAgainst   = lipgloss.Color("#F59E0B") // Amber
	ColorModerator = lipgloss.Color("#8B5CF6") // Violet

	ColorSuccess = lipgloss.Color("#10B981") // Green
	ColorWarning = lipgloss.Color("#F59E0B") // Amber
	ColorError   = lipgloss.Color("#EF4444") // Red

	ColorText      = lipgloss.Color("#E5E7EB") // Light gray
	ColorTextMuted = lipgloss.Color("#9CA3AF") // Muted gray
	ColorBorder    = lipgloss.Color("#374151") // Dark gray
)
