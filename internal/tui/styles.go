package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/agora-ai/agora/internal/core"
)

var (
	// HeaderStyle frames the topic line.
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary).
			MarginBottom(1)

	// FooterStyle is for the key hints line.
	FooterStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted).
			MarginTop(1)

	ForLabelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorFor)

	AgainstLabelStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(ColorAgainst)

	ModeratorLabelStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(ColorModerator).
				Italic(true)

	TurnTextStyle = lipgloss.NewStyle().
			Foreground(ColorText).
			PaddingLeft(2)

	StatusStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted)

	WarnStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorError).
			Bold(true)

	SummaryBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorSuccess).
			Padding(1, 2).
			MarginTop(1)
)

// SideLabel renders a colored speaker label for one turn.
func SideLabel(side core.Side) string {
	switch side {
	case core.SideFor:
		return ForLabelStyle.Render("FOR")
	case core.SideAgainst:
		return AgainstLabelStyle.Render("AGAINST")
	default:
		return ModeratorLabelStyle.Render("MODERATOR")
	}
}
