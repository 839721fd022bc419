package tui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/glamour"
)

// RenderMarkdown renders markdown for the terminal, falling back to the
// plain text when glamour cannot initialize (dumb terminals, pipes).
func RenderMarkdown(markdown string, width int) string {
	if width <= 0 {
		width = 80
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return markdown
	}
	out, err := renderer.Render(markdown)
	if err != nil {
		return markdown
	}
	return strings.TrimRight(out, "\n")
}

// SummaryMarkdown formats the closing summary as a small markdown document.
func SummaryMarkdown(topic, summary string, rounds int) string {
	var b strings.Builder
	b.WriteString("# Debate Summary\n\n")
	b.WriteString("**Topic:** " + topic + "\n\n")
	if rounds > 0 {
		b.WriteString("**Rounds:** " + strconv.Itoa(rounds) + "\n\n")
	}
	b.WriteString(summary)
	b.WriteString("\n")
	return b.String()
}
