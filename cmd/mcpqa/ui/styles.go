// Package ui renders the small console widgets for mcpqa output.
package ui

import "github.com/charmbracelet/lipgloss"

// Semantic colors shared by all widgets.
var (
	successColor = lipgloss.Color("#8BC34A")
	failColor    = lipgloss.Color("#e53935")
	mutedColor   = lipgloss.Color("#7a8699")
)

// Styles holds the lipgloss styles a widget renders with.
type Styles struct {
	Title lipgloss.Style
	Bold  lipgloss.Style
	Body  lipgloss.Style
	Muted lipgloss.Style
	Good  lipgloss.Style
	Bad   lipgloss.Style
}

// DefaultStyles returns the standard mcpqa console styling.
func DefaultStyles() Styles {
	return Styles{
		Title: lipgloss.NewStyle().Bold(true).Underline(true),
		Bold:  lipgloss.NewStyle().Bold(true),
		Body:  lipgloss.NewStyle(),
		Muted: lipgloss.NewStyle().Foreground(mutedColor),
		Good:  lipgloss.NewStyle().Foreground(successColor),
		Bad:   lipgloss.NewStyle().Foreground(failColor).Bold(true),
	}
}

// PassFail renders a yes/pass value green and anything else red.
func (s Styles) PassFail(value string) string {
	switch value {
	case "yes", "pass", "ok":
		return s.Good.Render(value)
	default:
		return s.Bad.Render(value)
	}
}
