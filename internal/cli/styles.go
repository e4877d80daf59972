package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Color palette for dark terminal backgrounds.
const (
	ColorPrimary   = lipgloss.Color("#7C3AED")
	ColorMuted     = lipgloss.Color("#6B7280")
	ColorSuccess   = lipgloss.Color("#10B981")
	ColorError     = lipgloss.Color("#EF4444")
	ColorWarning   = lipgloss.Color("#F59E0B")
	ColorHighlight = lipgloss.Color("#3B82F6")
)

var (
	// TitleStyle is for headers and category names.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	// SubtitleStyle is for descriptions and secondary text.
	SubtitleStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	// SuccessStyle marks applied recommendations and completed actions.
	SuccessStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	// ErrorStyle is for error messages.
	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorError)

	// WarningStyle marks overridden values and prompts.
	WarningStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)

	// KeyStyle is for parameter paths, ids and key combinations.
	KeyStyle = lipgloss.NewStyle().
			Foreground(ColorHighlight)
)

const (
	markApplied = "●"
	markOff     = "○"
)

// appliedMark renders the applied indicator of a recommendation.
func appliedMark(applied bool) string {
	if applied {
		return SuccessStyle.Render(markApplied)
	}
	return SubtitleStyle.Render(markOff)
}

// column pads s to width, measuring the rendered width.
func column(s string, width int) string {
	if w := lipgloss.Width(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}
