// Package display renders coordinator output for the terminal: the
// status summary, review packets, and signal lines. Styled output uses
// lipgloss; plain mode drops every escape sequence for piping and
// non-TTY use.
package display

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/Iron-Ham/conductor/internal/effort"
)

var (
	// Colors meet WCAG AA contrast (4.5:1) on dark surfaces.
	primaryColor = lipgloss.Color("#A78BFA") // Purple
	greenColor   = lipgloss.Color("#10B981") // Green
	amberColor   = lipgloss.Color("#F59E0B") // Amber
	redColor     = lipgloss.Color("#F87171") // Red
	blueColor    = lipgloss.Color("#60A5FA") // Blue
	mutedColor   = lipgloss.Color("#9CA3AF") // Gray

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor)

	headerStyle = lipgloss.NewStyle().
			Bold(true)

	mutedStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	badgeStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(redColor)

	questionStyle = lipgloss.NewStyle().
			Foreground(amberColor)

	sessionStatusStyles = map[effort.SessionStatus]lipgloss.Style{
		effort.SessionPending:       lipgloss.NewStyle().Foreground(mutedColor),
		effort.SessionInProgress:    lipgloss.NewStyle().Foreground(greenColor),
		effort.SessionCompleted:     lipgloss.NewStyle().Foreground(primaryColor),
		effort.SessionNeedsRevision: lipgloss.NewStyle().Foreground(amberColor),
	}

	effortStatusStyles = map[effort.Status]lipgloss.Style{
		effort.StatusPlanning:  lipgloss.NewStyle().Foreground(mutedColor),
		effort.StatusExecuting: lipgloss.NewStyle().Foreground(greenColor),
		effort.StatusPaused:    lipgloss.NewStyle().Foreground(blueColor),
		effort.StatusCompleted: lipgloss.NewStyle().Foreground(primaryColor),
	}
)

// statusGlyph is the one-character marker next to each session line.
func statusGlyph(status effort.SessionStatus) string {
	switch status {
	case effort.SessionCompleted:
		return "✓"
	case effort.SessionInProgress:
		return "▶"
	case effort.SessionNeedsRevision:
		return "✗"
	default:
		return "·"
	}
}
