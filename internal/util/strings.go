// Package util provides small string helpers shared across packages.
package util

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// TruncateString caps a string at maxLen runes, appending "..." when it
// had to cut. It counts runes, not columns, so it suits plain output
// where no escape sequences are present.
func TruncateString(s string, maxLen int) string {
	if maxLen <= 3 {
		return "..."
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}

// TruncateANSI caps a string at maxWidth visual columns, appending
// "..." when it had to cut. Escape sequences and wide characters are
// measured correctly, so styled output keeps its coloring intact.
func TruncateANSI(s string, maxWidth int) string {
	if maxWidth <= 3 {
		return "..."
	}
	if lipgloss.Width(s) <= maxWidth {
		return s
	}
	// ansi.Truncate counts the tail toward the final width.
	return ansi.Truncate(s, maxWidth, "...")
}
