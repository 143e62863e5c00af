package util

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestTruncateString(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		maxLen int
		want   string
	}{
		{"short string unchanged", "hello", 10, "hello"},
		{"exact length unchanged", "hello", 5, "hello"},
		{"long string truncated", "hello world", 8, "hello..."},
		{"tiny budget collapses to ellipsis", "hello", 3, "..."},
		{"zero budget collapses to ellipsis", "hello", 0, "..."},
		{"empty string unchanged", "", 10, ""},
		{"runes counted, not bytes", "日本語テスト", 5, "日本..."},
		{"mixed ascii and unicode", "hello日本語world", 10, "hello日本..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TruncateString(tt.input, tt.maxLen); got != tt.want {
				t.Errorf("TruncateString(%q, %d) = %q, want %q", tt.input, tt.maxLen, got, tt.want)
			}
		})
	}
}

func TestTruncateANSI(t *testing.T) {
	red := lipgloss.NewStyle().Foreground(lipgloss.Color("9"))

	t.Run("plain string truncated", func(t *testing.T) {
		if got := TruncateANSI("hello world", 8); got != "hello..." {
			t.Errorf("TruncateANSI() = %q, want %q", got, "hello...")
		}
	})

	t.Run("tiny budget collapses to ellipsis", func(t *testing.T) {
		if got := TruncateANSI("hello", 3); got != "..." {
			t.Errorf("TruncateANSI() = %q, want %q", got, "...")
		}
	})

	t.Run("styled string kept intact under budget", func(t *testing.T) {
		in := red.Render("hi")
		if got := TruncateANSI(in, 10); got != in {
			t.Errorf("TruncateANSI() modified a string that fit: %q", got)
		}
	})

	t.Run("escape sequences excluded from width", func(t *testing.T) {
		for _, in := range []string{red.Render("hello world"), "日本語テスト"} {
			got := TruncateANSI(in, 8)
			if w := lipgloss.Width(got); w > 8 {
				t.Errorf("TruncateANSI(%q) width = %d, want <= 8", in, w)
			}
		}
	})
}
