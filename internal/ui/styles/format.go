package styles

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"
)

// TruncateString truncates a string to fit within maxWidth, adding ellipsis if needed.
func TruncateString(s string, maxWidth int) string {
	if maxWidth < 1 {
		return ""
	}
	if lipgloss.Width(s) <= maxWidth {
		return s
	}
	if maxWidth <= 3 {
		return strings.Repeat(".", maxWidth)
	}
	return truncate.StringWithTail(s, uint(maxWidth), "...") //nolint:gosec // G115: maxWidth checked positive above
}

// FormatOpacity renders an opacity as a whole percentage.
func FormatOpacity(opacity float64) string {
	return fmt.Sprintf("%d%%", int(opacity*100+0.5))
}

// FormatLineCount returns "1 line" or "N lines".
func FormatLineCount(n int) string {
	if n == 1 {
		return "1 line"
	}
	return fmt.Sprintf("%d lines", n)
}
