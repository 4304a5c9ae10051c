// Package styles contains Lip Gloss style definitions.
package styles

import "github.com/charmbracelet/lipgloss"

var (
	// Semantic color names - Text hierarchy
	TextPrimaryColor   = lipgloss.AdaptiveColor{Light: "#1E1E1E", Dark: "#CCCCCC"} // Document text
	TextSecondaryColor = lipgloss.AdaptiveColor{Light: "#555555", Dark: "#BBBBBB"} // Status values
	TextMutedColor     = lipgloss.AdaptiveColor{Light: "#999999", Dark: "#696969"} // Hints, help text, line numbers

	// Semantic color names - Border
	BorderDefaultColor        = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#696969"}
	BorderHighlightFocusColor = lipgloss.AdaptiveColor{Light: "#54A0FF", Dark: "#54A0FF"}

	// Semantic color names - Status
	StatusSuccessColor = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"} // Dimming applied
	StatusWarningColor = lipgloss.AdaptiveColor{Light: "#FECA57", Dark: "#FECA57"} // Reload pending
	StatusErrorColor   = lipgloss.AdaptiveColor{Light: "#FF6B6B", Dark: "#FF8787"} // Errors

	// Strategy badge colors
	StrategyPatternColor = lipgloss.AdaptiveColor{Light: "#8839EF", Dark: "#CBA6F7"}
	StrategyTokenColor   = lipgloss.AdaptiveColor{Light: "#179299", Dark: "#94E2D5"}

	TitleStyle = lipgloss.NewStyle().Bold(true).Foreground(TextPrimaryColor)

	LineNumberStyle = lipgloss.NewStyle().Foreground(TextMutedColor)

	StatusBarStyle = lipgloss.NewStyle().
			Foreground(TextSecondaryColor).
			Padding(0, 1)

	StatusKeyStyle = lipgloss.NewStyle().Foreground(TextMutedColor)

	AppliedBadgeStyle = lipgloss.NewStyle().Bold(true).Foreground(StatusSuccessColor)
	ClearedBadgeStyle = lipgloss.NewStyle().Foreground(TextMutedColor)

	ErrorStyle = lipgloss.NewStyle().Foreground(StatusErrorColor)
	WarnStyle  = lipgloss.NewStyle().Foreground(StatusWarningColor)

	HelpStyle = lipgloss.NewStyle().Foreground(TextMutedColor).Padding(0, 1)
)

// StrategyStyle returns the badge style for a strategy name.
func StrategyStyle(name string) lipgloss.Style {
	color := StrategyPatternColor
	if name == "token" {
		color = StrategyTokenColor
	}
	return lipgloss.NewStyle().Bold(true).Foreground(color)
}
