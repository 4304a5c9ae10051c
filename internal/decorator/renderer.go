// Package decorator renders dim ranges in a terminal and owns the
// "decorations applied" state.
package decorator

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/termenv"

	"github.com/zjrosen/citehint/internal/citation"
)

// Theme holds the colours dimmed text is blended from.
type Theme struct {
	Foreground string
	Background string
}

// DefaultTheme matches a dark terminal.
func DefaultTheme() Theme {
	return Theme{Foreground: "#CCCCCC", Background: "#1E1E1E"}
}

// Renderer styles the dim ranges of a line.
type Renderer struct {
	style    lipgloss.Style
	plain    bool
	opacity  float64
	dimColor string
}

// NewRenderer builds a renderer whose dim colour is the foreground blended
// toward the background: opacity 1 keeps the foreground, 0 hides the text.
// On 16-colour terminals dim ranges are rendered faint; without colour
// support they are left plain.
func NewRenderer(r *lipgloss.Renderer, opacity float64, theme Theme) (*Renderer, error) {
	if opacity < 0 || opacity > 1 {
		return nil, fmt.Errorf("opacity must be between 0.0 and 1.0, got %v", opacity)
	}
	if theme.Foreground == "" || theme.Background == "" {
		def := DefaultTheme()
		if theme.Foreground == "" {
			theme.Foreground = def.Foreground
		}
		if theme.Background == "" {
			theme.Background = def.Background
		}
	}
	fg, err := colorful.Hex(theme.Foreground)
	if err != nil {
		return nil, fmt.Errorf("foreground: %w", err)
	}
	bg, err := colorful.Hex(theme.Background)
	if err != nil {
		return nil, fmt.Errorf("background: %w", err)
	}
	dimColor := bg.BlendRgb(fg, opacity).Clamped().Hex()

	style := r.NewStyle().TabWidth(lipgloss.NoTabConversion)
	if r.ColorProfile() == termenv.ANSI {
		// 16 colours cannot express the blend.
		style = style.Faint(true)
	} else {
		style = style.Foreground(lipgloss.Color(dimColor))
	}

	return &Renderer{
		style:    style,
		plain:    r.ColorProfile() == termenv.Ascii,
		opacity:  opacity,
		dimColor: dimColor,
	}, nil
}

// Opacity returns the configured opacity.
func (r *Renderer) Opacity() float64 { return r.opacity }

// DimColor returns the blended hex colour used for dim ranges.
func (r *Renderer) DimColor() string { return r.dimColor }

// RenderLine styles the dim spans of line. Spans are rune columns; they are
// converted to terminal cells so wide runes stay aligned.
func (r *Renderer) RenderLine(line string, dim []citation.Span) string {
	if r.plain || len(dim) == 0 {
		return line
	}

	cells := cellOffsets(line)
	last := len(cells) - 1
	ranges := make([]lipgloss.Range, 0, len(dim))
	for _, s := range dim {
		start, end := min(s.Start, last), min(s.End, last)
		if start >= end {
			continue
		}
		ranges = append(ranges, lipgloss.NewRange(cells[start], cells[end], r.style))
	}
	if len(ranges) == 0 {
		return line
	}
	return lipgloss.StyleRanges(line, ranges...)
}

// cellOffsets maps each rune column (and the end of line) to its cell offset.
func cellOffsets(line string) []int {
	offsets := make([]int, 0, len(line)+1)
	cell := 0
	for _, ru := range line {
		offsets = append(offsets, cell)
		cell += runewidth.RuneWidth(ru)
	}
	return append(offsets, cell)
}
