// Package citation computes which parts of a bibliography line should be
// dimmed so that author surnames and years stand out.
//
// All positions are rune columns within a single line and every interval is
// half-open: [Start, End).
package citation

import (
	"errors"
	"fmt"
	"slices"
)

// ErrPrecondition is returned when a caller passes values that violate the
// input contract (negative indices, start after end). It signals a caller bug,
// never an unrecognized citation.
var ErrPrecondition = errors.New("precondition violated")

// Span is a half-open rune interval on one line.
type Span struct {
	Start int `json:"start" yaml:"start"`
	End   int `json:"end" yaml:"end"`
}

// NewSpan validates and builds a span.
func NewSpan(start, end int) (Span, error) {
	if start < 0 || end < 0 {
		return Span{}, fmt.Errorf("%w: negative span bound [%d, %d)", ErrPrecondition, start, end)
	}
	if start > end {
		return Span{}, fmt.Errorf("%w: span start %d after end %d", ErrPrecondition, start, end)
	}
	return Span{Start: start, End: end}, nil
}

// Len returns the number of runes covered.
func (s Span) Len() int { return s.End - s.Start }

// Empty reports whether the span covers nothing.
func (s Span) Empty() bool { return s.End <= s.Start }

// Contains reports whether o lies entirely within s.
func (s Span) Contains(o Span) bool {
	return s.Start <= o.Start && o.End <= s.End
}

// Intersects reports whether the spans overlap or touch. Touching spans
// ([0,3) and [3,5)) intersect so that adjacent focus ranges merge.
func (s Span) Intersects(o Span) bool {
	return o.Start <= s.End && s.Start <= o.End
}

// Union returns the smallest span covering both.
func (s Span) Union(o Span) Span {
	return Span{Start: min(s.Start, o.Start), End: max(s.End, o.End)}
}

func (s Span) String() string {
	return fmt.Sprintf("[%d,%d)", s.Start, s.End)
}

// LineRanges is the analysis result for one line.
type LineRanges struct {
	Line  int    `json:"line" yaml:"line"`
	Focus []Span `json:"focus,omitempty" yaml:"focus,omitempty"`
	Dim   []Span `json:"dim" yaml:"dim"`
}

// MergeSpans returns the union of spans as maximal, ascending,
// non-overlapping intervals. Ties on Start keep discovery order. Empty
// spans carry no focus and are dropped. The input is not modified.
func MergeSpans(spans []Span) []Span {
	sorted := make([]Span, 0, len(spans))
	for _, s := range spans {
		if !s.Empty() {
			sorted = append(sorted, s)
		}
	}
	slices.SortStableFunc(sorted, func(a, b Span) int {
		return a.Start - b.Start
	})

	merged := make([]Span, 0, len(sorted))
	for _, s := range sorted {
		if n := len(merged); n > 0 && merged[n-1].Intersects(s) {
			merged[n-1] = merged[n-1].Union(s)
			continue
		}
		merged = append(merged, s)
	}
	return merged
}

// FillGaps returns the complement of merged within [0, lineLen). merged must
// be the output of MergeSpans. With no focus the whole line is one gap, even
// when the line is empty.
func FillGaps(merged []Span, lineLen int) []Span {
	if len(merged) == 0 {
		return []Span{{Start: 0, End: lineLen}}
	}

	bounded := make([]Span, 0, len(merged)+2)
	bounded = append(bounded, Span{})
	bounded = append(bounded, merged...)
	bounded = append(bounded, Span{Start: lineLen, End: lineLen})

	var gaps []Span
	for i := 1; i < len(bounded); i++ {
		prev, next := bounded[i-1], bounded[i]
		if prev.End < next.Start {
			gaps = append(gaps, Span{Start: prev.End, End: next.Start})
		}
	}
	return gaps
}
