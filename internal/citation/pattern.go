package citation

import (
	"fmt"
	"time"

	"github.com/dlclark/regexp2"
)

// The surname matchers depend on look-behind and look-ahead so that the
// initial which triggers a match is not part of the match.
const (
	yearPattern                 = `(?<![0-9])[0-9]{4}(?![0-9])`
	surnameAfterInitialPattern  = `(?<=[A-Z]\. +)[A-Z][a-z]+`
	surnameBeforeInitialPattern = `[A-Z][a-z]+(?=, +[A-Z]\.)`
)

// PatternFinder locates focus ranges directly in raw line text.
type PatternFinder struct {
	years         *regexp2.Regexp
	surnameAfter  *regexp2.Regexp
	surnameBefore *regexp2.Regexp
}

// NewPatternFinder compiles the matchers. A positive timeout bounds each
// match; zero leaves matches unbounded.
func NewPatternFinder(timeout time.Duration) *PatternFinder {
	f := &PatternFinder{
		years:         regexp2.MustCompile(yearPattern, regexp2.None),
		surnameAfter:  regexp2.MustCompile(surnameAfterInitialPattern, regexp2.None),
		surnameBefore: regexp2.MustCompile(surnameBeforeInitialPattern, regexp2.None),
	}
	if timeout > 0 {
		f.years.MatchTimeout = timeout
		f.surnameAfter.MatchTimeout = timeout
		f.surnameBefore.MatchTimeout = timeout
	}
	return f
}

// Years matches every run of exactly four digits not adjacent to another digit.
func (f *PatternFinder) Years(text string) ([]Span, error) {
	return findAll(f.years, text)
}

// SurnamesAfterInitial matches "Shakespeare" in "W. Shakespeare".
func (f *PatternFinder) SurnamesAfterInitial(text string) ([]Span, error) {
	return findAll(f.surnameAfter, text)
}

// SurnamesBeforeInitial matches "Shakespeare" in "Shakespeare, W.".
func (f *PatternFinder) SurnamesBeforeInitial(text string) ([]Span, error) {
	return findAll(f.surnameBefore, text)
}

// Find returns the raw focus ranges of all matchers in discovery order:
// reversed surnames, surnames, then years.
func (f *PatternFinder) Find(text string) ([]Span, error) {
	var found []Span
	for _, match := range []func(string) ([]Span, error){
		f.SurnamesBeforeInitial,
		f.SurnamesAfterInitial,
		f.Years,
	} {
		spans, err := match(text)
		if err != nil {
			return nil, err
		}
		found = append(found, spans...)
	}
	return found, nil
}

// findAll scans leftmost-first without overlap. regexp2 reports rune
// indexes, which are the columns used throughout the package.
func findAll(re *regexp2.Regexp, text string) ([]Span, error) {
	var spans []Span
	m, err := re.FindStringMatch(text)
	for m != nil && err == nil {
		spans = append(spans, Span{Start: m.Index, End: m.Index + m.Length})
		m, err = re.FindNextMatch(m)
	}
	if err != nil {
		return nil, fmt.Errorf("matching %q: %w", re.String(), err)
	}
	return spans, nil
}
