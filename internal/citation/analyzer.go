package citation

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Strategy selects how focus ranges are found.
type Strategy string

const (
	// StrategyPattern scans the raw line with look-around patterns.
	StrategyPattern Strategy = "pattern"
	// StrategyToken classifies space-delimited words and their neighbours.
	StrategyToken Strategy = "token"
)

// Strategies lists the valid strategies, canonical first.
func Strategies() []Strategy {
	return []Strategy{StrategyPattern, StrategyToken}
}

// ParseStrategy parses a strategy name. The empty string selects the
// pattern strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case "", StrategyPattern:
		return StrategyPattern, nil
	case StrategyToken:
		return StrategyToken, nil
	default:
		return "", fmt.Errorf("unknown strategy %q (want %q or %q)", s, StrategyPattern, StrategyToken)
	}
}

// Next returns the other strategy.
func (s Strategy) Next() Strategy {
	if s == StrategyToken {
		return StrategyPattern
	}
	return StrategyToken
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithStrategy selects the focus strategy.
func WithStrategy(s Strategy) Option {
	return func(a *Analyzer) { a.strategy = s }
}

// WithPunctuation overrides the punctuation glyphs used by the token strategy.
func WithPunctuation(glyphs ...string) Option {
	return func(a *Analyzer) { a.classifier = NewClassifier(glyphs...) }
}

// WithMatchTimeout bounds each pattern match.
func WithMatchTimeout(d time.Duration) Option {
	return func(a *Analyzer) { a.finder = NewPatternFinder(d) }
}

// Analyzer computes dim ranges for single lines. It holds no per-line state
// and is safe for concurrent use.
type Analyzer struct {
	strategy   Strategy
	classifier *Classifier
	finder     *PatternFinder
}

// NewAnalyzer creates an analyzer using the pattern strategy unless told otherwise.
func NewAnalyzer(opts ...Option) *Analyzer {
	a := &Analyzer{
		strategy:   StrategyPattern,
		classifier: NewClassifier(),
		finder:     NewPatternFinder(0),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Strategy returns the active strategy.
func (a *Analyzer) Strategy() Strategy { return a.strategy }

// Classifier returns the classifier used by the token strategy.
func (a *Analyzer) Classifier() *Classifier { return a.classifier }

// AnalyzeLine returns the merged focus ranges and the dim ranges of one line.
// The dim ranges are ascending, pairwise disjoint and together with the focus
// ranges cover [0, runes in text).
func (a *Analyzer) AnalyzeLine(text string, lineIndex int) (LineRanges, error) {
	if lineIndex < 0 {
		return LineRanges{}, fmt.Errorf("%w: negative line index %d", ErrPrecondition, lineIndex)
	}
	focus, err := a.FocusRanges(text)
	if err != nil {
		return LineRanges{}, fmt.Errorf("line %d: %w", lineIndex, err)
	}
	return LineRanges{
		Line:  lineIndex,
		Focus: focus,
		Dim:   FillGaps(focus, utf8.RuneCountInString(text)),
	}, nil
}

// FocusRanges returns the merged focus ranges of text.
func (a *Analyzer) FocusRanges(text string) ([]Span, error) {
	var raw []Span
	switch a.strategy {
	case StrategyToken:
		raw = a.tokenFocus(text)
	default:
		var err error
		raw, err = a.finder.Find(text)
		if err != nil {
			return nil, err
		}
	}
	return MergeSpans(raw), nil
}

// tokenFocus keeps years, and capitalized words sitting next to an initial.
func (a *Analyzer) tokenFocus(text string) []Span {
	tokens := Tokenize(text)
	kinds := make([]Classification, len(tokens))
	for i, tok := range tokens {
		kinds[i] = a.classifier.Classify(tok.Text)
	}
	isAbbr := func(i int) bool {
		return i >= 0 && i < len(kinds) && kinds[i].Kind == KindAbbreviation
	}

	var focus []Span
	for i, tok := range tokens {
		switch kinds[i].Kind {
		case KindYear:
			focus = append(focus, a.classifier.Focus(tok))
		case KindNormal:
			if StartsWithLowercase(tok.Text) || a.classifier.IsPunctuationOnly(tok.Text) {
				continue
			}
			if isAbbr(i-1) || isAbbr(i+1) {
				focus = append(focus, a.classifier.Focus(tok))
			}
		}
	}
	return focus
}
