package citation

import (
	"regexp"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultPunctuation is the set of separator glyphs recognized at the end of
// a word or as a word on their own.
var DefaultPunctuation = []string{",", ".", "&", ":", ";"}

var abbreviationRe = regexp.MustCompile(`^[A-Z]\.,?$`)

// Kind is the classification of a single word.
type Kind int

const (
	KindNormal Kind = iota
	KindYear
	KindAbbreviation
	KindAmpersand
)

func (k Kind) String() string {
	switch k {
	case KindNormal:
		return "normal"
	case KindYear:
		return "year"
	case KindAbbreviation:
		return "abbreviation"
	case KindAmpersand:
		return "ampersand"
	default:
		return "unknown"
	}
}

// Token is one space-delimited word of a line.
type Token struct {
	Text   string
	Offset int // rune column of the first rune
}

// Len returns the token length in runes.
func (t Token) Len() int { return utf8.RuneCountInString(t.Text) }

// Span returns the full extent of the token.
func (t Token) Span() Span { return Span{Start: t.Offset, End: t.Offset + t.Len()} }

// Tokenize splits a line on single spaces. Consecutive spaces yield empty
// tokens so that offsets stay aligned with the line.
func Tokenize(line string) []Token {
	words := strings.Split(line, " ")
	tokens := make([]Token, 0, len(words))
	offset := 0
	for _, w := range words {
		tokens = append(tokens, Token{Text: w, Offset: offset})
		offset += utf8.RuneCountInString(w) + 1
	}
	return tokens
}

// Classification carries the data derived for one kind of word.
type Classification struct {
	Kind Kind
	// PrefixLen and SuffixLen count the non-digit runes glued to a year.
	PrefixLen int
	SuffixLen int
	// TrailingPunct is set on a normal word ending in a punctuation glyph.
	TrailingPunct bool
}

// IsNormal reports whether the word is neither a year nor an abbreviation.
func (c Classification) IsNormal() bool {
	return c.Kind != KindYear && c.Kind != KindAbbreviation
}

// Classifier classifies words against a punctuation set.
type Classifier struct {
	punctuation []string
}

// NewClassifier creates a classifier. An empty punctuation set falls back to
// DefaultPunctuation.
func NewClassifier(punctuation ...string) *Classifier {
	if len(punctuation) == 0 {
		punctuation = DefaultPunctuation
	}
	return &Classifier{punctuation: slices.Clone(punctuation)}
}

// Punctuation returns a copy of the recognized glyphs.
func (c *Classifier) Punctuation() []string {
	return slices.Clone(c.punctuation)
}

// Classify assigns exactly one kind to word. Year wins over abbreviation,
// abbreviation over ampersand.
func (c *Classifier) Classify(word string) Classification {
	switch {
	case IsYear(word):
		return Classification{
			Kind:      KindYear,
			PrefixLen: leadingNonDigits(word),
			SuffixLen: trailingNonDigits(word),
		}
	case IsAbbreviation(word):
		return Classification{Kind: KindAbbreviation}
	case IsAmpersand(word):
		return Classification{Kind: KindAmpersand}
	default:
		return Classification{Kind: KindNormal, TrailingPunct: c.EndsWithPunctuation(word)}
	}
}

// Focus returns the part of the token that stays undimmed. The result is
// always contained in tok.Span().
func (c *Classifier) Focus(tok Token) Span {
	cl := c.Classify(tok.Text)
	n := tok.Len()
	switch {
	case cl.Kind == KindYear:
		return Span{Start: tok.Offset + cl.PrefixLen, End: tok.Offset + n - cl.SuffixLen}
	case cl.Kind == KindAbbreviation, cl.Kind == KindAmpersand:
		return Span{Start: tok.Offset, End: tok.Offset}
	case cl.TrailingPunct:
		return Span{Start: tok.Offset, End: tok.Offset + n - 1}
	default:
		return tok.Span()
	}
}

// IsPunctuationOnly reports whether word is itself one of the glyphs.
func (c *Classifier) IsPunctuationOnly(word string) bool {
	return slices.Contains(c.punctuation, word)
}

// EndsWithPunctuation reports whether the last rune of word is one of the glyphs.
func (c *Classifier) EndsWithPunctuation(word string) bool {
	r, size := utf8.DecodeLastRuneInString(word)
	if size == 0 {
		return false
	}
	return slices.Contains(c.punctuation, string(r))
}

// IsYear reports whether word holds exactly four ASCII digits and they are
// contiguous, so "(1995)," is a year and "1995-1996" is not.
func IsYear(word string) bool {
	digits, run, longest := 0, 0, 0
	for _, r := range word {
		if isDigit(r) {
			digits++
			run++
			longest = max(longest, run)
			continue
		}
		run = 0
	}
	return digits == 4 && longest == 4
}

// IsAbbreviation reports whether word is a single capital initial such as
// "J." or "J.,".
func IsAbbreviation(word string) bool {
	return abbreviationRe.MatchString(word)
}

// StartsWithLowercase reports whether the first rune is unchanged by
// lower-casing. Digits, punctuation and the empty word count as lowercase.
func StartsWithLowercase(word string) bool {
	r, size := utf8.DecodeRuneInString(word)
	if size == 0 {
		return true
	}
	return unicode.ToLower(r) == r
}

// IsAmpersand reports whether word is a bare "&".
func IsAmpersand(word string) bool {
	return word == "&"
}

func isDigit(r rune) bool {
	return '0' <= r && r <= '9'
}

func leadingNonDigits(word string) int {
	n := 0
	for _, r := range word {
		if isDigit(r) {
			break
		}
		n++
	}
	return n
}

func trailingNonDigits(word string) int {
	n := 0
	for len(word) > 0 {
		r, size := utf8.DecodeLastRuneInString(word)
		if isDigit(r) {
			break
		}
		n++
		word = word[:len(word)-size]
	}
	return n
}
