package citation

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Eligible reports whether a line should be analyzed at all: its first
// non-whitespace rune must be ASCII. Blank lines are not eligible.
func Eligible(text string) bool {
	trimmed := strings.TrimLeftFunc(text, unicode.IsSpace)
	r, size := utf8.DecodeRuneInString(trimmed)
	if size == 0 {
		return false
	}
	return r <= unicode.MaxASCII
}
