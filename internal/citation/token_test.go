package citation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsYear(t *testing.T) {
	tests := map[string]bool{
		"1995":      true,
		"(1995)":    true,
		"(1995),":   true,
		"1995.":     true,
		"19950":     false,
		"199":       false,
		"1995-1996": false,
		"19a95":     false,
		"12-34":     false,
		"":          false,
		"Smith":     false,
	}
	for word, want := range tests {
		require.Equal(t, want, IsYear(word), "IsYear(%q)", word)
	}
}

func TestIsAbbreviation(t *testing.T) {
	tests := map[string]bool{
		"J.":  true,
		"J.,": true,
		"J":   false,
		"Jr.": false,
		"j.":  false,
		"J,":  false,
		"J.;": false,
		"":    false,
	}
	for word, want := range tests {
		require.Equal(t, want, IsAbbreviation(word), "IsAbbreviation(%q)", word)
	}
}

func TestStartsWithLowercase(t *testing.T) {
	require.True(t, StartsWithLowercase("and"))
	require.True(t, StartsWithLowercase("von"))
	require.False(t, StartsWithLowercase("Smith"))
	require.False(t, StartsWithLowercase("Ünal"))
	// Non-letters are treated as lowercase.
	require.True(t, StartsWithLowercase("(1995)"))
	require.True(t, StartsWithLowercase(","))
	require.True(t, StartsWithLowercase(""))
}

func TestClassifier_Predicates(t *testing.T) {
	c := NewClassifier()
	require.Equal(t, DefaultPunctuation, c.Punctuation())

	for _, glyph := range []string{",", ".", "&", ":", ";"} {
		require.True(t, c.IsPunctuationOnly(glyph), glyph)
	}
	require.False(t, c.IsPunctuationOnly("-"))
	require.False(t, c.IsPunctuationOnly(",,"))

	require.True(t, c.EndsWithPunctuation("Hamlet."))
	require.True(t, c.EndsWithPunctuation("Smith,"))
	require.True(t, c.EndsWithPunctuation("Title:"))
	require.False(t, c.EndsWithPunctuation("Smith"))
	require.False(t, c.EndsWithPunctuation(""))

	require.True(t, IsAmpersand("&"))
	require.False(t, IsAmpersand("&&"))
}

func TestClassifier_CustomPunctuation(t *testing.T) {
	c := NewClassifier(",", "-")
	require.True(t, c.EndsWithPunctuation("Smith-"))
	require.False(t, c.EndsWithPunctuation("Smith."))
}

func TestClassifier_Classify(t *testing.T) {
	c := NewClassifier()
	tests := []struct {
		word string
		want Classification
	}{
		{"1995", Classification{Kind: KindYear}},
		{"(1995),", Classification{Kind: KindYear, PrefixLen: 1, SuffixLen: 2}},
		{"J.", Classification{Kind: KindAbbreviation}},
		{"J.,", Classification{Kind: KindAbbreviation}},
		{"&", Classification{Kind: KindAmpersand}},
		{"Smith,", Classification{Kind: KindNormal, TrailingPunct: true}},
		{"Jr.", Classification{Kind: KindNormal, TrailingPunct: true}},
		{"Smith", Classification{Kind: KindNormal}},
	}
	for _, tt := range tests {
		t.Run(tt.word, func(t *testing.T) {
			got := c.Classify(tt.word)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestClassification_ExactlyOneOfYearAbbreviationNormal(t *testing.T) {
	c := NewClassifier()
	for _, word := range []string{"1995", "J.", "&", "Smith", ",", "", "(2001)."} {
		cl := c.Classify(word)
		count := 0
		if cl.Kind == KindYear {
			count++
		}
		if cl.Kind == KindAbbreviation {
			count++
		}
		if cl.IsNormal() {
			count++
		}
		require.Equal(t, 1, count, "word %q", word)
	}
}

func TestClassifier_Focus(t *testing.T) {
	c := NewClassifier()
	tests := []struct {
		tok  Token
		want Span
	}{
		{Token{Text: "(1995),", Offset: 10}, Span{Start: 11, End: 15}},
		{Token{Text: "1995", Offset: 3}, Span{Start: 3, End: 7}},
		{Token{Text: "Smith,", Offset: 0}, Span{Start: 0, End: 5}},
		{Token{Text: "Hamlet", Offset: 4}, Span{Start: 4, End: 10}},
		{Token{Text: "J.", Offset: 3}, Span{Start: 3, End: 3}},
		{Token{Text: "&", Offset: 8}, Span{Start: 8, End: 8}},
		{Token{Text: "Müller,", Offset: 2}, Span{Start: 2, End: 8}},
	}
	for _, tt := range tests {
		t.Run(tt.tok.Text, func(t *testing.T) {
			got := c.Focus(tt.tok)
			require.Equal(t, tt.want, got)
			require.True(t, tt.tok.Span().Contains(got), "focus %v outside token %v", got, tt.tok.Span())
		})
	}
}

func TestTokenize_KeepsOffsetsAligned(t *testing.T) {
	got := Tokenize("Doe,  J. 2001")
	require.Equal(t, []Token{
		{Text: "Doe,", Offset: 0},
		{Text: "", Offset: 5},
		{Text: "J.", Offset: 6},
		{Text: "2001", Offset: 9},
	}, got)

	require.Equal(t, []Token{{Text: "", Offset: 0}}, Tokenize(""))
}

func TestTokenize_CountsRunes(t *testing.T) {
	got := Tokenize("Ängström, A.")
	require.Equal(t, 0, got[0].Offset)
	require.Equal(t, 10, got[1].Offset)
}

func TestKind_String(t *testing.T) {
	require.Equal(t, "year", KindYear.String())
	require.Equal(t, "abbreviation", KindAbbreviation.String())
	require.Equal(t, "ampersand", KindAmpersand.String())
	require.Equal(t, "normal", KindNormal.String())
	require.Equal(t, "unknown", Kind(42).String())
}
