package citation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPatternFinder_Years(t *testing.T) {
	f := NewPatternFinder(0)
	tests := []struct {
		text string
		want []Span
	}{
		{"1995", []Span{{0, 4}}},
		{"(1995), 2001.", []Span{{1, 5}, {8, 12}}},
		{"19950", nil},
		{"1995-1996", []Span{{0, 4}, {5, 9}}},
		{"pp. 123-456", nil},
		{"ISBN 9780140714548", nil},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, err := f.Years(tt.text)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestPatternFinder_SurnamesAfterInitial(t *testing.T) {
	f := NewPatternFinder(0)

	got, err := f.SurnamesAfterInitial("W. Shakespeare")
	require.NoError(t, err)
	require.Equal(t, []Span{{3, 14}}, got, "the initial is context, not part of the match")

	got, err = f.SurnamesAfterInitial("J.   Doe and K. Roe")
	require.NoError(t, err)
	require.Equal(t, []Span{{5, 8}, {16, 19}}, got)

	got, err = f.SurnamesAfterInitial("J. R. R. Tolkien")
	require.NoError(t, err)
	require.Equal(t, []Span{{9, 16}}, got)

	got, err = f.SurnamesAfterInitial("W.Shakespeare")
	require.NoError(t, err)
	require.Empty(t, got, "at least one space must follow the initial")
}

func TestPatternFinder_SurnamesBeforeInitial(t *testing.T) {
	f := NewPatternFinder(0)

	got, err := f.SurnamesBeforeInitial("Shakespeare, W.")
	require.NoError(t, err)
	require.Equal(t, []Span{{0, 11}}, got)

	got, err = f.SurnamesBeforeInitial("Smith, J. and Doe, K. 2001.")
	require.NoError(t, err)
	require.Equal(t, []Span{{0, 5}, {14, 17}}, got)

	got, err = f.SurnamesBeforeInitial("Shakespeare, William")
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestPatternFinder_ColumnsAreRunes(t *testing.T) {
	f := NewPatternFinder(0)
	got, err := f.Years("Müller, J. 2001")
	require.NoError(t, err)
	require.Equal(t, []Span{{11, 15}}, got)
}

func TestPatternFinder_FindDiscoveryOrder(t *testing.T) {
	f := NewPatternFinder(0)
	got, err := f.Find("1999 Smith, J. and K. Roe")
	require.NoError(t, err)
	// reversed surnames, then surnames, then years
	require.Equal(t, []Span{{5, 10}, {22, 25}, {0, 4}}, got)
}
