package decorator

import (
	"context"
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/citehint/internal/citation"
	"github.com/zjrosen/citehint/internal/document"
)

func newTestDecorator(t *testing.T, strategy citation.Strategy) *Decorator {
	t.Helper()
	analyzer := document.NewAnalyzer(citation.NewAnalyzer(citation.WithStrategy(strategy)))
	return New(analyzer, newTestRenderer(t, termenv.TrueColor, 0.4))
}

func TestDecorator_StartsCleared(t *testing.T) {
	d := newTestDecorator(t, citation.StrategyPattern)
	doc := document.New("", "Smith, J. 2001.")

	require.False(t, d.Applied())
	require.Equal(t, doc.Lines, d.Render(doc))
}

func TestDecorator_ApplyAndClear(t *testing.T) {
	ctx := context.Background()
	d := newTestDecorator(t, citation.StrategyPattern)
	doc := document.New("", "Smith, J. 2001.\n\nÜnal, A. 2003.")

	require.NoError(t, d.Apply(ctx, doc))
	require.True(t, d.Applied())
	require.Equal(t, 1, d.Result().Eligible())

	lines := d.Render(doc)
	require.NotEqual(t, doc.Lines[0], lines[0])
	require.Equal(t, doc.Lines[0], ansi.Strip(lines[0]))
	require.Equal(t, "", lines[1])
	require.Equal(t, doc.Lines[2], lines[2], "ineligible lines stay fully visible")

	d.Clear()
	require.False(t, d.Applied())
	require.Empty(t, d.Result().Lines)
	require.Equal(t, doc.Lines, d.Render(doc))
}

func TestDecorator_DocumentChangedOnlyWhileApplied(t *testing.T) {
	ctx := context.Background()
	d := newTestDecorator(t, citation.StrategyPattern)

	ran, err := d.DocumentChanged(ctx, document.New("", "Smith, J. 2001."))
	require.NoError(t, err)
	require.False(t, ran)
	require.False(t, d.Applied())

	require.NoError(t, d.Apply(ctx, document.New("", "Smith, J. 2001.")))
	edited := document.New("", "Smith, J. 2001.\nDoe, K. 1999.")
	ran, err = d.DocumentChanged(ctx, edited)
	require.NoError(t, err)
	require.True(t, ran)
	require.Equal(t, 2, d.Result().Eligible())
}

func TestDecorator_Toggle(t *testing.T) {
	ctx := context.Background()
	d := newTestDecorator(t, citation.StrategyPattern)
	doc := document.New("", "Smith, J. 2001.")

	require.NoError(t, d.Toggle(ctx, doc))
	require.True(t, d.Applied())
	require.NoError(t, d.Toggle(ctx, doc))
	require.False(t, d.Applied())
}

func TestDecorator_ViewChangedResetsAndSwapsAnalyzer(t *testing.T) {
	ctx := context.Background()
	d := newTestDecorator(t, citation.StrategyPattern)
	doc := document.New("", "1995-1996")

	require.NoError(t, d.Apply(ctx, doc))
	patternDim := d.Result().Lines[0].Dim

	token := document.NewAnalyzer(citation.NewAnalyzer(citation.WithStrategy(citation.StrategyToken)))
	d.ViewChanged(token)
	require.False(t, d.Applied())
	require.Empty(t, d.Result().Lines)
	require.Equal(t, citation.StrategyToken, d.Analyzer().Strategy())

	require.NoError(t, d.Apply(ctx, doc))
	require.NotEqual(t, patternDim, d.Result().Lines[0].Dim)

	d.ViewChanged(nil)
	require.Equal(t, citation.StrategyToken, d.Analyzer().Strategy())
}

func TestDecorator_ApplyErrorKeepsState(t *testing.T) {
	d := newTestDecorator(t, citation.StrategyPattern)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.Error(t, d.Apply(ctx, document.New("", "Smith, J. 2001.")))
	require.False(t, d.Applied())
}

func TestDecorator_SetRenderer(t *testing.T) {
	d := newTestDecorator(t, citation.StrategyPattern)
	r := newTestRenderer(t, termenv.TrueColor, 0.8)
	d.SetRenderer(r)
	require.Same(t, r, d.Renderer())
}
