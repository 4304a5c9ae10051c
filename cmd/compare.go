package cmd

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zjrosen/citehint/internal/citation"
	"github.com/zjrosen/citehint/internal/document"
	"github.com/zjrosen/citehint/internal/ui/styles"
)

var compareCmd = &cobra.Command{
	Use:   "compare [file|-]",
	Short: "List lines where the pattern and token strategies disagree",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCompare,
}

func init() {
	rootCmd.AddCommand(compareCmd)
}

// disagreement is one line the two strategies dim differently.
type disagreement struct {
	Line    int
	Text    string
	Pattern []citation.Span
	Token   []citation.Span
}

func compareStrategies(ctx context.Context, doc *document.Document, pattern, token *document.Analyzer) ([]disagreement, error) {
	pres, err := pattern.Analyze(ctx, doc)
	if err != nil {
		return nil, err
	}
	tres, err := token.Analyze(ctx, doc)
	if err != nil {
		return nil, err
	}

	// Both results cover the same eligible lines in the same order.
	var out []disagreement
	for i, p := range pres.Lines {
		t := tres.Lines[i]
		if slices.Equal(p.Dim, t.Dim) {
			continue
		}
		out = append(out, disagreement{Line: p.Line, Text: doc.Lines[p.Line], Pattern: p.Dim, Token: t.Dim})
	}
	return out, nil
}

func writeDisagreements(w io.Writer, name string, eligible int, diffs []disagreement) error {
	for _, d := range diffs {
		if _, err := fmt.Fprintf(w, "%d: %s\n  pattern %s\n  token   %s\n",
			d.Line+1, d.Text, formatSpans(d.Pattern), formatSpans(d.Token)); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "%s: %d of %s differ\n", name, len(diffs), styles.FormatLineCount(eligible))
	return err
}

func formatSpans(spans []citation.Span) string {
	if len(spans) == 0 {
		return "-"
	}
	parts := make([]string, len(spans))
	for i, sp := range spans {
		parts[i] = sp.String()
	}
	return strings.Join(parts, " ")
}

func runCompare(cmd *cobra.Command, args []string) error {
	if cfgErr != nil {
		return cfgErr
	}
	cleanupLog, err := initDebugLog(false)
	if err != nil {
		return err
	}
	defer cleanupLog()

	rt, err := newRuntime(cmd.Context(), cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer rt.Close()

	doc, err := loadDocument(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	diffs, err := compareStrategies(ctx, doc, rt.Analyzer(citation.StrategyPattern), rt.Analyzer(citation.StrategyToken))
	if err != nil {
		return err
	}
	eligible := 0
	for _, line := range doc.Lines {
		if citation.Eligible(line) {
			eligible++
		}
	}
	return writeDisagreements(cmd.OutOrStdout(), doc.Name(), eligible, diffs)
}
