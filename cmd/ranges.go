package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/zjrosen/citehint/internal/citation"
	"github.com/zjrosen/citehint/internal/document"
)

var rangesCmd = &cobra.Command{
	Use:   "ranges [file|-]",
	Short: "Print the dim ranges of every eligible line",
	Long: `Print the dim ranges computed for each eligible line as JSON or YAML.
Columns are code point offsets into the line; ranges are half-open.

Example:
  citehint ranges refs.txt
  citehint ranges --format yaml --focus refs.txt`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRanges,
}

var (
	rangesFormat string
	rangesFocus  bool
)

func init() {
	rootCmd.AddCommand(rangesCmd)

	rangesCmd.Flags().StringVarP(&rangesFormat, "format", "f", "json", `output format: "json" or "yaml"`)
	rangesCmd.Flags().BoolVar(&rangesFocus, "focus", false, "include the focus ranges of each line")
}

// rangesOutput is the machine-readable analysis of one document.
type rangesOutput struct {
	Path     string                `json:"path" yaml:"path"`
	Strategy citation.Strategy     `json:"strategy" yaml:"strategy"`
	Lines    []citation.LineRanges `json:"lines" yaml:"lines"`
}

func newRangesOutput(res document.Result, withFocus bool) rangesOutput {
	out := rangesOutput{
		Path:     res.Path,
		Strategy: res.Strategy,
		Lines:    make([]citation.LineRanges, 0, len(res.Lines)),
	}
	for _, lr := range res.Lines {
		if !withFocus {
			lr.Focus = nil
		}
		if lr.Dim == nil {
			lr.Dim = []citation.Span{}
		}
		out.Lines = append(out.Lines, lr)
	}
	return out
}

func writeRanges(w io.Writer, out rangesOutput, format string) error {
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(out); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf(`--format must be "json" or "yaml", got %q`, format)
	}
}

func runRanges(cmd *cobra.Command, args []string) error {
	if cfgErr != nil {
		return cfgErr
	}
	cleanupLog, err := initDebugLog(false)
	if err != nil {
		return err
	}
	defer cleanupLog()

	strategy, err := cfg.ParsedStrategy()
	if err != nil {
		return err
	}
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
	res, err := rt.Analyzer(strategy).Analyze(ctx, doc)
	if err != nil {
		return err
	}
	return writeRanges(cmd.OutOrStdout(), newRangesOutput(res, rangesFocus), rangesFormat)
}
