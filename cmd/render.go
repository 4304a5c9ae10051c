package cmd

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/zjrosen/citehint/internal/config"
	"github.com/zjrosen/citehint/internal/decorator"
	"github.com/zjrosen/citehint/internal/document"
	"github.com/zjrosen/citehint/internal/log"
	"github.com/zjrosen/citehint/internal/watcher"
)

var renderCmd = &cobra.Command{
	Use:   "render [file|-]",
	Short: "Print a document with citation lines dimmed",
	Long: `Print a document to stdout with every eligible line dimmed except author
surnames and publication years.

Example:
  citehint render refs.txt
  citehint render --strategy token --opacity 0.3 refs.txt
  cat refs.txt | citehint render --color always - | less -R
  citehint render --watch refs.txt`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRender,
}

var (
	renderOpacity float64
	renderColor   string
	renderWatch   bool
)

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().Float64Var(&renderOpacity, "opacity", -1,
		"opacity of dimmed text, 0.0 to 1.0 (default from config)")
	renderCmd.Flags().StringVar(&renderColor, "color", "auto",
		`when to emit colour: "auto", "always" or "never"`)
	renderCmd.Flags().BoolVarP(&renderWatch, "watch", "w", false,
		"re-render whenever the file changes")
}

// colorProfile maps --color to a termenv profile. "auto" defers to the
// renderer's own terminal detection.
func colorProfile(mode string) (termenv.Profile, bool, error) {
	switch strings.ToLower(mode) {
	case "", "auto":
		return termenv.Ascii, false, nil
	case "always":
		return termenv.TrueColor, true, nil
	case "never":
		return termenv.Ascii, true, nil
	default:
		return termenv.Ascii, false, fmt.Errorf(`--color must be "auto", "always" or "never", got %q`, mode)
	}
}

// newLipglossRenderer returns a renderer for out honouring --color.
func newLipglossRenderer(out io.Writer, mode string) (*lipgloss.Renderer, error) {
	profile, force, err := colorProfile(mode)
	if err != nil {
		return nil, err
	}
	r := lipgloss.NewRenderer(out)
	if force {
		r.SetColorProfile(profile)
	}
	return r, nil
}

func renderConfig(base config.Config) (config.Config, error) {
	c := base
	if renderOpacity >= 0 {
		c.Opacity = renderOpacity
	}
	if err := config.Validate(c); err != nil {
		return c, err
	}
	return c, nil
}

func runRender(cmd *cobra.Command, args []string) error {
	if cfgErr != nil {
		return cfgErr
	}
	cleanupLog, err := initDebugLog(false)
	if err != nil {
		return err
	}
	defer cleanupLog()

	c, err := renderConfig(cfg)
	if err != nil {
		return err
	}
	strategy, err := c.ParsedStrategy()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	lr, err := newLipglossRenderer(out, renderColor)
	if err != nil {
		return err
	}
	renderer, err := decorator.NewRenderer(lr, c.Opacity, decorator.Theme{
		Foreground: c.Theme.Foreground,
		Background: c.Theme.Background,
	})
	if err != nil {
		return err
	}

	rt, err := newRuntime(cmd.Context(), c, cmd.ErrOrStderr())
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
	dec := decorator.New(rt.Analyzer(strategy), renderer)
	if err := dec.Apply(ctx, doc); err != nil {
		return err
	}
	if err := writeLines(out, dec.Render(doc)); err != nil {
		return err
	}

	if !renderWatch {
		return nil
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return watchAndRender(ctx, out, doc, dec, c.Watch.Debounce)
}

// watchAndRender reprints the document each time it changes on disk, until
// ctx is cancelled.
func watchAndRender(ctx context.Context, out io.Writer, doc *document.Document, dec *decorator.Decorator, debounce time.Duration) error {
	w, err := watcher.New(watcher.Config{Path: doc.Path, DebounceDur: debounce})
	if err != nil {
		return err
	}
	defer func() { _ = w.Stop() }()

	changes, err := w.Start()
	if err != nil {
		return fmt.Errorf("--watch needs a file argument: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-changes:
			next, err := document.Load(doc.Path)
			if err != nil {
				// Mid-save states (file briefly missing) resolve on the next event.
				log.Warn(log.CatWatcher, "Reload failed", "path", doc.Path, "error", err)
				continue
			}
			doc = next
			if _, err := dec.DocumentChanged(ctx, doc); err != nil {
				return err
			}
			if _, err := fmt.Fprintf(out, "\n── %s ──\n", doc.Name()); err != nil {
				return err
			}
			if err := writeLines(out, dec.Render(doc)); err != nil {
				return err
			}
		}
	}
}

func writeLines(out io.Writer, lines []string) error {
	_, err := io.WriteString(out, strings.Join(lines, "\n"))
	if err != nil {
		return err
	}
	if len(lines) > 0 && lines[len(lines)-1] != "" {
		_, err = io.WriteString(out, "\n")
	}
	return err
}
