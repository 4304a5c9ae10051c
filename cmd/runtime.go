package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/term"

	"github.com/zjrosen/citehint/internal/citation"
	"github.com/zjrosen/citehint/internal/config"
	"github.com/zjrosen/citehint/internal/document"
	"github.com/zjrosen/citehint/internal/linecache"
	"github.com/zjrosen/citehint/internal/log"
	"github.com/zjrosen/citehint/internal/tracing"
)

// runtime holds the services shared by every command: the line cache and
// the trace provider. Analyzers built from one runtime share both.
type runtime struct {
	cfg    config.Config
	cache  *linecache.Cache
	tracer *tracing.Provider
}

// newRuntime builds the shared services. Diagnostic output such as the
// stdout trace exporter goes to errOut, never to the command's output.
func newRuntime(_ context.Context, cfg config.Config, errOut io.Writer) (*runtime, error) {
	rt := &runtime{cfg: cfg}

	if cfg.Cache.Enabled {
		rt.cache = linecache.New(cfg.Cache.TTL, cfg.Cache.CleanupInterval)
	}

	provider, err := tracing.NewProvider(tracing.Config{
		Enabled:      cfg.Tracing.Enabled,
		Exporter:     cfg.Tracing.Exporter,
		FilePath:     cfg.Tracing.FilePath,
		OTLPEndpoint: cfg.Tracing.OTLPEndpoint,
		SampleRate:   cfg.Tracing.SampleRate,
		ServiceName:  tracing.DefaultServiceName,
		Writer:       errOut,
	})
	if err != nil {
		return nil, fmt.Errorf("initializing tracing: %w", err)
	}
	rt.tracer = provider
	if provider.Enabled() {
		log.Info(log.CatTrace, "Tracing enabled", "exporter", cfg.Tracing.Exporter)
	}
	return rt, nil
}

// Analyzer builds a document analyzer for strategy using the configured
// punctuation, worker bound and match timeout.
func (rt *runtime) Analyzer(strategy citation.Strategy) *document.Analyzer {
	line := citation.NewAnalyzer(
		citation.WithStrategy(strategy),
		citation.WithPunctuation(rt.cfg.Punctuation...),
		citation.WithMatchTimeout(rt.cfg.MatchTimeout),
	)
	opts := []document.Option{
		document.WithWorkers(rt.cfg.Workers),
		document.WithTracer(rt.tracer.Tracer()),
	}
	if rt.cache != nil {
		opts = append(opts, document.WithCache(rt.cache))
	}
	return document.NewAnalyzer(line, opts...)
}

// Close flushes pending spans and logs cache statistics.
func (rt *runtime) Close() {
	if rt.cache != nil {
		stats := rt.cache.Stats()
		log.Debug(log.CatCache, "Line cache stats", "hits", stats.Hits, "misses", stats.Misses, "items", stats.Items)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rt.tracer.Shutdown(ctx); err != nil {
		log.ErrorErr(log.CatTrace, "Tracing shutdown failed", err)
	}
}

// loadDocument reads the file named by args[0], or stdin when there is no
// argument or the argument is "-".
func loadDocument(stdin io.Reader, args []string) (*document.Document, error) {
	if readsStdin(args) {
		return document.Read(stdin, "-")
	}
	return document.Load(args[0])
}

var errNoDocument = errors.New("no document: pass a file argument or pipe text on stdin")

// readsStdin reports whether loadDocument would read the document from stdin.
func readsStdin(args []string) bool {
	return len(args) == 0 || args[0] == "-"
}

// isTerminal reports whether r is an interactive terminal.
func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd())) //nolint:gosec // G115: fd fits in int
}

// requireDocument fails instead of blocking on a read from an interactive
// stdin, where nothing would ever arrive.
func requireDocument(stdin io.Reader, args []string, tty func(io.Reader) bool) error {
	if readsStdin(args) && tty(stdin) {
		return errNoDocument
	}
	return nil
}
