package document

import (
	"context"
	"fmt"
	"runtime"
	"slices"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"

	"github.com/zjrosen/citehint/internal/citation"
	"github.com/zjrosen/citehint/internal/linecache"
	"github.com/zjrosen/citehint/internal/log"
	"github.com/zjrosen/citehint/internal/tracing"
)

// Result is the analysis of a whole document.
type Result struct {
	RunID     string
	Path      string
	Strategy  citation.Strategy
	LineCount int
	// Lines holds one entry per eligible line, ordered by line index.
	// Ineligible lines have no entry and are left fully visible.
	Lines []citation.LineRanges
}

// Eligible returns the number of analysed lines.
func (r Result) Eligible() int { return len(r.Lines) }

// Skipped returns the number of lines left out as ineligible.
func (r Result) Skipped() int { return r.LineCount - len(r.Lines) }

// Line returns the ranges for line index i, if the line was analysed.
func (r Result) Line(i int) (citation.LineRanges, bool) {
	idx, found := slices.BinarySearchFunc(r.Lines, i, func(lr citation.LineRanges, target int) int {
		return lr.Line - target
	})
	if !found {
		return citation.LineRanges{}, false
	}
	return r.Lines[idx], true
}

// Counts returns the total number of focus and dim ranges.
func (r Result) Counts() (focus, dim int) {
	for _, lr := range r.Lines {
		focus += len(lr.Focus)
		dim += len(lr.Dim)
	}
	return focus, dim
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithCache memoizes per-line results.
func WithCache(c *linecache.Cache) Option {
	return func(a *Analyzer) { a.cache = c }
}

// WithTracer records a span per analysis run.
func WithTracer(t trace.Tracer) Option {
	return func(a *Analyzer) { a.tracer = t }
}

// WithWorkers bounds concurrent line analysis. n <= 0 uses GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(a *Analyzer) { a.workers = n }
}

// Analyzer runs a line analyzer over every eligible line of a document.
type Analyzer struct {
	line      *citation.Analyzer
	cache     *linecache.Cache
	tracer    trace.Tracer
	workers   int
	namespace string
}

// NewAnalyzer wraps a line analyzer.
func NewAnalyzer(line *citation.Analyzer, opts ...Option) *Analyzer {
	a := &Analyzer{
		line:   line,
		tracer: noop.NewTracerProvider().Tracer("noop"),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.workers <= 0 {
		a.workers = runtime.GOMAXPROCS(0)
	}
	a.namespace = string(line.Strategy()) + "|" + strings.Join(line.Classifier().Punctuation(), "")
	return a
}

// Strategy returns the strategy of the wrapped line analyzer.
func (a *Analyzer) Strategy() citation.Strategy { return a.line.Strategy() }

// Analyze recomputes the dim ranges of every eligible line from scratch.
// Lines are analysed concurrently; the result is ordered by line index.
func (a *Analyzer) Analyze(ctx context.Context, doc *Document) (Result, error) {
	runID := uuid.NewString()
	ctx, span := a.tracer.Start(ctx, tracing.SpanAnalyzeDocument, trace.WithAttributes(
		attribute.String(tracing.AttrRunID, runID),
		attribute.String(tracing.AttrDocumentPath, doc.Name()),
		attribute.String(tracing.AttrStrategy, string(a.line.Strategy())),
		attribute.Int(tracing.AttrLineCount, doc.Len()),
		attribute.Int(tracing.AttrWorkers, a.workers),
	))
	defer span.End()

	results := make([]citation.LineRanges, doc.Len())
	analysed := make([]bool, doc.Len())

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	for i, text := range doc.Lines {
		if !citation.Eligible(text) {
			continue
		}
		analysed[i] = true
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			lr, err := a.analyzeLine(text, i)
			if err != nil {
				return err
			}
			results[i] = lr
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.ErrorErr(log.CatAnalyze, "document analysis failed", err, "run", runID, "path", doc.Name())
		return Result{}, fmt.Errorf("analyzing %s: %w", doc.Name(), err)
	}

	res := Result{
		RunID:     runID,
		Path:      doc.Path,
		Strategy:  a.line.Strategy(),
		LineCount: doc.Len(),
		Lines:     make([]citation.LineRanges, 0, doc.Len()),
	}
	for i, ok := range analysed {
		if ok {
			res.Lines = append(res.Lines, results[i])
		}
	}

	_, dim := res.Counts()
	span.SetAttributes(
		attribute.Int(tracing.AttrEligible, res.Eligible()),
		attribute.Int(tracing.AttrDimRanges, dim),
	)
	if a.cache != nil {
		stats := a.cache.Stats()
		span.SetAttributes(
			attribute.Int64(tracing.AttrCacheHits, stats.Hits),
			attribute.Int64(tracing.AttrCacheMisses, stats.Misses),
		)
	}
	span.SetStatus(codes.Ok, "")

	log.Debug(log.CatAnalyze, "document analyzed",
		"run", runID,
		"path", doc.Name(),
		"strategy", a.line.Strategy(),
		"lines", doc.Len(),
		"eligible", res.Eligible(),
		"skipped", res.Skipped(),
		"dim", dim)
	return res, nil
}

func (a *Analyzer) analyzeLine(text string, i int) (citation.LineRanges, error) {
	if a.cache == nil {
		return a.line.AnalyzeLine(text, i)
	}
	entry, err := a.cache.GetOrCompute(a.namespace, text, func() (linecache.Entry, error) {
		lr, err := a.line.AnalyzeLine(text, i)
		if err != nil {
			return linecache.Entry{}, err
		}
		return linecache.Entry{Focus: lr.Focus, Dim: lr.Dim}, nil
	})
	if err != nil {
		return citation.LineRanges{}, err
	}
	return citation.LineRanges{Line: i, Focus: entry.Focus, Dim: entry.Dim}, nil
}
