package decorator

import (
	"context"

	"github.com/zjrosen/citehint/internal/document"
	"github.com/zjrosen/citehint/internal/log"
)

// Decorator applies and clears dimming for one document view. It owns the
// single "applied" flag; it is not safe for concurrent use and is expected
// to be driven from one event loop.
type Decorator struct {
	analyzer *document.Analyzer
	renderer *Renderer
	applied  bool
	result   document.Result
}

// New creates a decorator with dimming off.
func New(analyzer *document.Analyzer, renderer *Renderer) *Decorator {
	return &Decorator{analyzer: analyzer, renderer: renderer}
}

// Applied reports whether dim ranges are currently applied.
func (d *Decorator) Applied() bool { return d.applied }

// Result returns the ranges currently applied. It is empty while cleared.
func (d *Decorator) Result() document.Result { return d.result }

// Analyzer returns the document analyzer in use.
func (d *Decorator) Analyzer() *document.Analyzer { return d.analyzer }

// Renderer returns the renderer in use.
func (d *Decorator) Renderer() *Renderer { return d.renderer }

// SetRenderer swaps the renderer, e.g. after an opacity change. Applied
// ranges are kept; only their look changes.
func (d *Decorator) SetRenderer(r *Renderer) { d.renderer = r }

// Apply recomputes the ranges for the whole document and turns dimming on.
// On error the previous state is kept.
func (d *Decorator) Apply(ctx context.Context, doc *document.Document) error {
	res, err := d.analyzer.Analyze(ctx, doc)
	if err != nil {
		return err
	}
	d.result = res
	d.applied = true
	_, dim := res.Counts()
	log.Debug(log.CatRender, "decorations applied", "path", doc.Name(), "dim", dim)
	return nil
}

// Clear removes all decorations.
func (d *Decorator) Clear() {
	d.result = document.Result{}
	d.applied = false
	log.Debug(log.CatRender, "decorations cleared")
}

// Toggle applies decorations when cleared and clears them when applied.
func (d *Decorator) Toggle(ctx context.Context, doc *document.Document) error {
	if d.applied {
		d.Clear()
		return nil
	}
	return d.Apply(ctx, doc)
}

// DocumentChanged re-applies decorations after an edit, but only while they
// are applied. It reports whether a re-analysis ran.
func (d *Decorator) DocumentChanged(ctx context.Context, doc *document.Document) (bool, error) {
	if !d.applied {
		return false, nil
	}
	if err := d.Apply(ctx, doc); err != nil {
		return false, err
	}
	return true, nil
}

// ViewChanged drops the ranges of the previous view and resets the flag.
// A non-nil analyzer replaces the current one. Callers re-apply to render
// the new view; old ranges are never reused.
func (d *Decorator) ViewChanged(analyzer *document.Analyzer) {
	if analyzer != nil {
		d.analyzer = analyzer
	}
	d.Clear()
}

// Render returns the document lines, with dim ranges styled while applied.
// Lines without ranges are returned unchanged.
func (d *Decorator) Render(doc *document.Document) []string {
	out := make([]string, doc.Len())
	copy(out, doc.Lines)
	if !d.applied {
		return out
	}
	for _, lr := range d.result.Lines {
		if lr.Line < len(out) {
			out[lr.Line] = d.renderer.RenderLine(out[lr.Line], lr.Dim)
		}
	}
	return out
}
