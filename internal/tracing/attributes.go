package tracing

// SpanAnalyzeDocument names the span covering one whole-document analysis.
const SpanAnalyzeDocument = "document.analyze"

// Span attribute keys.
const (
	AttrRunID        = "analyze.run_id"
	AttrStrategy     = "analyze.strategy"
	AttrDocumentPath = "document.path"
	AttrLineCount    = "document.lines"
	AttrEligible     = "document.eligible_lines"
	AttrDimRanges    = "analyze.dim_ranges"
	AttrCacheHits    = "cache.hits"
	AttrCacheMisses  = "cache.misses"
	AttrWorkers      = "analyze.workers"
)
