package retrieval

import (
	"context"
	"log/slog"
	"time"

	"github.com/raphaelgruber/eventnexus-go/internal/embedding"
	"github.com/raphaelgruber/eventnexus-go/internal/models"
)

// Defaults for Options.
const (
	DefaultTopK         = 5
	DefaultDenseTimeout = 5 * time.Second
)

// Names reported to a Recorder.
const (
	OpRetrieve           = "retrieve"
	CounterDenseFallback = "dense_fallbacks"
)

// Recorder receives retrieval timings and fallback counts.
// *metrics.Collector satisfies it.
type Recorder interface {
	RecordTiming(op string, d time.Duration)
	Add(counter string, n int64)
}

// Options configures the engine.
type Options struct {
	TopK         int
	DenseTimeout time.Duration
	// Recorder is optional.
	Recorder Recorder
}

// DefaultOptions returns the production defaults.
func DefaultOptions() Options {
	return Options{
		TopK:         DefaultTopK,
		DenseTimeout: DefaultDenseTimeout,
	}
}

// Engine retrieves the top passages for a query. The strategy is fixed at
// construction; a failing dense call degrades to sparse for that call only.
type Engine struct {
	primary  Strategy
	fallback SparseStrategy
	opts     Options
	logger   *slog.Logger
}

// NewEngine probes the embedding handle once and picks the dense strategy if
// the backend initialized, or the sparse strategy otherwise.
// A nil handle selects sparse.
func NewEngine(ctx context.Context, handle *embedding.Handle, opts Options, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.TopK <= 0 {
		opts.TopK = DefaultTopK
	}
	if opts.DenseTimeout <= 0 {
		opts.DenseTimeout = DefaultDenseTimeout
	}

	e := &Engine{primary: SparseStrategy{}, opts: opts, logger: logger}
	if handle != nil {
		if emb, err := handle.Get(ctx); err == nil {
			e.primary = DenseStrategy{Embedder: emb}
		}
	}
	logger.Info("retrieval engine ready", "backend", e.primary.Kind())
	return e
}

// NewEngineWithStrategy builds an engine around an explicit strategy.
func NewEngineWithStrategy(s Strategy, opts Options, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.TopK <= 0 {
		opts.TopK = DefaultTopK
	}
	if opts.DenseTimeout <= 0 {
		opts.DenseTimeout = DefaultDenseTimeout
	}
	if s == nil {
		s = SparseStrategy{}
	}
	return &Engine{primary: s, opts: opts, logger: logger}
}

// Backend reports the active strategy kind.
func (e *Engine) Backend() Kind {
	return e.primary.Kind()
}

// Retrieve returns at most topK passages ranked by descending score with ties
// broken by document id. topK <= 0 uses the configured default.
func (e *Engine) Retrieve(ctx context.Context, query string, docs []models.Document, topK int) []models.RetrievedPassage {
	if len(docs) == 0 {
		return []models.RetrievedPassage{}
	}
	if topK <= 0 {
		topK = e.opts.TopK
	}

	if e.opts.Recorder != nil {
		start := time.Now()
		defer func() { e.opts.Recorder.RecordTiming(OpRetrieve, time.Since(start)) }()
	}

	ranked := e.rank(ctx, query, docs)
	if len(ranked) > topK {
		ranked = ranked[:topK]
	}
	return ranked
}

func (e *Engine) rank(ctx context.Context, query string, docs []models.Document) []models.RetrievedPassage {
	if e.primary.Kind() == KindSparse {
		if ranked, err := e.primary.Rank(ctx, query, docs); err == nil {
			return ranked
		}
		ranked, _ := e.fallback.Rank(ctx, query, docs)
		return ranked
	}

	callCtx, cancel := context.WithTimeout(ctx, e.opts.DenseTimeout)
	defer cancel()

	type result struct {
		ranked []models.RetrievedPassage
		err    error
	}
	done := make(chan result, 1)

	start := time.Now()
	go func() {
		ranked, err := e.primary.Rank(callCtx, query, docs)
		done <- result{ranked, err}
	}()

	var err error
	select {
	case r := <-done:
		if r.err == nil {
			return r.ranked
		}
		err = r.err
	case <-callCtx.Done():
		// The embedder may not honor cancellation; its result is discarded.
		err = callCtx.Err()
	}

	e.logger.Warn("dense retrieval failed, using sparse for this call",
		"error", err,
		"docs", len(docs),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	if e.opts.Recorder != nil {
		e.opts.Recorder.Add(CounterDenseFallback, 1)
	}
	ranked, _ := e.fallback.Rank(ctx, query, docs)
	return ranked
}
