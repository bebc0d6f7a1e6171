package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/raphaelgruber/eventnexus-go/internal/answer"
	"github.com/raphaelgruber/eventnexus-go/internal/index"
	"github.com/raphaelgruber/eventnexus-go/internal/metrics"
	"github.com/raphaelgruber/eventnexus-go/internal/models"
	"github.com/raphaelgruber/eventnexus-go/internal/retrieval"
	"github.com/raphaelgruber/eventnexus-go/internal/snapshot"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ErrNoSnapshotSource is returned when a chat needs a snapshot but the
// service was built without a provider.
var ErrNoSnapshotSource = errors.New("no snapshot source configured")

// StreamGenerator writes an answer token by token. *llm.Model satisfies it.
type StreamGenerator interface {
	SynthesizeAnswerStream(ctx context.Context, query string, context string, onToken func(token string) error) error
}

// ChatDeps holds the collaborators of a ChatService. Provider, Streamer and
// Metrics may be nil.
type ChatDeps struct {
	Provider snapshot.Provider
	Engine   *retrieval.Engine
	Composer *answer.Composer
	Streamer StreamGenerator
	Metrics  *metrics.Collector
	Logger   *slog.Logger
}

// ChatService answers questions over a platform snapshot.
type ChatService struct {
	provider snapshot.Provider
	indexer  *index.Indexer
	engine   *retrieval.Engine
	composer *answer.Composer
	streamer StreamGenerator
	metrics  *metrics.Collector
	logger   *slog.Logger
}

// NewChatService creates the service. A nil engine defaults to sparse
// retrieval and a nil composer to extractive answers over that engine.
func NewChatService(deps ChatDeps) *ChatService {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	engine := deps.Engine
	if engine == nil {
		engine = retrieval.NewEngineWithStrategy(retrieval.SparseStrategy{}, retrieval.DefaultOptions(), logger)
	}
	composer := deps.Composer
	if composer == nil {
		composer = answer.New(engine, nil, answer.DefaultOptions(), logger)
	}
	return &ChatService{
		provider: deps.Provider,
		indexer:  index.New(logger),
		engine:   engine,
		composer: composer,
		streamer: deps.Streamer,
		metrics:  deps.Metrics,
		logger:   logger,
	}
}

// Health reports liveness and the active retrieval backend.
func (s *ChatService) Health() models.Health {
	return models.Health{OK: true, Backend: string(s.engine.Backend())}
}

// Snapshot assembles a fresh snapshot from the provider.
func (s *ChatService) Snapshot(ctx context.Context) (snap models.Snapshot, err error) {
	ctx, span := startSpan(ctx, "rag.snapshot")
	defer func() { endSpan(span, err) }()

	if s.provider == nil {
		return models.Snapshot{}, ErrNoSnapshotSource
	}

	start := time.Now()
	snap, err = s.provider.Snapshot(ctx)
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("build snapshot: %w", err)
	}
	s.since(metrics.OpSnapshotBuild, start)

	span.SetAttributes(
		attribute.Int("events", len(snap.Events)),
		attribute.Int("attendees", len(snap.Attendees)),
		attribute.Int("faq", len(snap.FAQ)),
	)
	return snap, nil
}

// Chat answers query from snap, or from a freshly built snapshot when snap
// is nil. A blank query short-circuits to the insufficient answer.
func (s *ChatService) Chat(ctx context.Context, query string, snap *models.Snapshot) (ans models.ChatAnswer, err error) {
	ctx, span := startSpan(ctx, "rag.chat", attribute.Bool("snapshot_supplied", snap != nil))
	defer func() { endSpan(span, err) }()

	start := time.Now()
	defer s.since(metrics.OpChat, start)

	if strings.TrimSpace(query) == "" {
		s.add(metrics.CounterInsufficient, 1)
		return answer.Insufficient(), nil
	}

	docs, err := s.documents(ctx, snap)
	if err != nil {
		return models.ChatAnswer{}, err
	}

	ans = s.composer.Answer(ctx, query, docs)
	s.finish(span, ans, len(docs))
	return ans, nil
}

// ChatStream is Chat with incremental output. Tokens are passed to onToken as
// they are generated; without a streaming generator the extractive answer is
// emitted as a single token. A generator failure before the first token
// falls back to the extractive answer. The returned answer carries the full
// text that was emitted.
func (s *ChatService) ChatStream(ctx context.Context, query string, snap *models.Snapshot, onToken func(token string) error) (ans models.ChatAnswer, err error) {
	ctx, span := startSpan(ctx, "rag.chat_stream", attribute.Bool("snapshot_supplied", snap != nil))
	defer func() { endSpan(span, err) }()

	start := time.Now()
	defer s.since(metrics.OpChat, start)

	if strings.TrimSpace(query) == "" {
		s.add(metrics.CounterInsufficient, 1)
		ans = answer.Insufficient()
		return ans, onToken(ans.Answer)
	}

	docs, err := s.documents(ctx, snap)
	if err != nil {
		return models.ChatAnswer{}, err
	}

	ans, passages := s.composer.Ground(ctx, query, docs)
	s.finish(span, ans, len(docs))

	if len(passages) == 0 || s.streamer == nil {
		return ans, onToken(ans.Answer)
	}

	var (
		text    strings.Builder
		emitted bool
		sinkErr error
	)
	genErr := s.streamer.SynthesizeAnswerStream(ctx, query, answer.ContextText(passages), func(token string) error {
		if token == "" {
			return nil
		}
		if err := onToken(token); err != nil {
			sinkErr = err
			return err
		}
		emitted = true
		text.WriteString(token)
		return nil
	})

	switch {
	case sinkErr != nil:
		return models.ChatAnswer{}, sinkErr
	case genErr != nil && emitted:
		return models.ChatAnswer{}, fmt.Errorf("stream answer: %w", genErr)
	case genErr != nil || !emitted:
		if genErr != nil {
			s.logger.Warn("answer streaming failed, using extractive answer", "error", genErr)
		}
		return ans, onToken(ans.Answer)
	}

	ans.Answer = strings.TrimSpace(text.String())
	return ans, nil
}

func (s *ChatService) documents(ctx context.Context, snap *models.Snapshot) ([]models.Document, error) {
	var current models.Snapshot
	if snap != nil {
		current = *snap
	} else {
		built, err := s.Snapshot(ctx)
		if err != nil {
			return nil, err
		}
		current = built
	}

	if current.IsEmpty() {
		s.logger.DebugContext(ctx, "snapshot has no records")
	}
	docs, stats := s.indexer.Build(current)
	if stats.Skipped > 0 {
		s.add(metrics.CounterSkippedRecords, int64(stats.Skipped))
	}
	return docs, nil
}

func (s *ChatService) finish(span trace.Span, ans models.ChatAnswer, docs int) {
	if len(ans.Sources) == 0 {
		s.add(metrics.CounterInsufficient, 1)
	}
	span.SetAttributes(
		attribute.Int("documents", docs),
		attribute.Int("sources", len(ans.Sources)),
		attribute.Float64("confidence", ans.Confidence),
	)
}

func (s *ChatService) since(op string, start time.Time) {
	if s.metrics != nil {
		s.metrics.Since(op, start)
	}
}

func (s *ChatService) add(counter string, n int64) {
	if s.metrics != nil {
		s.metrics.Add(counter, n)
	}
}
