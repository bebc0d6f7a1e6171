// Package answer composes grounded chat answers from retrieved passages.
package answer

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/raphaelgruber/eventnexus-go/internal/models"
)

// InsufficientAnswer is returned when nothing relevant was retrieved.
const InsufficientAnswer = "I don't have enough information to answer that yet."

// maxSnippetRunes bounds each passage body in an extractive answer.
const maxSnippetRunes = 500

// Retriever ranks documents for a query. *retrieval.Engine satisfies it.
type Retriever interface {
	Retrieve(ctx context.Context, query string, docs []models.Document, topK int) []models.RetrievedPassage
}

// Generator writes an answer from a question and its context.
// *llm.Model satisfies it.
type Generator interface {
	SynthesizeAnswer(ctx context.Context, query string, context string) (string, error)
}

// Options configures the composer.
type Options struct {
	TopK           int
	MinRelevance   float64
	MaxContextDocs int
}

// DefaultOptions returns the production defaults.
func DefaultOptions() Options {
	return Options{
		TopK:           5,
		MinRelevance:   0.05,
		MaxContextDocs: 3,
	}
}

// Composer turns a query and a document set into a ChatAnswer.
type Composer struct {
	retriever Retriever
	generator Generator
	opts      Options
	logger    *slog.Logger
}

// New creates a composer. generator may be nil for extractive answers only.
func New(retriever Retriever, generator Generator, opts Options, logger *slog.Logger) *Composer {
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultOptions()
	if opts.TopK <= 0 {
		opts.TopK = def.TopK
	}
	if opts.MaxContextDocs <= 0 {
		opts.MaxContextDocs = def.MaxContextDocs
	}
	if opts.MinRelevance < 0 || math.IsNaN(opts.MinRelevance) {
		opts.MinRelevance = def.MinRelevance
	}
	return &Composer{retriever: retriever, generator: generator, opts: opts, logger: logger}
}

// Insufficient returns the deterministic no-information answer.
func Insufficient() models.ChatAnswer {
	return models.ChatAnswer{Answer: InsufficientAnswer, Sources: []string{}, Confidence: 0}
}

// HasGenerator reports whether a generative backend is configured.
func (c *Composer) HasGenerator() bool {
	return c.generator != nil
}

// Ground retrieves the passages an answer may cite and builds the extractive
// answer from them. It returns no passages for a blank query or when nothing
// clears MinRelevance.
func (c *Composer) Ground(ctx context.Context, query string, docs []models.Document) (models.ChatAnswer, []models.RetrievedPassage) {
	if strings.TrimSpace(query) == "" || len(docs) == 0 {
		return Insufficient(), nil
	}

	ranked := c.retriever.Retrieve(ctx, query, docs, c.opts.TopK)
	relevant := make([]models.RetrievedPassage, 0, len(ranked))
	for _, p := range ranked {
		if p.Score >= c.opts.MinRelevance && p.Score > 0 {
			relevant = append(relevant, p)
		}
	}
	if len(relevant) == 0 {
		return Insufficient(), nil
	}
	if len(relevant) > c.opts.MaxContextDocs {
		relevant = relevant[:c.opts.MaxContextDocs]
	}

	sources := make([]string, len(relevant))
	for i, p := range relevant {
		sources[i] = p.Document.ID
	}

	return models.ChatAnswer{
		Answer:     Extractive(relevant),
		Sources:    sources,
		Confidence: clamp01(relevant[0].Score),
	}, relevant
}

// Answer grounds the query and, when a generator is configured, lets it
// rewrite the answer from the grounded passages. Generator failures and
// empty generations keep the extractive answer. Sources always come from
// retrieval.
func (c *Composer) Answer(ctx context.Context, query string, docs []models.Document) models.ChatAnswer {
	extractive, passages := c.Ground(ctx, query, docs)
	if len(passages) == 0 || c.generator == nil {
		return extractive
	}

	text, err := c.generator.SynthesizeAnswer(ctx, query, ContextText(passages))
	if err != nil {
		level := slog.LevelWarn
		if errors.Is(err, context.Canceled) {
			level = slog.LevelDebug
		}
		c.logger.Log(ctx, level, "answer generation failed, using extractive answer", "error", err)
		return extractive
	}
	if text = strings.TrimSpace(text); text == "" {
		c.logger.Warn("answer generation returned empty text, using extractive answer")
		return extractive
	}

	extractive.Answer = text
	return extractive
}

// Extractive renders passages as "Title: body" snippets, one per paragraph.
func Extractive(passages []models.RetrievedPassage) string {
	parts := make([]string, 0, len(passages))
	for _, p := range passages {
		parts = append(parts, snippet(p.Document))
	}
	return strings.Join(parts, "\n\n")
}

// ContextText formats passages as generator context, labelled with their
// document ids.
func ContextText(passages []models.RetrievedPassage) string {
	parts := make([]string, 0, len(passages))
	for _, p := range passages {
		parts = append(parts, "["+p.Document.ID+"] "+snippet(p.Document))
	}
	return strings.Join(parts, "\n---\n")
}

func snippet(d models.Document) string {
	body := strings.TrimSpace(d.Body)
	if utf8.RuneCountInString(body) > maxSnippetRunes {
		body = string([]rune(body)[:maxSnippetRunes]) + "..."
	}
	switch {
	case d.Title == "" || strings.HasPrefix(body, d.Title):
		return body
	case body == "":
		return d.Title
	default:
		return d.Title + ": " + body
	}
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
