// Package embedding provides text embedding backends and the lazily
// initialized handle the retrieval engine probes for dense search.
package embedding

import (
	"context"
	"time"
)

// Embedder defines the interface for text embedding providers.
type Embedder interface {
	// Embed generates an embedding vector for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts, one vector per
	// input in the same order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Model returns the name of the embedding model being used.
	Model() string
}

// TimingRecorder receives per-call embedding latencies.
// *metrics.Collector satisfies it.
type TimingRecorder interface {
	RecordTiming(op string, d time.Duration)
}

// OpEmbedding is the operation name reported to a TimingRecorder.
const OpEmbedding = "embedding"

// Instrument wraps e so every call is timed into rec.
func Instrument(e Embedder, rec TimingRecorder) Embedder {
	if e == nil || rec == nil {
		return e
	}
	return &instrumented{Embedder: e, rec: rec}
}

type instrumented struct {
	Embedder
	rec TimingRecorder
}

func (i *instrumented) Embed(ctx context.Context, text string) ([]float32, error) {
	start := time.Now()
	defer func() { i.rec.RecordTiming(OpEmbedding, time.Since(start)) }()
	return i.Embedder.Embed(ctx, text)
}

func (i *instrumented) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	start := time.Now()
	defer func() { i.rec.RecordTiming(OpEmbedding, time.Since(start)) }()
	return i.Embedder.EmbedBatch(ctx, texts)
}
