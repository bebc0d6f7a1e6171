// Package retrieval ranks documents against a query with either a sparse
// token-overlap strategy or a dense embedding strategy.
package retrieval

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/raphaelgruber/eventnexus-go/internal/embedding"
	"github.com/raphaelgruber/eventnexus-go/internal/models"
)

// Kind names a ranking strategy.
type Kind string

const (
	KindDense  Kind = models.BackendDense
	KindSparse Kind = models.BackendSparse
)

// Strategy scores every document against a query and returns them ranked.
type Strategy interface {
	Kind() Kind
	Rank(ctx context.Context, query string, docs []models.Document) ([]models.RetrievedPassage, error)
}

// SparseStrategy ranks by Jaccard similarity of lowercase alphanumeric token
// sets over each document's Text.
type SparseStrategy struct{}

var _ Strategy = SparseStrategy{}

func (SparseStrategy) Kind() Kind { return KindSparse }

// Rank implements Strategy. It never fails.
func (SparseStrategy) Rank(_ context.Context, query string, docs []models.Document) ([]models.RetrievedPassage, error) {
	q := tokenSet(query)
	out := make([]models.RetrievedPassage, len(docs))
	for i, d := range docs {
		out[i] = models.RetrievedPassage{Document: d, Score: jaccard(q, tokenSet(d.Text()))}
	}
	sortPassages(out)
	return out, nil
}

// DenseStrategy ranks by cosine similarity between the query embedding and
// the embedding of each document's Text. Negative similarities count as zero.
type DenseStrategy struct {
	Embedder embedding.Embedder
}

var _ Strategy = DenseStrategy{}

func (DenseStrategy) Kind() Kind { return KindDense }

// Rank implements Strategy. The query and all documents are embedded in one batch.
func (s DenseStrategy) Rank(ctx context.Context, query string, docs []models.Document) ([]models.RetrievedPassage, error) {
	if len(docs) == 0 {
		return []models.RetrievedPassage{}, nil
	}

	texts := make([]string, 0, len(docs)+1)
	texts = append(texts, query)
	for _, d := range docs {
		texts = append(texts, d.Text())
	}

	vectors, err := s.Embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed: %w", err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("embed: got %d vectors for %d texts", len(vectors), len(texts))
	}

	out := make([]models.RetrievedPassage, len(docs))
	for i, d := range docs {
		out[i] = models.RetrievedPassage{Document: d, Score: clampScore(cosine(vectors[0], vectors[i+1]))}
	}
	sortPassages(out)
	return out, nil
}

// sortPassages orders by descending score, then ascending document id.
func sortPassages(p []models.RetrievedPassage) {
	sort.SliceStable(p, func(i, j int) bool {
		if p[i].Score != p[j].Score {
			return p[i].Score > p[j].Score
		}
		return p[i].Document.ID < p[j].Document.ID
	})
}

// tokenSet lowercases text and splits it on every non-alphanumeric rune.
func tokenSet(text string) map[string]struct{} {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}
	inter := 0
	for t := range small {
		if _, ok := large[t]; ok {
			inter++
		}
	}
	if inter == 0 {
		return 0
	}
	return float64(inter) / float64(len(a)+len(b)-inter)
}

// cosine computes cosine similarity; mismatched or zero vectors score 0.
func cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func clampScore(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
