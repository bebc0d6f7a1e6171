package retrieval

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/raphaelgruber/eventnexus-go/internal/embedding"
	"github.com/raphaelgruber/eventnexus-go/internal/index"
	"github.com/raphaelgruber/eventnexus-go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// keywordEmbedder maps each text onto a fixed vocabulary so cosine similarity
// follows shared keywords.
type keywordEmbedder struct {
	vocab []string
	delay time.Duration
	err   error
	calls atomic.Int32
}

func (k *keywordEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	v, err := k.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return v[0], nil
}

func (k *keywordEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	k.calls.Add(1)
	if k.delay > 0 {
		time.Sleep(k.delay)
	}
	if k.err != nil {
		return nil, k.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		set := tokenSet(t)
		vec := make([]float32, len(k.vocab))
		for j, w := range k.vocab {
			if _, ok := set[w]; ok {
				vec[j] = 1
			}
		}
		out[i] = vec
	}
	return out, nil
}

func (k *keywordEmbedder) Model() string { return "keyword" }

func venueDocs() []models.Document {
	return []models.Document{
		{ID: "faq:1", Source: models.SourceFAQ, Title: "Where is the venue?", Body: "The venue location is Hall 3."},
		{ID: "event:1", Source: models.SourceEvent, Title: "GoCon", Body: "Talks about Go."},
		{ID: "attendee:1", Source: models.SourceAttendee, Title: "Maya", Body: "Company: Acme"},
	}
}

func TestSparse_VenueLocation(t *testing.T) {
	e := NewEngine(context.Background(), embedding.Disabled(), DefaultOptions(), nil)
	require.Equal(t, KindSparse, e.Backend())

	got := e.Retrieve(context.Background(), "venue location", venueDocs(), 5)
	require.Len(t, got, 3)
	assert.Equal(t, "faq:1", got[0].Document.ID)
	assert.Greater(t, got[0].Score, 0.0)
	assert.Equal(t, 0.0, got[1].Score)
}

func TestSparse_TiesBrokenByID(t *testing.T) {
	docs := []models.Document{
		{ID: "c", Body: "alpha"},
		{ID: "a", Body: "alpha"},
		{ID: "b", Body: "beta"},
	}

	got, err := SparseStrategy{}.Rank(context.Background(), "alpha", docs)
	require.NoError(t, err)
	assert.Equal(t, "a", got[0].Document.ID)
	assert.Equal(t, "c", got[1].Document.ID)
	assert.Equal(t, "b", got[2].Document.ID)
}

func TestRetrieve_Deterministic(t *testing.T) {
	e := NewEngine(context.Background(), nil, DefaultOptions(), nil)
	docs := venueDocs()

	first := e.Retrieve(context.Background(), "where is go", docs, 0)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, e.Retrieve(context.Background(), "where is go", docs, 0))
	}
}

func TestRetrieve_EmptyAndTopK(t *testing.T) {
	e := NewEngine(context.Background(), nil, DefaultOptions(), nil)

	got := e.Retrieve(context.Background(), "venue", nil, 3)
	require.NotNil(t, got)
	assert.Empty(t, got)

	docs := make([]models.Document, 8)
	for i := range docs {
		docs[i] = models.Document{ID: fmt.Sprintf("d%d", i), Body: "venue"}
	}
	assert.Len(t, e.Retrieve(context.Background(), "venue", docs, 0), DefaultTopK)
	assert.Len(t, e.Retrieve(context.Background(), "venue", docs, 2), 2)
	assert.Len(t, e.Retrieve(context.Background(), "venue", docs, 100), 8)
}

func TestRetrieve_ScoresBoundedAndSorted(t *testing.T) {
	e := NewEngine(context.Background(), nil, DefaultOptions(), nil)
	got := e.Retrieve(context.Background(), "go talks venue hall maya", venueDocs(), 10)

	for i, p := range got {
		assert.GreaterOrEqual(t, p.Score, 0.0)
		assert.LessOrEqual(t, p.Score, 1.0)
		if i > 0 {
			assert.GreaterOrEqual(t, got[i-1].Score, p.Score)
		}
	}
}

func TestDense_RanksBySimilarity(t *testing.T) {
	emb := &keywordEmbedder{vocab: []string{"venue", "location", "go", "acme"}}
	e := NewEngine(context.Background(), embedding.Static(emb), DefaultOptions(), nil)
	require.Equal(t, KindDense, e.Backend())

	got := e.Retrieve(context.Background(), "venue location", venueDocs(), 5)
	require.Len(t, got, 3)
	assert.Equal(t, "faq:1", got[0].Document.ID)
	assert.InDelta(t, 1.0, got[0].Score, 1e-9)
	assert.Equal(t, int32(1), emb.calls.Load())
}

func TestDense_MatchesIndexedNamesAndQuestions(t *testing.T) {
	docs := index.BuildDocuments(models.Snapshot{
		Events:    []models.Record{{"id": "e1", "name": "GopherCon", "location": "Berlin"}},
		Attendees: []models.Record{{"id": "u1", "name": "Maya Lopez", "company": "Acme"}},
		FAQ:       []models.Record{{"question": "How do I register for a session?", "answer": "Click the button."}},
	})
	require.Len(t, docs, 3)

	emb := &keywordEmbedder{vocab: []string{"gophercon", "maya", "register", "berlin", "acme", "button"}}
	e := NewEngine(context.Background(), embedding.Static(emb), DefaultOptions(), nil)
	require.Equal(t, KindDense, e.Backend())

	tests := []struct {
		query string
		want  string
	}{
		{"GopherCon", "event:e1"},
		{"Who is Maya?", "attendee:u1"},
		{"how do I register", "faq:faq-0"},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got := e.Retrieve(context.Background(), tt.query, docs, 3)
			require.Len(t, got, 3)
			assert.Equal(t, tt.want, got[0].Document.ID)
			assert.Greater(t, got[0].Score, 0.0)
			assert.Equal(t, 0.0, got[1].Score)
		})
	}
}

type negativeEmbedder struct{ keywordEmbedder }

func (n *negativeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	out[0] = []float32{1, 0}
	for i := 1; i < len(texts); i++ {
		out[i] = []float32{-1, 0}
	}
	return out, nil
}

func TestDense_NegativeCosineClampsToZero(t *testing.T) {
	got, err := DenseStrategy{Embedder: &negativeEmbedder{}}.Rank(context.Background(), "q", venueDocs())
	require.NoError(t, err)
	for _, p := range got {
		assert.Equal(t, 0.0, p.Score)
	}
}

func TestDense_ErrorFallsBackForThatCall(t *testing.T) {
	emb := &keywordEmbedder{vocab: []string{"venue"}, err: errors.New("model crashed")}
	e := NewEngine(context.Background(), embedding.Static(emb), DefaultOptions(), nil)

	got := e.Retrieve(context.Background(), "venue location", venueDocs(), 5)
	require.Len(t, got, 3)
	assert.Equal(t, "faq:1", got[0].Document.ID)
	assert.Equal(t, KindDense, e.Backend(), "backend stays dense after a per-call failure")

	emb.err = nil
	e.Retrieve(context.Background(), "venue", venueDocs(), 5)
	assert.Equal(t, int32(2), emb.calls.Load(), "dense is retried on the next call")
}

func TestDense_TimeoutFallsBack(t *testing.T) {
	emb := &keywordEmbedder{vocab: []string{"venue"}, delay: 200 * time.Millisecond}
	e := NewEngine(context.Background(), embedding.Static(emb), Options{DenseTimeout: 20 * time.Millisecond}, nil)

	start := time.Now()
	got := e.Retrieve(context.Background(), "venue location", venueDocs(), 5)
	assert.Less(t, time.Since(start), 150*time.Millisecond)
	require.NotEmpty(t, got)
	assert.Equal(t, "faq:1", got[0].Document.ID)
	assert.Equal(t, KindDense, e.Backend())
}

func TestNewEngine_InitFailureDowngradesPermanently(t *testing.T) {
	var calls atomic.Int32
	h := embedding.NewHandle(func(ctx context.Context) (embedding.Embedder, error) {
		calls.Add(1)
		return nil, errors.New("no model")
	}, nil)

	e1 := NewEngine(context.Background(), h, DefaultOptions(), nil)
	e2 := NewEngine(context.Background(), h, DefaultOptions(), nil)

	assert.Equal(t, KindSparse, e1.Backend())
	assert.Equal(t, KindSparse, e2.Backend())
	assert.Equal(t, int32(1), calls.Load())
}

func TestBackendHasNoSideEffects(t *testing.T) {
	emb := &keywordEmbedder{vocab: []string{"venue"}}
	e := NewEngine(context.Background(), embedding.Static(emb), DefaultOptions(), nil)

	for i := 0; i < 3; i++ {
		assert.Equal(t, KindDense, e.Backend())
	}
	assert.Zero(t, emb.calls.Load())
}

func TestTokenSet(t *testing.T) {
	set := tokenSet("Venue-Location: Hall_3, hall 3!")
	assert.Len(t, set, 4)
	for _, tok := range []string{"venue", "location", "hall", "3"} {
		assert.Contains(t, set, tok)
	}
}

func TestCosineEdgeCases(t *testing.T) {
	assert.Equal(t, 0.0, cosine(nil, nil))
	assert.Equal(t, 0.0, cosine([]float32{1}, []float32{1, 2}))
	assert.Equal(t, 0.0, cosine([]float32{0, 0}, []float32{1, 2}))
	assert.InDelta(t, 1.0, cosine([]float32{1, 2}, []float32{2, 4}), 1e-9)
}

type countingRecorder struct {
	mu       sync.Mutex
	timings  int
	counters map[string]int64
}

func (c *countingRecorder) RecordTiming(op string, d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.timings++
}

func (c *countingRecorder) Add(counter string, n int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.counters == nil {
		c.counters = map[string]int64{}
	}
	c.counters[counter] += n
}

func TestRetrieve_RecordsTimingsAndFallbacks(t *testing.T) {
	rec := &countingRecorder{}
	emb := &keywordEmbedder{vocab: []string{"venue"}, err: errors.New("down")}
	e := NewEngine(context.Background(), embedding.Static(emb), Options{Recorder: rec}, nil)

	e.Retrieve(context.Background(), "venue", venueDocs(), 3)
	e.Retrieve(context.Background(), "venue", venueDocs(), 3)
	e.Retrieve(context.Background(), "venue", nil, 3)

	assert.Equal(t, 2, rec.timings)
	assert.Equal(t, int64(2), rec.counters[CounterDenseFallback])
}
