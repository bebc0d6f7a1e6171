package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raphaelgruber/eventnexus-go/internal/metrics"
	"github.com/raphaelgruber/eventnexus-go/internal/models"
	"github.com/raphaelgruber/eventnexus-go/internal/service"
	"github.com/raphaelgruber/eventnexus-go/internal/snapshot"
)

func testSnapshot() models.Snapshot {
	return models.Snapshot{
		Events: []models.Record{{"id": "gocon", "name": "GoCon", "location": "Berlin"}},
		FAQ: []models.Record{
			{"id": "parking", "question": "Is there parking at the venue?", "answer": "Yes, the venue has a parking garage."},
		},
	}
}

func newTestHandler(provider snapshot.Provider) (*Handler, *metrics.Collector) {
	m := metrics.NewCollector()
	h := NewHandler(
		service.NewNetworkingService(nil, 0, m, nil),
		service.NewChatService(service.ChatDeps{Provider: provider, Metrics: m}),
		m,
		nil,
	)
	return h, m
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoints(t *testing.T) {
	h, _ := newTestHandler(nil)
	srv := h.Server(Options{})

	rec := do(t, srv, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok\n", rec.Body.String())

	rec = do(t, srv, http.MethodGet, "/api/ai/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok": true, "rag_backend": "sparse"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
}

func TestRecommendations(t *testing.T) {
	h, _ := newTestHandler(nil)
	srv := h.Server(Options{})

	rec := do(t, srv, http.MethodPost, "/api/ai/networking/recommendations", `{
		"user": {"id": "me", "name": "Maya", "industry": "Fintech", "interests": ["AI"]},
		"attendees": [
			{"id": "me", "name": "Maya"},
			{"id": "a", "name": "Ana", "industry": "Fintech", "interests": ["AI"]},
			{"id": "b", "name": "Bo"}
		],
		"limit": 5
	}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var recs []models.Recommendation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &recs))
	require.Len(t, recs, 2)
	assert.Equal(t, "Ana", recs[0].Name)
	assert.InDelta(t, 0.75, recs[0].Score, 1e-9)
	assert.NotEmpty(t, recs[0].Starter)
	assert.Equal(t, "Bo", recs[1].Name)
}

func TestRecommendations_EmptyBodyFields(t *testing.T) {
	h, _ := newTestHandler(nil)

	rec := do(t, h.Server(Options{}), http.MethodPost, "/api/ai/networking/recommendations", `{}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestBadRequests(t *testing.T) {
	h, _ := newTestHandler(nil)
	srv := h.Server(Options{})

	tests := []struct {
		name string
		path string
		body string
		want string
	}{
		{"empty chat body", "/api/ai/rag/chat", "", "request body is required"},
		{"malformed chat body", "/api/ai/rag/chat", "{", "invalid request body"},
		{"wrong type", "/api/ai/networking/recommendations", `{"limit": "three"}`, "invalid request body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var body ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Contains(t, body.Error, tt.want)
		})
	}
}

func TestChat_SuppliedSnapshot(t *testing.T) {
	h, _ := newTestHandler(nil)

	body, err := json.Marshal(ChatRequest{Query: "parking venue", Snapshot: ptrSnapshot(testSnapshot())})
	require.NoError(t, err)

	rec := do(t, h.Server(Options{}), http.MethodPost, "/api/ai/rag/chat", string(body))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var ans models.ChatAnswer
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ans))
	assert.Equal(t, []string{"faq:parking"}, ans.Sources)
	assert.Greater(t, ans.Confidence, 0.0)
}

func TestChat_FetchedSnapshot(t *testing.T) {
	h, m := newTestHandler(snapshot.Fixed(testSnapshot()))

	rec := do(t, h.Server(Options{}), http.MethodPost, "/api/ai/rag/chat", `{"query": "where is GoCon located in Berlin"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var ans models.ChatAnswer
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ans))
	assert.Equal(t, "event:gocon", ans.Sources[0])

	rec = do(t, h.Server(Options{}), http.MethodGet, "/api/ai/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var stats metrics.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	require.NotNil(t, stats.Chat)
	assert.Equal(t, int64(1), stats.Chat.Count)
	assert.Equal(t, m.Snapshot().Chat.Count, stats.Chat.Count)
}

func TestChat_BlankQuery(t *testing.T) {
	h, _ := newTestHandler(nil)

	rec := do(t, h.Server(Options{}), http.MethodPost, "/api/ai/rag/chat", `{"query": ""}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"answer": "I don't have enough information to answer that yet.", "sources": [], "confidence": 0}`, rec.Body.String())
}

func TestSnapshotEndpoint(t *testing.T) {
	h, _ := newTestHandler(snapshot.Fixed(testSnapshot()))
	rec := do(t, h.Server(Options{}), http.MethodGet, "/api/ai/rag/snapshot", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var snap models.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Len(t, snap.Events, 1)
	assert.Len(t, snap.FAQ, 1)

	h, _ = newTestHandler(nil)
	rec = do(t, h.Server(Options{}), http.MethodGet, "/api/ai/rag/snapshot", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	h, _ := newTestHandler(nil)
	rec := do(t, h.Server(Options{}), http.MethodGet, "/api/ai/rag/chat", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestStream(t *testing.T) {
	h, _ := newTestHandler(nil)
	ts := httptest.NewServer(h.Server(Options{}))
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/ai/rag/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(ChatRequest{Query: "parking venue", Snapshot: ptrSnapshot(testSnapshot())}))

	var token, done StreamMessage
	require.NoError(t, conn.ReadJSON(&token))
	require.NoError(t, conn.ReadJSON(&done))

	assert.Equal(t, MessageToken, token.Type)
	assert.Contains(t, token.Token, "parking garage")
	assert.Equal(t, MessageDone, done.Type)
	assert.Equal(t, token.ID, done.ID)
	require.NotNil(t, done.Answer)
	assert.Equal(t, []string{"faq:parking"}, done.Answer.Sources)
}

func TestStream_InvalidRequest(t *testing.T) {
	h, _ := newTestHandler(nil)
	ts := httptest.NewServer(h.Server(Options{}))
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/ai/rag/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))

	var msg StreamMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, MessageError, msg.Type)
	assert.NotEmpty(t, msg.ID)
}

func ptrSnapshot(s models.Snapshot) *models.Snapshot { return &s }
