// Package api serves the EventNexus engine over HTTP: networking
// recommendations, snapshot export, grounded chat and a websocket answer
// stream.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/raphaelgruber/eventnexus-go/internal/metrics"
	"github.com/raphaelgruber/eventnexus-go/internal/models"
	"github.com/raphaelgruber/eventnexus-go/internal/service"
)

// maxBodyBytes bounds request bodies; snapshots can be large.
const maxBodyBytes = 8 << 20

// RecommendationsRequest is the body of POST /api/ai/networking/recommendations.
type RecommendationsRequest struct {
	User      *models.Profile  `json:"user"`
	Attendees []models.Profile `json:"attendees"`
	Limit     int              `json:"limit"`
}

// ChatRequest is the body of POST /api/ai/rag/chat and the first message of
// a stream. Snapshot is optional.
type ChatRequest struct {
	Query    string           `json:"query"`
	Snapshot *models.Snapshot `json:"snapshot,omitempty"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Options configures the HTTP handler.
type Options struct {
	CORSOrigins []string
	// RateLimitPerSecond <= 0 disables rate limiting.
	RateLimitPerSecond float64
	RateLimitBurst     int
	// ServiceName names the OpenTelemetry server spans.
	ServiceName string
}

// Handler holds the services behind the HTTP routes.
type Handler struct {
	networking *service.NetworkingService
	chat       *service.ChatService
	metrics    *metrics.Collector
	logger     *slog.Logger
	upgrader   websocket.Upgrader
}

// NewHandler creates the route handler. m may be nil.
func NewHandler(networking *service.NetworkingService, chat *service.ChatService, m *metrics.Collector, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		networking: networking,
		chat:       chat,
		metrics:    m,
		logger:     logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Origin checks are left to the CORS middleware.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Routes registers every endpoint on a new mux.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", h.handleLiveness)
	mux.HandleFunc("GET /api/ai/health", h.handleHealth)
	mux.HandleFunc("POST /api/ai/networking/recommendations", h.handleRecommendations)
	mux.HandleFunc("GET /api/ai/rag/snapshot", h.handleSnapshot)
	mux.HandleFunc("POST /api/ai/rag/chat", h.handleChat)
	mux.HandleFunc("GET /api/ai/rag/stream", h.handleStream)
	mux.HandleFunc("GET /api/ai/stats", h.handleStats)
	return mux
}

// Server returns the routes wrapped in the standard middleware stack.
func (h *Handler) Server(opts Options) http.Handler {
	serviceName := opts.ServiceName
	if serviceName == "" {
		serviceName = "eventnexus"
	}
	var limiter *RateLimiter
	if opts.RateLimitPerSecond > 0 {
		limiter = NewRateLimiter(opts.RateLimitPerSecond, opts.RateLimitBurst)
	}
	return Chain(h.Routes(),
		OTel(serviceName),
		RequestID(),
		Logger(h.logger),
		Recover(h.logger),
		CORS(opts.CORSOrigins),
		RateLimit(limiter),
	)
}

func (h *Handler) handleLiveness(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "ok")
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.chat.Health())
}

func (h *Handler) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	var req RecommendationsRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var subject models.Profile
	if req.User != nil {
		subject = *req.User
	}

	recs, err := h.networking.Recommend(r.Context(), subject, req.Attendees, req.Limit)
	if err != nil {
		h.serviceError(w, r, "recommend", err)
		return
	}
	if recs == nil {
		recs = []models.Recommendation{}
	}
	writeJSON(w, http.StatusOK, recs)
}

func (h *Handler) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := h.chat.Snapshot(r.Context())
	if err != nil {
		h.serviceError(w, r, "snapshot", err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ans, err := h.chat.Chat(r.Context(), req.Query, req.Snapshot)
	if err != nil {
		h.serviceError(w, r, "chat", err)
		return
	}
	writeJSON(w, http.StatusOK, ans)
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	if h.metrics == nil {
		writeJSON(w, http.StatusOK, metrics.Snapshot{})
		return
	}
	writeJSON(w, http.StatusOK, h.metrics.Snapshot())
}

func (h *Handler) serviceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := http.StatusInternalServerError
	msg := "internal server error"
	switch {
	case errors.Is(err, service.ErrNoSnapshotSource):
		status, msg = http.StatusServiceUnavailable, err.Error()
	case r.Context().Err() != nil:
		// Client went away; nobody reads the response.
		h.logger.Debug("request canceled", "op", op)
		return
	}
	h.logger.Error(op+" failed", "error", err, "request_id", RequestIDFrom(r.Context()))
	writeError(w, status, msg)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}
