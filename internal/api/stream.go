package api

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/raphaelgruber/eventnexus-go/internal/models"
)

// Stream message types.
const (
	MessageToken = "token"
	MessageDone  = "done"
	MessageError = "error"
)

const (
	streamWriteWait   = 10 * time.Second
	streamRequestWait = 30 * time.Second
)

// StreamMessage is one server frame of /api/ai/rag/stream. Every frame of a
// stream carries the same id.
type StreamMessage struct {
	Type   string             `json:"type"`
	ID     string             `json:"id"`
	Token  string             `json:"token,omitempty"`
	Answer *models.ChatAnswer `json:"answer,omitempty"`
	Error  string             `json:"error,omitempty"`
}

// handleStream upgrades to a websocket, reads one ChatRequest and streams the
// answer as token frames followed by a done frame.
func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response.
		h.logger.Debug("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	id := uuid.NewString()
	logger := h.logger.With("stream_id", id, "request_id", RequestIDFrom(r.Context()))

	send := func(msg StreamMessage) error {
		msg.ID = id
		if err := conn.SetWriteDeadline(time.Now().Add(streamWriteWait)); err != nil {
			return err
		}
		return conn.WriteJSON(msg)
	}

	conn.SetReadLimit(maxBodyBytes)
	_ = conn.SetReadDeadline(time.Now().Add(streamRequestWait))

	var req ChatRequest
	if err := conn.ReadJSON(&req); err != nil {
		logger.Debug("invalid stream request", "error", err)
		_ = send(StreamMessage{Type: MessageError, Error: "invalid request: expected {\"query\": ...}"})
		return
	}
	_ = conn.SetReadDeadline(time.Time{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Any read error after the request means the client is gone.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	ans, err := h.chat.ChatStream(ctx, req.Query, req.Snapshot, func(token string) error {
		return send(StreamMessage{Type: MessageToken, Token: token})
	})
	if err != nil {
		if ctx.Err() != nil {
			logger.Debug("stream client disconnected")
			return
		}
		logger.Error("stream failed", "error", err)
		_ = send(StreamMessage{Type: MessageError, Error: "answer stream failed"})
		return
	}

	if err := send(StreamMessage{Type: MessageDone, Answer: &ans}); err != nil {
		logger.Debug("failed to send done frame", "error", err)
		return
	}
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(streamWriteWait))
}
