// Package client provides an HTTP client for the EventNexus server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/raphaelgruber/eventnexus-go/internal/api"
	"github.com/raphaelgruber/eventnexus-go/internal/metrics"
	"github.com/raphaelgruber/eventnexus-go/internal/models"
)

// DefaultEndpoint is used when neither an endpoint nor EVENTNEXUS_SERVER_URL is set.
const DefaultEndpoint = "http://localhost:8080"

// Client is an HTTP client for the EventNexus server.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// New creates a new client.
// If endpoint is empty, uses EVENTNEXUS_SERVER_URL env var or defaults to localhost:8080.
// Timeout can be configured via EVENTNEXUS_CLIENT_TIMEOUT env var (default 2m for generated answers).
func New(endpoint string) *Client {
	if endpoint == "" {
		endpoint = os.Getenv("EVENTNEXUS_SERVER_URL")
	}
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}

	timeout := 2 * time.Minute
	if t := os.Getenv("EVENTNEXUS_CLIENT_TIMEOUT"); t != "" {
		if d, err := time.ParseDuration(t); err == nil {
			timeout = d
		}
	}

	return &Client{
		endpoint: strings.TrimSuffix(endpoint, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Endpoint returns the server base URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// do sends a request with an optional JSON body and decodes a JSON result.
func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	var reader io.Reader
	if body != nil {
		reqBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(reqBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr api.ErrorResponse
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("server error: %s - %s", resp.Status, apiErr.Error)
		}
		return fmt.Errorf("server error: %s - %s", resp.Status, strings.TrimSpace(string(respBody)))
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}

// Health returns the retrieval health probe.
func (c *Client) Health(ctx context.Context) (*models.Health, error) {
	var h models.Health
	if err := c.do(ctx, http.MethodGet, "/api/ai/health", nil, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// Recommend asks for connection recommendations for user among attendees.
// limit <= 0 uses the server default.
func (c *Client) Recommend(ctx context.Context, user models.Profile, attendees []models.Profile, limit int) ([]models.Recommendation, error) {
	var recs []models.Recommendation
	err := c.do(ctx, http.MethodPost, "/api/ai/networking/recommendations", api.RecommendationsRequest{
		User:      &user,
		Attendees: attendees,
		Limit:     limit,
	}, &recs)
	if err != nil {
		return nil, err
	}
	return recs, nil
}

// Snapshot fetches the server's current platform snapshot.
func (c *Client) Snapshot(ctx context.Context) (*models.Snapshot, error) {
	var snap models.Snapshot
	if err := c.do(ctx, http.MethodGet, "/api/ai/rag/snapshot", nil, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// Ask answers query. A nil snapshot lets the server build one.
func (c *Client) Ask(ctx context.Context, query string, snapshot *models.Snapshot) (*models.ChatAnswer, error) {
	var ans models.ChatAnswer
	if err := c.do(ctx, http.MethodPost, "/api/ai/rag/chat", api.ChatRequest{Query: query, Snapshot: snapshot}, &ans); err != nil {
		return nil, err
	}
	return &ans, nil
}

// Stats returns the server's runtime statistics.
func (c *Client) Stats(ctx context.Context) (*metrics.Snapshot, error) {
	var stats metrics.Snapshot
	if err := c.do(ctx, http.MethodGet, "/api/ai/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// AskStream answers query over the websocket stream. The onToken callback is
// invoked for each token; return an error from onToken to abort. The final
// answer carries sources and confidence.
func (c *Client) AskStream(
	ctx context.Context,
	query string,
	snapshot *models.Snapshot,
	onToken func(token string) error,
) (*models.ChatAnswer, error) {
	wsEndpoint := c.endpoint
	wsEndpoint = strings.Replace(wsEndpoint, "http://", "ws://", 1)
	wsEndpoint = strings.Replace(wsEndpoint, "https://", "wss://", 1)

	u, err := url.Parse(wsEndpoint + "/api/ai/rag/stream")
	if err != nil {
		return nil, fmt.Errorf("parse endpoint: %w", err)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("websocket connect: %w", err)
	}

	// Track connection state for proper cleanup
	var mu sync.Mutex
	closed := false
	closeConn := func() {
		mu.Lock()
		defer mu.Unlock()
		if !closed {
			closed = true
			conn.Close()
		}
	}
	defer closeConn()

	if err := conn.WriteJSON(api.ChatRequest{Query: query, Snapshot: snapshot}); err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}

	// Handle context cancellation in a separate goroutine
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			closeConn()
		case <-done:
		}
	}()

	for {
		var msg api.StreamMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("read message: %w", err)
		}

		switch msg.Type {
		case api.MessageToken:
			if msg.Token != "" {
				if err := onToken(msg.Token); err != nil {
					return nil, err
				}
			}

		case api.MessageDone:
			if msg.Answer == nil {
				return nil, fmt.Errorf("stream ended without an answer")
			}
			return msg.Answer, nil

		case api.MessageError:
			return nil, fmt.Errorf("stream error: %s", msg.Error)

		default:
			// Ignore unknown message types
			continue
		}
	}
}
