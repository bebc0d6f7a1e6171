package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// maxArgLogLen is the maximum length for logged arguments before truncation.
const maxArgLogLen = 200

// DefaultSlowThreshold is the duration above which requests are logged at
// WARN level. Answers may wait on snapshot reads and generation, so it is
// generous.
const DefaultSlowThreshold = 2 * time.Second

// Counter names reported by the middleware.
const (
	CounterToolCalls  = "mcp_tool_calls"
	CounterToolErrors = "mcp_tool_errors"
)

// Counter receives call counts. *metrics.Collector satisfies it.
type Counter interface {
	Add(counter string, n int64)
}

// MiddlewareOptions configures LoggingMiddleware.
type MiddlewareOptions struct {
	// SlowThreshold <= 0 uses DefaultSlowThreshold.
	SlowThreshold time.Duration
	// Counter is optional.
	Counter Counter
}

// LoggingMiddleware returns middleware that logs every request with timing.
// Tool calls are logged with the tool name and counted; a tool result
// flagged as an error counts as a tool error even though the request
// itself succeeded.
func LoggingMiddleware(logger *slog.Logger, opts MiddlewareOptions) mcp.Middleware {
	slow := opts.SlowThreshold
	if slow <= 0 {
		slow = DefaultSlowThreshold
	}
	return func(next mcp.MethodHandler) mcp.MethodHandler {
		return func(ctx context.Context, method string, req mcp.Request) (mcp.Result, error) {
			start := time.Now()
			result, err := next(ctx, method, req)
			duration := time.Since(start)

			attrs := []any{
				"method", method,
				"duration_ms", duration.Milliseconds(),
			}

			tool, isCall := toolName(req)
			if isCall {
				attrs = append(attrs, "tool", tool)
				count(opts.Counter, CounterToolCalls)
			} else if params := formatParams(req); params != "" {
				attrs = append(attrs, "params", truncate(params, maxArgLogLen))
			}

			toolErr := false
			if r, ok := result.(*mcp.CallToolResult); ok && r != nil && r.IsError {
				toolErr = true
				count(opts.Counter, CounterToolErrors)
			}

			switch {
			case err != nil:
				attrs = append(attrs, "error", err.Error())
				logger.Error("request failed", attrs...)
			case toolErr:
				logger.Warn("tool returned error", attrs...)
			case duration > slow:
				logger.Warn("slow request", attrs...)
			default:
				logger.Debug("request completed", attrs...)
			}

			return result, err
		}
	}
}

// toolName returns the tool of a tools/call request.
func toolName(req mcp.Request) (string, bool) {
	if req == nil {
		return "", false
	}
	p, ok := req.GetParams().(*mcp.CallToolParamsRaw)
	if !ok || p == nil {
		return "", false
	}
	return p.Name, true
}

func count(c Counter, name string) {
	if c != nil {
		c.Add(name, 1)
	}
}

// formatParams extracts and formats request parameters for logging.
func formatParams(req mcp.Request) string {
	if req == nil {
		return ""
	}
	params := req.GetParams()
	if params == nil {
		return ""
	}
	return fmt.Sprintf("%+v", params)
}

// truncate shortens a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen < 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
