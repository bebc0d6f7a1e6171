package tools

import (
	"context"
	"errors"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// AskInput defines the input schema for the ask tool.
type AskInput struct {
	Query string `json:"query" jsonschema:"The question to answer"`
}

// NewAskHandler creates the ask tool handler. Answers are grounded in a
// snapshot built for the call.
func NewAskHandler(deps *Dependencies) mcp.ToolHandlerFor[AskInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input AskInput) (*mcp.CallToolResult, any, error) {
		if strings.TrimSpace(input.Query) == "" {
			return ErrorResult("Query cannot be empty", "Ask a question about events or attendees"), nil, nil
		}

		ans, err := deps.Chat.Chat(ctx, input.Query, nil)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil, nil, err
			}
			deps.logger().Error("ask failed", "error", err)
			return ErrorResult("Failed to answer", "Database may be unavailable"), nil, nil
		}

		queryLog := input.Query
		if len(queryLog) > 30 {
			queryLog = queryLog[:30] + "..."
		}
		deps.logger().Info("ask completed", "query", queryLog, "sources", len(ans.Sources))

		return JSONResult(ans), nil, nil
	}
}

// HealthInput is empty; rag_health takes no arguments.
type HealthInput struct{}

// NewHealthHandler creates the rag_health tool handler.
func NewHealthHandler(deps *Dependencies) mcp.ToolHandlerFor[HealthInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input HealthInput) (*mcp.CallToolResult, any, error) {
		return JSONResult(deps.Chat.Health()), nil, nil
	}
}

// SnapshotSummary counts the records of a snapshot.
type SnapshotSummary struct {
	Events    int `json:"events"`
	Attendees int `json:"attendees"`
	FAQ       int `json:"faq"`
}

// NewSnapshotSummaryHandler creates the snapshot_summary tool handler.
func NewSnapshotSummaryHandler(deps *Dependencies) mcp.ToolHandlerFor[HealthInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input HealthInput) (*mcp.CallToolResult, any, error) {
		snap, err := deps.Chat.Snapshot(ctx)
		if err != nil {
			deps.logger().Error("snapshot failed", "error", err)
			return ErrorResult("Failed to build snapshot", "Database may be unavailable"), nil, nil
		}
		return JSONResult(SnapshotSummary{
			Events:    len(snap.Events),
			Attendees: len(snap.Attendees),
			FAQ:       len(snap.FAQ),
		}), nil, nil
	}
}
