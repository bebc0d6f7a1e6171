package tools

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// RegisterAll registers all tools with the MCP server.
// This is called from main after server creation but before Run().
func RegisterAll(server *mcp.Server, deps *Dependencies) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "ping",
		Description: "Test tool - responds with pong or echoes input",
	}, NewPingHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "recommend_connections",
		Description: "Recommend attendees for a user to meet, with a reason and a conversation starter for each",
	}, NewRecommendHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question about events, attendees or the platform from the current data snapshot",
	}, NewAskHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "rag_health",
		Description: "Report which retrieval backend (dense or sparse) is active",
	}, NewHealthHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "snapshot_summary",
		Description: "Summarize the current data snapshot: event, attendee and FAQ counts",
	}, NewSnapshotSummaryHandler(deps))
}
