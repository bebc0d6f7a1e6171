// Package server provides the MCP server wrapper with lifecycle management.
package server

import (
	"context"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Name is the implementation name announced during initialize.
const Name = "eventnexus"

const instructions = "EventNexus answers questions about events, attendees and the platform " +
	"from a live data snapshot, and recommends attendees to meet. Use ask for questions, " +
	"recommend_connections for networking and rag_health to see which retrieval backend is active."

// Server wraps the MCP server with dependencies and lifecycle management.
type Server struct {
	mcp    *mcp.Server
	logger *slog.Logger
}

// New creates a new MCP server with the given version and logger.
func New(version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	impl := &mcp.Implementation{
		Name:    Name,
		Version: version,
	}

	mcpServer := mcp.NewServer(impl, &mcp.ServerOptions{Instructions: instructions})

	return &Server{
		mcp:    mcpServer,
		logger: logger,
	}
}

// Run starts the server on stdio transport and blocks until disconnect or context cancellation.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("starting MCP server", "transport", "stdio")
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}

// MCPServer returns the underlying MCP server for tool registration.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

// Setup adds the logging middleware. counter may be nil.
func (s *Server) Setup(counter Counter) {
	s.mcp.AddReceivingMiddleware(LoggingMiddleware(s.logger, MiddlewareOptions{Counter: counter}))
}
