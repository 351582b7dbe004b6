// Package mcpserver serves a tool registry over the Model Context Protocol.
package mcpserver

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/strefethen/music-agent-go/internal/logging"
	"github.com/strefethen/music-agent-go/internal/tools"
)

// Source labels MCP calls on tool invocations.
const Source = "mcp"

type Server struct {
	registry *tools.Registry
	mcp      *server.MCPServer
	logger   *zap.Logger
}

// New registers every tool in registry on a fresh MCP server.
func New(registry *tools.Registry, name, version string, logger *zap.Logger) *Server {
	s := &Server{
		registry: registry,
		mcp:      server.NewMCPServer(name, version, server.WithToolCapabilities(false)),
		logger:   logging.Or(logger),
	}
	for _, tool := range registry.List() {
		s.mcp.AddTool(mcp.NewToolWithRawSchema(tool.Name, tool.Description, tool.InputSchema), s.Handler(tool.Name))
	}
	return s
}

// MCP returns the underlying protocol server.
func (s *Server) MCP() *server.MCPServer {
	return s.mcp
}

// Handler returns the protocol handler for one tool. Tool failures become
// error results so the model sees the message; they are never protocol errors.
func (s *Server) Handler(name string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		result, err := s.registry.CallFrom(ctx, Source, name, tools.Args(req.GetArguments()))
		if err != nil {
			s.logger.Warn("tool failed",
				zap.String("tool", name),
				zap.Duration("duration", time.Since(start)),
				zap.Error(err),
			)
			return mcp.NewToolResultError(err.Error()), nil
		}

		text, err := tools.RenderText(result)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		s.logger.Debug("tool completed", zap.String("tool", name), zap.Duration("duration", time.Since(start)))
		return mcp.NewToolResultText(text), nil
	}
}

// ServeStdio blocks serving JSON-RPC on stdin and stdout. Logs must go to
// stderr while this runs.
func (s *Server) ServeStdio() error {
	s.logger.Info("mcp server starting", zap.Int("tools", s.registry.Len()))
	return server.ServeStdio(s.mcp, server.WithErrorLogger(zap.NewStdLog(s.logger)))
}
