// Package mcp exposes the assistant to agents as MCP tools over stdio.
package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/server"

	"github.com/ziadkadry99/deskmate/internal/assistant"
	"github.com/ziadkadry99/deskmate/internal/intent"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Engine is the part of the assistant the tools call.
type Engine interface {
	HandleMessage(ctx context.Context, userID, text string) assistant.Reply
	CancelPending(ctx context.Context, userID string) error
}

// Server wraps an MCP server that exposes the assistant's tools.
type Server struct {
	engine   Engine
	registry *intent.Registry
	mcp      *server.MCPServer
}

// NewServer creates a new MCP server over engine. A nil registry lists
// the default intents.
func NewServer(engine Engine, registry *intent.Registry) *Server {
	if registry == nil {
		registry = intent.DefaultRegistry()
	}
	s := &Server{
		engine:   engine,
		registry: registry,
	}

	s.mcp = server.NewMCPServer(
		"deskmate",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(handleMessageTool, s.handleMessage)
	s.mcp.AddTool(cancelPendingTool, s.handleCancelPending)
	s.mcp.AddTool(listIntentsTool, s.handleListIntents)
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
