package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ziadkadry99/deskmate/internal/assistant"
)

// handleMessage forwards one message to the assistant.
func (s *Server) handleMessage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, err := request.RequireString("user_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: user_id"), nil
	}
	text, err := request.RequireString("text")
	if err != nil || strings.TrimSpace(text) == "" {
		return mcp.NewToolResultError("missing required parameter: text"), nil
	}

	reply := s.engine.HandleMessage(ctx, userID, text)
	if reply.Silent {
		return mcp.NewToolResultText("The request was cancelled before it finished; no reply was produced."), nil
	}
	if reply.Result != nil && !reply.Result.Success {
		return mcp.NewToolResultError(formatReply(reply)), nil
	}
	return mcp.NewToolResultText(formatReply(reply)), nil
}

// handleCancelPending discards a user's open dialogue.
func (s *Server) handleCancelPending(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, err := request.RequireString("user_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: user_id"), nil
	}
	if err := s.engine.CancelPending(ctx, userID); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("cancel failed: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Cancelled any pending request for %s.", userID)), nil
}

// handleListIntents describes the intent catalog.
func (s *Server) handleListIntents(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var sb strings.Builder
	sb.WriteString("Supported intents:\n")
	for _, d := range s.registry.Actionable() {
		fmt.Fprintf(&sb, "- %s: %s (e.g. %q)\n", d.Tag, d.Summary, d.Example)
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// formatReply renders a reply with its suggestions as numbered options
// followed by the intent and dialogue state for the calling agent.
func formatReply(r assistant.Reply) string {
	var sb strings.Builder
	sb.WriteString(r.Text)
	if len(r.SuggestedReplies) > 0 {
		sb.WriteString("\n\nSuggested replies:")
		for i, s := range r.SuggestedReplies {
			fmt.Fprintf(&sb, "\n%d. %s", i+1, s)
		}
	}
	fmt.Fprintf(&sb, "\n\n[intent: %s, state: %s]", r.Intent, r.State)
	return sb.String()
}
