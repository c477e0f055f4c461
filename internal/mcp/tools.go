package mcp

import "github.com/mark3labs/mcp-go/mcp"

// handleMessageTool defines the handle_message MCP tool.
var handleMessageTool = mcp.NewTool("handle_message",
	mcp.WithDescription("Send one chat message to the assistant on behalf of a user. The assistant either performs the action (mail, tasks, documents, spreadsheets, calendar, notes) or asks a clarification question with suggested answers."),
	mcp.WithString("user_id",
		mcp.Required(),
		mcp.Description("Stable id of the user; clarification dialogues are kept per user"),
	),
	mcp.WithString("text",
		mcp.Required(),
		mcp.Description("The user's message, or an answer to the previous question"),
	),
)

// cancelPendingTool defines the cancel_pending MCP tool.
var cancelPendingTool = mcp.NewTool("cancel_pending",
	mcp.WithDescription("Abort any running action and discard the open clarification question for a user."),
	mcp.WithString("user_id",
		mcp.Required(),
		mcp.Description("Id of the user whose dialogue should be cancelled"),
	),
)

// listIntentsTool defines the list_intents MCP tool.
var listIntentsTool = mcp.NewTool("list_intents",
	mcp.WithDescription("List the intents the assistant understands, with an example phrasing for each."),
)
