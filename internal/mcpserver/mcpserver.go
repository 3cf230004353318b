// Package mcpserver exposes a chat session as MCP tools so other agents can
// talk to the same persisted conversation.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/ram70099/ChatBot/internal/chat"
	"github.com/ram70099/ChatBot/internal/logger"
)

const (
	ToolSendMessage = "send_message"
	ToolGetHistory  = "get_history"
)

type handlers struct {
	session *chat.Session
}

// New builds an MCP server bound to session.
func New(session *chat.Session, version string) *server.MCPServer {
	h := &handlers{session: session}
	s := server.NewMCPServer("gemini-chat", version, server.WithToolCapabilities(false))

	s.AddTool(mcp.NewTool(ToolSendMessage,
		mcp.WithDescription("Send one message to the assistant. The exchange is appended to the persisted conversation and the reply is returned."),
		mcp.WithString("message", mcp.Required(), mcp.Description("The user message")),
	), h.sendMessage)

	s.AddTool(mcp.NewTool(ToolGetHistory,
		mcp.WithDescription("Return the whole conversation as a JSON array of {user, ai} objects, oldest first."),
	), h.getHistory)

	return s
}

// Serve runs the server over stdin/stdout until the client disconnects.
func Serve(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

func (h *handlers) sendMessage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	msg, err := req.RequireString("message")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	turn, err := h.session.Submit(ctx, msg)
	if errors.Is(err, chat.ErrEmptyInput) {
		return mcp.NewToolResultError("message must not be blank"), nil
	}
	if err != nil {
		return nil, err
	}
	logger.L.Debug("mcp send_message handled", "session", h.session.ID(), "failed", turn.Result.Failed())

	if turn.Result.Failed() {
		return mcp.NewToolResultError(turn.Exchange.AI), nil
	}
	return mcp.NewToolResultText(turn.Exchange.AI), nil
}

func (h *handlers) getHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(h.session.History(), "", "  ")
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(b)), nil
}
