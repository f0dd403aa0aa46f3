// Package mcpadapter exposes the dialogue service as MCP tools.
package mcpadapter

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kirillkom/dialogue-qa/internal/core/ports"
)

const (
	serverName       = "dialogue-qa"
	defaultSessionID = "mcp"
)

// NewServer registers the ask and history tools.
func NewServer(dialogue ports.DialogueService, version string) *server.MCPServer {
	s := server.NewMCPServer(
		serverName,
		version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithInstructions("Answers questions from the indexed document corpus and keeps per-session conversational context."),
	)

	s.AddTool(
		mcp.NewTool("ask",
			mcp.WithDescription("Answer a question from the document corpus. Follow-up questions in the same session may use pronouns."),
			mcp.WithString("question", mcp.Required(), mcp.Description("Natural-language question")),
			mcp.WithString("session_id", mcp.Description("Conversation id; turns in one session share context")),
		),
		HandleAsk(dialogue),
	)
	s.AddTool(
		mcp.NewTool("history",
			mcp.WithDescription("List the turns recorded for a session"),
			mcp.WithString("session_id", mcp.Required(), mcp.Description("Conversation id")),
		),
		HandleHistory(dialogue),
	)
	return s
}

func HandleAsk(dialogue ports.DialogueService) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		question, err := request.RequireString("question")
		if err != nil || strings.TrimSpace(question) == "" {
			return mcp.NewToolResultError("question is required"), nil
		}
		sessionID := strings.TrimSpace(request.GetString("session_id", ""))
		if sessionID == "" {
			sessionID = defaultSessionID
		}

		result, err := dialogue.Respond(ctx, sessionID, question)
		if err != nil {
			return mcp.NewToolResultErrorFromErr("answer failed", err), nil
		}

		text := result.Turn.Answer
		if result.Turn.SourceTitle != "" {
			text += "\n\nSource: " + result.Turn.SourceTitle
		}
		return mcp.NewToolResultText(text), nil
	}
}

func HandleHistory(dialogue ports.DialogueService) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sessionID, err := request.RequireString("session_id")
		if err != nil {
			return mcp.NewToolResultError("session_id is required"), nil
		}
		turns, err := dialogue.History(ctx, sessionID)
		if err != nil {
			return mcp.NewToolResultErrorFromErr("history failed", err), nil
		}
		if len(turns) == 0 {
			return mcp.NewToolResultText("no turns recorded"), nil
		}

		var b strings.Builder
		for i, turn := range turns {
			fmt.Fprintf(&b, "%d. Q: %s\n   A: %s\n", i+1, turn.Query, turn.Answer)
		}
		return mcp.NewToolResultText(strings.TrimRight(b.String(), "\n")), nil
	}
}
