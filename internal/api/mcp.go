package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kalambet/chathub/internal/archive"
)

// Archive abstracts the conversation archive for the MCP layer.
type Archive interface {
	Save(sc archive.SavedConversation) (archive.SavedConversation, string, error)
	List(ctx context.Context) ([]archive.SavedConversation, error)
}

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Archive Archive
	Logger  *slog.Logger
}

// The save tool's description doubles as the instruction sheet for the
// calling model: without it, clients tend to truncate long transcripts.
const saveConversationDescription = `Save the current conversation to the team archive.

Use this tool when the user asks to save, archive, or export the conversation.

CRITICAL REQUIREMENTS FOR MESSAGES:
- Include the COMPLETE, VERBATIM, FULL text of EVERY message
- Do NOT summarize, truncate, abbreviate, or paraphrase any message content
- Do NOT use ellipsis (...) or "[continued]" or any other shortening
- Copy the EXACT text of each message, no matter how long
- Include ALL messages from the entire conversation, from the very first to the last

Also include:
- A descriptive title summarizing the conversation topic
- A 2-3 sentence summary of what was discussed
- Any relevant tags for categorization
- Key decisions or action items discussed

The conversation will be saved to the team's shared archive where it can be
searched and referenced later. The full verbatim content is essential for
accurate record-keeping and future reference.`

// NewMCPServer creates an MCP server with the chathub tools and
// resources registered.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	s := server.NewMCPServer(
		"chathub",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("chathub — shared archive for saved chat conversations."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("save_conversation",
			mcp.WithDescription(saveConversationDescription),
			mcp.WithString("title", mcp.Description("A descriptive title for the conversation"), mcp.Required()),
			mcp.WithString("summary", mcp.Description("A 2-3 sentence summary of what was discussed and any conclusions reached"), mcp.Required()),
			mcp.WithString("messages", mcp.Description("JSON array of {role, content} objects holding every message of the conversation, verbatim"), mcp.Required()),
			mcp.WithArray("tags", mcp.Description("Optional tags to categorize the conversation (e.g. 'engineering', 'design', 'planning')")),
			mcp.WithArray("key_points", mcp.Description("Optional list of key decisions, action items, or important points from the conversation")),
		),
		mcpSaveConversation(deps),
	)

	s.AddTool(
		mcp.NewTool("list_saved",
			mcp.WithDescription("List recently saved conversations from the archive."),
			mcp.WithNumber("limit", mcp.Description("Maximum number of conversations to return (default 10)")),
		),
		mcpListSaved(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"archive://recent",
			"Recent Saves",
			mcp.WithResourceDescription("Summaries of the 10 most recently saved conversations"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceRecent(deps),
	)

	return s
}

// saveSummary is the JSON shape returned to the calling client.
type saveSummary struct {
	Status       string `json:"status"`
	ID           string `json:"id"`
	Title        string `json:"title"`
	MessageCount int    `json:"message_count"`
	SavedAt      string `json:"saved_at"`
	FilePath     string `json:"file_path"`
}

func mcpSaveConversation(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		title, err := req.RequireString("title")
		if err != nil {
			return mcpError("title is required"), nil
		}
		summary, err := req.RequireString("summary")
		if err != nil {
			return mcpError("summary is required"), nil
		}
		messagesJSON, err := req.RequireString("messages")
		if err != nil {
			return mcpError("messages is required"), nil
		}

		var messages []archive.Message
		if err := json.Unmarshal([]byte(messagesJSON), &messages); err != nil {
			return mcpError(fmt.Sprintf("invalid messages JSON: %v", err)), nil
		}
		if len(messages) == 0 {
			return mcpError("messages must contain at least one message"), nil
		}

		tags := req.GetStringSlice("tags", nil)
		keyPoints := req.GetStringSlice("key_points", nil)

		saved, path, err := deps.Archive.Save(archive.SavedConversation{
			Title:     title,
			Summary:   summary,
			Messages:  messages,
			Tags:      tags,
			KeyPoints: keyPoints,
		})
		if err != nil {
			return mcpError(fmt.Sprintf("failed to save conversation: %v", err)), nil
		}

		deps.Logger.Info("conversation saved",
			"id", saved.ID,
			"title", saved.Title,
			"messages", saved.MessageCount,
			"tags", saved.Tags,
			"file", path,
		)

		b, err := json.Marshal(saveSummary{
			Status:       "success",
			ID:           saved.ID,
			Title:        saved.Title,
			MessageCount: saved.MessageCount,
			SavedAt:      saved.SavedAt.Format(time.RFC3339),
			FilePath:     path,
		})
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal result: %v", err)), nil
		}

		return mcpText(string(b)), nil
	}
}

func mcpListSaved(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		limit := req.GetInt("limit", 10)
		if limit <= 0 {
			limit = 10
		}
		if limit > 50 {
			limit = 50
		}

		conversations, err := deps.Archive.List(ctx)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to list archive: %v", err)), nil
		}
		if len(conversations) > limit {
			conversations = conversations[:limit]
		}

		summaries := make([]conversationSummary, len(conversations))
		for i, sc := range conversations {
			summaries[i] = summarize(sc)
		}

		b, err := json.Marshal(summaries)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal results: %v", err)), nil
		}

		return mcpText(string(b)), nil
	}
}

// conversationSummary is a listing entry without message bodies.
type conversationSummary struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Summary      string   `json:"summary"`
	Tags         []string `json:"tags,omitempty"`
	SavedAt      string   `json:"saved_at"`
	MessageCount int      `json:"message_count"`
}

func summarize(sc archive.SavedConversation) conversationSummary {
	summary := sc.Summary
	if utf8.RuneCountInString(summary) > 200 {
		runes := []rune(summary)
		summary = string(runes[:200]) + "..."
	}
	return conversationSummary{
		ID:           sc.ID,
		Title:        sc.Title,
		Summary:      summary,
		Tags:         sc.Tags,
		SavedAt:      sc.SavedAt.Format(time.RFC3339),
		MessageCount: sc.MessageCount,
	}
}

func mcpResourceRecent(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		conversations, err := deps.Archive.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list archive: %w", err)
		}
		if len(conversations) > 10 {
			conversations = conversations[:10]
		}

		summaries := make([]conversationSummary, len(conversations))
		for i, sc := range conversations {
			summaries[i] = summarize(sc)
		}

		b, err := json.Marshal(summaries)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal summaries: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
