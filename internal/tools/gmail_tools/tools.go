package gmail_tools

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/gmailagent/gmailagent/internal/batch"
	"github.com/gmailagent/gmailagent/internal/gmail"
	"github.com/gmailagent/gmailagent/internal/google"
	"github.com/gmailagent/gmailagent/internal/server"
	"github.com/gmailagent/gmailagent/internal/tools/common"
)

// getSession returns the cached Gmail session for the account, opening one on
// first use. Authorization problems come back as instructions for the user:
// the server cannot run a browser consent flow, so the account has to be
// authorized from a terminal.
func getSession(sc *server.ServerContext, account string) (*gmail.Session, error) {
	sess, err := sc.Session(account)
	if err == nil {
		return sess, nil
	}

	if errors.Is(err, google.ErrConsentRequired) {
		return nil, fmt.Errorf(`Account "%s" is not authorized. To authorize access:

1. Run this in a terminal on the machine where the server runs:
   gmailagent accounts --auth %s

2. Sign in with your Google account and grant Gmail access
3. Retry the tool call

Note: You only need to authorize once. The token is refreshed automatically.`, account, account)
	}
	return nil, fmt.Errorf("failed to open Gmail session for account %s: %w", account, err)
}

// accountOption is the account argument every Gmail tool accepts. Tools
// without it would always operate on the default account.
func accountOption() mcp.ToolOption {
	return mcp.WithString("account",
		mcp.Description("Configured account name; omit for the default account"),
	)
}

// RegisterGmailTools registers all Gmail-related tools with the MCP server.
// With readOnly set, tools that modify the mailbox are not registered at all.
func RegisterGmailTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	if err := RegisterMessageTools(s, sc, readOnly); err != nil {
		return fmt.Errorf("failed to register message tools: %w", err)
	}

	if err := RegisterLabelTools(s, sc, readOnly); err != nil {
		return fmt.Errorf("failed to register label tools: %w", err)
	}

	if err := RegisterFilterTools(s, sc, readOnly); err != nil {
		return fmt.Errorf("failed to register filter tools: %w", err)
	}

	// Attachment tools never modify the mailbox
	if err := RegisterAttachmentTools(s, sc); err != nil {
		return fmt.Errorf("failed to register attachment tools: %w", err)
	}

	if err := RegisterEmailTools(s, sc, readOnly); err != nil {
		return fmt.Errorf("failed to register email tools: %w", err)
	}

	return nil
}

// RegisterMessageTools registers message search and mailbox maintenance tools
func RegisterMessageTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	listMessagesTool := mcp.NewTool("gmail_list_messages",
		mcp.WithDescription("List Gmail messages matching a search query, newest first"),
		accountOption(),
		mcp.WithString("query",
			mcp.Description("Gmail search query (e.g., 'is:unread from:github.com'). Defaults to 'label:INBOX'."),
		),
		mcp.WithNumber("maxResults",
			mcp.Description("Cap on returned messages (default 25)"),
		),
	)

	s.AddTool(listMessagesTool, common.InstrumentedToolHandlerWithService(
		"gmail_list_messages", "gmail", "messages.list", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListMessages(ctx, request, sc)
		}))
	readMessageTool := mcp.NewTool("gmail_read_message",
		mcp.WithDescription("Read a single Gmail message: headers and plain-text body"),
		accountOption(),
		mcp.WithString("messageId",
			mcp.Required(),
			mcp.Description("Message ID as reported by gmail_list_messages"),
		),
	)

	s.AddTool(readMessageTool, common.InstrumentedToolHandlerWithService(
		"gmail_read_message", "gmail", "messages.get", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleReadMessage(ctx, request, sc)
		}))

	// Write tools are only registered when write operations are enabled
	if !readOnly {
		// Trash messages tool (supports single or multiple messages)
		trashMessagesTool := mcp.NewTool("gmail_trash_messages",
			mcp.WithDescription("Move one or more Gmail messages to the trash"),
			accountOption(),
			mcp.WithString("messageIds",
				mcp.Required(),
				mcp.Description("A message ID or an array of message IDs to trash"),
			),
		)

		s.AddTool(trashMessagesTool, common.InstrumentedToolHandlerWithService(
			"gmail_trash_messages", "gmail", "messages.trash", sc,
			func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				return handleTrashMessages(ctx, request, sc)
			}))
		untrashMessagesTool := mcp.NewTool("gmail_untrash_messages",
			mcp.WithDescription("Restore one or more Gmail messages from the trash"),
			accountOption(),
			mcp.WithString("messageIds",
				mcp.Required(),
				mcp.Description("A message ID or an array of message IDs to restore"),
			),
		)

		s.AddTool(untrashMessagesTool, common.InstrumentedToolHandlerWithService(
			"gmail_untrash_messages", "gmail", "messages.untrash", sc,
			func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				return handleUntrashMessages(ctx, request, sc)
			}))
		archiveMessagesTool := mcp.NewTool("gmail_archive_messages",
			mcp.WithDescription("Archive one or more Gmail messages by removing them from the inbox"),
			accountOption(),
			mcp.WithString("messageIds",
				mcp.Required(),
				mcp.Description("A message ID or an array of message IDs to archive"),
			),
			mcp.WithBoolean("markAsRead",
				mcp.Description("Also mark the messages as read (default: false)"),
			),
		)

		s.AddTool(archiveMessagesTool, common.InstrumentedToolHandlerWithService(
			"gmail_archive_messages", "gmail", "messages.archive", sc,
			func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				return handleArchiveMessages(ctx, request, sc)
			}))
		moveMessagesTool := mcp.NewTool("gmail_move_messages",
			mcp.WithDescription("Apply a label to one or more Gmail messages and remove them from the inbox"),
			accountOption(),
			mcp.WithString("messageIds",
				mcp.Required(),
				mcp.Description("A message ID or an array of message IDs to move"),
			),
			mcp.WithString("label",
				mcp.Required(),
				mcp.Description("Target label, matched by ID first, then by name case-insensitively"),
			),
			mcp.WithBoolean("createLabel",
				mcp.Description("Create the label when it does not exist (default: false)"),
			),
			mcp.WithBoolean("markAsRead",
				mcp.Description("Also mark the messages as read (default: false)"),
			),
		)

		s.AddTool(moveMessagesTool, common.InstrumentedToolHandlerWithService(
			"gmail_move_messages", "gmail", "messages.move", sc,
			func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				return handleMoveMessages(ctx, request, sc)
			}))
		cleanupLabelTool := mcp.NewTool("gmail_cleanup_label",
			mcp.WithDescription("Move every message under a label that is older than a cutoff to the trash"),
			accountOption(),
			mcp.WithString("label",
				mcp.Required(),
				mcp.Description("Label whose old messages should be trashed"),
			),
			mcp.WithNumber("olderThanDays",
				mcp.Description("Age threshold in days (default: 30)"),
			),
		)

		s.AddTool(cleanupLabelTool, common.InstrumentedToolHandlerWithService(
			"gmail_cleanup_label", "gmail", "messages.cleanup", sc,
			func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				return handleCleanupLabel(ctx, request, sc)
			}))
	}

	return nil
}

func handleListMessages(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.GetAccountFromArgs(args)

	query := "label:INBOX"
	if queryVal, ok := args["query"].(string); ok && queryVal != "" {
		query = queryVal
	}

	maxResults := int64(25)
	if maxResultsVal, ok := args["maxResults"].(float64); ok && maxResultsVal > 0 {
		maxResults = int64(maxResultsVal)
	}

	sess, err := getSession(sc, account)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	messages, err := sess.Search(ctx, query, maxResults)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list messages: %v", err)), nil
	}

	if len(messages) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No messages found for query %q.", query)), nil
	}

	var result strings.Builder
	result.WriteString(fmt.Sprintf("Messages matching %q (%d):\n\n", query, len(messages)))
	for i, msg := range messages {
		result.WriteString(fmt.Sprintf("%d. %s\n", i+1, msg.Subject))
		result.WriteString(fmt.Sprintf("   From: %s\n", msg.From))
		result.WriteString(fmt.Sprintf("   Date: %s\n", msg.Date))
		result.WriteString(fmt.Sprintf("   ID: %s (thread %s)\n", msg.ID, msg.ThreadID))
		if msg.Snippet != "" {
			result.WriteString(fmt.Sprintf("   Snippet: %s\n", msg.Snippet))
		}
		result.WriteString("\n")
	}

	return mcp.NewToolResultText(result.String()), nil
}

func handleReadMessage(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.GetAccountFromArgs(args)

	messageID, ok := args["messageId"].(string)
	if !ok || messageID == "" {
		return mcp.NewToolResultError("messageId is required"), nil
	}

	sess, err := getSession(sc, account)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	detail, err := sess.Read(ctx, messageID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to read message: %v", err)), nil
	}

	var result strings.Builder
	result.WriteString(fmt.Sprintf("Subject: %s\n", detail.Subject))
	result.WriteString(fmt.Sprintf("From: %s\n", detail.From))
	if detail.ReplyTo != "" {
		result.WriteString(fmt.Sprintf("Reply-To: %s\n", detail.ReplyTo))
	}
	result.WriteString(fmt.Sprintf("Date: %s\n", detail.Date))
	result.WriteString(fmt.Sprintf("Labels: %s\n", strings.Join(detail.Labels, ", ")))
	result.WriteString(fmt.Sprintf("ID: %s (thread %s)\n\n", detail.ID, detail.ThreadID))
	result.WriteString(detail.Body)

	return mcp.NewToolResultText(result.String()), nil
}

func handleTrashMessages(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.GetAccountFromArgs(args)

	// Parse messageIds - can be string or array
	messageIDs, err := batch.IDsFromArg(args["messageIds"], "messageIds")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	sess, err := getSession(sc, account)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	results := sess.TrashMessages(ctx, messageIDs)
	return mcp.NewToolResultText(batch.Report(results)), nil
}

func handleUntrashMessages(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.GetAccountFromArgs(args)

	messageIDs, err := batch.IDsFromArg(args["messageIds"], "messageIds")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	sess, err := getSession(sc, account)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	results := sess.UntrashMessages(ctx, messageIDs)
	return mcp.NewToolResultText(batch.Report(results)), nil
}

func handleArchiveMessages(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.GetAccountFromArgs(args)

	messageIDs, err := batch.IDsFromArg(args["messageIds"], "messageIds")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	markAsRead := false
	if markVal, ok := args["markAsRead"].(bool); ok {
		markAsRead = markVal
	}

	sess, err := getSession(sc, account)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := sess.Archive(ctx, messageIDs, markAsRead); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to archive messages: %v", err)), nil
	}

	result := fmt.Sprintf("Archived %d messages", len(messageIDs))
	if markAsRead {
		result += " and marked them as read"
	}
	return mcp.NewToolResultText(result), nil
}

func handleMoveMessages(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.GetAccountFromArgs(args)

	messageIDs, err := batch.IDsFromArg(args["messageIds"], "messageIds")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	labelArg, ok := args["label"].(string)
	if !ok || labelArg == "" {
		return mcp.NewToolResultError("label is required"), nil
	}

	createLabel := false
	if createVal, ok := args["createLabel"].(bool); ok {
		createLabel = createVal
	}
	markAsRead := false
	if markVal, ok := args["markAsRead"].(bool); ok {
		markAsRead = markVal
	}

	sess, err := getSession(sc, account)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	labelID, err := sess.EnsureLabel(ctx, labelArg, createLabel)
	if err != nil {
		var notFound *gmail.LabelNotFoundError
		if errors.As(err, &notFound) {
			return mcp.NewToolResultError(fmt.Sprintf("Label not found: %q. Pass createLabel=true to create it, or list labels with gmail_list_labels.", labelArg)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("Failed to resolve label: %v", err)), nil
	}

	if err := sess.MoveToLabel(ctx, messageIDs, labelID, markAsRead); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to move messages: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Moved %d messages to label %q", len(messageIDs), labelArg)), nil
}

func handleCleanupLabel(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.GetAccountFromArgs(args)

	label, ok := args["label"].(string)
	if !ok || label == "" {
		return mcp.NewToolResultError("label is required"), nil
	}

	days := 30
	if daysVal, ok := args["olderThanDays"].(float64); ok && daysVal > 0 {
		days = int(daysVal)
	}

	sess, err := getSession(sc, account)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	query := gmail.CleanupQuery(label, days, time.Now())
	ids, err := sess.SearchIDs(ctx, query)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to search label %q: %v", label, err)), nil
	}
	if len(ids) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No messages in %q older than %d days.", label, days)), nil
	}

	results := sess.TrashAll(ctx, ids)
	trashed := 0
	failed := 0
	for _, r := range results {
		if r.Failed() {
			failed++
		} else {
			trashed++
		}
	}

	result := fmt.Sprintf("Trashed %d messages from %q older than %d days", trashed, label, days)
	if failed > 0 {
		result += fmt.Sprintf(" (%d failed)", failed)
	}
	return mcp.NewToolResultText(result), nil
}
