package gmail_tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/gmailagent/gmailagent/internal/gmail"
	"github.com/gmailagent/gmailagent/internal/server"
	"github.com/gmailagent/gmailagent/internal/tools/common"
)

// RegisterEmailTools registers sending, replying, and draft tools
func RegisterEmailTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	listDraftsTool := mcp.NewTool("gmail_list_drafts",
		mcp.WithDescription("List Gmail drafts with recipient, subject, and date"),
		accountOption(),
		mcp.WithNumber("maxResults",
			mcp.Description("Cap on returned drafts (default 25)"),
		),
	)

	s.AddTool(listDraftsTool, common.InstrumentedToolHandlerWithService(
		"gmail_list_drafts", "gmail", "drafts.list", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListDrafts(ctx, request, sc)
		}))

	if !readOnly {
		sendEmailTool := mcp.NewTool("gmail_send_email",
			mcp.WithDescription("Compose and send a new email"),
			accountOption(),
			mcp.WithString("to",
				mcp.Required(),
				mcp.Description("Recipient addresses, comma separated"),
			),
			mcp.WithString("subject",
				mcp.Required(),
				mcp.Description("Subject line"),
			),
			mcp.WithString("body",
				mcp.Required(),
				mcp.Description("Plain-text email body"),
			),
			mcp.WithString("cc",
				mcp.Description("CC addresses, comma separated"),
			),
			mcp.WithString("bcc",
				mcp.Description("BCC addresses, comma separated"),
			),
			mcp.WithString("replyTo",
				mcp.Description("Reply-To address"),
			),
			mcp.WithString("attachments",
				mcp.Description("Comma-separated file paths on the server host to attach"),
			),
		)

		s.AddTool(sendEmailTool, common.InstrumentedToolHandlerWithService(
			"gmail_send_email", "gmail", "messages.send", sc,
			func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				return handleSendEmail(ctx, request, sc)
			}))
		replyEmailTool := mcp.NewTool("gmail_reply_email",
			mcp.WithDescription("Reply to a Gmail message in its thread. The recipient, subject, and threading headers are derived from the original message."),
			accountOption(),
			mcp.WithString("messageId",
				mcp.Required(),
				mcp.Description("ID of the message being replied to"),
			),
			mcp.WithString("body",
				mcp.Required(),
				mcp.Description("Plain-text reply body"),
			),
			mcp.WithString("cc",
				mcp.Description("CC addresses, comma separated"),
			),
		)

		s.AddTool(replyEmailTool, common.InstrumentedToolHandlerWithService(
			"gmail_reply_email", "gmail", "messages.reply", sc,
			func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				return handleReplyEmail(ctx, request, sc)
			}))
		createDraftTool := mcp.NewTool("gmail_create_draft",
			mcp.WithDescription("Create a Gmail draft without sending it"),
			accountOption(),
			mcp.WithString("to",
				mcp.Required(),
				mcp.Description("Recipient addresses, comma separated"),
			),
			mcp.WithString("subject",
				mcp.Required(),
				mcp.Description("Subject line"),
			),
			mcp.WithString("body",
				mcp.Required(),
				mcp.Description("Plain-text email body"),
			),
			mcp.WithString("cc",
				mcp.Description("CC addresses, comma separated"),
			),
			mcp.WithString("bcc",
				mcp.Description("BCC addresses, comma separated"),
			),
		)

		s.AddTool(createDraftTool, common.InstrumentedToolHandlerWithService(
			"gmail_create_draft", "gmail", "drafts.create", sc,
			func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				return handleCreateDraft(ctx, request, sc)
			}))
		deleteDraftTool := mcp.NewTool("gmail_delete_draft",
			mcp.WithDescription("Delete a Gmail draft by its ID"),
			accountOption(),
			mcp.WithString("draftId",
				mcp.Required(),
				mcp.Description("Draft ID as reported by gmail_list_drafts"),
			),
		)

		s.AddTool(deleteDraftTool, common.InstrumentedToolHandlerWithService(
			"gmail_delete_draft", "gmail", "drafts.delete", sc,
			func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				return handleDeleteDraft(ctx, request, sc)
			}))
		sendDraftTool := mcp.NewTool("gmail_send_draft",
			mcp.WithDescription("Send an existing Gmail draft"),
			accountOption(),
			mcp.WithString("draftId",
				mcp.Required(),
				mcp.Description("Draft ID as reported by gmail_list_drafts"),
			),
		)

		s.AddTool(sendDraftTool, common.InstrumentedToolHandlerWithService(
			"gmail_send_draft", "gmail", "drafts.send", sc,
			func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				return handleSendDraft(ctx, request, sc)
			}))
	}

	return nil
}

// splitAddressList turns a comma-separated address list into its entries
func splitAddressList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// emailFromArgs assembles an outgoing message from to/subject/body arguments.
// Returns a tool error message instead of a message when a required field is
// missing.
func emailFromArgs(args map[string]interface{}) (*gmail.EmailMessage, string) {
	to, _ := args["to"].(string)
	if to == "" {
		return nil, "to is required"
	}
	subject, _ := args["subject"].(string)
	if subject == "" {
		return nil, "subject is required"
	}
	body, _ := args["body"].(string)
	if body == "" {
		return nil, "body is required"
	}

	msg := &gmail.EmailMessage{
		To:      splitAddressList(to),
		Subject: subject,
		Body:    body,
	}
	if cc, ok := args["cc"].(string); ok {
		msg.Cc = splitAddressList(cc)
	}
	if bcc, ok := args["bcc"].(string); ok {
		msg.Bcc = splitAddressList(bcc)
	}
	if replyTo, ok := args["replyTo"].(string); ok {
		msg.ReplyTo = replyTo
	}
	if attachments, ok := args["attachments"].(string); ok {
		msg.Attachments = splitAddressList(attachments)
	}
	return msg, ""
}

func handleSendEmail(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.GetAccountFromArgs(args)

	msg, errMsg := emailFromArgs(args)
	if errMsg != "" {
		return mcp.NewToolResultError(errMsg), nil
	}

	sess, err := getSession(sc, account)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	sent, err := sess.Send(ctx, msg)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to send email: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Email sent to %s (message ID: %s)", strings.Join(msg.To, ", "), sent.Id)), nil
}

func handleReplyEmail(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.GetAccountFromArgs(args)

	messageID, ok := args["messageId"].(string)
	if !ok || messageID == "" {
		return mcp.NewToolResultError("messageId is required"), nil
	}
	body, ok := args["body"].(string)
	if !ok || body == "" {
		return mcp.NewToolResultError("body is required"), nil
	}
	var cc []string
	if ccVal, ok := args["cc"].(string); ok {
		cc = splitAddressList(ccVal)
	}

	sess, err := getSession(sc, account)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	reply, err := sess.BuildReply(ctx, messageID, body, cc)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to build reply: %v", err)), nil
	}

	sent, err := sess.Send(ctx, reply)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to send reply: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Reply sent to %s (message ID: %s)", strings.Join(reply.To, ", "), sent.Id)), nil
}

func handleCreateDraft(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.GetAccountFromArgs(args)

	msg, errMsg := emailFromArgs(args)
	if errMsg != "" {
		return mcp.NewToolResultError(errMsg), nil
	}

	sess, err := getSession(sc, account)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	draft, err := sess.CreateDraft(ctx, msg)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to create draft: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Created draft %s (to %s, subject %q)", draft.Id, strings.Join(msg.To, ", "), msg.Subject)), nil
}

func handleListDrafts(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.GetAccountFromArgs(args)

	maxResults := int64(25)
	if maxResultsVal, ok := args["maxResults"].(float64); ok && maxResultsVal > 0 {
		maxResults = int64(maxResultsVal)
	}

	sess, err := getSession(sc, account)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	drafts, err := sess.ListDrafts(ctx, maxResults)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list drafts: %v", err)), nil
	}

	if len(drafts) == 0 {
		return mcp.NewToolResultText("No drafts found."), nil
	}

	var result strings.Builder
	result.WriteString(fmt.Sprintf("Drafts (%d):\n\n", len(drafts)))
	for i, d := range drafts {
		result.WriteString(fmt.Sprintf("%d. %s\n", i+1, d.Subject))
		result.WriteString(fmt.Sprintf("   To: %s\n", d.To))
		if d.Date != "" {
			result.WriteString(fmt.Sprintf("   Date: %s\n", d.Date))
		}
		result.WriteString(fmt.Sprintf("   Draft ID: %s (message %s)\n\n", d.DraftID, d.MessageID))
	}

	return mcp.NewToolResultText(result.String()), nil
}

func handleDeleteDraft(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.GetAccountFromArgs(args)

	draftID, ok := args["draftId"].(string)
	if !ok || draftID == "" {
		return mcp.NewToolResultError("draftId is required"), nil
	}

	sess, err := getSession(sc, account)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := sess.DeleteDraft(ctx, draftID); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to delete draft: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Deleted draft %s", draftID)), nil
}

func handleSendDraft(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.GetAccountFromArgs(args)

	draftID, ok := args["draftId"].(string)
	if !ok || draftID == "" {
		return mcp.NewToolResultError("draftId is required"), nil
	}

	sess, err := getSession(sc, account)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	sent, err := sess.SendDraft(ctx, draftID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to send draft: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Sent draft %s (message ID: %s)", draftID, sent.Id)), nil
}
