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

// RegisterAttachmentTools registers attachment listing and download tools.
// Downloads write to the local filesystem of the server host, not to the
// mailbox, so these stay available in read-only mode.
func RegisterAttachmentTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	listAttachmentsTool := mcp.NewTool("gmail_list_attachments",
		mcp.WithDescription("List the attachments of a Gmail message with filename, MIME type, and size"),
		accountOption(),
		mcp.WithString("messageId",
			mcp.Required(),
			mcp.Description("The ID of the message whose attachments to list"),
		),
	)

	s.AddTool(listAttachmentsTool, common.InstrumentedToolHandlerWithService(
		"gmail_list_attachments", "gmail", "attachments.list", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListAttachments(ctx, request, sc)
		}))
	downloadAttachmentsTool := mcp.NewTool("gmail_download_attachments",
		mcp.WithDescription("Download the attachments of a Gmail message to a directory on the server host"),
		accountOption(),
		mcp.WithString("messageId",
			mcp.Required(),
			mcp.Description("The ID of the message whose attachments to download"),
		),
		mcp.WithString("outputDir",
			mcp.Description("Directory to save attachments to (default: current directory). Created when missing."),
		),
		mcp.WithString("filenameFilter",
			mcp.Description("Only download attachments whose filename contains this substring (case-insensitive)"),
		),
		mcp.WithString("prefix",
			mcp.Description("Prefix to prepend to saved filenames"),
		),
	)

	s.AddTool(downloadAttachmentsTool, common.InstrumentedToolHandlerWithService(
		"gmail_download_attachments", "gmail", "attachments.download", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleDownloadAttachments(ctx, request, sc)
		}))

	return nil
}

func handleListAttachments(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
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

	attachments, err := sess.ListAttachments(ctx, messageID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list attachments: %v", err)), nil
	}

	if len(attachments) == 0 {
		return mcp.NewToolResultText("No attachments found in this message."), nil
	}

	var result strings.Builder
	result.WriteString(fmt.Sprintf("Attachments (%d):\n\n", len(attachments)))
	for i, a := range attachments {
		result.WriteString(fmt.Sprintf("%d. %s\n", i+1, a.Filename))
		result.WriteString(fmt.Sprintf("   Type: %s\n", a.MimeType))
		result.WriteString(fmt.Sprintf("   Size: %d bytes\n", a.Size))
		result.WriteString(fmt.Sprintf("   Attachment ID: %s\n\n", a.AttachmentID))
	}

	return mcp.NewToolResultText(result.String()), nil
}

func handleDownloadAttachments(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.GetAccountFromArgs(args)

	messageID, ok := args["messageId"].(string)
	if !ok || messageID == "" {
		return mcp.NewToolResultError("messageId is required"), nil
	}

	opts := gmail.DownloadOptions{Dir: "."}
	if v, ok := args["outputDir"].(string); ok && v != "" {
		opts.Dir = v
	}
	if v, ok := args["filenameFilter"].(string); ok {
		opts.Filter = v
	}
	if v, ok := args["prefix"].(string); ok {
		opts.Prefix = v
	}

	sess, err := getSession(sc, account)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	results, err := sess.DownloadAttachments(ctx, messageID, opts)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to download attachments: %v", err)), nil
	}

	if len(results) == 0 {
		return mcp.NewToolResultText("No matching attachments found in this message."), nil
	}

	downloaded := 0
	var details strings.Builder
	for _, r := range results {
		if r.Error != "" {
			details.WriteString(fmt.Sprintf("- %s: FAILED (%s)\n", r.Filename, r.Error))
			continue
		}
		downloaded++
		details.WriteString(fmt.Sprintf("- %s -> %s (%d bytes)\n", r.Filename, r.SavedAs, r.Size))
	}

	summary := fmt.Sprintf("Downloaded %d of %d attachments to %s:\n", downloaded, len(results), opts.Dir)
	return mcp.NewToolResultText(summary + details.String()), nil
}
