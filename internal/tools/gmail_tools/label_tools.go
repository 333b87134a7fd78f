package gmail_tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/gmailagent/gmailagent/internal/gmail"
	"github.com/gmailagent/gmailagent/internal/server"
	"github.com/gmailagent/gmailagent/internal/tools/common"
)

// RegisterLabelTools registers Gmail label management tools
func RegisterLabelTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	listLabelsTool := mcp.NewTool("gmail_list_labels",
		mcp.WithDescription("List all Gmail labels with message counts, system labels first"),
		accountOption(),
	)

	s.AddTool(listLabelsTool, common.InstrumentedToolHandlerWithService(
		"gmail_list_labels", "gmail", "labels.list", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListLabels(ctx, request, sc)
		}))

	if !readOnly {
		createLabelTool := mcp.NewTool("gmail_create_label",
			mcp.WithDescription("Create a new Gmail label"),
			accountOption(),
			mcp.WithString("name",
				mcp.Required(),
				mcp.Description("Name of the label to create (use '/' for nesting, e.g. 'Work/Receipts')"),
			),
		)

		s.AddTool(createLabelTool, common.InstrumentedToolHandlerWithService(
			"gmail_create_label", "gmail", "labels.create", sc,
			func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				return handleCreateLabel(ctx, request, sc)
			}))
		deleteLabelTool := mcp.NewTool("gmail_delete_label",
			mcp.WithDescription("Delete a Gmail label. Messages under it are kept, only the label is removed."),
			accountOption(),
			mcp.WithString("label",
				mcp.Required(),
				mcp.Description("Label to delete, matched by ID first, then by name case-insensitively"),
			),
		)

		s.AddTool(deleteLabelTool, common.InstrumentedToolHandlerWithService(
			"gmail_delete_label", "gmail", "labels.delete", sc,
			func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				return handleDeleteLabel(ctx, request, sc)
			}))

		// Rename label tool
		renameLabelTool := mcp.NewTool("gmail_rename_label",
			mcp.WithDescription("Rename a Gmail label while keeping its ID and message associations"),
			accountOption(),
			mcp.WithString("label",
				mcp.Required(),
				mcp.Description("Label to rename, matched by ID first, then by name case-insensitively"),
			),
			mcp.WithString("newName",
				mcp.Required(),
				mcp.Description("New name for the label"),
			),
		)

		s.AddTool(renameLabelTool, common.InstrumentedToolHandlerWithService(
			"gmail_rename_label", "gmail", "labels.rename", sc,
			func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				return handleRenameLabel(ctx, request, sc)
			}))
	}

	return nil
}

func handleListLabels(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.GetAccountFromArgs(args)

	sess, err := getSession(sc, account)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	labels, err := sess.ListLabels(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list labels: %v", err)), nil
	}

	if len(labels) == 0 {
		return mcp.NewToolResultText("No labels found."), nil
	}

	labels = gmail.SortLabels(labels)

	var result strings.Builder
	result.WriteString(fmt.Sprintf("Labels (%d):\n", len(labels)))
	section := ""
	for _, l := range labels {
		header := "User labels"
		if l.IsSystem() {
			header = "System labels"
		}
		if header != section {
			section = header
			result.WriteString(fmt.Sprintf("\n%s:\n", section))
		}
		result.WriteString(fmt.Sprintf("- %s (ID: %s, %d messages, %d unread)\n", l.Name, l.ID, l.MessagesTotal, l.MessagesUnread))
	}

	return mcp.NewToolResultText(result.String()), nil
}

func handleCreateLabel(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.GetAccountFromArgs(args)

	name, ok := args["name"].(string)
	if !ok || name == "" {
		return mcp.NewToolResultError("name is required"), nil
	}

	sess, err := getSession(sc, account)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	label, err := sess.CreateLabel(ctx, name)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to create label: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Created label %q (ID: %s)", label.Name, label.ID)), nil
}

func handleDeleteLabel(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.GetAccountFromArgs(args)

	labelArg, ok := args["label"].(string)
	if !ok || labelArg == "" {
		return mcp.NewToolResultError("label is required"), nil
	}

	sess, err := getSession(sc, account)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	label, err := sess.ResolveLabel(ctx, labelArg)
	if err != nil {
		var notFound *gmail.LabelNotFoundError
		if errors.As(err, &notFound) {
			return mcp.NewToolResultError(fmt.Sprintf("Label not found: %q. List labels with gmail_list_labels.", labelArg)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("Failed to resolve label: %v", err)), nil
	}
	if label.IsSystem() {
		return mcp.NewToolResultError(fmt.Sprintf("Cannot delete system label: %s", label.Name)), nil
	}

	if err := sess.DeleteLabel(ctx, label.ID); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to delete label: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Deleted label %q (ID: %s)", label.Name, label.ID)), nil
}

func handleRenameLabel(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.GetAccountFromArgs(args)

	labelArg, ok := args["label"].(string)
	if !ok || labelArg == "" {
		return mcp.NewToolResultError("label is required"), nil
	}
	newName, ok := args["newName"].(string)
	if !ok || newName == "" {
		return mcp.NewToolResultError("newName is required"), nil
	}

	sess, err := getSession(sc, account)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	label, err := sess.ResolveLabel(ctx, labelArg)
	if err != nil {
		var notFound *gmail.LabelNotFoundError
		if errors.As(err, &notFound) {
			return mcp.NewToolResultError(fmt.Sprintf("Label not found: %q. List labels with gmail_list_labels.", labelArg)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("Failed to resolve label: %v", err)), nil
	}
	if label.IsSystem() {
		return mcp.NewToolResultError(fmt.Sprintf("Cannot rename system label: %s", label.Name)), nil
	}

	oldName := label.Name
	renamed, err := sess.RenameLabel(ctx, label.ID, newName)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to rename label: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Renamed label %q to %q (ID: %s)", oldName, renamed, label.ID)), nil
}
