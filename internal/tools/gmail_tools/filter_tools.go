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

// RegisterFilterTools registers Gmail filter management tools
func RegisterFilterTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	listFiltersTool := mcp.NewTool("gmail_list_filters",
		mcp.WithDescription("List all Gmail filters with their criteria and actions"),
		accountOption(),
	)

	s.AddTool(listFiltersTool, common.InstrumentedToolHandlerWithService(
		"gmail_list_filters", "gmail", "filters.list", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListFilters(ctx, request, sc)
		}))

	if !readOnly {
		createFilterTool := mcp.NewTool("gmail_create_filter",
			mcp.WithDescription("Create a Gmail filter to automatically organize incoming emails. Filters match on sender, recipient, subject, or a search query, and apply actions like labeling, archiving, or trashing."),
			accountOption(),
			// what to match
			mcp.WithString("from",
				mcp.Description("Match emails from this sender (e.g., 'newsletter@example.com')"),
			),
			mcp.WithString("to",
				mcp.Description("Match emails sent to this recipient (e.g., 'myalias@example.com')"),
			),
			mcp.WithString("subject",
				mcp.Description("Match emails with this subject"),
			),
			mcp.WithString("query",
				mcp.Description("Gmail search query for advanced matching (e.g., 'larger:10M')"),
			),
			mcp.WithBoolean("hasAttachment",
				mcp.Description("Match emails that have attachments"),
			),
			// what to apply
			mcp.WithString("addLabel",
				mcp.Description("Label name to apply to matching emails. Created when it does not exist."),
			),
			mcp.WithBoolean("archive",
				mcp.Description("Remove matching emails from the inbox"),
			),
			mcp.WithBoolean("markAsRead",
				mcp.Description("Mark matching emails as read"),
			),
			mcp.WithBoolean("trash",
				mcp.Description("Send matching emails to the trash"),
			),
			mcp.WithBoolean("star",
				mcp.Description("Star matching emails"),
			),
			mcp.WithString("forward",
				mcp.Description("Forward matching emails to this address (must be a verified forwarding address)"),
			),
		)

		s.AddTool(createFilterTool, common.InstrumentedToolHandlerWithService(
			"gmail_create_filter", "gmail", "filters.create", sc,
			func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				return handleCreateFilter(ctx, request, sc)
			}))
		deleteFilterTool := mcp.NewTool("gmail_delete_filter",
			mcp.WithDescription("Delete a Gmail filter by its ID"),
			accountOption(),
			mcp.WithString("filterId",
				mcp.Required(),
				mcp.Description("Filter ID as reported by gmail_list_filters"),
			),
		)

		s.AddTool(deleteFilterTool, common.InstrumentedToolHandlerWithService(
			"gmail_delete_filter", "gmail", "filters.delete", sc,
			func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				return handleDeleteFilter(ctx, request, sc)
			}))
	}

	return nil
}

func handleListFilters(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.GetAccountFromArgs(args)

	sess, err := getSession(sc, account)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	filters, err := sess.ListFilters(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list filters: %v", err)), nil
	}

	if len(filters) == 0 {
		return mcp.NewToolResultText("No filters found."), nil
	}

	var result strings.Builder
	result.WriteString(fmt.Sprintf("Filters (%d):\n\n", len(filters)))
	for i, f := range filters {
		result.WriteString(fmt.Sprintf("%d. Filter ID: %s\n", i+1, f.ID))
		result.WriteString(fmt.Sprintf("   Criteria: %s\n", formatFilterCriteria(f.Criteria)))
		result.WriteString(fmt.Sprintf("   Action: %s\n\n", formatFilterAction(f.Action)))
	}

	return mcp.NewToolResultText(result.String()), nil
}

func handleCreateFilter(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.GetAccountFromArgs(args)

	var criteria gmail.FilterCriteria
	if v, ok := args["from"].(string); ok {
		criteria.From = v
	}
	if v, ok := args["to"].(string); ok {
		criteria.To = v
	}
	if v, ok := args["subject"].(string); ok {
		criteria.Subject = v
	}
	if v, ok := args["query"].(string); ok {
		criteria.Query = v
	}
	if v, ok := args["hasAttachment"].(bool); ok {
		criteria.HasAttachment = v
	}
	if criteria == (gmail.FilterCriteria{}) {
		return mcp.NewToolResultError("At least one criteria is required (from, to, subject, query, or hasAttachment)"), nil
	}

	var switches gmail.FilterSwitches
	if v, ok := args["addLabel"].(string); ok {
		switches.AddLabel = v
	}
	if v, ok := args["archive"].(bool); ok {
		switches.Archive = v
	}
	if v, ok := args["markAsRead"].(bool); ok {
		switches.MarkRead = v
	}
	if v, ok := args["trash"].(bool); ok {
		switches.Trash = v
	}
	if v, ok := args["star"].(bool); ok {
		switches.Star = v
	}
	if v, ok := args["forward"].(string); ok {
		switches.Forward = v
	}
	if switches == (gmail.FilterSwitches{}) {
		return mcp.NewToolResultError("At least one action is required (addLabel, archive, markAsRead, trash, star, or forward)"), nil
	}

	sess, err := getSession(sc, account)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	action, err := sess.BuildFilterAction(ctx, switches)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to build filter action: %v", err)), nil
	}

	filterID, err := sess.CreateFilter(ctx, criteria, action)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to create filter: %v", err)), nil
	}

	var result strings.Builder
	result.WriteString(fmt.Sprintf("Created filter %s\n", filterID))
	result.WriteString(fmt.Sprintf("Criteria: %s\n", formatFilterCriteria(criteria)))
	result.WriteString(fmt.Sprintf("Action: %s\n", formatFilterAction(action)))

	return mcp.NewToolResultText(result.String()), nil
}

func handleDeleteFilter(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.GetAccountFromArgs(args)

	filterID, ok := args["filterId"].(string)
	if !ok || filterID == "" {
		return mcp.NewToolResultError("filterId is required"), nil
	}

	sess, err := getSession(sc, account)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := sess.DeleteFilter(ctx, filterID); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to delete filter: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Deleted filter %s", filterID)), nil
}

func formatFilterCriteria(c gmail.FilterCriteria) string {
	var parts []string
	if c.From != "" {
		parts = append(parts, fmt.Sprintf("from:%s", c.From))
	}
	if c.To != "" {
		parts = append(parts, fmt.Sprintf("to:%s", c.To))
	}
	if c.Subject != "" {
		parts = append(parts, fmt.Sprintf("subject:%s", c.Subject))
	}
	if c.Query != "" {
		parts = append(parts, c.Query)
	}
	if c.HasAttachment {
		parts = append(parts, "has:attachment")
	}
	if len(parts) == 0 {
		return "(none)"
	}
	return strings.Join(parts, " ")
}

func formatFilterAction(a gmail.FilterAction) string {
	var parts []string
	if len(a.AddLabelIDs) > 0 {
		parts = append(parts, fmt.Sprintf("add labels %s", strings.Join(a.AddLabelIDs, ", ")))
	}
	if len(a.RemoveLabelIDs) > 0 {
		parts = append(parts, fmt.Sprintf("remove labels %s", strings.Join(a.RemoveLabelIDs, ", ")))
	}
	if a.Forward != "" {
		parts = append(parts, fmt.Sprintf("forward to %s", a.Forward))
	}
	if len(parts) == 0 {
		return "(none)"
	}
	return strings.Join(parts, "; ")
}
