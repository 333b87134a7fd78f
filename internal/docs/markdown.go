package docs

import (
	"fmt"
	"slices"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// Categories appear in setup-before-use order: account management first,
// then the Gmail tools themselves.
var categoryOrder = []string{"Account Tools", "Gmail Tools", "Other"}

// ToolsMarkdown renders a markdown reference for the given MCP tools. Tools
// are grouped by name prefix and sorted within their group, so regenerating
// against an unchanged server yields byte-identical output.
func ToolsMarkdown(tools []mcp.Tool) string {
	byCategory := make(map[string][]mcp.Tool)
	for _, tool := range tools {
		category := categoryForTool(tool.Name)
		byCategory[category] = append(byCategory[category], tool)
	}

	var sb strings.Builder
	sb.WriteString("# gmailagent MCP Tool Reference\n\n")
	sb.WriteString("Every tool the gmailagent MCP server exposes, with its parameters. ")
	sb.WriteString("Generated from the registered tool definitions; edit the tool code, not this file.\n\n")

	sb.WriteString("## Table of Contents\n\n")
	for _, category := range categoryOrder {
		if len(byCategory[category]) == 0 {
			continue
		}
		anchor := strings.ToLower(strings.ReplaceAll(category, " ", "-"))
		fmt.Fprintf(&sb, "- [%s](#%s)\n", category, anchor)
	}
	sb.WriteString("\n")

	sb.WriteString("## Accounts\n\n")
	sb.WriteString("Gmail tools take an optional `account` argument naming one of the configured accounts. ")
	sb.WriteString("It defaults to `default`, and every call can target a different account.\n\n")

	for _, category := range categoryOrder {
		categoryTools := byCategory[category]
		if len(categoryTools) == 0 {
			continue
		}
		slices.SortFunc(categoryTools, func(a, b mcp.Tool) int {
			return strings.Compare(a.Name, b.Name)
		})

		fmt.Fprintf(&sb, "## %s\n\n", category)
		for _, tool := range categoryTools {
			sb.WriteString(toolMarkdown(tool))
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

// categoryForTool buckets a tool by the prefix of its snake_case name.
func categoryForTool(name string) string {
	prefix, _, _ := strings.Cut(name, "_")
	switch prefix {
	case "gmail":
		return "Gmail Tools"
	case "accounts":
		return "Account Tools"
	default:
		return "Other"
	}
}

func toolMarkdown(tool mcp.Tool) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "### %s\n\n", tool.Name)
	if tool.Description != "" {
		fmt.Fprintf(&sb, "%s\n\n", tool.Description)
	}

	if len(tool.InputSchema.Properties) == 0 {
		return sb.String()
	}

	sb.WriteString("**Parameters:**\n")

	propNames := make([]string, 0, len(tool.InputSchema.Properties))
	for name := range tool.InputSchema.Properties {
		propNames = append(propNames, name)
	}
	slices.Sort(propNames)

	for _, name := range propNames {
		prop, ok := tool.InputSchema.Properties[name].(map[string]interface{})
		if !ok {
			continue
		}

		typ := "any"
		if t, ok := prop["type"].(string); ok {
			typ = t
		}
		requirement := "optional"
		if slices.Contains(tool.InputSchema.Required, name) {
			requirement = "required"
		}

		fmt.Fprintf(&sb, "- `%s` (%s, %s)", name, typ, requirement)
		if desc, ok := prop["description"].(string); ok && desc != "" {
			fmt.Fprintf(&sb, ": %s", desc)
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	return sb.String()
}
