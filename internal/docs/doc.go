// Package docs renders the MCP tool reference as markdown.
//
// The generate-docs command registers every tool the server offers against a
// throwaway MCP server, then hands the tool definitions to ToolsMarkdown.
// Generating from the definitions rather than a hand-written file keeps the
// reference in sync with the parameters and descriptions the server actually
// announces.
package docs
