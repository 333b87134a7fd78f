package account_tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/gmailagent/gmailagent/internal/server"
	"github.com/gmailagent/gmailagent/internal/tools/common"
)

// RegisterAccountTools registers account listing and setup diagnostics tools.
// Both work without an authenticated session, so an MCP client can inspect
// the installation before any mailbox tool is usable.
func RegisterAccountTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	listAccountsTool := mcp.NewTool("accounts_list",
		mcp.WithDescription("List the configured Gmail accounts with their cached email addresses"),
	)

	s.AddTool(listAccountsTool, common.InstrumentedToolHandler("accounts_list", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListAccounts(ctx, request, sc)
		}))

	// Check setup tool
	checkSetupTool := mcp.NewTool("accounts_check_setup",
		mcp.WithDescription("Check whether the installation is ready: config file, OAuth credentials, and authorized accounts"),
	)

	s.AddTool(checkSetupTool, common.InstrumentedToolHandler("accounts_check_setup", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleCheckSetup(ctx, request, sc)
		}))

	return nil
}

func handleListAccounts(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	accounts, err := sc.Registry().ListAll()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list accounts: %v", err)), nil
	}

	if len(accounts) == 0 {
		return mcp.NewToolResultText("No accounts configured. Run 'gmailagent accounts --auth <name>' in a terminal to add one."), nil
	}

	var result strings.Builder
	result.WriteString(fmt.Sprintf("Accounts (%d):\n\n", len(accounts)))
	for _, a := range accounts {
		marker := ""
		if a.IsDefault {
			marker = " (default)"
		}
		result.WriteString(fmt.Sprintf("- %s: %s%s\n", a.Name, a.Email, marker))
	}

	return mcp.NewToolResultText(result.String()), nil
}

func handleCheckSetup(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	status := sc.Registry().CheckSetup()

	var result strings.Builder
	result.WriteString("Setup status:\n")
	result.WriteString(fmt.Sprintf("- Config file: %s\n", presence(status.ConfigExists)))
	result.WriteString(fmt.Sprintf("- OAuth credentials: %s\n", presence(status.CredentialsExists)))

	if len(status.Accounts) == 0 {
		result.WriteString("- Accounts: none configured\n")
	} else {
		result.WriteString(fmt.Sprintf("- Accounts (%d):\n", len(status.Accounts)))
		for _, a := range status.Accounts {
			state := "not authorized"
			if a.Authenticated {
				state = "authorized"
			}
			if a.Email != "" {
				result.WriteString(fmt.Sprintf("  - %s (%s): %s\n", a.Name, a.Email, state))
			} else {
				result.WriteString(fmt.Sprintf("  - %s: %s\n", a.Name, state))
			}
		}
	}

	if status.Ready {
		result.WriteString("\nReady: at least one account is authorized.\n")
		return mcp.NewToolResultText(result.String()), nil
	}

	result.WriteString("\nNot ready.\n")
	if !status.CredentialsExists {
		result.WriteString("Download an OAuth client file from the Google Cloud Console and store it as credentials.json in the config directory.\n")
	}
	result.WriteString("Authorize an account by running 'gmailagent accounts --auth <name>' in a terminal.\n")

	return mcp.NewToolResultText(result.String()), nil
}

func presence(ok bool) string {
	if ok {
		return "found"
	}
	return "missing"
}
