package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/gmailagent/gmailagent/internal/account"
	"github.com/gmailagent/gmailagent/internal/server"
)

// RegisterAccountResources registers read-only resources describing the
// account setup. Both are served from local state, so an MCP client can read
// them before any account is authorized.
func RegisterAccountResources(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	// Configured accounts resource
	accountsResource := mcp.NewResource(
		"accounts://list",
		"Configured Accounts",
		mcp.WithResourceDescription("The configured Gmail accounts with cached addresses and the default marker"),
		mcp.WithMIMEType("application/json"),
	)

	s.AddResource(accountsResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleAccountList(ctx, request, sc)
	})

	// Setup status resource
	setupResource := mcp.NewResource(
		"accounts://setup",
		"Setup Status",
		mcp.WithResourceDescription("Whether config, OAuth credentials, and authorized accounts are in place"),
		mcp.WithMIMEType("application/json"),
	)

	s.AddResource(setupResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleSetupStatus(ctx, request, sc)
	})

	return nil
}

// handleAccountList serves the account listing as JSON
func handleAccountList(ctx context.Context, request mcp.ReadResourceRequest, sc *server.ServerContext) ([]mcp.ResourceContents, error) {
	accounts, err := sc.Registry().ListAll()
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}

	listData := struct {
		Accounts []account.Summary `json:"accounts"`
		Count    int               `json:"count"`
	}{
		Accounts: accounts,
		Count:    len(accounts),
	}

	jsonData, err := json.MarshalIndent(listData, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal account list: %w", err)
	}

	return []mcp.ResourceContents{
		&mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "application/json",
			Text:     string(jsonData),
		},
	}, nil
}

// handleSetupStatus serves the installation state as JSON
func handleSetupStatus(ctx context.Context, request mcp.ReadResourceRequest, sc *server.ServerContext) ([]mcp.ResourceContents, error) {
	status := sc.Registry().CheckSetup()

	jsonData, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal setup status: %w", err)
	}

	return []mcp.ResourceContents{
		&mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "application/json",
			Text:     string(jsonData),
		},
	}, nil
}
