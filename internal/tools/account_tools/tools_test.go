package account_tools

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gmailagent/gmailagent/internal/config"
	"github.com/gmailagent/gmailagent/internal/server"
)

func newTestContext(t *testing.T, store *config.Store) *server.ServerContext {
	t.Helper()
	sc, err := server.NewServerContext(context.Background(), store, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc
}

func text(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.NotEmpty(t, result.Content)
	tc, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content")
	return tc.Text
}

func TestRegisterAccountTools(t *testing.T) {
	sc := newTestContext(t, config.NewStore(t.TempDir()))
	s := mcpserver.NewMCPServer("test", "0.0.1", mcpserver.WithToolCapabilities(true))

	assert.NoError(t, RegisterAccountTools(s, sc))
}

func TestHandleListAccounts_Empty(t *testing.T) {
	sc := newTestContext(t, config.NewStore(t.TempDir()))

	result, err := handleListAccounts(context.Background(), mcp.CallToolRequest{}, sc)

	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Contains(t, text(t, result), "No accounts configured")
	assert.Contains(t, text(t, result), "accounts --auth")
}

func TestHandleListAccounts_MarksDefault(t *testing.T) {
	store := config.NewStore(t.TempDir())
	_, err := store.EnsureAccount("default")
	require.NoError(t, err)
	_, err = store.EnsureAccount("work")
	require.NoError(t, err)
	require.NoError(t, store.RecordEmail("work", "work@example.com"))

	sc := newTestContext(t, store)

	result, err := handleListAccounts(context.Background(), mcp.CallToolRequest{}, sc)

	require.NoError(t, err)
	out := text(t, result)
	assert.Contains(t, out, "Accounts (2)")
	assert.Contains(t, out, "- default: (not authenticated) (default)")
	assert.Contains(t, out, "- work: work@example.com")
	assert.NotContains(t, out, "work@example.com (default)")
}

func TestHandleCheckSetup_FreshInstall(t *testing.T) {
	sc := newTestContext(t, config.NewStore(t.TempDir()))

	result, err := handleCheckSetup(context.Background(), mcp.CallToolRequest{}, sc)

	require.NoError(t, err)
	out := text(t, result)
	assert.Contains(t, out, "Config file: missing")
	assert.Contains(t, out, "OAuth credentials: missing")
	assert.Contains(t, out, "Accounts: none configured")
	assert.Contains(t, out, "Not ready.")
	assert.Contains(t, out, "credentials.json")
}

func TestHandleCheckSetup_Ready(t *testing.T) {
	store := config.NewStore(t.TempDir())
	_, err := store.EnsureAccount("work")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(store.CredentialsPath(), []byte("{}"), 0600))

	// An existing token file marks the account as authorized.
	doc, err := store.Load()
	require.NoError(t, err)
	acct, ok := doc.Account("work")
	require.True(t, ok)
	tokenPath := store.ResolveTokenPath(acct.TokenPath)
	require.NoError(t, os.MkdirAll(filepath.Dir(tokenPath), 0700))
	require.NoError(t, os.WriteFile(tokenPath, []byte("{}"), 0600))

	sc := newTestContext(t, store)

	result, err := handleCheckSetup(context.Background(), mcp.CallToolRequest{}, sc)

	require.NoError(t, err)
	out := text(t, result)
	assert.Contains(t, out, "Config file: found")
	assert.Contains(t, out, "OAuth credentials: found")
	assert.Contains(t, out, "- work: authorized")
	assert.Contains(t, out, "Ready: at least one account is authorized.")
}
