package account

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gmailagent/gmailagent/internal/config"
)

func newTestRegistry(t *testing.T) (*Registry, *config.Store, string) {
	t.Helper()
	t.Setenv(config.EnvCredentialsPath, "")
	dir := t.TempDir()
	store := config.NewStore(dir)
	return NewRegistry(store), store, dir
}

func writeConfig(t *testing.T, store *config.Store, yaml string) {
	t.Helper()
	require.NoError(t, os.WriteFile(store.Path(), []byte(yaml), 0600))
}

func TestResolve_ExplicitName(t *testing.T) {
	reg, store, dir := newTestRegistry(t)
	writeConfig(t, store, `gmail:
  default_account: personal
  accounts:
    personal:
      token_path: tokens/personal.json
      email: p@example.com
    work:
      token_path: tokens/work.json
`)

	resolved, err := reg.Resolve("work")
	require.NoError(t, err)
	assert.Equal(t, "work", resolved.Name)
	assert.Equal(t, filepath.Join(dir, "tokens", "work.json"), resolved.TokenPath)
	assert.Empty(t, resolved.Email)
}

func TestResolve_EmptyFallsBackToDefaultAccount(t *testing.T) {
	reg, store, _ := newTestRegistry(t)
	writeConfig(t, store, `gmail:
  default_account: work
  accounts:
    work:
      token_path: tokens/work.json
      email: w@example.com
`)

	resolved, err := reg.Resolve("")
	require.NoError(t, err)
	assert.Equal(t, "work", resolved.Name)
	assert.Equal(t, "w@example.com", resolved.Email)
}

func TestResolve_MissingDefaultKeyFallsBackToLiteralDefault(t *testing.T) {
	reg, store, _ := newTestRegistry(t)
	writeConfig(t, store, `gmail:
  accounts:
    default:
      token_path: tokens/default.json
`)

	resolved, err := reg.Resolve("")
	require.NoError(t, err)
	assert.Equal(t, "default", resolved.Name)
}

func TestResolve_UnknownListsConfiguredNames(t *testing.T) {
	reg, store, _ := newTestRegistry(t)
	writeConfig(t, store, `gmail:
  accounts:
    personal:
      token_path: tokens/personal.json
    work:
      token_path: tokens/work.json
`)

	_, err := reg.Resolve("missing")
	require.Error(t, err)

	var unknown *UnknownAccountError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "missing", unknown.Requested)
	assert.Equal(t, []string{"personal", "work"}, unknown.Known)
	assert.Contains(t, err.Error(), "personal, work")
}

func TestResolve_NoConfigAtAll(t *testing.T) {
	reg, _, _ := newTestRegistry(t)

	_, err := reg.Resolve("")
	var unknown *UnknownAccountError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "default", unknown.Requested)
	assert.Empty(t, unknown.Known)
}

func TestResolve_AbsoluteTokenPathPreserved(t *testing.T) {
	reg, store, _ := newTestRegistry(t)
	writeConfig(t, store, `gmail:
  accounts:
    work:
      token_path: /var/lib/gmailagent/work.json
`)

	resolved, err := reg.Resolve("work")
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/gmailagent/work.json", resolved.TokenPath)
}

func TestListAll(t *testing.T) {
	reg, store, _ := newTestRegistry(t)
	writeConfig(t, store, `gmail:
  default_account: work
  accounts:
    personal:
      token_path: tokens/personal.json
      email: p@example.com
    work:
      token_path: tokens/work.json
`)

	summaries, err := reg.ListAll()
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	assert.Equal(t, Summary{Name: "personal", Email: "p@example.com", IsDefault: false}, summaries[0])
	assert.Equal(t, Summary{Name: "work", Email: NotAuthenticatedPlaceholder, IsDefault: true}, summaries[1])
}

func TestListAll_NoConfig(t *testing.T) {
	reg, _, _ := newTestRegistry(t)

	summaries, err := reg.ListAll()
	require.NoError(t, err)
	assert.Empty(t, summaries)
}

func TestCheckSetup_FreshDirectory(t *testing.T) {
	reg, _, _ := newTestRegistry(t)

	status := reg.CheckSetup()
	assert.False(t, status.ConfigExists)
	assert.False(t, status.CredentialsExists)
	assert.Empty(t, status.Accounts)
	assert.False(t, status.Ready)
}

func TestCheckSetup_Ready(t *testing.T) {
	reg, store, dir := newTestRegistry(t)
	writeConfig(t, store, `gmail:
  accounts:
    work:
      token_path: tokens/work.json
      email: w@example.com
    spare:
      token_path: tokens/spare.json
`)
	require.NoError(t, os.WriteFile(store.CredentialsPath(), []byte("{}"), 0600))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "tokens"), 0700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tokens", "work.json"), []byte("{}"), 0600))

	status := reg.CheckSetup()
	assert.True(t, status.ConfigExists)
	assert.True(t, status.CredentialsExists)
	require.Len(t, status.Accounts, 2)
	assert.True(t, status.Accounts[0].Authenticated)
	assert.False(t, status.Accounts[1].Authenticated)
	assert.True(t, status.Ready)
}

func TestCheckSetup_CredentialsWithoutToken(t *testing.T) {
	reg, store, _ := newTestRegistry(t)
	writeConfig(t, store, `gmail:
  accounts:
    work:
      token_path: tokens/work.json
`)
	require.NoError(t, os.WriteFile(store.CredentialsPath(), []byte("{}"), 0600))

	status := reg.CheckSetup()
	assert.True(t, status.CredentialsExists)
	assert.False(t, status.Ready)
}

func TestCheckSetup_MalformedConfigDoesNotFail(t *testing.T) {
	reg, store, _ := newTestRegistry(t)
	writeConfig(t, store, "gmail: [broken")

	status := reg.CheckSetup()
	assert.True(t, status.ConfigExists)
	assert.False(t, status.Ready)
	assert.Empty(t, status.Accounts)
}
