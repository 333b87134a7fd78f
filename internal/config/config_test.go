package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Missing(t *testing.T) {
	store := NewStore(t.TempDir())

	_, err := store.Load()
	require.ErrorIs(t, err, ErrConfigMissing)
}

func TestLoadOrDefault_Missing(t *testing.T) {
	store := NewStore(t.TempDir())

	doc, err := store.LoadOrDefault()
	require.NoError(t, err)

	assert.Equal(t, []string{DefaultScope}, doc.Scopes())
	assert.Equal(t, "default", doc.DefaultAccount())
	assert.Empty(t, doc.Accounts())
}

func TestLoad_Malformed(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)
	require.NoError(t, os.WriteFile(store.Path(), []byte("gmail: [unclosed"), 0600))

	_, err := store.Load()
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrConfigMissing)
}

func TestSaveLoad_RoundTripStable(t *testing.T) {
	store := NewStore(t.TempDir())
	require.NoError(t, store.Save(DefaultDocument()))

	first, err := os.ReadFile(store.Path())
	require.NoError(t, err)

	doc, err := store.Load()
	require.NoError(t, err)
	require.NoError(t, store.Save(doc))

	second, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))
}

func TestMutation_PreservesCommentsAndOrder(t *testing.T) {
	const handWritten = `# gmailagent configuration
gmail:
  scopes:
    - https://www.googleapis.com/auth/gmail.modify
  default_account: personal # switch with accounts --set-default
  accounts:
    personal:
      token_path: tokens/personal.json
      email: personal@example.com
    work:
      token_path: tokens/work.json
`
	store := NewStore(t.TempDir())
	require.NoError(t, os.WriteFile(store.Path(), []byte(handWritten), 0600))

	created, err := store.EnsureAccount("family")
	require.NoError(t, err)
	assert.True(t, created)

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	text := string(data)

	assert.Contains(t, text, "# gmailagent configuration")
	assert.Contains(t, text, "# switch with accounts --set-default")
	assert.Contains(t, text, "token_path: tokens/family.json")

	doc, err := store.Load()
	require.NoError(t, err)
	names := make([]string, 0, 3)
	for _, a := range doc.Accounts() {
		names = append(names, a.Name)
	}
	assert.Equal(t, []string{"personal", "work", "family"}, names)
}

func TestEnsureAccount_Idempotent(t *testing.T) {
	store := NewStore(t.TempDir())

	created, err := store.EnsureAccount("work")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = store.EnsureAccount("work")
	require.NoError(t, err)
	assert.False(t, created)

	doc, err := store.Load()
	require.NoError(t, err)
	accounts := doc.Accounts()
	require.Len(t, accounts, 1)
	assert.Equal(t, "work", accounts[0].Name)
	assert.Equal(t, "tokens/work.json", accounts[0].TokenPath)
}

func TestEnsureAccount_BootstrapsMissingConfig(t *testing.T) {
	store := NewStore(t.TempDir())

	created, err := store.EnsureAccount("work")
	require.NoError(t, err)
	assert.True(t, created)

	doc, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{DefaultScope}, doc.Scopes())
	assert.True(t, doc.HasAccount("work"))
}

func TestSetDefaultAccount(t *testing.T) {
	store := NewStore(t.TempDir())
	_, err := store.EnsureAccount("work")
	require.NoError(t, err)

	ok, err := store.SetDefaultAccount("missing")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = store.SetDefaultAccount("work")
	require.NoError(t, err)
	assert.True(t, ok)

	doc, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "work", doc.DefaultAccount())
}

func TestRemoveAccount(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)
	_, err := store.EnsureAccount("work")
	require.NoError(t, err)

	// Removal must not touch the token file on disk.
	tokenPath := filepath.Join(dir, "tokens", "work.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(tokenPath), 0700))
	require.NoError(t, os.WriteFile(tokenPath, []byte("{}"), 0600))

	removed, err := store.RemoveAccount("missing")
	require.NoError(t, err)
	assert.False(t, removed)

	removed, err = store.RemoveAccount("work")
	require.NoError(t, err)
	assert.True(t, removed)

	doc, err := store.Load()
	require.NoError(t, err)
	assert.False(t, doc.HasAccount("work"))

	_, err = os.Stat(tokenPath)
	assert.NoError(t, err)
}

func TestRemoveAccount_NoConfig(t *testing.T) {
	store := NewStore(t.TempDir())

	removed, err := store.RemoveAccount("work")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestRecordEmail(t *testing.T) {
	store := NewStore(t.TempDir())
	_, err := store.EnsureAccount("work")
	require.NoError(t, err)

	require.NoError(t, store.RecordEmail("work", "work@example.com"))

	doc, err := store.Load()
	require.NoError(t, err)
	acct, ok := doc.Account("work")
	require.True(t, ok)
	assert.Equal(t, "work@example.com", acct.Email)
}

func TestRecordEmail_CreatesMissingEntry(t *testing.T) {
	store := NewStore(t.TempDir())

	require.NoError(t, store.RecordEmail("work", "work@example.com"))

	doc, err := store.Load()
	require.NoError(t, err)
	acct, ok := doc.Account("work")
	require.True(t, ok)
	assert.Equal(t, "work@example.com", acct.Email)
	assert.Equal(t, "tokens/work.json", acct.TokenPath)
}

func TestRecordEmail_UnchangedSkipsWrite(t *testing.T) {
	store := NewStore(t.TempDir())
	_, err := store.EnsureAccount("work")
	require.NoError(t, err)
	require.NoError(t, store.RecordEmail("work", "work@example.com"))

	before, err := os.ReadFile(store.Path())
	require.NoError(t, err)

	require.NoError(t, store.RecordEmail("work", "work@example.com"))

	after, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))
}

func TestResolveTokenPath(t *testing.T) {
	store := NewStore("/opt/gmailagent")

	assert.Equal(t, "/opt/gmailagent/tokens/work.json", store.ResolveTokenPath("tokens/work.json"))
	assert.Equal(t, "/var/tokens/work.json", store.ResolveTokenPath("/var/tokens/work.json"))
}

func TestCredentialsPath_EnvOverride(t *testing.T) {
	store := NewStore("/opt/gmailagent")

	t.Setenv(EnvCredentialsPath, "")
	assert.Equal(t, "/opt/gmailagent/credentials.json", store.CredentialsPath())

	t.Setenv(EnvCredentialsPath, "/secrets/creds.json")
	assert.Equal(t, "/secrets/creds.json", store.CredentialsPath())
}

func TestDefaultBaseDir_EnvOverride(t *testing.T) {
	t.Setenv(EnvConfigDir, "/data/gmailagent")

	dir, err := DefaultBaseDir()
	require.NoError(t, err)
	assert.Equal(t, "/data/gmailagent", dir)
}
