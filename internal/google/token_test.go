package google

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestSaveLoadTokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens", "work.json")
	tok := &oauth2.Token{
		AccessToken:  "access",
		TokenType:    "Bearer",
		RefreshToken: "refresh",
		Expiry:       time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	require.NoError(t, SaveTokenFile(path, tok))

	loaded, err := LoadTokenFile(path)
	require.NoError(t, err)
	assert.Equal(t, tok.AccessToken, loaded.AccessToken)
	assert.Equal(t, tok.RefreshToken, loaded.RefreshToken)
	assert.True(t, tok.Expiry.Equal(loaded.Expiry))
}

func TestSaveTokenFile_Permissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix permission bits")
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "tokens", "work.json")
	require.NoError(t, SaveTokenFile(path, &oauth2.Token{AccessToken: "a"}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	dirInfo, err := os.Stat(filepath.Dir(path))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0700), dirInfo.Mode().Perm())
}

func TestLoadTokenFile_Missing(t *testing.T) {
	_, err := LoadTokenFile(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
	assert.True(t, os.IsNotExist(err))
}

func TestLoadTokenFile_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0600))
	_, err := LoadTokenFile(path)
	require.Error(t, err)
	assert.False(t, os.IsNotExist(err))
}

func TestHasToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tok.json")
	assert.False(t, HasToken(path))
	require.NoError(t, SaveTokenFile(path, &oauth2.Token{AccessToken: "a"}))
	assert.True(t, HasToken(path))
}
