package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	settings, err := Load(filepath.Join(t.TempDir(), "does-not-exist.json"))
	require.NoError(t, err)
	assert.Equal(t, "", settings.DatabaseURL)
	assert.Empty(t, settings.Accounts)
}

func TestLoadParsesAccounts(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	content := `{
		"database_url": "postgres://localhost/archive",
		"accounts": [
			{"name": "bot-a", "token": "tok-a", "user_agent": "archiver/1.0", "guilds": ["175928847299117063"]}
		]
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	settings, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost/archive", settings.DatabaseURL)
	require.Len(t, settings.Accounts, 1)
	assert.Equal(t, "bot-a", settings.Accounts[0].Name)
	assert.Equal(t, "tok-a", settings.Accounts[0].Token)

	ids := settings.Accounts[0].GuildIDs()
	require.Len(t, ids, 1)
	assert.EqualValues(t, 175928847299117063, ids[0])
}

func TestAccountConfigGuildIDsSkipsUnparseable(t *testing.T) {
	acct := AccountConfig{Guilds: []string{"123", "not-a-number", "456"}}
	ids := acct.GuildIDs()
	require.Len(t, ids, 2)
}
