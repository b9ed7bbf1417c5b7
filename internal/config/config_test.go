package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "uuid", cfg.Format)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, 32, cfg.Search.LookAhead)
	assert.Equal(t, 32, cfg.Search.LookBack)
	assert.Equal(t, 100, cfg.Search.Attempts)
	assert.Equal(t, 20, cfg.Browse.Page)
}

func TestEnvOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("UUIDSPACE_FORMAT", "card")
	t.Setenv("UUIDSPACE_LOG_LEVEL", "debug")
	t.Setenv("UUIDSPACE_SEARCH_ATTEMPTS", "7")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "card", cfg.Format)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 7, cfg.Search.Attempts)
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "uuidspace.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
format: hex128
db_path: /tmp/favs.db
log:
  level: error
  pretty: true
search:
  look_ahead: 8
browse:
  page: 5
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "hex128", cfg.Format)
	assert.Equal(t, "/tmp/favs.db", cfg.DBPath)
	assert.True(t, cfg.Log.Pretty)
	assert.Equal(t, 8, cfg.Search.LookAhead)
	assert.Equal(t, 32, cfg.Search.LookBack)
	assert.Equal(t, 5, cfg.Browse.Page)
}

func TestMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("UUIDSPACE_SEARCH_ATTEMPTS", "0")

	_, err := Load("")
	assert.Error(t, err)
}
