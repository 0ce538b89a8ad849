// internal/config/write_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteDefault(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "filmoteca", "config.toml")

	require.NoError(t, WriteDefault(path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "[server]")
	assert.Contains(t, string(content), "[ratelimit]")
	assert.Contains(t, string(content), "${TMDB_API_KEY:-}")
}

func TestWriteDefault_Loads(t *testing.T) {
	clearEnv(t)
	tmp := t.TempDir()
	path := filepath.Join(tmp, "config.toml")
	require.NoError(t, WriteDefault(path))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, DriverSQLite, cfg.Database.Mode())
	assert.Equal(t, CacheFile, cfg.Cache.Driver)
	assert.True(t, cfg.TMDB.RemoteImages())
}

func TestConfig_Write(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadWithoutValidation("")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "out.toml")
	require.NoError(t, cfg.Write(path))

	reloaded, err := LoadWithoutValidation(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Server, reloaded.Server)
	assert.Equal(t, cfg.Cache, reloaded.Cache)
}
