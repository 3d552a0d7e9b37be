package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loop/rewards-engine/config"
)

func TestDefault(t *testing.T) {
	cfg := config.Default()

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "rewards.db", cfg.DB.Path)
	assert.Equal(t, slog.LevelInfo, cfg.Log.Level)
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[server]
addr = ":9090"

[db]
path = "/tmp/rewards-test.db"

[log]
level = "debug"
format = "json"

[auth.tokens]
"dev-token-alice" = "user-alice"
`), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "/tmp/rewards-test.db", cfg.DB.Path)
	assert.Equal(t, slog.LevelDebug, cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "user-alice", cfg.Auth.Tokens["dev-token-alice"])
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[server]\naddr = \":9090\"\n"), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "rewards.db", cfg.DB.Path, "unset sections fall back to defaults")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load("/does/not/exist.toml")
	assert.Error(t, err)
}
