package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadWritesDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chatsy.yaml")

	cfg, resolved, err := Load(nil, path)
	require.NoError(t, err)
	assert.Equal(t, path, resolved)
	assert.Equal(t, 3*time.Second, cfg.Client.PollInterval)
	assert.Equal(t, 2*time.Second, cfg.Client.WarmupDelay)
	assert.Equal(t, DriverSQLite, cfg.Storage.Driver)

	_, statErr := os.Stat(path)
	require.NoError(t, statErr, "default config should be written on first load")

	// Reading the written file back must yield the same values.
	again, _, err := Load(nil, path)
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chatsy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("client:\n  room: fromfile\n  poll_interval: 10s\n"), 0o600))

	t.Setenv("CHATSY_CLIENT_ROOM", "fromenv")
	t.Setenv("CHATSY_STORAGE_DRIVER", "pebble")

	cfg, _, err := Load(nil, path)
	require.NoError(t, err)
	assert.Equal(t, "fromenv", cfg.Client.Room)
	assert.Equal(t, 10*time.Second, cfg.Client.PollInterval)
	assert.Equal(t, DriverPebble, cfg.Storage.Driver)
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chatsy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage:\n  driver: redis\n"), 0o600))

	_, _, err := Load(nil, path)
	require.Error(t, err)
}

func TestUpdateFromKeepsZeroValues(t *testing.T) {
	cfg := Default()
	cfg.UpdateFrom(Config{Client: ClientConfig{Room: "abc", WarmupDelay: 5 * time.Second}})

	assert.Equal(t, "abc", cfg.Client.Room)
	assert.Equal(t, 5*time.Second, cfg.Client.WarmupDelay)
	assert.Equal(t, 3*time.Second, cfg.Client.PollInterval)
	assert.Equal(t, ":8080", cfg.Server.Addr)
}
