package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	require.Equal(t, "http://localhost:8000", cfg.ServerURL)
	require.Equal(t, "ws://localhost:8000/ws/client1", cfg.WebSocketURL)
	require.True(t, cfg.DarkMode)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"server_url: https://agents.example.com\n"+
			"websocket_url: wss://agents.example.com/ws/client1\n"+
			"dark_mode: false\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "https://agents.example.com", cfg.ServerURL)
	require.Equal(t, "wss://agents.example.com/ws/client1", cfg.WebSocketURL)
	require.False(t, cfg.DarkMode)
	// untouched fields keep their defaults
	require.NotEmpty(t, cfg.StatePath)
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	t.Setenv("PARLEY_SERVER_URL", "https://env.example.com")
	t.Setenv("PARLEY_WS_URL", "wss://env.example.com/ws/client1")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	require.Equal(t, "https://env.example.com", cfg.ServerURL)
	require.Equal(t, "wss://env.example.com/ws/client1", cfg.WebSocketURL)
}

func TestLoadRejectsInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server_url: [unterminated"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}
