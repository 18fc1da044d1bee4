package config

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config holds the client's connection endpoints and local paths.
type Config struct {
	// ServerURL is the HTTP base for the agent list and key validation.
	ServerURL string `yaml:"server_url"`
	// WebSocketURL is the chat socket endpoint.
	WebSocketURL string `yaml:"websocket_url"`
	// StatePath is the snapshot database location.
	StatePath string `yaml:"state_path"`
	// DarkMode is the theme default; the persisted flag wins once set.
	DarkMode bool `yaml:"dark_mode"`
}

func Default() Config {
	return Config{
		ServerURL:    "http://localhost:8000",
		WebSocketURL: "ws://localhost:8000/ws/client1",
		StatePath:    defaultStatePath(),
		DarkMode:     true,
	}
}

// DefaultPath is where Load looks when no explicit path is given.
func DefaultPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(configDir, "parley", "config.yaml")
}

func defaultStatePath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "parley-state.db"
	}
	return filepath.Join(configDir, "parley", "state.db")
}

// Load reads a YAML config file over the defaults, then applies PARLEY_*
// environment overrides. A missing file is not an error; the defaults stand.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultPath()
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return cfg, errors.Wrapf(err, "read config %s", path)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, errors.Wrapf(err, "parse config %s", path)
			}
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

// applyEnv layers PARLEY_* variables over whatever the file set. Flags are
// applied by the caller afterwards and win over both.
func (c *Config) applyEnv() {
	if v := os.Getenv("PARLEY_SERVER_URL"); v != "" {
		c.ServerURL = v
	}
	if v := os.Getenv("PARLEY_WS_URL"); v != "" {
		c.WebSocketURL = v
	}
	if v := os.Getenv("PARLEY_STATE_PATH"); v != "" {
		c.StatePath = v
	}
}
