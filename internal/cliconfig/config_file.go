package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses a string for the timeout to make TOML
// friendly.
type FileConfig struct {
	BufferSize  int    `toml:"buffer_size"`
	IdleTimeout string `toml:"idle_timeout"`
	Follow      string `toml:"follow"`
	LogLevel    string `toml:"log_level"`
}

// LoadFileConfig reads and parses a TOML config file.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.xpipe/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".xpipe", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	if err := s.setInt("buffer-size", fc.BufferSize, &cfg.BufferSize); err != nil {
		return err
	}
	s.setString("follow", fc.Follow, &cfg.Follow)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)

	return s.setTimeout("idle-timeout", fc.IdleTimeout, &cfg.IdleTimeout, &cfg.HasIdleTimeout)
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
