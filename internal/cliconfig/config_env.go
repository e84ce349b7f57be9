package cliconfig

import "os"

// ApplyEnvConfig applies configuration from environment variables (XPIPE_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	if err := s.setIntFromString("buffer-size", os.Getenv("XPIPE_BUFFER_SIZE"), &cfg.BufferSize); err != nil {
		return err
	}
	if err := s.setTimeout("idle-timeout", os.Getenv("XPIPE_IDLE_TIMEOUT"), &cfg.IdleTimeout, &cfg.HasIdleTimeout); err != nil {
		return err
	}

	s.setString("follow", os.Getenv("XPIPE_FOLLOW"), &cfg.Follow)
	s.setString("log-level", os.Getenv("XPIPE_LOG_LEVEL"), &cfg.LogLevel)

	return nil
}
