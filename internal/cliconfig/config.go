package cliconfig

import (
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

// DefaultBufferSize is the default pending buffer capacity in bytes.
const DefaultBufferSize = 8192

// Config holds CLI configuration for xpipe.
type Config struct {
	// BufferSize is the pending buffer capacity in bytes.
	BufferSize int

	// IdleTimeout forces a flush decision after this much idle time once a
	// chunk has started. Honored only when HasIdleTimeout is true; zero
	// then means "never wait for more data".
	IdleTimeout time.Duration

	// HasIdleTimeout reports whether an idle timeout was configured at all.
	// When false, xpipe blocks indefinitely for more input.
	HasIdleTimeout bool

	// Follow, when set, reads from a growing file instead of stdin.
	Follow string

	// LogLevel selects the zerolog level for diagnostics on stderr.
	LogLevel string

	// Command is the argument vector executed once per chunk.
	Command []string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		BufferSize: DefaultBufferSize,
		LogLevel:   zerolog.LevelErrorValue,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.BufferSize <= 0 {
		return fmt.Errorf("buffer size must be positive, got %d", c.BufferSize)
	}
	if c.HasIdleTimeout && c.IdleTimeout < 0 {
		return fmt.Errorf("idle timeout must not be negative, got %v", c.IdleTimeout)
	}
	if len(c.Command) == 0 {
		return fmt.Errorf("command is required")
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	return nil
}

// ParseTimeout parses an idle timeout value. Bare integers are seconds for
// compatibility with the original flag syntax; anything else must be a Go
// duration string.
func ParseTimeout(s string) (time.Duration, error) {
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 {
			return 0, fmt.Errorf("idle timeout must not be negative, got %d", n)
		}
		return time.Duration(n) * time.Second, nil
	}
	return time.ParseDuration(s)
}

// configSetter helps apply configuration values while respecting flag
// precedence. It only applies values if the corresponding flag hasn't been
// explicitly set.
type configSetter struct {
	changed map[string]bool
}

// newConfigSetter creates a new setter with the given changed flags map.
func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if the flag wasn't changed. Zero means the value
// is absent; a negative value is rejected so a bad overlay fails the same
// way a bad flag does.
func (s *configSetter) setInt(flag string, value int, dst *int) error {
	if value == 0 || s.changed[flag] {
		return nil
	}
	if value < 0 {
		return fmt.Errorf("%s must be positive, got %d", flag, value)
	}
	*dst = value
	return nil
}

// setIntFromString parses a string to int and sets the destination.
// Used for environment variables that come as strings; a value that is set
// but not positive is rejected rather than silently ignored.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return fmt.Errorf("%s must be positive, got %d", flag, i)
	}
	*dst = i
	return nil
}

// setTimeout parses and sets the idle timeout if the flag wasn't changed.
// Setting any value also marks the timeout as configured.
func (s *configSetter) setTimeout(flag, value string, dst *time.Duration, set *bool) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := ParseTimeout(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	*set = true
	return nil
}
