// Package config handles TOML-based configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/BurntSushi/toml"
)

const appName = "ytscript"

var languagePattern = regexp.MustCompile(`^[a-zA-Z]{2,3}(-[a-zA-Z0-9]{2,8})*$`)

// Config holds all application configuration.
type Config struct {
	Language          string        `toml:"language"`
	MaxAttempts       int           `toml:"max_attempts"`
	MinChars          int           `toml:"min_chars"`
	AcceptShort       bool          `toml:"accept_short"`
	Timeout           time.Duration `toml:"timeout"`
	NetworkBackoff    time.Duration `toml:"network_backoff"`
	ParseBackoff      time.Duration `toml:"parse_backoff"`
	Jitter            time.Duration `toml:"jitter"`
	DelayMin          time.Duration `toml:"delay_min"`
	DelayMax          time.Duration `toml:"delay_max"`
	RequestsPerMinute int           `toml:"requests_per_minute"` // 0 disables the shared limiter
	History           bool          `toml:"history"`
	Debug             bool          `toml:"debug"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Language:       "en",
		MaxAttempts:    5,
		MinChars:       100,
		AcceptShort:    false,
		Timeout:        30 * time.Second,
		NetworkBackoff: time.Second,
		ParseBackoff:   500 * time.Millisecond,
		Jitter:         0,
		DelayMin:       8 * time.Second,
		DelayMax:       12 * time.Second,
		History:        true,
		Debug:          false,
	}
}

// configDir returns the XDG-compliant config directory.
func configDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".config", appName), nil
}

// ConfigPath returns the path to the config file.
func ConfigPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads the config file and merges with defaults.
// If the config file doesn't exist, defaults are returned.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return Default(), nil
	}
	return LoadFile(path)
}

// LoadFile reads the config at path and merges it with defaults.
// A missing file yields the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("parsing config %s: unknown key %q", path, undecoded[0].String())
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate checks config values are within acceptable bounds.
func (c *Config) Validate() error {
	if !languagePattern.MatchString(c.Language) {
		return fmt.Errorf("invalid language %q (want a code such as en or pt-BR)", c.Language)
	}
	if c.MaxAttempts < 1 || c.MaxAttempts > 20 {
		return fmt.Errorf("max_attempts must be between 1 and 20, got %d", c.MaxAttempts)
	}
	if c.MinChars < 0 {
		return fmt.Errorf("min_chars cannot be negative, got %d", c.MinChars)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if c.NetworkBackoff <= 0 || c.ParseBackoff <= 0 {
		return fmt.Errorf("backoff durations must be positive")
	}
	if c.Jitter < 0 {
		return fmt.Errorf("jitter cannot be negative, got %s", c.Jitter)
	}
	if c.DelayMin < 0 {
		return fmt.Errorf("delay_min cannot be negative, got %s", c.DelayMin)
	}
	if c.DelayMax < c.DelayMin {
		return fmt.Errorf("delay_max (%s) cannot be less than delay_min (%s)", c.DelayMax, c.DelayMin)
	}
	if c.RequestsPerMinute < 0 {
		return fmt.Errorf("requests_per_minute cannot be negative, got %d", c.RequestsPerMinute)
	}
	return nil
}

// HistoryPath returns the path to the history database.
func HistoryPath() (string, error) {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, appName, "history.db"), nil
}
