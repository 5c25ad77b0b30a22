// Package config loads worklog settings from defaults, an optional YAML
// file and WORKLOG_* environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/chris/worklog/internal/logging"
)

const (
	envPrefix = "WORKLOG_"

	defaultPageSize        = 4
	defaultNotificationTTL = 4 * time.Second
	defaultTimeout         = 30 * time.Second
	defaultRatePerMinute   = 10
	defaultLanguage        = "en"
	defaultEndpoint        = "http://127.0.0.1:8787"
)

// Config holds every runtime setting
type Config struct {
	DB        DBConfig        `koanf:"db"`
	Log       LogConfig       `koanf:"log"`
	History   HistoryConfig   `koanf:"history"`
	Generator GeneratorConfig `koanf:"generator"`
	Auth      AuthConfig      `koanf:"auth"`
}

// DBConfig locates the sqlite journal. Empty means the XDG data default.
type DBConfig struct {
	Path string `koanf:"path"`
}

// LogConfig mirrors logging.Config
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// HistoryConfig tunes the week browser
type HistoryConfig struct {
	PageSize        int           `koanf:"page_size"`
	NotificationTTL time.Duration `koanf:"notification_ttl"`
}

// GeneratorConfig points at the summary generation service
type GeneratorConfig struct {
	Endpoint      string        `koanf:"endpoint"`
	Timeout       time.Duration `koanf:"timeout"`
	RatePerMinute int           `koanf:"rate_per_minute"`
	Language      string        `koanf:"language"`
}

// AuthConfig says where the access token comes from. Token wins over
// TokenFile when both are set.
type AuthConfig struct {
	TokenFile string `koanf:"token_file"`
	Token     string `koanf:"token"`
}

// Logging returns the logging section in the logging package's shape
func (c *Config) Logging() logging.Config {
	return logging.Config{Level: c.Log.Level, Format: c.Log.Format}
}

// Load reads configuration with precedence env > file > defaults.
// An empty path means DefaultPath(); a missing file is not an error.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path == "" {
		path = DefaultPath()
	}

	content, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// No file, defaults and env only
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// WORKLOG_GENERATOR_RATE_PER_MINUTE -> generator.rate_per_minute
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, envPrefix))
		section, field, found := strings.Cut(key, "_")
		if !found {
			return key
		}
		return section + "." + field
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// Default returns a Config populated only with defaults
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.History.PageSize == 0 {
		cfg.History.PageSize = defaultPageSize
	}
	if cfg.History.NotificationTTL == 0 {
		cfg.History.NotificationTTL = defaultNotificationTTL
	}
	if cfg.Generator.Endpoint == "" {
		cfg.Generator.Endpoint = defaultEndpoint
	}
	if cfg.Generator.Timeout == 0 {
		cfg.Generator.Timeout = defaultTimeout
	}
	if cfg.Generator.RatePerMinute == 0 {
		cfg.Generator.RatePerMinute = defaultRatePerMinute
	}
	if cfg.Generator.Language == "" {
		cfg.Generator.Language = defaultLanguage
	}
	if cfg.Auth.TokenFile == "" {
		cfg.Auth.TokenFile = DefaultTokenPath()
	}
}

// Validate rejects settings no component can run with
func (c *Config) Validate() error {
	if c.History.PageSize < 1 {
		return fmt.Errorf("history.page_size must be at least 1, got %d", c.History.PageSize)
	}
	if c.History.NotificationTTL <= 0 {
		return fmt.Errorf("history.notification_ttl must be positive")
	}
	if c.Generator.Timeout <= 0 {
		return fmt.Errorf("generator.timeout must be positive")
	}
	if c.Generator.RatePerMinute < 1 {
		return fmt.Errorf("generator.rate_per_minute must be at least 1")
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	switch c.Log.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	return nil
}

// DefaultPath returns $XDG_CONFIG_HOME/worklog/config.yaml, falling back
// to ~/.config
func DefaultPath() string {
	return filepath.Join(xdgDir("XDG_CONFIG_HOME", ".config"), "worklog", "config.yaml")
}

// DefaultTokenPath returns $XDG_STATE_HOME/worklog/token, falling back to
// ~/.local/state
func DefaultTokenPath() string {
	return filepath.Join(xdgDir("XDG_STATE_HOME", ".local/state"), "worklog", "token")
}

func xdgDir(envVar, fallback string) string {
	if dir := os.Getenv(envVar); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to /tmp if we can't get home directory
		return filepath.Join("/tmp", fallback)
	}
	return filepath.Join(home, fallback)
}
