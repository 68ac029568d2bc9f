// Package config loads the OneHub configuration from defaults, an
// optional onehub.yaml, ONEHUB_ environment variables, and CLI flags,
// in that order of precedence. It is decoupled from CLI concerns so the
// HTTP server and other tools can load the same configuration.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/onehub-labs/onehub/internal/session"
)

// Config is the resolved OneHub configuration.
type Config struct {
	// StorePath is the SQLite metadata store. Relative paths resolve
	// against the directory the config file was found in.
	StorePath string `koanf:"store_path"`

	LogLevel  string `koanf:"log_level"`  // debug, info, warn, error
	LogFormat string `koanf:"log_format"` // text or json

	Server  ServerConfig  `koanf:"server"`
	Session SessionConfig `koanf:"session"`
	Export  ExportConfig  `koanf:"export"`
}

// ServerConfig holds the local HTTP API settings.
type ServerConfig struct {
	Addr string `koanf:"addr"`
}

// SessionConfig tunes the connection session pool.
type SessionConfig struct {
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	MaxLifetime     time.Duration `koanf:"max_lifetime"`
	CleanupInterval time.Duration `koanf:"cleanup_interval"`
	// MaxPerConfig caps concurrent sessions per stored connection.
	// 0 means unlimited.
	MaxPerConfig int `koanf:"max_per_config"`
}

// ExportConfig holds result-export defaults.
type ExportConfig struct {
	// NullLiteral is what NULL cells become in CSV exports.
	NullLiteral string `koanf:"null_literal"`
}

// SessionOptions converts the session settings into pool options.
func (c *Config) SessionOptions() session.Options {
	return session.Options{
		IdleTimeout:     c.Session.IdleTimeout,
		MaxLifetime:     c.Session.MaxLifetime,
		CleanupInterval: c.Session.CleanupInterval,
		MaxPerConfig:    c.Session.MaxPerConfig,
	}
}

// SlogLevel parses LogLevel into a slog level. Unknown values read as
// info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Validate checks the configuration for values the rest of the system
// cannot work with.
func (c *Config) Validate() error {
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("log_format must be text or json, got %q", c.LogFormat)
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log_level must be debug, info, warn or error, got %q", c.LogLevel)
	}
	if c.StorePath == "" {
		return fmt.Errorf("store_path is required")
	}
	if c.Session.IdleTimeout < 0 || c.Session.MaxLifetime < 0 || c.Session.CleanupInterval < 0 {
		return fmt.Errorf("session timeouts must not be negative")
	}
	if c.Session.MaxPerConfig < 0 {
		return fmt.Errorf("session max_per_config must not be negative")
	}
	return nil
}
