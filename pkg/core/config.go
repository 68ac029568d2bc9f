package core

import "fmt"

// Config holds configuration for connecting to a database backend.
type Config struct {
	// Type identifies the plugin: "mysql", "postgres", "sqlite", "duckdb".
	Type string `json:"type" yaml:"type"`

	// Path is the database file path for file-backed engines.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`

	Host     string `json:"host,omitempty" yaml:"host,omitempty"`
	Port     int    `json:"port,omitempty" yaml:"port,omitempty"`
	Database string `json:"database,omitempty" yaml:"database,omitempty"`
	Username string `json:"username,omitempty" yaml:"username,omitempty"`
	Password string `json:"password,omitempty" yaml:"password,omitempty"`

	// Options are DSN-level knobs passed to the driver (sslmode, charset, ...).
	Options map[string]string `json:"options,omitempty" yaml:"options,omitempty"`

	// Params are plugin-specific settings, decoded by each plugin.
	Params map[string]any `json:"params,omitempty" yaml:"params,omitempty"`
}

// Addr returns a human-readable endpoint for logging. File-backed engines
// report their path, network engines host:port.
func (c Config) Addr() string {
	if c.Path != "" {
		return c.Path
	}
	if c.Port > 0 {
		return fmt.Sprintf("%s:%d", c.Host, c.Port)
	}
	return c.Host
}

// Redacted returns a copy safe for logging and export.
func (c Config) Redacted() Config {
	out := c
	if out.Password != "" {
		out.Password = "********"
	}
	return out
}
