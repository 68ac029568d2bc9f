package config

import "github.com/onehub-labs/onehub/internal/session"

// Default configuration values.
const (
	DefaultStorePath  = "onehub.db"
	DefaultLogLevel   = "info"
	DefaultLogFormat  = "text"
	DefaultServerAddr = "127.0.0.1:8780"
)

// Default returns a configuration with every default applied, as if
// Load ran with no file, environment, or flags.
func Default() *Config {
	return &Config{
		StorePath: DefaultStorePath,
		LogLevel:  DefaultLogLevel,
		LogFormat: DefaultLogFormat,
		Server:    ServerConfig{Addr: DefaultServerAddr},
		Session: SessionConfig{
			IdleTimeout:     session.DefaultIdleTimeout,
			MaxLifetime:     session.DefaultMaxLifetime,
			CleanupInterval: session.DefaultCleanupInterval,
		},
	}
}
