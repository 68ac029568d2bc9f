package session

import (
	"errors"
	"time"

	"github.com/onehub-labs/onehub/pkg/plugin"
)

// Defaults for the expiry policy. Overridable through Options.
const (
	DefaultIdleTimeout     = 5 * time.Minute
	DefaultMaxLifetime     = 30 * time.Minute
	DefaultCleanupInterval = time.Minute
)

// ErrNotFound is returned when a session ID is not in the pool.
var ErrNotFound = errors.New("session not found")

// Session is one pooled database connection together with its bookkeeping.
// While InUse is set the session belongs to exactly one caller. The manager
// mutex guards every field after creation.
type Session struct {
	ID       string
	ConfigID string
	Conn     plugin.Conn
	Plugin   plugin.Plugin

	// Database is the database the session is known to be on. Empty means
	// the backend default. Synced with the server on Release because the
	// caller may have moved the session with USE.
	Database string

	CreatedAt time.Time
	LastUsed  time.Time
	InUse     bool
}

// Options tunes the pool. Zero durations fall back to the package defaults;
// MaxPerConfig 0 means unlimited.
type Options struct {
	// IdleTimeout retires sessions that have not been used for this long.
	IdleTimeout time.Duration
	// MaxLifetime retires sessions this long after creation, busy or not.
	MaxLifetime time.Duration
	// CleanupInterval is the sweep cadence of Run.
	CleanupInterval time.Duration
	// MaxPerConfig caps concurrent sessions per connection config.
	MaxPerConfig int
}

// Stats is a point-in-time summary of the pool.
type Stats struct {
	TotalSessions       int `json:"total_sessions"`
	ActiveSessions      int `json:"active_sessions"`
	ConfigsWithSessions int `json:"configs_with_sessions"`
}

// Info describes one pooled session for monitoring surfaces.
type Info struct {
	ID          string    `json:"id"`
	ConfigID    string    `json:"config_id"`
	Database    string    `json:"database,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	LastUsed    time.Time `json:"last_used"`
	InUse       bool      `json:"in_use"`
	AgeSeconds  int64     `json:"age_seconds"`
	IdleSeconds int64     `json:"idle_seconds"`
}
