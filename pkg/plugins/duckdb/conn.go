package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strings"

	"github.com/onehub-labs/onehub/pkg/core"
	"github.com/onehub-labs/onehub/pkg/plugin"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver
)

// Conn is one DuckDB session.
type Conn struct {
	plugin.BaseConn
}

var _ plugin.Conn = (*Conn)(nil)

// Connect opens a DuckDB database file (":memory:" when no path is set),
// then installs the configured extensions and applies session settings.
func (p *Plugin) Connect(ctx context.Context, cfg core.Config) (plugin.Conn, error) {
	params, err := parseParams(cfg.Params)
	if err != nil {
		return nil, &plugin.ConnectError{Type: "duckdb", Err: err}
	}

	dsn := buildDSN(cfg)

	p.Logger.Debug("connecting to duckdb", slog.String("path", dsn))

	db, err := sql.Open("duckdb", dsn)
	if err != nil {
		return nil, &plugin.ConnectError{Type: "duckdb", Err: err}
	}

	// Session settings, USE and an in-memory catalog all live on one
	// underlying connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, &plugin.ConnectError{Type: "duckdb", Err: err}
	}

	if err := applyParams(ctx, db, params); err != nil {
		_ = db.Close()
		return nil, &plugin.ConnectError{Type: "duckdb", Err: err}
	}

	return &Conn{BaseConn: plugin.NewBaseConn(db, p, p.Logger)}, nil
}

// buildDSN renders the database path with driver-level config options as
// query parameters (access_mode, threads, ...).
func buildDSN(cfg core.Config) string {
	path := cfg.Path
	if path == "" {
		path = ":memory:"
	}

	if len(cfg.Options) == 0 {
		return path
	}

	params := url.Values{}
	for k, v := range cfg.Options {
		params.Set(k, v)
	}
	return path + "?" + params.Encode()
}

// applyParams installs and loads extensions, then applies session settings
// in key order.
func applyParams(ctx context.Context, db *sql.DB, params *Params) error {
	for _, ext := range params.Extensions {
		if _, err := db.ExecContext(ctx, "INSTALL "+ext); err != nil {
			return fmt.Errorf("install extension %s: %w", ext, err)
		}
		if _, err := db.ExecContext(ctx, "LOAD "+ext); err != nil {
			return fmt.Errorf("load extension %s: %w", ext, err)
		}
	}

	keys := make([]string, 0, len(params.Settings))
	for k := range params.Settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		value := strings.ReplaceAll(params.Settings[k], "'", "''")
		if _, err := db.ExecContext(ctx, fmt.Sprintf("SET %s = '%s'", k, value)); err != nil {
			return fmt.Errorf("apply setting %s: %w", k, err)
		}
	}
	return nil
}

// CurrentDatabase reports the session's active catalog.
func (c *Conn) CurrentDatabase(ctx context.Context) (string, error) {
	var name sql.NullString
	if err := c.DB.QueryRowContext(ctx, "SELECT current_database()").Scan(&name); err != nil {
		return "", fmt.Errorf("current database: %w", err)
	}
	return name.String, nil
}

// SwitchDatabase changes the session's active catalog with USE.
func (c *Conn) SwitchDatabase(ctx context.Context, name string) error {
	if _, err := c.DB.ExecContext(ctx, "USE "+c.Plugin.QuoteIdentifier(name)); err != nil {
		return fmt.Errorf("switch database: %w", err)
	}
	return nil
}

// SupportsDatabaseSwitch reports that USE works in-session.
func (c *Conn) SupportsDatabaseSwitch() bool { return true }
