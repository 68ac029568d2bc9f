package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/onehub-labs/onehub/pkg/core"
	"github.com/onehub-labs/onehub/pkg/plugin"

	_ "github.com/go-sql-driver/mysql" // mysql driver
)

// Conn is one MySQL session.
type Conn struct {
	plugin.BaseConn
}

var _ plugin.Conn = (*Conn)(nil)

// Connect dials MySQL and returns a live session.
func (p *Plugin) Connect(ctx context.Context, cfg core.Config) (plugin.Conn, error) {
	dsn := buildDSN(cfg)

	p.Logger.Debug("connecting to mysql",
		slog.String("addr", cfg.Addr()), slog.String("database", cfg.Database))

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, &plugin.ConnectError{Type: "mysql", Err: err}
	}

	// One underlying connection per session so USE and session variables
	// stick.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, &plugin.ConnectError{Type: "mysql", Err: err}
	}

	return &Conn{BaseConn: plugin.NewBaseConn(db, p, p.Logger)}, nil
}

// buildDSN renders a go-sql-driver DSN:
// user:pass@tcp(host:port)/database?parseTime=true
func buildDSN(cfg core.Config) string {
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}

	port := cfg.Port
	if port == 0 {
		port = 3306
	}

	var auth string
	if cfg.Username != "" {
		auth = cfg.Username
		if cfg.Password != "" {
			auth += ":" + cfg.Password
		}
		auth += "@"
	}

	params := url.Values{}
	params.Set("parseTime", "true")
	for k, v := range cfg.Options {
		params.Set(k, v)
	}

	return fmt.Sprintf("%stcp(%s:%d)/%s?%s", auth, host, port, cfg.Database, params.Encode())
}

// CurrentDatabase reports the session's active database.
func (c *Conn) CurrentDatabase(ctx context.Context) (string, error) {
	var name sql.NullString
	if err := c.DB.QueryRowContext(ctx, "SELECT DATABASE()").Scan(&name); err != nil {
		return "", fmt.Errorf("current database: %w", err)
	}
	return name.String, nil
}

// SwitchDatabase changes the session's active database with USE.
func (c *Conn) SwitchDatabase(ctx context.Context, name string) error {
	if _, err := c.DB.ExecContext(ctx, "USE "+c.Plugin.QuoteIdentifier(name)); err != nil {
		return fmt.Errorf("switch database: %w", err)
	}
	return nil
}

// SupportsDatabaseSwitch reports that USE works in-session.
func (c *Conn) SupportsDatabaseSwitch() bool { return true }
