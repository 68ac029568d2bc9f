package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"

	"github.com/onehub-labs/onehub/pkg/core"
	"github.com/onehub-labs/onehub/pkg/plugin"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx database/sql driver
)

// Conn is one PostgreSQL session. The session stays bound to the database it
// was dialed with; switching requires a new session.
type Conn struct {
	plugin.BaseConn
}

var _ plugin.Conn = (*Conn)(nil)

// Connect dials PostgreSQL and returns a live session.
func (p *Plugin) Connect(ctx context.Context, cfg core.Config) (plugin.Conn, error) {
	dsn := buildDSN(cfg)

	p.Logger.Debug("connecting to postgres",
		slog.String("addr", cfg.Addr()), slog.String("database", cfg.Database))

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, &plugin.ConnectError{Type: "postgres", Err: err}
	}

	// One underlying connection per session so SET and temp objects stick.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, &plugin.ConnectError{Type: "postgres", Err: err}
	}

	return &Conn{BaseConn: plugin.NewBaseConn(db, p, p.Logger)}, nil
}

// buildDSN renders a key=value DSN:
// host=localhost port=5432 dbname=shop sslmode=disable user=... password=...
func buildDSN(cfg core.Config) string {
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}

	port := cfg.Port
	if port == 0 {
		port = 5432
	}

	sslmode := "disable"
	extra := make([]string, 0, len(cfg.Options))
	for k, v := range cfg.Options {
		if k == "sslmode" {
			sslmode = v
			continue
		}
		extra = append(extra, fmt.Sprintf("%s=%s", k, v))
	}
	sort.Strings(extra)

	dsn := fmt.Sprintf("host=%s port=%d dbname=%s sslmode=%s",
		host, port, cfg.Database, sslmode)

	if cfg.Username != "" {
		dsn += fmt.Sprintf(" user=%s", cfg.Username)
	}
	if cfg.Password != "" {
		dsn += fmt.Sprintf(" password=%s", cfg.Password)
	}
	for _, kv := range extra {
		dsn += " " + kv
	}
	return dsn
}

// CurrentDatabase reports the database the session is bound to.
func (c *Conn) CurrentDatabase(ctx context.Context) (string, error) {
	var name string
	if err := c.DB.QueryRowContext(ctx, "SELECT current_database()").Scan(&name); err != nil {
		return "", fmt.Errorf("current database: %w", err)
	}
	return name, nil
}
