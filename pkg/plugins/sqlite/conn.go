package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/onehub-labs/onehub/pkg/core"
	"github.com/onehub-labs/onehub/pkg/plugin"

	_ "modernc.org/sqlite" // sqlite driver
)

// Conn is one SQLite session.
type Conn struct {
	plugin.BaseConn
}

var _ plugin.Conn = (*Conn)(nil)

// Connect opens the database file (or an in-memory database when the path
// is empty) and returns a live session.
func (p *Plugin) Connect(ctx context.Context, cfg core.Config) (plugin.Conn, error) {
	dsn := buildDSN(cfg)

	p.Logger.Debug("opening sqlite database", slog.String("path", dsn))

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, &plugin.ConnectError{Type: "sqlite", Err: err}
	}

	// One underlying connection per session; with more, an in-memory
	// database would fragment into one database per pooled connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, &plugin.ConnectError{Type: "sqlite", Err: err}
	}

	return &Conn{BaseConn: plugin.NewBaseConn(db, p, p.Logger)}, nil
}

// buildDSN renders the file path with Options as _pragma parameters:
// data.db?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)
func buildDSN(cfg core.Config) string {
	path := cfg.Path
	if path == "" {
		path = ":memory:"
	}

	if len(cfg.Options) == 0 {
		return path
	}

	pragmas := make([]string, 0, len(cfg.Options))
	for k, v := range cfg.Options {
		pragmas = append(pragmas, fmt.Sprintf("_pragma=%s(%s)", k, v))
	}
	sort.Strings(pragmas)

	return path + "?" + strings.Join(pragmas, "&")
}

// CurrentDatabase reports "main", the primary database of every session.
func (c *Conn) CurrentDatabase(ctx context.Context) (string, error) {
	return "main", nil
}
