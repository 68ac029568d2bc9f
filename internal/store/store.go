// Package store persists OneHub metadata: stored connections, workspaces,
// saved queries, LLM provider configs and chat history. It is backed by an
// embedded SQLite database migrated with goose on open.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	_ "modernc.org/sqlite" // sqlite driver
)

// Store is the SQLite-backed metadata store. Methods are safe for
// concurrent use; the pool is capped at one connection, which serializes
// writers and keeps an in-memory database whole.
type Store struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// Open opens (or creates) the database at path and migrates it to the
// latest schema. ":memory:" opens a private in-memory store.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open metadata store: %w", err)
	}

	// One underlying connection; with more, an in-memory database would
	// fragment into one database per pooled connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to open metadata store: %w", err)
	}

	s := &Store{db: db, path: path, logger: logger}

	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}

	version, err := s.MigrationVersion()
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	logger.Debug("metadata store ready",
		slog.String("path", path),
		slog.Int64("schema_version", version))

	return s, nil
}

// dsn renders the store DSN. Foreign keys enforce the chat-message cascade,
// WAL keeps file-backed stores readable during writes, and the sqlite time
// format stores timestamps in a form the driver parses back and that sorts
// chronologically as text.
func dsn(path string) string {
	params := "?_pragma=foreign_keys(1)"
	if path != ":memory:" {
		params += "&_pragma=journal_mode(WAL)"
	}
	return path + params + "&_time_format=sqlite"
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the underlying handle for diagnostics.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Path reports the database path the store was opened with.
func (s *Store) Path() string {
	return s.path
}

// generateID returns a fresh uuid string for primary keys.
func generateID() string {
	return uuid.New().String()
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure.
// The driver does not export typed constraint errors, so match the text.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// isForeignKeyViolation reports whether err is a FOREIGN KEY failure.
func isForeignKeyViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
