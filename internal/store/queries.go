package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Query is a saved SQL statement scoped to a connection. DatabaseName pins
// the database it runs against; nil means the connection default.
type Query struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	SQLContent   string    `json:"sql_content"`
	ConnectionID string    `json:"connection_id"`
	DatabaseName *string   `json:"database_name,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

var queryNamePattern = regexp.MustCompile(`^[a-zA-Z0-9 _-]+$`)

// ValidateQueryName enforces the saved-query naming rules: non-empty, at
// most 100 characters, alphanumeric plus space, hyphen and underscore.
func ValidateQueryName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("query name cannot be empty: %w", ErrInvalidName)
	}
	if len(name) > 100 {
		return fmt.Errorf("query name cannot exceed 100 characters: %w", ErrInvalidName)
	}
	if !queryNamePattern.MatchString(name) {
		return fmt.Errorf("query name may only contain letters, numbers, spaces, hyphens and underscores: %w", ErrInvalidName)
	}
	return nil
}

// CreateQuery saves a query, filling in its assigned ID. Names are unique
// within a connection.
func (s *Store) CreateQuery(ctx context.Context, q *Query) error {
	if err := ValidateQueryName(q.Name); err != nil {
		return err
	}
	if q.ConnectionID == "" {
		return fmt.Errorf("query connection is required")
	}

	now := time.Now().UTC()
	q.CreatedAt = now
	q.UpdatedAt = now

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO queries (name, sql_content, connection_id, database_name, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		q.Name, q.SQLContent, q.ConnectionID, q.DatabaseName, q.CreatedAt, q.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("a query with this name already exists in the connection: %w", ErrDuplicateName)
		}
		return fmt.Errorf("failed to create query: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to create query: %w", err)
	}
	q.ID = id

	return nil
}

// GetQuery fetches a saved query by ID.
func (s *Store) GetQuery(ctx context.Context, id int64) (*Query, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, sql_content, connection_id, database_name, created_at, updated_at
		 FROM queries WHERE id = ?`, id)

	q, err := scanQuery(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("query %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get query: %w", err)
	}

	return q, nil
}

// GetQueryByName fetches a saved query by its per-connection name.
func (s *Store) GetQueryByName(ctx context.Context, connectionID, name string) (*Query, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, sql_content, connection_id, database_name, created_at, updated_at
		 FROM queries WHERE connection_id = ? AND name = ?`, connectionID, name)

	q, err := scanQuery(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("query %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get query: %w", err)
	}

	return q, nil
}

// UpdateQuery rewrites name, SQL and database pin, bumping updated_at. The
// owning connection does not change.
func (s *Store) UpdateQuery(ctx context.Context, q *Query) error {
	if err := ValidateQueryName(q.Name); err != nil {
		return err
	}
	q.UpdatedAt = time.Now().UTC()

	res, err := s.db.ExecContext(ctx,
		`UPDATE queries SET name = ?, sql_content = ?, database_name = ?, updated_at = ?
		 WHERE id = ?`,
		q.Name, q.SQLContent, q.DatabaseName, q.UpdatedAt, q.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("a query with this name already exists in the connection: %w", ErrDuplicateName)
		}
		return fmt.Errorf("failed to update query: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update query: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("query %d: %w", q.ID, ErrNotFound)
	}

	return nil
}

// DeleteQuery removes a saved query.
func (s *Store) DeleteQuery(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM queries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete query: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete query: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("query %d: %w", id, ErrNotFound)
	}

	return nil
}

// ListQueries returns every saved query, most recently updated first.
func (s *Store) ListQueries(ctx context.Context) ([]*Query, error) {
	return s.listQueries(ctx,
		`SELECT id, name, sql_content, connection_id, database_name, created_at, updated_at
		 FROM queries ORDER BY updated_at DESC, id DESC`)
}

// ListQueriesByConnection returns a connection's saved queries, most
// recently updated first.
func (s *Store) ListQueriesByConnection(ctx context.Context, connectionID string) ([]*Query, error) {
	return s.listQueries(ctx,
		`SELECT id, name, sql_content, connection_id, database_name, created_at, updated_at
		 FROM queries WHERE connection_id = ? ORDER BY updated_at DESC, id DESC`, connectionID)
}

func (s *Store) listQueries(ctx context.Context, query string, args ...any) ([]*Query, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list queries: %w", err)
	}
	defer rows.Close()

	var out []*Query
	for rows.Next() {
		q, err := scanQuery(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan query: %w", err)
		}
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list queries: %w", err)
	}

	return out, nil
}

// CountQueries reports how many saved queries exist.
func (s *Store) CountQueries(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM queries`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count queries: %w", err)
	}
	return n, nil
}

// QueryExists reports whether a saved query with the given ID exists.
func (s *Store) QueryExists(ctx context.Context, id int64) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM queries WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check query: %w", err)
	}
	return true, nil
}

func scanQuery(row rowScanner) (*Query, error) {
	var q Query
	var database sql.NullString

	if err := row.Scan(&q.ID, &q.Name, &q.SQLContent, &q.ConnectionID, &database, &q.CreatedAt, &q.UpdatedAt); err != nil {
		return nil, err
	}

	if database.Valid {
		q.DatabaseName = &database.String
	}

	return &q, nil
}
