package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Connection is a stored connection profile. Params carries a
// type-specific JSON payload; see DatabaseParams for database rows.
type Connection struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Type        ConnectionType `json:"connection_type"`
	Params      string         `json:"params"`
	WorkspaceID *string        `json:"workspace_id,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// CreateConnection inserts a connection profile, generating an ID when
// missing. Names are unique across the store.
func (s *Store) CreateConnection(ctx context.Context, c *Connection) error {
	if c.Name == "" {
		return fmt.Errorf("connection name is required")
	}
	if c.Type == "" {
		return fmt.Errorf("connection type is required")
	}
	if c.ID == "" {
		c.ID = generateID()
	}
	if c.Params == "" {
		c.Params = "{}"
	}

	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO connections (id, name, connection_type, params, workspace_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, string(c.Type), c.Params, c.WorkspaceID, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("a connection named %q already exists: %w", c.Name, ErrDuplicateName)
		}
		return fmt.Errorf("failed to create connection: %w", err)
	}

	return nil
}

// GetConnection fetches a connection by ID.
func (s *Store) GetConnection(ctx context.Context, id string) (*Connection, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, connection_type, params, workspace_id, created_at, updated_at
		 FROM connections WHERE id = ?`, id)

	c, err := scanConnection(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("connection %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get connection: %w", err)
	}

	return c, nil
}

// GetConnectionByName fetches a connection by its unique name.
func (s *Store) GetConnectionByName(ctx context.Context, name string) (*Connection, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, connection_type, params, workspace_id, created_at, updated_at
		 FROM connections WHERE name = ?`, name)

	c, err := scanConnection(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("connection %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get connection: %w", err)
	}

	return c, nil
}

// UpdateConnection rewrites the profile, bumping updated_at.
func (s *Store) UpdateConnection(ctx context.Context, c *Connection) error {
	if c.Name == "" {
		return fmt.Errorf("connection name is required")
	}
	if c.Type == "" {
		return fmt.Errorf("connection type is required")
	}
	if c.Params == "" {
		c.Params = "{}"
	}
	c.UpdatedAt = time.Now().UTC()

	res, err := s.db.ExecContext(ctx,
		`UPDATE connections
		 SET name = ?, connection_type = ?, params = ?, workspace_id = ?, updated_at = ?
		 WHERE id = ?`,
		c.Name, string(c.Type), c.Params, c.WorkspaceID, c.UpdatedAt, c.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("a connection named %q already exists: %w", c.Name, ErrDuplicateName)
		}
		return fmt.Errorf("failed to update connection: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update connection: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("connection %s: %w", c.ID, ErrNotFound)
	}

	return nil
}

// DeleteConnection removes a connection profile. Saved queries that point
// at it are removed with it.
func (s *Store) DeleteConnection(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to delete connection: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM queries WHERE connection_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete connection queries: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM connections WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete connection: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete connection: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("connection %s: %w", id, ErrNotFound)
	}

	return tx.Commit()
}

// ListConnections returns all connection profiles ordered by name.
func (s *Store) ListConnections(ctx context.Context) ([]*Connection, error) {
	return s.listConnections(ctx,
		`SELECT id, name, connection_type, params, workspace_id, created_at, updated_at
		 FROM connections ORDER BY name`)
}

// ListConnectionsByWorkspace returns the connections assigned to one
// workspace, ordered by name.
func (s *Store) ListConnectionsByWorkspace(ctx context.Context, workspaceID string) ([]*Connection, error) {
	return s.listConnections(ctx,
		`SELECT id, name, connection_type, params, workspace_id, created_at, updated_at
		 FROM connections WHERE workspace_id = ? ORDER BY name`, workspaceID)
}

func (s *Store) listConnections(ctx context.Context, query string, args ...any) ([]*Connection, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list connections: %w", err)
	}
	defer rows.Close()

	var out []*Connection
	for rows.Next() {
		c, err := scanConnection(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan connection: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list connections: %w", err)
	}

	return out, nil
}

// AssignWorkspace moves a connection into a workspace. A nil workspaceID
// detaches it.
func (s *Store) AssignWorkspace(ctx context.Context, id string, workspaceID *string) error {
	if workspaceID != nil {
		ok, err := s.WorkspaceExists(ctx, *workspaceID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("workspace %s: %w", *workspaceID, ErrNotFound)
		}
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE connections SET workspace_id = ?, updated_at = ? WHERE id = ?`,
		workspaceID, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to assign workspace: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to assign workspace: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("connection %s: %w", id, ErrNotFound)
	}

	return nil
}

// CountConnections reports how many connection profiles exist.
func (s *Store) CountConnections(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM connections`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count connections: %w", err)
	}
	return n, nil
}

// ConnectionExists reports whether a connection with the given ID exists.
func (s *Store) ConnectionExists(ctx context.Context, id string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM connections WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check connection: %w", err)
	}
	return true, nil
}

func scanConnection(row rowScanner) (*Connection, error) {
	var c Connection
	var connType string
	var workspaceID sql.NullString

	if err := row.Scan(&c.ID, &c.Name, &connType, &c.Params, &workspaceID, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}

	c.Type = ConnectionType(connType)
	if workspaceID.Valid {
		c.WorkspaceID = &workspaceID.String
	}

	return &c, nil
}
