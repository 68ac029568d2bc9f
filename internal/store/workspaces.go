package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Workspace groups stored connections in the GUI sidebar.
type Workspace struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color,omitempty"`
	Icon      string    `json:"icon,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateWorkspace inserts a workspace, generating an ID when missing.
func (s *Store) CreateWorkspace(ctx context.Context, w *Workspace) error {
	if w.Name == "" {
		return fmt.Errorf("workspace name is required")
	}
	if w.ID == "" {
		w.ID = generateID()
	}

	now := time.Now().UTC()
	w.CreatedAt = now
	w.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO workspaces (id, name, color, icon, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		w.ID, w.Name, nullString(w.Color), nullString(w.Icon), w.CreatedAt, w.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("a workspace named %q already exists: %w", w.Name, ErrDuplicateName)
		}
		return fmt.Errorf("failed to create workspace: %w", err)
	}

	return nil
}

// GetWorkspace fetches a workspace by ID.
func (s *Store) GetWorkspace(ctx context.Context, id string) (*Workspace, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, color, icon, created_at, updated_at
		 FROM workspaces WHERE id = ?`, id)

	w, err := scanWorkspace(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("workspace %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get workspace: %w", err)
	}

	return w, nil
}

// UpdateWorkspace rewrites name, color and icon, bumping updated_at.
func (s *Store) UpdateWorkspace(ctx context.Context, w *Workspace) error {
	if w.Name == "" {
		return fmt.Errorf("workspace name is required")
	}
	w.UpdatedAt = time.Now().UTC()

	res, err := s.db.ExecContext(ctx,
		`UPDATE workspaces SET name = ?, color = ?, icon = ?, updated_at = ? WHERE id = ?`,
		w.Name, nullString(w.Color), nullString(w.Icon), w.UpdatedAt, w.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("a workspace named %q already exists: %w", w.Name, ErrDuplicateName)
		}
		return fmt.Errorf("failed to update workspace: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update workspace: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("workspace %s: %w", w.ID, ErrNotFound)
	}

	return nil
}

// DeleteWorkspace removes a workspace. Its connections survive and are
// detached in the same transaction.
func (s *Store) DeleteWorkspace(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to delete workspace: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`UPDATE connections SET workspace_id = NULL WHERE workspace_id = ?`, id); err != nil {
		return fmt.Errorf("failed to detach connections: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM workspaces WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete workspace: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete workspace: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("workspace %s: %w", id, ErrNotFound)
	}

	return tx.Commit()
}

// ListWorkspaces returns all workspaces ordered by name.
func (s *Store) ListWorkspaces(ctx context.Context) ([]*Workspace, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, color, icon, created_at, updated_at
		 FROM workspaces ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list workspaces: %w", err)
	}
	defer rows.Close()

	var out []*Workspace
	for rows.Next() {
		w, err := scanWorkspace(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan workspace: %w", err)
		}
		out = append(out, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list workspaces: %w", err)
	}

	return out, nil
}

// CountWorkspaces reports how many workspaces exist.
func (s *Store) CountWorkspaces(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM workspaces`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count workspaces: %w", err)
	}
	return n, nil
}

// WorkspaceExists reports whether a workspace with the given ID exists.
func (s *Store) WorkspaceExists(ctx context.Context, id string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM workspaces WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check workspace: %w", err)
	}
	return true, nil
}

func scanWorkspace(row rowScanner) (*Workspace, error) {
	var w Workspace
	var color, icon sql.NullString

	if err := row.Scan(&w.ID, &w.Name, &color, &icon, &w.CreatedAt, &w.UpdatedAt); err != nil {
		return nil, err
	}

	w.Color = color.String
	w.Icon = icon.String
	return &w, nil
}
