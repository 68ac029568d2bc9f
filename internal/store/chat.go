package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ChatSession is one GUI chat thread bound to a provider config.
type ChatSession struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	ProviderID string    `json:"provider_id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ChatMessage is one turn inside a chat session.
type ChatMessage struct {
	ID        int64     `json:"id"`
	SessionID string    `json:"session_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateChatSession inserts a chat session, generating an ID when missing.
func (s *Store) CreateChatSession(ctx context.Context, cs *ChatSession) error {
	if cs.Name == "" {
		return fmt.Errorf("chat session name is required")
	}
	if cs.ProviderID == "" {
		return fmt.Errorf("chat session provider is required")
	}
	if cs.ID == "" {
		cs.ID = generateID()
	}

	now := time.Now().UTC()
	cs.CreatedAt = now
	cs.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_sessions (id, name, provider_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		cs.ID, cs.Name, cs.ProviderID, cs.CreatedAt, cs.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create chat session: %w", err)
	}

	return nil
}

// GetChatSession fetches a chat session by ID.
func (s *Store) GetChatSession(ctx context.Context, id string) (*ChatSession, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, provider_id, created_at, updated_at
		 FROM chat_sessions WHERE id = ?`, id)

	var cs ChatSession
	err := row.Scan(&cs.ID, &cs.Name, &cs.ProviderID, &cs.CreatedAt, &cs.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("chat session %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get chat session: %w", err)
	}

	return &cs, nil
}

// ListChatSessions returns chat sessions, most recently active first. An
// empty providerID lists all sessions.
func (s *Store) ListChatSessions(ctx context.Context, providerID string) ([]*ChatSession, error) {
	query := `SELECT id, name, provider_id, created_at, updated_at
	          FROM chat_sessions ORDER BY updated_at DESC, id`
	args := []any{}
	if providerID != "" {
		query = `SELECT id, name, provider_id, created_at, updated_at
		         FROM chat_sessions WHERE provider_id = ? ORDER BY updated_at DESC, id`
		args = append(args, providerID)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list chat sessions: %w", err)
	}
	defer rows.Close()

	var out []*ChatSession
	for rows.Next() {
		var cs ChatSession
		if err := rows.Scan(&cs.ID, &cs.Name, &cs.ProviderID, &cs.CreatedAt, &cs.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan chat session: %w", err)
		}
		out = append(out, &cs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list chat sessions: %w", err)
	}

	return out, nil
}

// RenameChatSession sets a session's name, bumping updated_at.
func (s *Store) RenameChatSession(ctx context.Context, id, name string) error {
	if name == "" {
		return fmt.Errorf("chat session name is required")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE chat_sessions SET name = ?, updated_at = ? WHERE id = ?`,
		name, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to rename chat session: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to rename chat session: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("chat session %s: %w", id, ErrNotFound)
	}

	return nil
}

// DeleteChatSession removes a session; its messages cascade with it.
func (s *Store) DeleteChatSession(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM chat_sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete chat session: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete chat session: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("chat session %s: %w", id, ErrNotFound)
	}

	return nil
}

// AppendChatMessage adds a message to a session and marks the session
// active, in one transaction.
func (s *Store) AppendChatMessage(ctx context.Context, m *ChatMessage) error {
	if m.SessionID == "" {
		return fmt.Errorf("chat message session is required")
	}
	if m.Role == "" {
		return fmt.Errorf("chat message role is required")
	}

	m.CreatedAt = time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to append chat message: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO chat_messages (session_id, role, content, created_at)
		 VALUES (?, ?, ?, ?)`,
		m.SessionID, m.Role, m.Content, m.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("chat session %s: %w", m.SessionID, ErrNotFound)
		}
		return fmt.Errorf("failed to append chat message: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to append chat message: %w", err)
	}
	m.ID = id

	if _, err := tx.ExecContext(ctx,
		`UPDATE chat_sessions SET updated_at = ? WHERE id = ?`,
		m.CreatedAt, m.SessionID); err != nil {
		return fmt.Errorf("failed to touch chat session: %w", err)
	}

	return tx.Commit()
}

// ListChatMessages returns a session's messages in conversation order.
func (s *Store) ListChatMessages(ctx context.Context, sessionID string) ([]*ChatMessage, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, role, content, created_at
		 FROM chat_messages WHERE session_id = ? ORDER BY created_at ASC, id ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chat messages: %w", err)
	}
	defer rows.Close()

	var out []*ChatMessage
	for rows.Next() {
		var m ChatMessage
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan chat message: %w", err)
		}
		out = append(out, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list chat messages: %w", err)
	}

	return out, nil
}

// CountChatMessages reports how many messages a session holds.
func (s *Store) CountChatMessages(ctx context.Context, sessionID string) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM chat_messages WHERE session_id = ?`, sessionID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count chat messages: %w", err)
	}
	return n, nil
}
