package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Provider is a stored LLM provider configuration. The store keeps the
// row as configured; interpretation and validation live in internal/llm.
type Provider struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	ProviderType string    `json:"provider_type"`
	APIKey       *string   `json:"api_key,omitempty"`
	APIBase      *string   `json:"api_base,omitempty"`
	Model        string    `json:"model"`
	MaxTokens    *int      `json:"max_tokens,omitempty"`
	Temperature  *float64  `json:"temperature,omitempty"`
	Enabled      bool      `json:"enabled"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

const providerColumns = `id, name, provider_type, api_key, api_base, model,
	max_tokens, temperature, enabled, created_at, updated_at`

// CreateProvider inserts a provider config, generating an ID when missing.
func (s *Store) CreateProvider(ctx context.Context, p *Provider) error {
	if p.Name == "" {
		return fmt.Errorf("provider name is required")
	}
	if p.ProviderType == "" {
		return fmt.Errorf("provider type is required")
	}
	if p.Model == "" {
		return fmt.Errorf("provider model is required")
	}
	if p.ID == "" {
		p.ID = generateID()
	}

	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO llm_providers (id, name, provider_type, api_key, api_base, model,
		 max_tokens, temperature, enabled, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.ProviderType, p.APIKey, p.APIBase, p.Model,
		p.MaxTokens, p.Temperature, p.Enabled, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create provider: %w", err)
	}

	return nil
}

// GetProvider fetches a provider config by ID.
func (s *Store) GetProvider(ctx context.Context, id string) (*Provider, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+providerColumns+` FROM llm_providers WHERE id = ?`, id)

	p, err := scanProvider(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("provider %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get provider: %w", err)
	}

	return p, nil
}

// UpdateProvider rewrites a provider config, bumping updated_at.
func (s *Store) UpdateProvider(ctx context.Context, p *Provider) error {
	if p.Name == "" {
		return fmt.Errorf("provider name is required")
	}
	if p.ProviderType == "" {
		return fmt.Errorf("provider type is required")
	}
	if p.Model == "" {
		return fmt.Errorf("provider model is required")
	}
	p.UpdatedAt = time.Now().UTC()

	res, err := s.db.ExecContext(ctx,
		`UPDATE llm_providers
		 SET name = ?, provider_type = ?, api_key = ?, api_base = ?, model = ?,
		     max_tokens = ?, temperature = ?, enabled = ?, updated_at = ?
		 WHERE id = ?`,
		p.Name, p.ProviderType, p.APIKey, p.APIBase, p.Model,
		p.MaxTokens, p.Temperature, p.Enabled, p.UpdatedAt, p.ID)
	if err != nil {
		return fmt.Errorf("failed to update provider: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update provider: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("provider %s: %w", p.ID, ErrNotFound)
	}

	return nil
}

// DeleteProvider removes a provider config. Chat sessions that used it
// stay behind.
func (s *Store) DeleteProvider(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM llm_providers WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete provider: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete provider: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("provider %s: %w", id, ErrNotFound)
	}

	return nil
}

// ListProviders returns all provider configs ordered by name.
func (s *Store) ListProviders(ctx context.Context) ([]*Provider, error) {
	return s.listProviders(ctx,
		`SELECT `+providerColumns+` FROM llm_providers ORDER BY name`)
}

// ListEnabledProviders returns the enabled provider configs ordered by name.
func (s *Store) ListEnabledProviders(ctx context.Context) ([]*Provider, error) {
	return s.listProviders(ctx,
		`SELECT `+providerColumns+` FROM llm_providers WHERE enabled = 1 ORDER BY name`)
}

func (s *Store) listProviders(ctx context.Context, query string, args ...any) ([]*Provider, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list providers: %w", err)
	}
	defer rows.Close()

	var out []*Provider
	for rows.Next() {
		p, err := scanProvider(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan provider: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list providers: %w", err)
	}

	return out, nil
}

// SetProviderEnabled flips the enabled flag, bumping updated_at so cached
// handles fall out.
func (s *Store) SetProviderEnabled(ctx context.Context, id string, enabled bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE llm_providers SET enabled = ?, updated_at = ? WHERE id = ?`,
		enabled, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to set provider enabled: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to set provider enabled: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("provider %s: %w", id, ErrNotFound)
	}

	return nil
}

// CountProviders reports how many provider configs exist.
func (s *Store) CountProviders(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM llm_providers`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count providers: %w", err)
	}
	return n, nil
}

// ProviderExists reports whether a provider with the given ID exists.
func (s *Store) ProviderExists(ctx context.Context, id string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM llm_providers WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check provider: %w", err)
	}
	return true, nil
}

func scanProvider(row rowScanner) (*Provider, error) {
	var p Provider
	var apiKey, apiBase sql.NullString
	var maxTokens sql.NullInt64
	var temperature sql.NullFloat64

	if err := row.Scan(&p.ID, &p.Name, &p.ProviderType, &apiKey, &apiBase, &p.Model,
		&maxTokens, &temperature, &p.Enabled, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}

	if apiKey.Valid {
		p.APIKey = &apiKey.String
	}
	if apiBase.Valid {
		p.APIBase = &apiBase.String
	}
	if maxTokens.Valid {
		v := int(maxTokens.Int64)
		p.MaxTokens = &v
	}
	if temperature.Valid {
		p.Temperature = &temperature.Float64
	}

	return &p, nil
}
