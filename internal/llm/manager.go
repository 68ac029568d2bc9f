// Package llm manages LLM provider configurations for the GUI assistant.
// Chat completion happens in the GUI process; this layer validates stored
// configs, answers catalog questions (default endpoints, models) and hands
// out cached provider handles.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/onehub-labs/onehub/internal/store"
)

// ErrProviderDisabled is returned when a handle is requested for a
// provider the user switched off.
var ErrProviderDisabled = errors.New("provider is disabled")

// Provider is a validated handle resolved from the store. It carries the
// effective endpoint so callers do not re-derive defaults.
type Provider struct {
	cfg     Config
	apiBase string
}

// Config returns the validated configuration.
func (p *Provider) Config() Config { return p.cfg }

// Type returns the provider family.
func (p *Provider) Type() ProviderType { return p.cfg.Type }

// Model returns the configured model ID.
func (p *Provider) Model() string { return p.cfg.Model }

// APIBase returns the endpoint the provider talks to.
func (p *Provider) APIBase() string { return p.apiBase }

// Manager caches validated provider handles keyed by config ID. A handle
// stays cached until the stored row's updated_at moves past it.
type Manager struct {
	store  *store.Store
	logger *slog.Logger

	mu    sync.Mutex
	cache map[string]cacheEntry
}

type cacheEntry struct {
	provider  *Provider
	updatedAt time.Time
}

// NewManager builds a manager over the metadata store.
func NewManager(st *store.Store, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Manager{
		store:  st,
		logger: logger,
		cache:  make(map[string]cacheEntry),
	}
}

// Get resolves a provider handle by config ID. Disabled providers error
// with ErrProviderDisabled; missing ones surface the store's not-found.
func (m *Manager) Get(ctx context.Context, id string) (*Provider, error) {
	rec, err := m.store.GetProvider(ctx, id)
	if err != nil {
		return nil, err
	}

	if !rec.Enabled {
		m.Invalidate(id)
		return nil, fmt.Errorf("provider %s: %w", id, ErrProviderDisabled)
	}

	m.mu.Lock()
	if e, ok := m.cache[id]; ok && !rec.UpdatedAt.After(e.updatedAt) {
		m.mu.Unlock()
		return e.provider, nil
	}
	m.mu.Unlock()

	cfg, err := ConfigFromRecord(rec)
	if err != nil {
		return nil, fmt.Errorf("provider %s: %w", id, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("provider %s: %w", id, err)
	}

	p := &Provider{cfg: cfg, apiBase: cfg.EffectiveAPIBase()}

	m.mu.Lock()
	m.cache[id] = cacheEntry{provider: p, updatedAt: rec.UpdatedAt}
	m.mu.Unlock()

	m.logger.Debug("built provider handle",
		slog.String("provider_id", id),
		slog.String("type", string(cfg.Type)),
		slog.String("model", cfg.Model))

	return p, nil
}

// Invalidate drops one cached handle.
func (m *Manager) Invalidate(id string) {
	m.mu.Lock()
	delete(m.cache, id)
	m.mu.Unlock()
}

// Reset drops every cached handle.
func (m *Manager) Reset() {
	m.mu.Lock()
	m.cache = make(map[string]cacheEntry)
	m.mu.Unlock()
}
