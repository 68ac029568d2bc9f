// Package session pools live database connections per stored connection
// config. A session carries server-side state (USE, SET, temporary objects),
// so the pool hands each one to exactly one caller at a time and retires
// sessions on idle and lifetime deadlines.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/onehub-labs/onehub/pkg/core"
	"github.com/onehub-labs/onehub/pkg/plugin"
)

// verifyTimeout bounds the database check Release performs after the
// caller's ctx may already be done.
const verifyTimeout = 5 * time.Second

// Manager pools sessions keyed by connection config ID. Backends are dialed
// through the plugin registry.
type Manager struct {
	mu       sync.Mutex
	sessions map[string][]*Session
	dialing  map[string]int // slots reserved for dials in flight
	counter  uint64

	idleTimeout     time.Duration
	maxLifetime     time.Duration
	cleanupInterval time.Duration
	maxPerConfig    int

	logger *slog.Logger
}

// NewManager creates a pool with the given options (zero values use the
// package defaults) and logger (nil uses a discard logger).
func NewManager(opts Options, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	m := &Manager{
		sessions:        make(map[string][]*Session),
		dialing:         make(map[string]int),
		idleTimeout:     opts.IdleTimeout,
		maxLifetime:     opts.MaxLifetime,
		cleanupInterval: opts.CleanupInterval,
		maxPerConfig:    opts.MaxPerConfig,
		logger:          logger,
	}
	if m.idleTimeout <= 0 {
		m.idleTimeout = DefaultIdleTimeout
	}
	if m.maxLifetime <= 0 {
		m.maxLifetime = DefaultMaxLifetime
	}
	if m.cleanupInterval <= 0 {
		m.cleanupInterval = DefaultCleanupInterval
	}
	if m.maxPerConfig < 0 {
		m.maxPerConfig = 0
	}
	return m
}

// SetOptions retunes the pool in place. Zero values keep the package
// defaults; existing sessions pick up the new deadlines on the next sweep.
func (m *Manager) SetOptions(opts Options) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.idleTimeout = opts.IdleTimeout
	if m.idleTimeout <= 0 {
		m.idleTimeout = DefaultIdleTimeout
	}
	m.maxLifetime = opts.MaxLifetime
	if m.maxLifetime <= 0 {
		m.maxLifetime = DefaultMaxLifetime
	}
	m.maxPerConfig = opts.MaxPerConfig
	if m.maxPerConfig < 0 {
		m.maxPerConfig = 0
	}
}

// Acquire returns a session for the config, marked in-use and owned by the
// caller until Release. An idle session is reused when its database matches
// the request; switch-capable backends also reuse idle sessions on other
// databases by switching in place. Otherwise a new session is dialed.
// database overrides cfg.Database when non-empty.
func (m *Manager) Acquire(ctx context.Context, configID string, cfg core.Config, database string) (*Session, error) {
	if database != "" {
		cfg.Database = database
	}

	for {
		s, switchTo := m.claimIdle(configID, cfg.Database)
		if s == nil {
			break
		}
		// The claim is exclusive, so the probe cannot race another caller.
		if err := s.Conn.Ping(ctx); err != nil {
			m.logger.Warn("pooled session failed ping, discarding",
				"session_id", s.ID, "error", err)
			m.discard(s)
			continue
		}
		if switchTo == "" {
			m.logger.Debug("reusing session", "session_id", s.ID, "database", s.Database)
			return s, nil
		}
		if err := s.Conn.SwitchDatabase(ctx, switchTo); err != nil {
			m.logger.Warn("database switch failed, discarding session",
				"session_id", s.ID, "database", switchTo, "error", err)
			m.discard(s)
			continue
		}
		m.mu.Lock()
		s.Database = switchTo
		m.mu.Unlock()
		m.logger.Debug("reusing session after switch", "session_id", s.ID, "database", switchTo)
		return s, nil
	}

	id, err := m.reserve(configID)
	if err != nil {
		return nil, err
	}

	p, err := plugin.New(cfg, m.logger)
	if err != nil {
		m.dialDone(configID, nil)
		return nil, err
	}
	conn, err := p.Connect(ctx, cfg)
	if err != nil {
		m.dialDone(configID, nil)
		return nil, err
	}

	now := time.Now()
	s := &Session{
		ID:        id,
		ConfigID:  configID,
		Conn:      conn,
		Plugin:    p,
		Database:  cfg.Database,
		CreatedAt: now,
		LastUsed:  now,
		InUse:     true,
	}
	m.dialDone(configID, s)

	m.logger.Info("created session", "session_id", id, "database", cfg.Database)
	return s, nil
}

// WithSession acquires a session, runs fn and releases the session again.
func (m *Manager) WithSession(ctx context.Context, configID string, cfg core.Config, database string, fn func(*Session) error) error {
	s, err := m.Acquire(ctx, configID, cfg, database)
	if err != nil {
		return err
	}
	defer m.Release(ctx, s)
	return fn(s)
}

// Release returns a session to the pool. On switch-capable backends the
// active database is read back first because the caller may have moved the
// session; a failed check retires the session instead of pooling it.
func (m *Manager) Release(ctx context.Context, s *Session) {
	if s == nil {
		return
	}

	if s.Conn.SupportsDatabaseSwitch() {
		vctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), verifyTimeout)
		defer cancel()

		current, err := s.Conn.CurrentDatabase(vctx)
		if err != nil {
			m.logger.Warn("session database check failed, closing",
				"session_id", s.ID, "error", err)
			m.discard(s)
			return
		}
		m.mu.Lock()
		if current != s.Database {
			m.logger.Debug("session moved databases",
				"session_id", s.ID, "from", s.Database, "to", current)
			s.Database = current
		}
		s.InUse = false
		s.LastUsed = time.Now()
		m.mu.Unlock()
		return
	}

	m.mu.Lock()
	s.InUse = false
	s.LastUsed = time.Now()
	m.mu.Unlock()
}

// CloseSession retires one session by ID regardless of its in-use state.
func (m *Manager) CloseSession(id string) error {
	m.mu.Lock()
	s := m.unlink(id)
	m.mu.Unlock()
	if s == nil {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	m.closeConn(s)
	return nil
}

// RemoveAll closes every session of a config and reports how many there were.
func (m *Manager) RemoveAll(configID string) int {
	m.mu.Lock()
	list := m.sessions[configID]
	delete(m.sessions, configID)
	m.mu.Unlock()

	for _, s := range list {
		m.closeConn(s)
	}
	if len(list) > 0 {
		m.logger.Info("closed config sessions", "config_id", configID, "count", len(list))
	}
	return len(list)
}

// Close retires every pooled session. Meant for shutdown, though the
// manager stays usable afterwards.
func (m *Manager) Close() {
	m.mu.Lock()
	var all []*Session
	for _, list := range m.sessions {
		all = append(all, list...)
	}
	m.sessions = make(map[string][]*Session)
	m.mu.Unlock()

	for _, s := range all {
		m.closeConn(s)
	}
}

// Stats summarizes the pool.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	st := Stats{ConfigsWithSessions: len(m.sessions)}
	for _, list := range m.sessions {
		st.TotalSessions += len(list)
		for _, s := range list {
			if s.InUse {
				st.ActiveSessions++
			}
		}
	}
	return st
}

// ListSessions reports every pooled session, oldest first.
func (m *Manager) ListSessions() []Info {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	infos := make([]Info, 0, len(m.sessions))
	for _, list := range m.sessions {
		for _, s := range list {
			infos = append(infos, Info{
				ID:          s.ID,
				ConfigID:    s.ConfigID,
				Database:    s.Database,
				CreatedAt:   s.CreatedAt,
				LastUsed:    s.LastUsed,
				InUse:       s.InUse,
				AgeSeconds:  int64(now.Sub(s.CreatedAt).Seconds()),
				IdleSeconds: int64(now.Sub(s.LastUsed).Seconds()),
			})
		}
	}
	sort.Slice(infos, func(i, j int) bool {
		if infos[i].CreatedAt.Equal(infos[j].CreatedAt) {
			return infos[i].ID < infos[j].ID
		}
		return infos[i].CreatedAt.Before(infos[j].CreatedAt)
	})
	return infos
}

// Run sweeps the pool on the cleanup interval until ctx is cancelled.
func (m *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(m.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.sweep()
		}
	}
}

// sweep retires sessions past their deadline. The idle deadline spares
// in-use sessions, the lifetime cap does not.
func (m *Manager) sweep() {
	now := time.Now()

	m.mu.Lock()
	var doomed []*Session
	for configID, list := range m.sessions {
		kept := list[:0]
		for _, s := range list {
			idleFor := now.Sub(s.LastUsed)
			age := now.Sub(s.CreatedAt)
			if (!s.InUse && idleFor > m.idleTimeout) || age > m.maxLifetime {
				m.logger.Warn("closing expired session",
					"session_id", s.ID,
					"config_id", configID,
					"in_use", s.InUse,
					"idle_seconds", int64(idleFor.Seconds()),
					"age_seconds", int64(age.Seconds()))
				doomed = append(doomed, s)
				continue
			}
			kept = append(kept, s)
		}
		if len(kept) == 0 {
			delete(m.sessions, configID)
		} else {
			m.sessions[configID] = kept
		}
	}
	m.mu.Unlock()

	for _, s := range doomed {
		m.closeConn(s)
	}
}

// claimIdle takes an idle, unexpired session for the config. An exact
// database match wins; otherwise the first switch-capable session is claimed
// and the target database returned for the caller to switch to. Expired
// sessions are left for the sweep.
func (m *Manager) claimIdle(configID, database string) (*Session, string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	var fallback *Session
	for _, s := range m.sessions[configID] {
		if s.InUse || now.Sub(s.LastUsed) > m.idleTimeout || now.Sub(s.CreatedAt) > m.maxLifetime {
			continue
		}
		if s.Database == database {
			s.InUse = true
			s.LastUsed = now
			return s, ""
		}
		if database != "" && fallback == nil && s.Conn.SupportsDatabaseSwitch() {
			fallback = s
		}
	}
	if fallback != nil {
		fallback.InUse = true
		fallback.LastUsed = now
		return fallback, database
	}
	return nil, ""
}

// reserve checks the per-config cap, holds a dial slot and mints the
// session ID.
func (m *Manager) reserve(configID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.maxPerConfig > 0 && len(m.sessions[configID])+m.dialing[configID] >= m.maxPerConfig {
		return "", fmt.Errorf("%w: config %s at limit %d", plugin.ErrPoolExhausted, configID, m.maxPerConfig)
	}
	m.dialing[configID]++
	m.counter++
	return fmt.Sprintf("%s:session:%d", configID, m.counter), nil
}

// dialDone frees the reserved dial slot and, when the dial succeeded,
// links the new session into the pool.
func (m *Manager) dialDone(configID string, s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.dialing[configID]--
	if m.dialing[configID] <= 0 {
		delete(m.dialing, configID)
	}
	if s != nil {
		m.sessions[configID] = append(m.sessions[configID], s)
	}
}

// discard unlinks a session and closes it. Safe for sessions the sweep
// already removed.
func (m *Manager) discard(s *Session) {
	m.mu.Lock()
	found := m.unlink(s.ID) != nil
	m.mu.Unlock()
	if found {
		m.closeConn(s)
	}
}

// unlink removes a session from the table. Caller holds mu.
func (m *Manager) unlink(id string) *Session {
	for configID, list := range m.sessions {
		for i, s := range list {
			if s.ID != id {
				continue
			}
			m.sessions[configID] = append(list[:i], list[i+1:]...)
			if len(m.sessions[configID]) == 0 {
				delete(m.sessions, configID)
			}
			return s
		}
	}
	return nil
}

func (m *Manager) closeConn(s *Session) {
	if err := s.Conn.Close(); err != nil {
		m.logger.Warn("failed to close session", "session_id", s.ID, "error", err)
		return
	}
	m.logger.Debug("closed session", "session_id", s.ID)
}
