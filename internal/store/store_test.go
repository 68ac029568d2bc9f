package store

import (
	"path/filepath"
	"testing"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:", nil)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_OpenClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "onehub.db")

	s, err := Open(path, nil)
	if err != nil {
		t.Fatalf("failed to open file store: %v", err)
	}
	if s.Path() != path {
		t.Errorf("expected path %q, got %q", path, s.Path())
	}
	if err := s.Close(); err != nil {
		t.Fatalf("failed to close store: %v", err)
	}

	// Reopening must find the already-migrated schema.
	s, err = Open(path, nil)
	if err != nil {
		t.Fatalf("failed to reopen store: %v", err)
	}
	defer s.Close()

	version, err := s.MigrationVersion()
	if err != nil {
		t.Fatalf("failed to read migration version: %v", err)
	}
	if version != 4 {
		t.Errorf("expected schema version 4, got %d", version)
	}
}

func TestStore_MigrationsCreateTables(t *testing.T) {
	s := setupTestStore(t)

	tables := []string{"connections", "queries", "llm_providers", "chat_sessions", "chat_messages", "workspaces"}
	for _, table := range tables {
		rows, err := s.db.Query("SELECT 1 FROM " + table + " LIMIT 1")
		if err != nil {
			t.Errorf("table %s does not exist: %v", table, err)
		} else {
			rows.Close()
		}
	}
}

func TestStore_ForeignKeysEnabled(t *testing.T) {
	s := setupTestStore(t)

	var enabled int
	if err := s.db.QueryRow("PRAGMA foreign_keys").Scan(&enabled); err != nil {
		t.Fatalf("failed to read pragma: %v", err)
	}
	if enabled != 1 {
		t.Error("foreign keys should be enabled")
	}
}

func TestDSN(t *testing.T) {
	tests := []struct {
		name string
		path string
		want string
	}{
		{
			name: "file store gets WAL",
			path: "/tmp/onehub.db",
			want: "/tmp/onehub.db?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_time_format=sqlite",
		},
		{
			name: "memory store skips WAL",
			path: ":memory:",
			want: ":memory:?_pragma=foreign_keys(1)&_time_format=sqlite",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := dsn(tt.path); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestGenerateID(t *testing.T) {
	a, b := generateID(), generateID()
	if a == "" || b == "" {
		t.Fatal("generated IDs should not be empty")
	}
	if a == b {
		t.Error("generated IDs should be unique")
	}
}
