package store

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestValidateQueryName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "simple", input: "daily revenue", wantErr: false},
		{name: "hyphen and underscore", input: "top-10_users", wantErr: false},
		{name: "empty", input: "", wantErr: true},
		{name: "blank", input: "   ", wantErr: true},
		{name: "too long", input: strings.Repeat("a", 101), wantErr: true},
		{name: "exactly max", input: strings.Repeat("a", 100), wantErr: false},
		{name: "punctuation", input: "drop; table", wantErr: true},
		{name: "unicode", input: "revenü", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateQueryName(tt.input)
			if tt.wantErr && !errors.Is(err, ErrInvalidName) {
				t.Errorf("expected ErrInvalidName, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestQueryLifecycle(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		operation func(t *testing.T, s *Store, c *Connection)
	}{
		{
			name: "create assigns id and timestamps",
			operation: func(t *testing.T, s *Store, c *Connection) {
				q := &Query{Name: "daily revenue", SQLContent: "SELECT 1", ConnectionID: c.ID}
				if err := s.CreateQuery(ctx, q); err != nil {
					t.Fatalf("failed to create query: %v", err)
				}
				if q.ID == 0 {
					t.Error("query ID should be assigned")
				}
				if q.CreatedAt.IsZero() || q.UpdatedAt.IsZero() {
					t.Error("timestamps should be set on create")
				}
			},
		},
		{
			name: "create validates name",
			operation: func(t *testing.T, s *Store, c *Connection) {
				q := &Query{Name: "bad;name", SQLContent: "SELECT 1", ConnectionID: c.ID}
				if err := s.CreateQuery(ctx, q); !errors.Is(err, ErrInvalidName) {
					t.Errorf("expected ErrInvalidName, got %v", err)
				}
			},
		},
		{
			name: "duplicate name within connection rejected",
			operation: func(t *testing.T, s *Store, c *Connection) {
				q := &Query{Name: "daily revenue", SQLContent: "SELECT 1", ConnectionID: c.ID}
				if err := s.CreateQuery(ctx, q); err != nil {
					t.Fatalf("failed to create query: %v", err)
				}

				dup := &Query{Name: "daily revenue", SQLContent: "SELECT 2", ConnectionID: c.ID}
				err := s.CreateQuery(ctx, dup)
				if !errors.Is(err, ErrDuplicateName) {
					t.Fatalf("expected ErrDuplicateName, got %v", err)
				}
				if !strings.Contains(err.Error(), "already exists in the connection") {
					t.Errorf("unexpected message: %v", err)
				}
			},
		},
		{
			name: "same name allowed across connections",
			operation: func(t *testing.T, s *Store, c *Connection) {
				other := testDatabaseConnection(t, s, "staging")

				first := &Query{Name: "daily revenue", SQLContent: "SELECT 1", ConnectionID: c.ID}
				if err := s.CreateQuery(ctx, first); err != nil {
					t.Fatalf("failed to create query: %v", err)
				}
				second := &Query{Name: "daily revenue", SQLContent: "SELECT 1", ConnectionID: other.ID}
				if err := s.CreateQuery(ctx, second); err != nil {
					t.Errorf("same name on another connection should work: %v", err)
				}
			},
		},
		{
			name: "get by id and by name",
			operation: func(t *testing.T, s *Store, c *Connection) {
				db := "reports"
				q := &Query{Name: "daily revenue", SQLContent: "SELECT 1", ConnectionID: c.ID, DatabaseName: &db}
				if err := s.CreateQuery(ctx, q); err != nil {
					t.Fatalf("failed to create query: %v", err)
				}

				byID, err := s.GetQuery(ctx, q.ID)
				if err != nil {
					t.Fatalf("failed to get query: %v", err)
				}
				if byID.DatabaseName == nil || *byID.DatabaseName != "reports" {
					t.Errorf("expected database pin 'reports', got %v", byID.DatabaseName)
				}

				byName, err := s.GetQueryByName(ctx, c.ID, "daily revenue")
				if err != nil {
					t.Fatalf("failed to get query by name: %v", err)
				}
				if byName.ID != q.ID {
					t.Errorf("expected query %d, got %d", q.ID, byName.ID)
				}
			},
		},
		{
			name: "get not found",
			operation: func(t *testing.T, s *Store, c *Connection) {
				if _, err := s.GetQuery(ctx, 999); !errors.Is(err, ErrNotFound) {
					t.Errorf("expected ErrNotFound, got %v", err)
				}
				if _, err := s.GetQueryByName(ctx, c.ID, "missing"); !errors.Is(err, ErrNotFound) {
					t.Errorf("expected ErrNotFound, got %v", err)
				}
			},
		},
		{
			name: "update rewrites and bumps updated_at",
			operation: func(t *testing.T, s *Store, c *Connection) {
				q := &Query{Name: "daily revenue", SQLContent: "SELECT 1", ConnectionID: c.ID}
				if err := s.CreateQuery(ctx, q); err != nil {
					t.Fatalf("failed to create query: %v", err)
				}
				created := q.CreatedAt
				time.Sleep(10 * time.Millisecond)

				q.Name = "weekly revenue"
				q.SQLContent = "SELECT 7"
				if err := s.UpdateQuery(ctx, q); err != nil {
					t.Fatalf("failed to update query: %v", err)
				}

				got, err := s.GetQuery(ctx, q.ID)
				if err != nil {
					t.Fatalf("failed to get query: %v", err)
				}
				if got.Name != "weekly revenue" || got.SQLContent != "SELECT 7" {
					t.Errorf("unexpected query after update: %+v", got)
				}
				if !got.UpdatedAt.After(created) {
					t.Errorf("updated_at should be after created_at: %v vs %v", got.UpdatedAt, created)
				}
			},
		},
		{
			name: "rename onto existing name rejected",
			operation: func(t *testing.T, s *Store, c *Connection) {
				first := &Query{Name: "first", SQLContent: "SELECT 1", ConnectionID: c.ID}
				if err := s.CreateQuery(ctx, first); err != nil {
					t.Fatalf("failed to create query: %v", err)
				}
				second := &Query{Name: "second", SQLContent: "SELECT 2", ConnectionID: c.ID}
				if err := s.CreateQuery(ctx, second); err != nil {
					t.Fatalf("failed to create query: %v", err)
				}

				second.Name = "first"
				if err := s.UpdateQuery(ctx, second); !errors.Is(err, ErrDuplicateName) {
					t.Errorf("expected ErrDuplicateName, got %v", err)
				}
			},
		},
		{
			name: "delete removes the row",
			operation: func(t *testing.T, s *Store, c *Connection) {
				q := &Query{Name: "daily revenue", SQLContent: "SELECT 1", ConnectionID: c.ID}
				if err := s.CreateQuery(ctx, q); err != nil {
					t.Fatalf("failed to create query: %v", err)
				}

				if err := s.DeleteQuery(ctx, q.ID); err != nil {
					t.Fatalf("failed to delete query: %v", err)
				}
				if err := s.DeleteQuery(ctx, q.ID); !errors.Is(err, ErrNotFound) {
					t.Errorf("expected ErrNotFound on second delete, got %v", err)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := setupTestStore(t)
			c := testDatabaseConnection(t, s, "warehouse")
			tt.operation(t, s, c)
		})
	}
}

func TestListQueriesByConnection(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	c := testDatabaseConnection(t, s, "warehouse")
	other := testDatabaseConnection(t, s, "staging")

	oldest := &Query{Name: "oldest", SQLContent: "SELECT 1", ConnectionID: c.ID}
	if err := s.CreateQuery(ctx, oldest); err != nil {
		t.Fatalf("failed to create query: %v", err)
	}
	time.Sleep(10 * time.Millisecond)

	newest := &Query{Name: "newest", SQLContent: "SELECT 2", ConnectionID: c.ID}
	if err := s.CreateQuery(ctx, newest); err != nil {
		t.Fatalf("failed to create query: %v", err)
	}

	foreign := &Query{Name: "foreign", SQLContent: "SELECT 3", ConnectionID: other.ID}
	if err := s.CreateQuery(ctx, foreign); err != nil {
		t.Fatalf("failed to create query: %v", err)
	}

	list, err := s.ListQueriesByConnection(ctx, c.ID)
	if err != nil {
		t.Fatalf("failed to list queries: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 queries, got %d", len(list))
	}
	if list[0].Name != "newest" || list[1].Name != "oldest" {
		t.Errorf("expected most recently updated first, got %q then %q", list[0].Name, list[1].Name)
	}

	// Updating the older query moves it to the front.
	time.Sleep(10 * time.Millisecond)
	oldest.SQLContent = "SELECT 10"
	if err := s.UpdateQuery(ctx, oldest); err != nil {
		t.Fatalf("failed to update query: %v", err)
	}

	list, err = s.ListQueriesByConnection(ctx, c.ID)
	if err != nil {
		t.Fatalf("failed to list queries: %v", err)
	}
	if list[0].Name != "oldest" {
		t.Errorf("expected updated query first, got %q", list[0].Name)
	}

	all, err := s.ListQueries(ctx)
	if err != nil {
		t.Fatalf("failed to list all queries: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("expected 3 queries in total, got %d", len(all))
	}

	n, err := s.CountQueries(ctx)
	if err != nil {
		t.Fatalf("failed to count queries: %v", err)
	}
	if n != 3 {
		t.Errorf("expected count 3, got %d", n)
	}

	ok, err := s.QueryExists(ctx, newest.ID)
	if err != nil {
		t.Fatalf("failed to check query: %v", err)
	}
	if !ok {
		t.Error("expected query to exist")
	}
}
