package store

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestWorkspaceLifecycle(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		setup     func(t *testing.T, s *Store) *Workspace
		operation func(t *testing.T, s *Store, w *Workspace)
	}{
		{
			name: "create fills id and timestamps",
			setup: func(t *testing.T, s *Store) *Workspace {
				w := &Workspace{Name: "Analytics", Color: "#ff8800", Icon: "chart"}
				if err := s.CreateWorkspace(ctx, w); err != nil {
					t.Fatalf("failed to create workspace: %v", err)
				}
				return w
			},
			operation: func(t *testing.T, s *Store, w *Workspace) {
				if w.ID == "" {
					t.Error("workspace ID should not be empty")
				}
				if w.CreatedAt.IsZero() || w.UpdatedAt.IsZero() {
					t.Error("timestamps should be set on create")
				}
			},
		},
		{
			name: "get round-trips fields",
			setup: func(t *testing.T, s *Store) *Workspace {
				w := &Workspace{Name: "Analytics", Color: "#ff8800", Icon: "chart"}
				if err := s.CreateWorkspace(ctx, w); err != nil {
					t.Fatalf("failed to create workspace: %v", err)
				}
				return w
			},
			operation: func(t *testing.T, s *Store, w *Workspace) {
				got, err := s.GetWorkspace(ctx, w.ID)
				if err != nil {
					t.Fatalf("failed to get workspace: %v", err)
				}
				if got.Name != "Analytics" || got.Color != "#ff8800" || got.Icon != "chart" {
					t.Errorf("unexpected workspace: %+v", got)
				}
				if !got.CreatedAt.Equal(w.CreatedAt) {
					t.Errorf("created_at did not round-trip: %v vs %v", got.CreatedAt, w.CreatedAt)
				}
			},
		},
		{
			name: "get not found",
			setup: func(t *testing.T, s *Store) *Workspace {
				return nil
			},
			operation: func(t *testing.T, s *Store, w *Workspace) {
				_, err := s.GetWorkspace(ctx, "missing")
				if !errors.Is(err, ErrNotFound) {
					t.Errorf("expected ErrNotFound, got %v", err)
				}
			},
		},
		{
			name: "update bumps updated_at",
			setup: func(t *testing.T, s *Store) *Workspace {
				w := &Workspace{Name: "Analytics"}
				if err := s.CreateWorkspace(ctx, w); err != nil {
					t.Fatalf("failed to create workspace: %v", err)
				}
				return w
			},
			operation: func(t *testing.T, s *Store, w *Workspace) {
				created := w.CreatedAt
				time.Sleep(10 * time.Millisecond)

				w.Name = "Reporting"
				w.Color = "#00ff00"
				if err := s.UpdateWorkspace(ctx, w); err != nil {
					t.Fatalf("failed to update workspace: %v", err)
				}

				got, err := s.GetWorkspace(ctx, w.ID)
				if err != nil {
					t.Fatalf("failed to get workspace: %v", err)
				}
				if got.Name != "Reporting" {
					t.Errorf("expected name 'Reporting', got %q", got.Name)
				}
				if !got.UpdatedAt.After(created) {
					t.Errorf("updated_at should be after created_at: %v vs %v", got.UpdatedAt, created)
				}
			},
		},
		{
			name: "update not found",
			setup: func(t *testing.T, s *Store) *Workspace {
				return nil
			},
			operation: func(t *testing.T, s *Store, w *Workspace) {
				err := s.UpdateWorkspace(ctx, &Workspace{ID: "missing", Name: "x"})
				if !errors.Is(err, ErrNotFound) {
					t.Errorf("expected ErrNotFound, got %v", err)
				}
			},
		},
		{
			name: "duplicate name rejected",
			setup: func(t *testing.T, s *Store) *Workspace {
				w := &Workspace{Name: "Analytics"}
				if err := s.CreateWorkspace(ctx, w); err != nil {
					t.Fatalf("failed to create workspace: %v", err)
				}
				return w
			},
			operation: func(t *testing.T, s *Store, w *Workspace) {
				err := s.CreateWorkspace(ctx, &Workspace{Name: "Analytics"})
				if !errors.Is(err, ErrDuplicateName) {
					t.Errorf("expected ErrDuplicateName, got %v", err)
				}
			},
		},
		{
			name: "delete removes the row",
			setup: func(t *testing.T, s *Store) *Workspace {
				w := &Workspace{Name: "Analytics"}
				if err := s.CreateWorkspace(ctx, w); err != nil {
					t.Fatalf("failed to create workspace: %v", err)
				}
				return w
			},
			operation: func(t *testing.T, s *Store, w *Workspace) {
				if err := s.DeleteWorkspace(ctx, w.ID); err != nil {
					t.Fatalf("failed to delete workspace: %v", err)
				}
				if _, err := s.GetWorkspace(ctx, w.ID); !errors.Is(err, ErrNotFound) {
					t.Errorf("expected ErrNotFound after delete, got %v", err)
				}
				if err := s.DeleteWorkspace(ctx, w.ID); !errors.Is(err, ErrNotFound) {
					t.Errorf("expected ErrNotFound on second delete, got %v", err)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := setupTestStore(t)
			w := tt.setup(t, s)
			tt.operation(t, s, w)
		})
	}
}

func TestDeleteWorkspaceDetachesConnections(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	w := &Workspace{Name: "Analytics"}
	if err := s.CreateWorkspace(ctx, w); err != nil {
		t.Fatalf("failed to create workspace: %v", err)
	}

	c := &Connection{Name: "warehouse", Type: ConnectionDatabase, WorkspaceID: &w.ID}
	if err := s.CreateConnection(ctx, c); err != nil {
		t.Fatalf("failed to create connection: %v", err)
	}

	if err := s.DeleteWorkspace(ctx, w.ID); err != nil {
		t.Fatalf("failed to delete workspace: %v", err)
	}

	got, err := s.GetConnection(ctx, c.ID)
	if err != nil {
		t.Fatalf("connection should survive workspace delete: %v", err)
	}
	if got.WorkspaceID != nil {
		t.Errorf("expected detached connection, got workspace %q", *got.WorkspaceID)
	}
}

func TestListWorkspaces(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	for _, name := range []string{"ops", "analytics", "dev"} {
		if err := s.CreateWorkspace(ctx, &Workspace{Name: name}); err != nil {
			t.Fatalf("failed to create workspace %q: %v", name, err)
		}
	}

	list, err := s.ListWorkspaces(ctx)
	if err != nil {
		t.Fatalf("failed to list workspaces: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 workspaces, got %d", len(list))
	}
	for i, want := range []string{"analytics", "dev", "ops"} {
		if list[i].Name != want {
			t.Errorf("position %d: expected %q, got %q", i, want, list[i].Name)
		}
	}

	n, err := s.CountWorkspaces(ctx)
	if err != nil {
		t.Fatalf("failed to count workspaces: %v", err)
	}
	if n != 3 {
		t.Errorf("expected count 3, got %d", n)
	}
}

func TestWorkspaceExists(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	w := &Workspace{Name: "Analytics"}
	if err := s.CreateWorkspace(ctx, w); err != nil {
		t.Fatalf("failed to create workspace: %v", err)
	}

	ok, err := s.WorkspaceExists(ctx, w.ID)
	if err != nil {
		t.Fatalf("failed to check workspace: %v", err)
	}
	if !ok {
		t.Error("expected workspace to exist")
	}

	ok, err = s.WorkspaceExists(ctx, "missing")
	if err != nil {
		t.Fatalf("failed to check workspace: %v", err)
	}
	if ok {
		t.Error("expected workspace to be missing")
	}
}
