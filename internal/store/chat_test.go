package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func testChatSession(t *testing.T, s *Store, name, providerID string) *ChatSession {
	t.Helper()

	cs := &ChatSession{Name: name, ProviderID: providerID}
	if err := s.CreateChatSession(context.Background(), cs); err != nil {
		t.Fatalf("failed to create chat session: %v", err)
	}
	return cs
}

func TestChatSessionLifecycle(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		operation func(t *testing.T, s *Store)
	}{
		{
			name: "create fills id and timestamps",
			operation: func(t *testing.T, s *Store) {
				cs := testChatSession(t, s, "schema help", "prov-1")
				if cs.ID == "" {
					t.Error("session ID should not be empty")
				}
				if cs.CreatedAt.IsZero() || cs.UpdatedAt.IsZero() {
					t.Error("timestamps should be set on create")
				}
			},
		},
		{
			name: "create requires name and provider",
			operation: func(t *testing.T, s *Store) {
				if err := s.CreateChatSession(ctx, &ChatSession{ProviderID: "prov-1"}); err == nil {
					t.Error("expected error for missing name")
				}
				if err := s.CreateChatSession(ctx, &ChatSession{Name: "x"}); err == nil {
					t.Error("expected error for missing provider")
				}
			},
		},
		{
			name: "get round-trips",
			operation: func(t *testing.T, s *Store) {
				cs := testChatSession(t, s, "schema help", "prov-1")

				got, err := s.GetChatSession(ctx, cs.ID)
				if err != nil {
					t.Fatalf("failed to get chat session: %v", err)
				}
				if got.Name != "schema help" || got.ProviderID != "prov-1" {
					t.Errorf("unexpected session: %+v", got)
				}
			},
		},
		{
			name: "get not found",
			operation: func(t *testing.T, s *Store) {
				if _, err := s.GetChatSession(ctx, "missing"); !errors.Is(err, ErrNotFound) {
					t.Errorf("expected ErrNotFound, got %v", err)
				}
			},
		},
		{
			name: "rename bumps updated_at",
			operation: func(t *testing.T, s *Store) {
				cs := testChatSession(t, s, "schema help", "prov-1")
				before := cs.UpdatedAt
				time.Sleep(10 * time.Millisecond)

				if err := s.RenameChatSession(ctx, cs.ID, "index tuning"); err != nil {
					t.Fatalf("failed to rename session: %v", err)
				}

				got, err := s.GetChatSession(ctx, cs.ID)
				if err != nil {
					t.Fatalf("failed to get chat session: %v", err)
				}
				if got.Name != "index tuning" {
					t.Errorf("expected renamed session, got %q", got.Name)
				}
				if !got.UpdatedAt.After(before) {
					t.Errorf("rename should bump updated_at: %v vs %v", got.UpdatedAt, before)
				}
			},
		},
		{
			name: "rename not found",
			operation: func(t *testing.T, s *Store) {
				if err := s.RenameChatSession(ctx, "missing", "x"); !errors.Is(err, ErrNotFound) {
					t.Errorf("expected ErrNotFound, got %v", err)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.operation(t, setupTestStore(t))
		})
	}
}

func TestListChatSessions(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	first := testChatSession(t, s, "first", "prov-1")
	time.Sleep(10 * time.Millisecond)
	second := testChatSession(t, s, "second", "prov-1")
	time.Sleep(10 * time.Millisecond)
	testChatSession(t, s, "other provider", "prov-2")

	all, err := s.ListChatSessions(ctx, "")
	if err != nil {
		t.Fatalf("failed to list sessions: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 sessions, got %d", len(all))
	}

	scoped, err := s.ListChatSessions(ctx, "prov-1")
	if err != nil {
		t.Fatalf("failed to list sessions by provider: %v", err)
	}
	if len(scoped) != 2 {
		t.Fatalf("expected 2 sessions for prov-1, got %d", len(scoped))
	}
	if scoped[0].ID != second.ID || scoped[1].ID != first.ID {
		t.Errorf("expected most recently active first, got %q then %q", scoped[0].Name, scoped[1].Name)
	}

	// New activity moves a session to the front.
	time.Sleep(10 * time.Millisecond)
	msg := &ChatMessage{SessionID: first.ID, Role: "user", Content: "hello"}
	if err := s.AppendChatMessage(ctx, msg); err != nil {
		t.Fatalf("failed to append message: %v", err)
	}

	scoped, err = s.ListChatSessions(ctx, "prov-1")
	if err != nil {
		t.Fatalf("failed to list sessions by provider: %v", err)
	}
	if scoped[0].ID != first.ID {
		t.Errorf("expected session with new message first, got %q", scoped[0].Name)
	}
}

func TestChatMessages(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	cs := testChatSession(t, s, "schema help", "prov-1")

	for i, role := range []string{"user", "assistant", "user"} {
		m := &ChatMessage{SessionID: cs.ID, Role: role, Content: fmt.Sprintf("turn %d", i)}
		if err := s.AppendChatMessage(ctx, m); err != nil {
			t.Fatalf("failed to append message %d: %v", i, err)
		}
		if m.ID == 0 {
			t.Errorf("message %d should get an ID", i)
		}
	}

	msgs, err := s.ListChatMessages(ctx, cs.ID)
	if err != nil {
		t.Fatalf("failed to list messages: %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}
	for i, want := range []string{"turn 0", "turn 1", "turn 2"} {
		if msgs[i].Content != want {
			t.Errorf("position %d: expected %q, got %q", i, want, msgs[i].Content)
		}
	}
	if msgs[0].Role != "user" || msgs[1].Role != "assistant" {
		t.Errorf("unexpected roles: %q, %q", msgs[0].Role, msgs[1].Role)
	}

	n, err := s.CountChatMessages(ctx, cs.ID)
	if err != nil {
		t.Fatalf("failed to count messages: %v", err)
	}
	if n != 3 {
		t.Errorf("expected 3 messages, got %d", n)
	}
}

func TestAppendChatMessageUnknownSession(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	m := &ChatMessage{SessionID: "missing", Role: "user", Content: "hello"}
	if err := s.AppendChatMessage(ctx, m); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown session, got %v", err)
	}
}

func TestDeleteChatSessionCascades(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	cs := testChatSession(t, s, "schema help", "prov-1")
	keep := testChatSession(t, s, "keep", "prov-1")

	for _, sid := range []string{cs.ID, keep.ID} {
		m := &ChatMessage{SessionID: sid, Role: "user", Content: "hello"}
		if err := s.AppendChatMessage(ctx, m); err != nil {
			t.Fatalf("failed to append message: %v", err)
		}
	}

	if err := s.DeleteChatSession(ctx, cs.ID); err != nil {
		t.Fatalf("failed to delete session: %v", err)
	}
	if _, err := s.GetChatSession(ctx, cs.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}

	n, err := s.CountChatMessages(ctx, cs.ID)
	if err != nil {
		t.Fatalf("failed to count messages: %v", err)
	}
	if n != 0 {
		t.Errorf("expected messages to cascade, found %d", n)
	}

	// The other session's history is untouched.
	n, err = s.CountChatMessages(ctx, keep.ID)
	if err != nil {
		t.Fatalf("failed to count messages: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 surviving message, found %d", n)
	}

	if err := s.DeleteChatSession(ctx, cs.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}
