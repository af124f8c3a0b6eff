package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/Gauravprp/chatsy/internal/store"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewWithSetup(":memory:", ApplySchema)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestMessagesArePerRoomAndOrdered(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	seed := []store.Message{
		{Room: "abc", Name: "Gaurav", Body: "first"},
		{Room: "xyz", Name: "Asha", Body: "elsewhere"},
		{Room: "abc", Name: "Asha", Body: "second"},
	}
	for i := range seed {
		seed[i].CreatedAt = now.Add(time.Duration(i) * time.Second)
		if err := s.SaveMessage(ctx, &seed[i]); err != nil {
			t.Fatalf("SaveMessage failed: %v", err)
		}
		if seed[i].ID == 0 {
			t.Fatalf("expected id to be set for %q", seed[i].Body)
		}
	}

	tests := []struct {
		room     string
		expected []string
	}{
		{room: "abc", expected: []string{"first", "second"}},
		{room: "xyz", expected: []string{"elsewhere"}},
		{room: "empty", expected: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.room, func(t *testing.T) {
			msgs, err := s.ListMessages(ctx, tt.room)
			if err != nil {
				t.Fatalf("ListMessages failed: %v", err)
			}
			if msgs == nil {
				t.Fatalf("expected a non-nil list")
			}
			if len(msgs) != len(tt.expected) {
				t.Fatalf("expected %d messages, got %d", len(tt.expected), len(msgs))
			}
			for i, m := range msgs {
				if m.Body != tt.expected[i] {
					t.Errorf("expected %q at index %d, got %q", tt.expected[i], i, m.Body)
				}
				if m.Room != tt.room {
					t.Errorf("expected room %q, got %q", tt.room, m.Room)
				}
			}
		})
	}

	first, _ := s.ListMessages(ctx, "abc")
	if !first[0].CreatedAt.Equal(now) {
		t.Errorf("expected created_at %v, got %v", now, first[0].CreatedAt)
	}
}

func TestClearRoom(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, m := range []store.Message{
		{Room: "abc", Name: "a", Body: "1", CreatedAt: time.Now()},
		{Room: "abc", Name: "b", Body: "2", CreatedAt: time.Now()},
		{Room: "keep", Name: "c", Body: "3", CreatedAt: time.Now()},
	} {
		m := m
		if err := s.SaveMessage(ctx, &m); err != nil {
			t.Fatalf("SaveMessage failed: %v", err)
		}
	}

	n, err := s.ClearRoom(ctx, "abc")
	if err != nil {
		t.Fatalf("ClearRoom failed: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 deleted, got %d", n)
	}

	if msgs, _ := s.ListMessages(ctx, "abc"); len(msgs) != 0 {
		t.Errorf("expected abc to be empty, got %d messages", len(msgs))
	}
	if msgs, _ := s.ListMessages(ctx, "keep"); len(msgs) != 1 {
		t.Errorf("expected other rooms untouched, got %d messages", len(msgs))
	}

	// Clearing an empty room is not an error.
	if n, err := s.ClearRoom(ctx, "abc"); err != nil || n != 0 {
		t.Errorf("expected (0, nil), got (%d, %v)", n, err)
	}
}

func TestApplySchemaIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	if err := ApplySchema(s.db); err != nil {
		t.Fatalf("second ApplySchema failed: %v", err)
	}
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}
}
