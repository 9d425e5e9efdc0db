package history

import (
	"context"
	"path/filepath"
	"testing"
)

func setupSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	store := setupSQLiteStore(t)
	ctx := context.Background()

	msgID := "msg-1"
	if err := store.Append(ctx, Message{SessionToken: "tok", Role: RoleUser, Content: "hi"}); err != nil {
		t.Fatalf("append failed: %v", err)
	}
	if err := store.Append(ctx, Message{SessionToken: "tok", Role: RoleAssistant, Content: "hello", MessageID: &msgID}); err != nil {
		t.Fatalf("append failed: %v", err)
	}

	msgs, err := store.List(ctx, "tok", 0)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Role != RoleUser || msgs[1].Role != RoleAssistant {
		t.Error("messages should come back oldest first")
	}
	if msgs[1].MessageID == nil || *msgs[1].MessageID != "msg-1" {
		t.Errorf("message id should round-trip, got %v", msgs[1].MessageID)
	}
	if msgs[0].MessageID != nil {
		t.Error("user message should have no message id")
	}
}

func TestSQLiteStoreListLimit(t *testing.T) {
	store := setupSQLiteStore(t)
	ctx := context.Background()

	for _, content := range []string{"m0", "m1", "m2"} {
		if err := store.Append(ctx, Message{SessionToken: "tok", Role: RoleUser, Content: content}); err != nil {
			t.Fatalf("append failed: %v", err)
		}
	}

	msgs, err := store.List(ctx, "tok", 2)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(msgs) != 2 || msgs[0].Content != "m1" || msgs[1].Content != "m2" {
		t.Errorf("limit should keep the most recent messages oldest first, got %+v", msgs)
	}
}

func TestSQLiteStoreClear(t *testing.T) {
	store := setupSQLiteStore(t)
	ctx := context.Background()

	_ = store.Append(ctx, Message{SessionToken: "a", Role: RoleUser, Content: "keep me out"})
	_ = store.Append(ctx, Message{SessionToken: "b", Role: RoleUser, Content: "survivor"})

	if err := store.Clear(ctx, "a"); err != nil {
		t.Fatalf("clear failed: %v", err)
	}

	msgs, _ := store.List(ctx, "a", 0)
	if len(msgs) != 0 {
		t.Errorf("session a should be empty, got %d", len(msgs))
	}
	msgs, _ = store.List(ctx, "b", 0)
	if len(msgs) != 1 {
		t.Errorf("session b should be untouched, got %d", len(msgs))
	}
}
