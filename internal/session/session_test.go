package session

import (
	"context"
	"testing"
)

func TestUnknownUserGetsZeroSession(t *testing.T) {
	store := NewMemoryStore()

	got, err := store.Get(context.Background(), 7)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.State != "" || got.ReceiverID != nil {
		t.Fatalf("expected zero session, got %+v", got)
	}
}

func TestPutThenGetRoundTrips(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	receiverID := int64(42)

	if err := store.Put(ctx, 7, Session{State: "selecting_action", ReceiverID: &receiverID}); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := store.Get(ctx, 7)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.State != "selecting_action" {
		t.Fatalf("state = %q", got.State)
	}
	if got.ReceiverID == nil || *got.ReceiverID != 42 {
		t.Fatalf("receiver = %v", got.ReceiverID)
	}
}

func TestDeleteResetsSession(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.Put(ctx, 7, Session{State: "selecting_action"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := store.Delete(ctx, 7); err != nil {
		t.Fatalf("delete: %v", err)
	}

	got, err := store.Get(ctx, 7)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.State != "" {
		t.Fatalf("expected cleared session, got %+v", got)
	}
}

func TestSessionsAreIsolatedPerUser(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.Put(ctx, 7, Session{State: "parse_reminder"}); err != nil {
		t.Fatalf("put: %v", err)
	}

	other, err := store.Get(ctx, 8)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if other.State != "" {
		t.Fatalf("expected user 8 untouched, got %+v", other)
	}
}
