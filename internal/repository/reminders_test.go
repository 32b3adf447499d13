package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"remindd/internal/domain"
)

func newReminder(name string, ownerID int64, fireAt time.Time) *domain.Reminder {
	return &domain.Reminder{
		Name:       name,
		OwnerID:    ownerID,
		ChatID:     ownerID,
		ReceiverID: ownerID,
		Text:       "water the plants",
		FireAt:     fireAt,
		Status:     domain.StatusScheduled,
		CreatedAt:  time.Now().UTC(),
	}
}

func TestCreateAndListByOwner(t *testing.T) {
	repo := NewMemoryRemindersRepository()
	ctx := context.Background()
	fireAt := time.Now().UTC().Add(time.Hour)

	if err := repo.Create(ctx, newReminder("101", 7, fireAt)); err != nil {
		t.Fatalf("create: %v", err)
	}

	mine, err := repo.ListByOwner(ctx, 7)
	if err != nil {
		t.Fatalf("list by owner: %v", err)
	}
	if len(mine) != 1 || mine[0].Name != "101" {
		t.Fatalf("expected owner 7 to see reminder 101, got %+v", mine)
	}

	others, err := repo.ListByOwner(ctx, 8)
	if err != nil {
		t.Fatalf("list by other owner: %v", err)
	}
	if len(others) != 0 {
		t.Fatalf("expected owner 8 to see nothing, got %+v", others)
	}
}

func TestDuplicateNameIsRejected(t *testing.T) {
	repo := NewMemoryRemindersRepository()
	ctx := context.Background()
	fireAt := time.Now().UTC().Add(time.Hour)

	if err := repo.Create(ctx, newReminder("101", 7, fireAt)); err != nil {
		t.Fatalf("create: %v", err)
	}
	err := repo.Create(ctx, newReminder("101", 9, fireAt))
	if !errors.Is(err, ErrDuplicateName) {
		t.Fatalf("expected ErrDuplicateName, got %v", err)
	}
}

func TestRemoveReportsWhetherRowExisted(t *testing.T) {
	repo := NewMemoryRemindersRepository()
	ctx := context.Background()

	if err := repo.Create(ctx, newReminder("101", 7, time.Now().UTC().Add(time.Hour))); err != nil {
		t.Fatalf("create: %v", err)
	}

	removed, err := repo.Remove(ctx, "101")
	if err != nil || !removed {
		t.Fatalf("expected first remove to claim the row, removed=%v err=%v", removed, err)
	}

	removed, err = repo.Remove(ctx, "101")
	if err != nil || removed {
		t.Fatalf("expected second remove to be a no-op, removed=%v err=%v", removed, err)
	}

	if _, err := repo.Get(ctx, "101"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after removal, got %v", err)
	}
}

func TestListDueOrdersByFireTime(t *testing.T) {
	repo := NewMemoryRemindersRepository()
	ctx := context.Background()
	now := time.Now().UTC()

	if err := repo.Create(ctx, newReminder("late", 7, now.Add(-time.Minute))); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.Create(ctx, newReminder("later", 7, now.Add(-2*time.Minute))); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.Create(ctx, newReminder("future", 7, now.Add(time.Hour))); err != nil {
		t.Fatalf("create: %v", err)
	}

	due, err := repo.ListDue(ctx, now)
	if err != nil {
		t.Fatalf("list due: %v", err)
	}
	if len(due) != 2 {
		t.Fatalf("expected 2 due reminders, got %d", len(due))
	}
	if due[0].Name != "later" || due[1].Name != "late" {
		t.Fatalf("expected due reminders ordered by fire time, got %s, %s", due[0].Name, due[1].Name)
	}
}

func TestCountByOwner(t *testing.T) {
	repo := NewMemoryRemindersRepository()
	ctx := context.Background()
	fireAt := time.Now().UTC().Add(time.Hour)

	for _, name := range []string{"1", "2", "3"} {
		if err := repo.Create(ctx, newReminder(name, 7, fireAt)); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	if err := repo.Create(ctx, newReminder("4", 8, fireAt)); err != nil {
		t.Fatalf("create: %v", err)
	}

	count, err := repo.CountByOwner(ctx, 7)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 reminders for owner 7, got %d", count)
	}
}

func TestStoredReminderIsIsolatedFromCallerMutation(t *testing.T) {
	repo := NewMemoryRemindersRepository()
	ctx := context.Background()

	original := newReminder("101", 7, time.Now().UTC().Add(time.Hour))
	if err := repo.Create(ctx, original); err != nil {
		t.Fatalf("create: %v", err)
	}
	original.Text = "mutated"

	stored, err := repo.Get(ctx, "101")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Text != "water the plants" {
		t.Fatalf("expected stored copy to be isolated, got %q", stored.Text)
	}
}
