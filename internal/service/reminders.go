package service

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/google/uuid"

	"remindd/internal/domain"
	"remindd/internal/repository"
)

type ScheduleInput struct {
	OwnerID    int64
	ChatID     int64
	ReceiverID int64
	MessageID  int
	Text       string
	FireAt     time.Time
}

// ReminderService owns reminder lifecycle operations on top of the
// repository. Firing is not here: the scheduler claims due rows directly
// through the same repository.
type ReminderService struct {
	repo   repository.RemindersRepository
	logger *log.Logger
}

func NewReminderService(repo repository.RemindersRepository, logger *log.Logger) *ReminderService {
	return &ReminderService{repo: repo, logger: logger}
}

// Schedule persists a new reminder. The name comes from the originating
// message id so later button presses can address the job; events without a
// message id get a random name.
func (s *ReminderService) Schedule(ctx context.Context, input ScheduleInput) (*domain.Reminder, error) {
	name := strconv.Itoa(input.MessageID)
	if input.MessageID == 0 {
		name = uuid.NewString()
	}

	reminder := &domain.Reminder{
		Name:       name,
		OwnerID:    input.OwnerID,
		ChatID:     input.ChatID,
		ReceiverID: input.ReceiverID,
		Text:       input.Text,
		FireAt:     input.FireAt.UTC(),
		Status:     domain.StatusScheduled,
		CreatedAt:  time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, reminder); err != nil {
		return nil, fmt.Errorf("create reminder: %w", err)
	}
	if s.logger != nil {
		s.logger.Printf("reminder scheduled name=%s owner=%d fire_at=%s", reminder.Name, reminder.OwnerID, reminder.FireAt.Format(time.RFC3339))
	}
	return reminder, nil
}

// CancelByName removes one scheduled reminder. Cancelling a reminder that
// already fired or was already cancelled is a no-op, not an error.
func (s *ReminderService) CancelByName(ctx context.Context, name string) (bool, error) {
	removed, err := s.repo.Remove(ctx, name)
	if err != nil {
		return false, fmt.Errorf("cancel reminder %s: %w", name, err)
	}
	return removed, nil
}

// CancelAllForOwner cancels every scheduled reminder the user owns and
// returns how many were actually removed.
func (s *ReminderService) CancelAllForOwner(ctx context.Context, ownerID int64) (int, error) {
	reminders, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return 0, fmt.Errorf("list reminders for cancel: %w", err)
	}

	cancelled := 0
	for _, reminder := range reminders {
		removed, err := s.repo.Remove(ctx, reminder.Name)
		if err != nil {
			return cancelled, fmt.Errorf("cancel reminder %s: %w", reminder.Name, err)
		}
		if removed {
			cancelled++
		}
	}
	return cancelled, nil
}

func (s *ReminderService) ListForOwner(ctx context.Context, ownerID int64) ([]*domain.Reminder, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}

func (s *ReminderService) CountForOwner(ctx context.Context, ownerID int64) (int, error) {
	return s.repo.CountByOwner(ctx, ownerID)
}
