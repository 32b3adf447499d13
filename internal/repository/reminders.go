package repository

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"remindd/internal/domain"
)

var (
	ErrNotFound      = errors.New("reminder not found")
	ErrDuplicateName = errors.New("reminder name already scheduled")
)

// RemindersRepository abstracts durable storage of scheduled reminders.
// Only scheduled reminders are stored: firing and cancellation both go
// through Remove, whose boolean return is the atomic claim that keeps the
// two from racing each other.
type RemindersRepository interface {
	Create(ctx context.Context, reminder *domain.Reminder) error
	Remove(ctx context.Context, name string) (bool, error)
	Get(ctx context.Context, name string) (*domain.Reminder, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]*domain.Reminder, error)
	ListDue(ctx context.Context, now time.Time) ([]*domain.Reminder, error)
	CountByOwner(ctx context.Context, ownerID int64) (int, error)
}

// MemoryRemindersRepository stores reminders in memory for local development
// and tests.
type MemoryRemindersRepository struct {
	mu        sync.RWMutex
	reminders map[string]*domain.Reminder
}

func NewMemoryRemindersRepository() *MemoryRemindersRepository {
	return &MemoryRemindersRepository{
		reminders: make(map[string]*domain.Reminder),
	}
}

func (r *MemoryRemindersRepository) Create(_ context.Context, reminder *domain.Reminder) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.reminders[reminder.Name]; exists {
		return ErrDuplicateName
	}
	r.reminders[reminder.Name] = cloneReminder(reminder)
	return nil
}

func (r *MemoryRemindersRepository) Remove(_ context.Context, name string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.reminders[name]; !exists {
		return false, nil
	}
	delete(r.reminders, name)
	return true, nil
}

func (r *MemoryRemindersRepository) Get(_ context.Context, name string) (*domain.Reminder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	reminder, ok := r.reminders[name]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneReminder(reminder), nil
}

func (r *MemoryRemindersRepository) ListByOwner(_ context.Context, ownerID int64) ([]*domain.Reminder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := make([]*domain.Reminder, 0)
	for _, reminder := range r.reminders {
		if reminder.OwnerID == ownerID {
			items = append(items, cloneReminder(reminder))
		}
	}
	sortByFireTime(items)
	return items, nil
}

func (r *MemoryRemindersRepository) ListDue(_ context.Context, now time.Time) ([]*domain.Reminder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := make([]*domain.Reminder, 0)
	for _, reminder := range r.reminders {
		if !reminder.FireAt.After(now) {
			items = append(items, cloneReminder(reminder))
		}
	}
	sortByFireTime(items)
	return items, nil
}

func (r *MemoryRemindersRepository) CountByOwner(_ context.Context, ownerID int64) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, reminder := range r.reminders {
		if reminder.OwnerID == ownerID {
			count++
		}
	}
	return count, nil
}

func sortByFireTime(items []*domain.Reminder) {
	sort.Slice(items, func(i, j int) bool {
		return items[i].FireAt.Before(items[j].FireAt)
	})
}

func cloneReminder(reminder *domain.Reminder) *domain.Reminder {
	if reminder == nil {
		return nil
	}
	clone := *reminder
	return &clone
}
