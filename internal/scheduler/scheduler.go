package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"remindd/internal/domain"
	"remindd/internal/repository"
)

// DeliverFunc hands a fired reminder to the delivery channel.
type DeliverFunc func(ctx context.Context, reminder *domain.Reminder) error

// Scheduler sweeps the repository for due reminders and fires each at most
// once. A reminder is claimed (removed from the store) before delivery is
// attempted, so a delivery failure can never cause a duplicate fire and a
// concurrent cancellation can never race a fire into both happening.
type Scheduler struct {
	repo     repository.RemindersRepository
	deliver  DeliverFunc
	logger   *log.Logger
	interval time.Duration

	inflight sync.WaitGroup
}

func New(
	repo repository.RemindersRepository,
	deliver DeliverFunc,
	logger *log.Logger,
	interval time.Duration,
) *Scheduler {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	return &Scheduler{
		repo:     repo,
		deliver:  deliver,
		logger:   logger,
		interval: interval,
	}
}

// Run sweeps until ctx is cancelled, then waits for in-flight deliveries.
// Durability across restarts falls out of the design: every sweep reads the
// store, so reminders persisted before a crash fire on the next run.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.inflight.Wait()
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Scheduler) sweep(ctx context.Context) {
	due, err := s.repo.ListDue(ctx, time.Now().UTC())
	if err != nil {
		if s.logger != nil {
			s.logger.Printf("scheduler list due reminders: %v", err)
		}
		return
	}

	for _, reminder := range due {
		claimed, err := s.repo.Remove(ctx, reminder.Name)
		if err != nil {
			if s.logger != nil {
				s.logger.Printf("scheduler claim reminder %s: %v", reminder.Name, err)
			}
			continue
		}
		if !claimed {
			// Cancelled between listing and claiming.
			continue
		}

		reminder.Status = domain.StatusFired
		s.inflight.Add(1)
		go func(reminder *domain.Reminder) {
			defer s.inflight.Done()
			if err := s.deliver(ctx, reminder); err != nil && s.logger != nil {
				s.logger.Printf("deliver reminder %s to chat %d: %v", reminder.Name, reminder.ReceiverID, err)
			}
		}(reminder)
	}
}
