package domain

import "time"

type ReminderStatus string

const (
	StatusScheduled ReminderStatus = "scheduled"
	StatusFired     ReminderStatus = "fired"
	StatusCancelled ReminderStatus = "cancelled"
)

// Reminder is a one-shot scheduled delivery of user text.
//
// Name is unique among scheduled reminders and is derived from the
// originating message id so inline cancel buttons can reference it later.
// ReceiverID may differ from ChatID when a delivery receiver was selected
// for the session.
type Reminder struct {
	Name       string
	OwnerID    int64
	ChatID     int64
	ReceiverID int64
	Text       string
	FireAt     time.Time
	Status     ReminderStatus
	CreatedAt  time.Time
}
