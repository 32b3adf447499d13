package dialog

import (
	"context"
	"errors"
	"log"
	"time"

	"remindd/internal/domain"
	"remindd/internal/service"
	"remindd/internal/session"
	"remindd/internal/transport"
	"remindd/internal/validation"
)

// TimeExtractor turns free text into an acceptable future instant.
type TimeExtractor interface {
	FindScheduleTime(text string, now time.Time) (time.Time, bool)
}

type Options struct {
	ReceiverSelectionEnabled bool
	DefaultReceiverID        int64
	Location                 *time.Location
}

type Dependencies struct {
	Sender    transport.Sender
	Sessions  session.Store
	Reminders *service.ReminderService
	Extractor TimeExtractor
	Logger    *log.Logger
	Options   Options
	Now       func() time.Time
}

// Machine drives the reminder conversation: one enumerated state per user
// session, one handler per (state, event) pair. Transport errors are logged
// and swallowed so a failed send never derails the dialog; persistence
// errors while scheduling are the one case reported back to the user.
type Machine struct {
	sender    transport.Sender
	sessions  session.Store
	reminders *service.ReminderService
	extractor TimeExtractor
	logger    *log.Logger
	opts      Options
	now       func() time.Time
}

func NewMachine(deps Dependencies) *Machine {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	loc := deps.Options.Location
	if loc == nil {
		loc = time.UTC
	}
	deps.Options.Location = loc
	return &Machine{
		sender:    deps.Sender,
		sessions:  deps.Sessions,
		reminders: deps.Reminders,
		extractor: deps.Extractor,
		logger:    deps.Logger,
		opts:      deps.Options,
		now:       now,
	}
}

// HandleEvent advances one user's conversation by one inbound event.
func (m *Machine) HandleEvent(ctx context.Context, event domain.Event) error {
	switch event.Kind {
	case domain.EventText:
		return m.handleText(ctx, event)
	case domain.EventControl:
		return m.handleControl(ctx, event)
	case domain.EventSharedReceiver:
		return m.handleSharedReceiver(ctx, event)
	default:
		return nil
	}
}

func (m *Machine) handleText(ctx context.Context, event domain.Event) error {
	switch event.Text {
	case "/start":
		return m.start(ctx, event)
	case "/stop":
		return m.stop(ctx, event)
	}

	current := m.loadSession(ctx, event.UserID)
	if current.State == StateParseReminder {
		return m.parseReminder(ctx, event, current)
	}
	// Free text outside the add flow carries no meaning here.
	return nil
}

func (m *Machine) handleControl(ctx context.Context, event domain.Event) error {
	control, err := domain.ParseControl(event.ControlToken)
	if err != nil {
		if !errors.Is(err, domain.ErrBadControl) {
			return err
		}
		m.answerCallback(ctx, event)
		m.staleControlNotice(ctx, event)
		return nil
	}
	m.answerCallback(ctx, event)

	// A reminder cancel button stays valid from any state: the card may
	// long outlive the menu that produced it.
	if control.Action == domain.ActionCancelJob {
		return m.cancelSingle(ctx, event, control.JobName)
	}

	current := m.loadSession(ctx, event.UserID)
	switch current.State {
	case StateSelectingAction:
		switch control.Action {
		case domain.ActionAddReminder:
			return m.promptAdd(ctx, event, current)
		case domain.ActionShow:
			return m.showReminders(ctx, event)
		case domain.ActionCancelAll:
			return m.confirmCancelAll(ctx, event, current)
		case domain.ActionStop:
			return m.stop(ctx, event)
		}
	case StateCancelAllConfirm:
		switch control.Action {
		case domain.ActionConfirm:
			return m.cancelAll(ctx, event)
		case domain.ActionDecline:
			return m.start(ctx, event)
		}
	case StateParseReminder:
		if control.Action == domain.ActionBack {
			return m.start(ctx, event)
		}
	}

	// Button pressed in a state that no longer expects it.
	m.staleControlNotice(ctx, event)
	return nil
}

func (m *Machine) handleSharedReceiver(ctx context.Context, event domain.Event) error {
	current := m.loadSession(ctx, event.UserID)
	receiverID := event.SharedReceiverID
	current.ReceiverID = &receiverID
	m.saveSession(ctx, event.UserID, current)

	m.send(ctx, transport.Message{
		ChatID: event.ChatID,
		Text:   receiverSelectedText(receiverID),
	})
	return nil
}

// start renders the welcome screen and the action menu, and moves the
// session to action selection.
func (m *Machine) start(ctx context.Context, event domain.Event) error {
	count, err := m.reminders.CountForOwner(ctx, event.UserID)
	if err != nil && m.logger != nil {
		m.logger.Printf("count reminders for user %d: %v", event.UserID, err)
	}

	m.send(ctx, transport.Message{
		ChatID:   event.ChatID,
		Text:     welcomeText(event.UserFirstName, count),
		HTML:     true,
		Controls: menuControls(),
	})

	current := m.loadSession(ctx, event.UserID)
	if m.opts.ReceiverSelectionEnabled {
		m.send(ctx, transport.Message{
			ChatID:                  event.ChatID,
			Text:                    receiverText(current.ReceiverID),
			HTML:                    true,
			RequestReceiverKeyboard: true,
		})
	}

	current.State = StateSelectingAction
	m.saveSession(ctx, event.UserID, current)
	return nil
}

func (m *Machine) stop(ctx context.Context, event domain.Event) error {
	m.send(ctx, transport.Message{
		ChatID:              event.ChatID,
		Text:                msgFarewell,
		RemoveReplyKeyboard: true,
	})
	if err := m.sessions.Delete(ctx, event.UserID); err != nil && m.logger != nil {
		m.logger.Printf("delete session for user %d: %v", event.UserID, err)
	}
	return nil
}

func (m *Machine) promptAdd(ctx context.Context, event domain.Event, current session.Session) error {
	m.send(ctx, transport.Message{
		ChatID:   event.ChatID,
		Text:     addPromptText(),
		HTML:     true,
		Controls: backControls(),
	})
	current.State = StateParseReminder
	m.saveSession(ctx, event.UserID, current)
	return nil
}

func (m *Machine) parseReminder(ctx context.Context, event domain.Event, current session.Session) error {
	fireAt, found := m.extractor.FindScheduleTime(event.Text, m.now())

	result := validation.Start().
		Error(msgDateNotRecognized, validation.KeyInvalidData, !found).
		Build()
	if result.HasKey(validation.KeyInvalidData) {
		m.send(ctx, transport.Message{ChatID: event.ChatID, Text: result.Message()})
		return m.promptAdd(ctx, event, current)
	}

	receiverID, resolved := m.resolveReceiver(current)
	if !resolved {
		// No receiver selected for the session: fall back to the chat
		// the reminder was composed in.
		receiverID = event.ChatID
	}

	reminder, err := m.reminders.Schedule(ctx, service.ScheduleInput{
		OwnerID:    event.UserID,
		ChatID:     event.ChatID,
		ReceiverID: receiverID,
		MessageID:  event.MessageID,
		Text:       event.Text,
		FireAt:     fireAt,
	})
	if err != nil {
		if m.logger != nil {
			m.logger.Printf("schedule reminder for user %d: %v", event.UserID, err)
		}
		m.send(ctx, transport.Message{ChatID: event.ChatID, Text: msgScheduleFailed})
	} else {
		m.sendReminderCard(ctx, event.ChatID, reminder)
	}

	current.State = StateSelectingAction
	m.saveSession(ctx, event.UserID, current)
	return nil
}

func (m *Machine) showReminders(ctx context.Context, event domain.Event) error {
	reminders, err := m.reminders.ListForOwner(ctx, event.UserID)
	if err != nil {
		if m.logger != nil {
			m.logger.Printf("list reminders for user %d: %v", event.UserID, err)
		}
		m.send(ctx, transport.Message{ChatID: event.ChatID, Text: msgScheduleFailed})
		return nil
	}

	if len(reminders) == 0 {
		m.send(ctx, transport.Message{ChatID: event.ChatID, Text: msgNoActiveReminders})
		return nil
	}
	for _, reminder := range reminders {
		m.sendReminderCard(ctx, event.ChatID, reminder)
	}
	return nil
}

func (m *Machine) confirmCancelAll(ctx context.Context, event domain.Event, current session.Session) error {
	count, err := m.reminders.CountForOwner(ctx, event.UserID)
	if err != nil && m.logger != nil {
		m.logger.Printf("count reminders for user %d: %v", event.UserID, err)
	}
	if count == 0 {
		m.send(ctx, transport.Message{ChatID: event.ChatID, Text: msgNothingToCancel})
		return nil
	}

	m.send(ctx, transport.Message{
		ChatID:   event.ChatID,
		Text:     cancelAllConfirmText(count),
		Controls: confirmControls(),
	})
	current.State = StateCancelAllConfirm
	m.saveSession(ctx, event.UserID, current)
	return nil
}

func (m *Machine) cancelAll(ctx context.Context, event domain.Event) error {
	if _, err := m.reminders.CancelAllForOwner(ctx, event.UserID); err != nil && m.logger != nil {
		m.logger.Printf("cancel all reminders for user %d: %v", event.UserID, err)
	}
	m.send(ctx, transport.Message{ChatID: event.ChatID, Text: msgAllCancelled})
	return m.start(ctx, event)
}

func (m *Machine) cancelSingle(ctx context.Context, event domain.Event, jobName string) error {
	if _, err := m.reminders.CancelByName(ctx, jobName); err != nil && m.logger != nil {
		m.logger.Printf("cancel reminder %s: %v", jobName, err)
	}

	// Strike the card through even when the job was already gone: the
	// visible outcome is the same either way.
	if event.SourceMessageID != 0 {
		err := m.sender.Edit(ctx, event.ChatID, event.SourceMessageID, strikeThrough(event.SourceText), true)
		if err != nil && m.logger != nil {
			m.logger.Printf("edit cancelled card in chat %d: %v", event.ChatID, err)
		}
	}
	return nil
}

func (m *Machine) sendReminderCard(ctx context.Context, chatID int64, reminder *domain.Reminder) {
	m.send(ctx, transport.Message{
		ChatID:   chatID,
		Text:     reminderCardText(reminder, m.opts.Location),
		HTML:     true,
		Controls: cardControls(reminder.Name),
	})
}

func (m *Machine) resolveReceiver(current session.Session) (int64, bool) {
	if !m.opts.ReceiverSelectionEnabled {
		return m.opts.DefaultReceiverID, true
	}
	if current.ReceiverID != nil {
		return *current.ReceiverID, true
	}
	return 0, false
}

func (m *Machine) staleControlNotice(ctx context.Context, event domain.Event) {
	if event.SourceMessageID != 0 {
		err := m.sender.Edit(ctx, event.ChatID, event.SourceMessageID, msgStaleControl, false)
		if err == nil {
			return
		}
		if m.logger != nil {
			m.logger.Printf("edit stale control notice in chat %d: %v", event.ChatID, err)
		}
	}
	m.send(ctx, transport.Message{ChatID: event.ChatID, Text: msgStaleControl})
}

func (m *Machine) answerCallback(ctx context.Context, event domain.Event) {
	if event.CallbackID == "" {
		return
	}
	if err := m.sender.AnswerCallback(ctx, event.CallbackID); err != nil && m.logger != nil {
		m.logger.Printf("answer callback %s: %v", event.CallbackID, err)
	}
}

func (m *Machine) loadSession(ctx context.Context, userID int64) session.Session {
	current, err := m.sessions.Get(ctx, userID)
	if err != nil {
		if m.logger != nil {
			m.logger.Printf("load session for user %d: %v", userID, err)
		}
		return session.Session{}
	}
	return current
}

func (m *Machine) saveSession(ctx context.Context, userID int64, current session.Session) {
	if err := m.sessions.Put(ctx, userID, current); err != nil && m.logger != nil {
		m.logger.Printf("save session for user %d: %v", userID, err)
	}
}

func (m *Machine) send(ctx context.Context, message transport.Message) {
	if _, err := m.sender.Send(ctx, message); err != nil && m.logger != nil {
		m.logger.Printf("send to chat %d: %v", message.ChatID, err)
	}
}
