package dialog

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"remindd/internal/domain"
	"remindd/internal/repository"
	"remindd/internal/service"
	"remindd/internal/session"
	"remindd/internal/transport"
)

type editCall struct {
	ChatID    int64
	MessageID int
	Text      string
	HTML      bool
}

type fakeSender struct {
	mu       sync.Mutex
	sent     []transport.Message
	edits    []editCall
	answered []string
}

func (s *fakeSender) Send(_ context.Context, message transport.Message) (transport.SendResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, message)
	return transport.SendResult{MessageID: len(s.sent)}, nil
}

func (s *fakeSender) Edit(_ context.Context, chatID int64, messageID int, text string, html bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.edits = append(s.edits, editCall{ChatID: chatID, MessageID: messageID, Text: text, HTML: html})
	return nil
}

func (s *fakeSender) AnswerCallback(_ context.Context, callbackID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.answered = append(s.answered, callbackID)
	return nil
}

func (s *fakeSender) lastMessage(t *testing.T) transport.Message {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sent) == 0 {
		t.Fatalf("no messages sent")
	}
	return s.sent[len(s.sent)-1]
}

func (s *fakeSender) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = nil
	s.edits = nil
	s.answered = nil
}

type fixedExtractor struct {
	at    time.Time
	found bool
}

func (f fixedExtractor) FindScheduleTime(string, time.Time) (time.Time, bool) {
	return f.at, f.found
}

type fixture struct {
	machine *Machine
	sender  *fakeSender
	svc     *service.ReminderService
}

func newFixture(t *testing.T, extractor TimeExtractor, opts Options) *fixture {
	t.Helper()
	sender := &fakeSender{}
	svc := service.NewReminderService(repository.NewMemoryRemindersRepository(), nil)
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	machine := NewMachine(Dependencies{
		Sender:    sender,
		Sessions:  session.NewMemoryStore(),
		Reminders: svc,
		Extractor: extractor,
		Options:   opts,
	})
	return &fixture{machine: machine, sender: sender, svc: svc}
}

func textEvent(chatID, userID int64, messageID int, text string) domain.Event {
	return domain.Event{
		Kind:          domain.EventText,
		ChatID:        chatID,
		UserID:        userID,
		UserFirstName: "Ivan",
		MessageID:     messageID,
		Text:          text,
	}
}

func controlEvent(chatID, userID int64, token string, sourceMessageID int, sourceText string) domain.Event {
	return domain.Event{
		Kind:            domain.EventControl,
		ChatID:          chatID,
		UserID:          userID,
		ControlToken:    token,
		CallbackID:      "cb-1",
		SourceMessageID: sourceMessageID,
		SourceText:      sourceText,
	}
}

func mustHandle(t *testing.T, f *fixture, event domain.Event) {
	t.Helper()
	if err := f.machine.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("handle event: %v", err)
	}
}

func TestStartShowsMenuWithActiveCount(t *testing.T) {
	f := newFixture(t, fixedExtractor{}, Options{})

	mustHandle(t, f, textEvent(10, 7, 1, "/start"))

	welcome := f.sender.lastMessage(t)
	if !strings.Contains(welcome.Text, "Активные задания:0") {
		t.Fatalf("welcome missing active count: %q", welcome.Text)
	}
	if len(welcome.Controls) != 3 {
		t.Fatalf("expected 3 menu rows, got %d", len(welcome.Controls))
	}
}

func TestAddFlowSchedulesReminderAndRendersCard(t *testing.T) {
	fireAt := time.Date(2024, 3, 16, 15, 0, 0, 0, time.UTC)
	f := newFixture(t, fixedExtractor{at: fireAt, found: true}, Options{})

	mustHandle(t, f, textEvent(10, 7, 1, "/start"))
	mustHandle(t, f, controlEvent(10, 7, "add", 0, ""))

	prompt := f.sender.lastMessage(t)
	if !strings.Contains(prompt.Text, "Введите текст напоминания") {
		t.Fatalf("expected add prompt, got %q", prompt.Text)
	}

	mustHandle(t, f, textEvent(10, 7, 42, "tomorrow at 18:00 do X"))

	card := f.sender.lastMessage(t)
	if !strings.Contains(card.Text, "#42") {
		t.Fatalf("card missing job name: %q", card.Text)
	}
	if !strings.Contains(card.Text, fireAt.Format(cardTimeLayout)) {
		t.Fatalf("card missing rendered fire time: %q", card.Text)
	}
	if len(card.Controls) != 1 || card.Controls[0][0].Data != "cancel:42" {
		t.Fatalf("card missing cancel control: %+v", card.Controls)
	}

	mine, err := f.svc.ListForOwner(context.Background(), 7)
	if err != nil || len(mine) != 1 {
		t.Fatalf("expected one scheduled reminder, got %v err=%v", mine, err)
	}
	if !mine[0].FireAt.Equal(fireAt) {
		t.Fatalf("fire time = %v, want %v", mine[0].FireAt, fireAt)
	}
}

func TestUnparsableDateReprompts(t *testing.T) {
	f := newFixture(t, fixedExtractor{found: false}, Options{})

	mustHandle(t, f, textEvent(10, 7, 1, "/start"))
	mustHandle(t, f, controlEvent(10, 7, "add", 0, ""))
	f.sender.reset()

	mustHandle(t, f, textEvent(10, 7, 42, "buy milk"))

	if len(f.sender.sent) != 2 {
		t.Fatalf("expected failure message plus re-prompt, got %d messages", len(f.sender.sent))
	}
	if !strings.HasPrefix(f.sender.sent[0].Text, "❗ ") {
		t.Fatalf("expected validation error glyph, got %q", f.sender.sent[0].Text)
	}
	if !strings.Contains(f.sender.sent[1].Text, "Введите текст напоминания") {
		t.Fatalf("expected re-prompt, got %q", f.sender.sent[1].Text)
	}

	count, _ := f.svc.CountForOwner(context.Background(), 7)
	if count != 0 {
		t.Fatalf("nothing should be scheduled, count = %d", count)
	}
}

func TestShowAndCancelSingleReminder(t *testing.T) {
	fireAt := time.Now().UTC().Add(time.Hour)
	f := newFixture(t, fixedExtractor{at: fireAt, found: true}, Options{})
	ctx := context.Background()

	mustHandle(t, f, textEvent(10, 7, 1, "/start"))
	mustHandle(t, f, controlEvent(10, 7, "add", 0, ""))
	mustHandle(t, f, textEvent(10, 7, 42, "water the plants tomorrow"))

	f.sender.reset()
	mustHandle(t, f, controlEvent(10, 7, "show", 0, ""))
	card := f.sender.lastMessage(t)
	if !strings.Contains(card.Text, "#42") || card.Controls[0][0].Data != "cancel:42" {
		t.Fatalf("show did not render the card with its cancel control: %+v", card)
	}

	// Press the card's cancel button.
	f.sender.reset()
	mustHandle(t, f, controlEvent(10, 7, "cancel:42", 99, "card text"))
	if len(f.sender.edits) != 1 || f.sender.edits[0].Text != "<s>card text</s>" {
		t.Fatalf("expected strike-through edit, got %+v", f.sender.edits)
	}

	// A fresh show no longer lists it.
	f.sender.reset()
	mustHandle(t, f, controlEvent(10, 7, "show", 0, ""))
	if f.sender.lastMessage(t).Text != msgNoActiveReminders {
		t.Fatalf("expected empty listing, got %q", f.sender.lastMessage(t).Text)
	}

	// Cancelling again is a quiet no-op with the same visible outcome.
	mustHandle(t, f, controlEvent(10, 7, "cancel:42", 99, "card text"))

	count, _ := f.svc.CountForOwner(ctx, 7)
	if count != 0 {
		t.Fatalf("count = %d", count)
	}
}

func TestCancelAllRequiresConfirmation(t *testing.T) {
	fireAt := time.Now().UTC().Add(time.Hour)
	f := newFixture(t, fixedExtractor{at: fireAt, found: true}, Options{})
	ctx := context.Background()

	mustHandle(t, f, textEvent(10, 7, 1, "/start"))
	for i := 2; i <= 3; i++ {
		mustHandle(t, f, controlEvent(10, 7, "add", 0, ""))
		mustHandle(t, f, textEvent(10, 7, i, "later today"))
	}

	f.sender.reset()
	mustHandle(t, f, controlEvent(10, 7, "cancel_all", 0, ""))
	confirm := f.sender.lastMessage(t)
	if !strings.Contains(confirm.Text, "(2)") {
		t.Fatalf("confirmation missing count: %q", confirm.Text)
	}
	if len(confirm.Controls[0]) != 2 {
		t.Fatalf("expected yes/no controls, got %+v", confirm.Controls)
	}

	// Decline leaves everything in place.
	mustHandle(t, f, controlEvent(10, 7, "decline", 0, ""))
	count, _ := f.svc.CountForOwner(ctx, 7)
	if count != 2 {
		t.Fatalf("decline must not cancel, count = %d", count)
	}

	// Confirm wipes the user's reminders.
	mustHandle(t, f, controlEvent(10, 7, "cancel_all", 0, ""))
	mustHandle(t, f, controlEvent(10, 7, "confirm", 0, ""))
	count, _ = f.svc.CountForOwner(ctx, 7)
	if count != 0 {
		t.Fatalf("confirm must cancel everything, count = %d", count)
	}
}

func TestCancelAllWithNothingScheduledStaysPut(t *testing.T) {
	f := newFixture(t, fixedExtractor{}, Options{})

	mustHandle(t, f, textEvent(10, 7, 1, "/start"))
	f.sender.reset()
	mustHandle(t, f, controlEvent(10, 7, "cancel_all", 0, ""))

	if f.sender.lastMessage(t).Text != msgNothingToCancel {
		t.Fatalf("expected nothing-to-cancel notice, got %q", f.sender.lastMessage(t).Text)
	}

	// Menu actions still work: the state did not move to confirmation.
	f.sender.reset()
	mustHandle(t, f, controlEvent(10, 7, "add", 0, ""))
	if !strings.Contains(f.sender.lastMessage(t).Text, "Введите текст напоминания") {
		t.Fatalf("expected add prompt after staying in action selection")
	}
}

func TestUndecodableControlYieldsRestartNotice(t *testing.T) {
	f := newFixture(t, fixedExtractor{}, Options{})

	mustHandle(t, f, textEvent(10, 7, 1, "/start"))
	f.sender.reset()
	mustHandle(t, f, controlEvent(10, 7, "garbage|token", 55, "old menu"))

	if len(f.sender.edits) != 1 || f.sender.edits[0].Text != msgStaleControl {
		t.Fatalf("expected stale notice edit, got %+v", f.sender.edits)
	}
}

func TestControlInWrongStateYieldsRestartNotice(t *testing.T) {
	f := newFixture(t, fixedExtractor{}, Options{})

	// Confirm button without a pending confirmation (e.g. after restart).
	mustHandle(t, f, controlEvent(10, 7, "confirm", 55, "stale confirm"))

	if len(f.sender.edits) != 1 || f.sender.edits[0].Text != msgStaleControl {
		t.Fatalf("expected stale notice edit, got %+v", f.sender.edits)
	}
}

func TestStopRemovesKeyboardAndEndsSession(t *testing.T) {
	f := newFixture(t, fixedExtractor{}, Options{})

	mustHandle(t, f, textEvent(10, 7, 1, "/start"))
	f.sender.reset()
	mustHandle(t, f, textEvent(10, 7, 2, "/stop"))

	farewell := f.sender.lastMessage(t)
	if farewell.Text != msgFarewell || !farewell.RemoveReplyKeyboard {
		t.Fatalf("expected farewell with keyboard removal, got %+v", farewell)
	}

	// The conversation ended: menu buttons are stale now.
	f.sender.reset()
	mustHandle(t, f, controlEvent(10, 7, "add", 55, "old menu"))
	if len(f.sender.edits) != 1 || f.sender.edits[0].Text != msgStaleControl {
		t.Fatalf("expected stale notice after stop, got %+v", f.sender.edits)
	}
}

func TestSelectedReceiverRoutesDelivery(t *testing.T) {
	fireAt := time.Now().UTC().Add(time.Hour)
	f := newFixture(t, fixedExtractor{at: fireAt, found: true}, Options{ReceiverSelectionEnabled: true})
	ctx := context.Background()

	mustHandle(t, f, textEvent(10, 7, 1, "/start"))
	mustHandle(t, f, domain.Event{
		Kind:             domain.EventSharedReceiver,
		ChatID:           10,
		UserID:           7,
		SharedReceiverID: 777,
	})
	mustHandle(t, f, controlEvent(10, 7, "add", 0, ""))
	mustHandle(t, f, textEvent(10, 7, 42, "tomorrow at 18:00 do X"))

	mine, err := f.svc.ListForOwner(ctx, 7)
	if err != nil || len(mine) != 1 {
		t.Fatalf("expected one reminder, err=%v", err)
	}
	if mine[0].ReceiverID != 777 {
		t.Fatalf("receiver = %d, want selected 777", mine[0].ReceiverID)
	}
}

func TestUnselectedReceiverFallsBackToOriginChat(t *testing.T) {
	fireAt := time.Now().UTC().Add(time.Hour)
	f := newFixture(t, fixedExtractor{at: fireAt, found: true}, Options{ReceiverSelectionEnabled: true})

	mustHandle(t, f, textEvent(10, 7, 1, "/start"))

	// The start screen surfaces the missing selection.
	found := false
	for _, message := range f.sender.sent {
		if strings.Contains(message.Text, "Получатель не выбран") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected unselected-receiver notice on start screen")
	}

	mustHandle(t, f, controlEvent(10, 7, "add", 0, ""))
	mustHandle(t, f, textEvent(10, 7, 42, "tomorrow at 18:00 do X"))

	mine, _ := f.svc.ListForOwner(context.Background(), 7)
	if len(mine) != 1 || mine[0].ReceiverID != 10 {
		t.Fatalf("expected fallback to origin chat, got %+v", mine)
	}
}

func TestDisabledSelectionUsesConfiguredDefault(t *testing.T) {
	fireAt := time.Now().UTC().Add(time.Hour)
	f := newFixture(t, fixedExtractor{at: fireAt, found: true}, Options{DefaultReceiverID: 555})

	mustHandle(t, f, textEvent(10, 7, 1, "/start"))
	mustHandle(t, f, controlEvent(10, 7, "add", 0, ""))
	mustHandle(t, f, textEvent(10, 7, 42, "tomorrow at 18:00 do X"))

	mine, _ := f.svc.ListForOwner(context.Background(), 7)
	if len(mine) != 1 || mine[0].ReceiverID != 555 {
		t.Fatalf("expected configured default receiver, got %+v", mine)
	}
}

func TestBackFromComposeDiscardsAttempt(t *testing.T) {
	f := newFixture(t, fixedExtractor{at: time.Now().Add(time.Hour), found: true}, Options{})

	mustHandle(t, f, textEvent(10, 7, 1, "/start"))
	mustHandle(t, f, controlEvent(10, 7, "add", 0, ""))
	mustHandle(t, f, controlEvent(10, 7, "back", 0, ""))

	// Back lands on the start screen and free text is ignored again.
	mustHandle(t, f, textEvent(10, 7, 42, "tomorrow at 18:00 do X"))
	count, _ := f.svc.CountForOwner(context.Background(), 7)
	if count != 0 {
		t.Fatalf("text after back must not schedule, count = %d", count)
	}
}
