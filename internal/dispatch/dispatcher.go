package dispatch

import (
	"context"
	"fmt"
	"log"
	"runtime/debug"
	"sync"
	"time"

	"remindd/internal/domain"
	"remindd/internal/transport"
)

// Handler advances a conversation by one event.
type Handler interface {
	HandleEvent(ctx context.Context, event domain.Event) error
}

// Dispatcher is the outermost event boundary. It serializes events per chat
// (one in-flight event per conversation, distinct chats concurrent) and
// guarantees that nothing thrown by a handler escapes: panics and handler
// errors are logged with the triggering event and reported to the operator
// chat, never allowed to crash the process or stall other conversations.
type Dispatcher struct {
	receiver       transport.Receiver
	handler        Handler
	sender         transport.Sender
	operatorChatID int64
	logger         *log.Logger

	mu    sync.Mutex
	lanes map[int64]chan domain.Event
	wg    sync.WaitGroup
}

func New(
	receiver transport.Receiver,
	handler Handler,
	sender transport.Sender,
	operatorChatID int64,
	logger *log.Logger,
) *Dispatcher {
	return &Dispatcher{
		receiver:       receiver,
		handler:        handler,
		sender:         sender,
		operatorChatID: operatorChatID,
		logger:         logger,
		lanes:          make(map[int64]chan domain.Event),
	}
}

// Run polls for events until ctx is cancelled, then waits for in-flight
// handlers to finish.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			break
		}

		events, err := d.receiver.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			if d.logger != nil {
				d.logger.Printf("receive updates: %v", err)
			}
			timer := time.NewTimer(2 * time.Second)
			select {
			case <-ctx.Done():
				timer.Stop()
			case <-timer.C:
			}
			continue
		}

		for _, event := range events {
			d.route(ctx, event)
		}
	}

	d.mu.Lock()
	for _, lane := range d.lanes {
		close(lane)
	}
	d.lanes = make(map[int64]chan domain.Event)
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *Dispatcher) route(ctx context.Context, event domain.Event) {
	key := event.ChatID
	if key == 0 {
		key = event.UserID
	}

	d.mu.Lock()
	lane, ok := d.lanes[key]
	if !ok {
		lane = make(chan domain.Event, 16)
		d.lanes[key] = lane
		d.wg.Add(1)
		go d.drainLane(ctx, lane)
	}
	d.mu.Unlock()

	select {
	case lane <- event:
	case <-ctx.Done():
	}
}

func (d *Dispatcher) drainLane(ctx context.Context, lane <-chan domain.Event) {
	defer d.wg.Done()
	for event := range lane {
		d.process(ctx, event)
	}
}

func (d *Dispatcher) process(ctx context.Context, event domain.Event) {
	defer func() {
		if recovered := recover(); recovered != nil {
			detail := fmt.Sprintf("panic handling %s event in chat %d: %v", event.Kind, event.ChatID, recovered)
			if d.logger != nil {
				d.logger.Printf("%s\n%s", detail, debug.Stack())
			}
			d.reportToOperator(ctx, detail)
		}
	}()

	if err := d.handler.HandleEvent(ctx, event); err != nil {
		detail := fmt.Sprintf("handle %s event in chat %d: %v", event.Kind, event.ChatID, err)
		if d.logger != nil {
			d.logger.Printf("%s", detail)
		}
		d.reportToOperator(ctx, detail)
	}
}

func (d *Dispatcher) reportToOperator(ctx context.Context, detail string) {
	if d.operatorChatID == 0 || d.sender == nil {
		return
	}
	_, err := d.sender.Send(ctx, transport.Message{
		ChatID: d.operatorChatID,
		Text:   "⚠ " + detail,
	})
	if err != nil && d.logger != nil {
		d.logger.Printf("report to operator: %v", err)
	}
}
