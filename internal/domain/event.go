package domain

type EventKind string

const (
	EventText           EventKind = "text"
	EventControl        EventKind = "control"
	EventSharedReceiver EventKind = "shared_receiver"
)

// Event is a normalized inbound update from the chat transport.
type Event struct {
	Kind EventKind

	ChatID        int64
	UserID        int64
	UserFirstName string

	// Text events.
	MessageID int
	Text      string

	// Control events carry the raw token back plus the message the
	// button was attached to, so handlers can edit it in place.
	ControlToken    string
	CallbackID      string
	SourceMessageID int
	SourceText      string

	// Shared-receiver events.
	SharedReceiverID int64
}
