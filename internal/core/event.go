package core

import "time"

const (
	// Emitted by the ledger controller.
	EventConfirmed     EventType = "confirmed"
	EventCreateFailed  EventType = "create_failed"
	EventRemoveFailed  EventType = "remove_failed"
	EventOrphanRemoved EventType = "orphan_removed"

	// Emitted by the expenses resource.
	EventCreated EventType = "created"
	EventUpdated EventType = "updated"
	EventDeleted EventType = "deleted"
)

type EventType string

// Event describes a change worth broadcasting on the message bus.
type Event struct {
	Type        EventType   `json:"type"`
	Source      string      `json:"source"`
	Transaction Transaction `json:"transaction"`
	Error       string      `json:"error,omitempty"`
	Timestamp   time.Time   `json:"timestamp"`
}

// NewEvent stamps an event with the current time.
func NewEvent(typ EventType, source string, t Transaction, err error) Event {
	ev := Event{Type: typ, Source: source, Transaction: t, Timestamp: time.Now()}
	if err != nil {
		ev.Error = err.Error()
	}
	return ev
}
