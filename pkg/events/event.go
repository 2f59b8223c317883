package events

import (
	"time"

	"github.com/google/uuid"
)

// Event defines the contract for everything published on the event bus.
type Event interface {
	// EventType returns the unique code for this event (e.g., "ROOM_OPENED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

func NewRoomOpened(roomId uuid.UUID, visitorLabel string) Event {
	return BaseEvent{
		Type: "ROOM_OPENED",
		Data: map[string]interface{}{
			"room_id":       roomId.String(),
			"visitor_label": visitorLabel,
		},
		OccurredAt: time.Now(),
	}
}

func NewRoomClosed(roomId uuid.UUID) Event {
	return BaseEvent{
		Type: "ROOM_CLOSED",
		Data: map[string]interface{}{
			"room_id": roomId.String(),
		},
		OccurredAt: time.Now(),
	}
}

func NewMessagePosted(roomId, messageId uuid.UUID, sender string) Event {
	return BaseEvent{
		Type: "MESSAGE_POSTED",
		Data: map[string]interface{}{
			"room_id":    roomId.String(),
			"message_id": messageId.String(),
			"sender":     sender,
		},
		OccurredAt: time.Now(),
	}
}
