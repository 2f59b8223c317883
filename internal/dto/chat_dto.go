package dto

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// RoomSummary is what agents see in the room list.
type RoomSummary struct {
	Id             uuid.UUID `json:"id"`
	VisitorLabel   string    `json:"visitor_label"`
	UnreadCount    int       `json:"unread_count"`
	CreatedAt      time.Time `json:"created_at"`
	LastActivityAt time.Time `json:"last_activity_at"`
}

type MessageView struct {
	Id     uuid.UUID `json:"id"`
	RoomId uuid.UUID `json:"room_id"`
	Sender string    `json:"sender"`
	Body   string    `json:"body"`
	SentAt time.Time `json:"sent_at"`
}

// ClientCommand is the inbound websocket envelope: {"action": ..., "data": ...}.
type ClientCommand struct {
	Action string          `json:"action"`
	Data   json.RawMessage `json:"data"`
}

type SendMessageCommand struct {
	Body string `json:"body" validate:"required,max=4000"`
}

type JoinRoomCommand struct {
	RoomId uuid.UUID `json:"room_id" validate:"required"`
}

type LeaveRoomCommand struct {
	RoomId uuid.UUID `json:"room_id" validate:"required"`
}

type AgentSendMessageCommand struct {
	RoomId uuid.UUID `json:"room_id" validate:"required"`
	Body   string    `json:"body" validate:"required,max=4000"`
}

type WelcomePayload struct {
	RoomId uuid.UUID `json:"room_id"`
	Sender string    `json:"sender"`
	Body   string    `json:"body"`
	SentAt time.Time `json:"sent_at"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
