package entity

import (
	"time"

	"github.com/google/uuid"
)

// Room is one visitor conversation. Active goes false exactly once, on visitor
// disconnect, and never back. Group membership is not part of the entity; it lives in
// the in-memory registry and dies with the process.
type Room struct {
	Id             uuid.UUID
	ConnectionId   string
	VisitorLabel   string
	UnreadCount    int
	MessageCount   int
	Active         bool
	CreatedAt      time.Time
	LastActivityAt time.Time
}
