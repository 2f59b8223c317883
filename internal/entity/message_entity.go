package entity

import (
	"time"

	"github.com/google/uuid"
)

type Message struct {
	Id     uuid.UUID
	RoomId uuid.UUID
	Sender string
	Body   string
	Read   bool
	SentAt time.Time
}
