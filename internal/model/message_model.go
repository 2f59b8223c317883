package model

import (
	"time"

	"github.com/google/uuid"
)

type Message struct {
	Id     uuid.UUID `gorm:"type:uuid;primaryKey"`
	RoomId uuid.UUID `gorm:"type:uuid;index"`
	Sender string
	Body   string
	Read   bool      `gorm:"not null;default:false;index"`
	SentAt time.Time `gorm:"index"`
}

func (Message) TableName() string {
	return "chat_messages"
}
