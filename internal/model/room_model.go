package model

import (
	"time"

	"github.com/google/uuid"
)

type Room struct {
	Id             uuid.UUID `gorm:"type:uuid;primaryKey"`
	ConnectionId   string    `gorm:"index"`
	VisitorLabel   string
	UnreadCount    int  `gorm:"not null;default:0"`
	MessageCount   int  `gorm:"not null;default:0"`
	Active         bool `gorm:"index"`
	CreatedAt      time.Time
	LastActivityAt time.Time
}

func (Room) TableName() string {
	return "chat_rooms"
}
