package contract

import (
	"context"

	"support-chat-be/internal/entity"

	"github.com/google/uuid"
)

type MessageRepository interface {
	// AppendToRoom persists the message and bumps the room's unread/message counters
	// and last-activity in one transaction. Sent-at is assigned here and defines the
	// room's total order.
	AppendToRoom(ctx context.Context, roomId uuid.UUID, sender, body string) (*entity.Message, error)
	// FindByRoomId returns the room history ordered by sent-at ascending.
	FindByRoomId(ctx context.Context, roomId uuid.UUID) ([]*entity.Message, error)
	CountUnread(ctx context.Context, roomId uuid.UUID) (int64, error)
	// MarkAllRead flags the room's messages read and zeroes the unread counter in one
	// transaction.
	MarkAllRead(ctx context.Context, roomId uuid.UUID) error
}
