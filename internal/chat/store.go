package chat

import (
	"context"

	"support-chat-be/internal/entity"

	"github.com/google/uuid"
)

// MessageStore is the persistence collaborator the chat core depends on. The gorm
// implementation lives in internal/service, the in-memory one in
// internal/repository/memory; the core never sees either concretely.
//
// AppendMessage assigns the message id and sent-at, persists it, and bumps the room's
// unread and message counters plus last-activity in the same step. The store is the
// single point keeping the counter equal to the number of unread rows.
type MessageStore interface {
	CreateRoom(ctx context.Context, room *entity.Room) error
	// GetRoom returns (nil, nil) when the room does not exist.
	GetRoom(ctx context.Context, id uuid.UUID) (*entity.Room, error)
	ListActiveRoomsWithMessages(ctx context.Context) ([]*entity.Room, error)
	AppendMessage(ctx context.Context, roomId uuid.UUID, sender, body string) (*entity.Message, error)
	// GetMessages returns the room history ordered by sent-at ascending.
	GetMessages(ctx context.Context, roomId uuid.UUID) ([]*entity.Message, error)
	CountUnread(ctx context.Context, roomId uuid.UUID) (int64, error)
	SetUnreadCount(ctx context.Context, roomId uuid.UUID, n int) error
	// MarkRead flags every message in the room read and zeroes the unread counter.
	MarkRead(ctx context.Context, roomId uuid.UUID) error
	DeactivateRoom(ctx context.Context, roomId uuid.UUID) error
	TouchRoom(ctx context.Context, roomId uuid.UUID) error
}
