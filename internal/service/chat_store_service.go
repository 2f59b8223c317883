package service

import (
	"context"

	"support-chat-be/internal/chat"
	"support-chat-be/internal/entity"
	"support-chat-be/internal/repository/contract"

	"github.com/google/uuid"
)

// ChatStoreService implements chat.MessageStore over the gorm repositories.
type ChatStoreService struct {
	rooms    contract.RoomRepository
	messages contract.MessageRepository
}

func NewChatStoreService(rooms contract.RoomRepository, messages contract.MessageRepository) *ChatStoreService {
	return &ChatStoreService{
		rooms:    rooms,
		messages: messages,
	}
}

var _ chat.MessageStore = (*ChatStoreService)(nil)

func (s *ChatStoreService) CreateRoom(ctx context.Context, room *entity.Room) error {
	return s.rooms.Create(ctx, room)
}

func (s *ChatStoreService) GetRoom(ctx context.Context, id uuid.UUID) (*entity.Room, error) {
	return s.rooms.FindById(ctx, id)
}

func (s *ChatStoreService) ListActiveRoomsWithMessages(ctx context.Context) ([]*entity.Room, error) {
	return s.rooms.FindActiveWithMessages(ctx)
}

func (s *ChatStoreService) AppendMessage(ctx context.Context, roomId uuid.UUID, sender, body string) (*entity.Message, error) {
	return s.messages.AppendToRoom(ctx, roomId, sender, body)
}

func (s *ChatStoreService) GetMessages(ctx context.Context, roomId uuid.UUID) ([]*entity.Message, error) {
	return s.messages.FindByRoomId(ctx, roomId)
}

func (s *ChatStoreService) CountUnread(ctx context.Context, roomId uuid.UUID) (int64, error) {
	return s.messages.CountUnread(ctx, roomId)
}

func (s *ChatStoreService) SetUnreadCount(ctx context.Context, roomId uuid.UUID, n int) error {
	return s.rooms.SetUnreadCount(ctx, roomId, n)
}

func (s *ChatStoreService) MarkRead(ctx context.Context, roomId uuid.UUID) error {
	return s.messages.MarkAllRead(ctx, roomId)
}

func (s *ChatStoreService) DeactivateRoom(ctx context.Context, roomId uuid.UUID) error {
	return s.rooms.Deactivate(ctx, roomId)
}

func (s *ChatStoreService) TouchRoom(ctx context.Context, roomId uuid.UUID) error {
	return s.rooms.Touch(ctx, roomId)
}
