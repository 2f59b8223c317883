package contract

import (
	"context"

	"support-chat-be/internal/entity"

	"github.com/google/uuid"
)

type RoomRepository interface {
	Create(ctx context.Context, room *entity.Room) error
	// FindById returns (nil, nil) when no room exists under the id.
	FindById(ctx context.Context, id uuid.UUID) (*entity.Room, error)
	FindActiveWithMessages(ctx context.Context) ([]*entity.Room, error)
	SetUnreadCount(ctx context.Context, id uuid.UUID, n int) error
	Deactivate(ctx context.Context, id uuid.UUID) error
	Touch(ctx context.Context, id uuid.UUID) error
}
