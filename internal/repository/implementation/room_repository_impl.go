package implementation

import (
	"context"
	"errors"
	"time"

	"support-chat-be/internal/entity"
	"support-chat-be/internal/mapper"
	"support-chat-be/internal/model"
	"support-chat-be/internal/repository/contract"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RoomRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ChatMapper
}

func NewRoomRepository(db *gorm.DB) contract.RoomRepository {
	return &RoomRepositoryImpl{
		db:     db,
		mapper: mapper.NewChatMapper(),
	}
}

func (r *RoomRepositoryImpl) Create(ctx context.Context, room *entity.Room) error {
	m := r.mapper.RoomToModel(room)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*room = *r.mapper.RoomToEntity(m)
	return nil
}

func (r *RoomRepositoryImpl) FindById(ctx context.Context, id uuid.UUID) (*entity.Room, error) {
	var m model.Room
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.RoomToEntity(&m), nil
}

func (r *RoomRepositoryImpl) FindActiveWithMessages(ctx context.Context) ([]*entity.Room, error) {
	var models []*model.Room
	err := r.db.WithContext(ctx).
		Where("active = ? AND message_count > 0", true).
		Order("created_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	rooms := make([]*entity.Room, len(models))
	for i, m := range models {
		rooms[i] = r.mapper.RoomToEntity(m)
	}
	return rooms, nil
}

func (r *RoomRepositoryImpl) SetUnreadCount(ctx context.Context, id uuid.UUID, n int) error {
	return r.db.WithContext(ctx).Model(&model.Room{}).
		Where("id = ?", id).
		Update("unread_count", n).Error
}

func (r *RoomRepositoryImpl) Deactivate(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Room{}).
		Where("id = ?", id).
		Update("active", false).Error
}

func (r *RoomRepositoryImpl) Touch(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Room{}).
		Where("id = ?", id).
		Update("last_activity_at", time.Now()).Error
}
