package implementation

import (
	"context"
	"time"

	"support-chat-be/internal/entity"
	"support-chat-be/internal/mapper"
	"support-chat-be/internal/model"
	"support-chat-be/internal/repository/contract"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MessageRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ChatMapper
}

func NewMessageRepository(db *gorm.DB) contract.MessageRepository {
	return &MessageRepositoryImpl{
		db:     db,
		mapper: mapper.NewChatMapper(),
	}
}

func (r *MessageRepositoryImpl) AppendToRoom(ctx context.Context, roomId uuid.UUID, sender, body string) (*entity.Message, error) {
	m := &model.Message{
		Id:     uuid.New(),
		RoomId: roomId,
		Sender: sender,
		Body:   body,
		SentAt: time.Now(),
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The room must exist at persistence time.
		var room model.Room
		if err := tx.First(&room, "id = ?", roomId).Error; err != nil {
			return err
		}
		if err := tx.Create(m).Error; err != nil {
			return err
		}
		return tx.Model(&model.Room{}).
			Where("id = ?", roomId).
			Updates(map[string]interface{}{
				"unread_count":     gorm.Expr("unread_count + 1"),
				"message_count":    gorm.Expr("message_count + 1"),
				"last_activity_at": m.SentAt,
			}).Error
	})
	if err != nil {
		return nil, err
	}
	return r.mapper.MessageToEntity(m), nil
}

func (r *MessageRepositoryImpl) FindByRoomId(ctx context.Context, roomId uuid.UUID) ([]*entity.Message, error) {
	var models []*model.Message
	err := r.db.WithContext(ctx).
		Where("room_id = ?", roomId).
		Order("sent_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	messages := make([]*entity.Message, len(models))
	for i, m := range models {
		messages[i] = r.mapper.MessageToEntity(m)
	}
	return messages, nil
}

func (r *MessageRepositoryImpl) CountUnread(ctx context.Context, roomId uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Message{}).
		Where("room_id = ? AND read = ?", roomId, false).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *MessageRepositoryImpl) MarkAllRead(ctx context.Context, roomId uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&model.Message{}).
			Where("room_id = ? AND read = ?", roomId, false).
			Update("read", true).Error
		if err != nil {
			return err
		}
		return tx.Model(&model.Room{}).
			Where("id = ?", roomId).
			Update("unread_count", 0).Error
	})
}
