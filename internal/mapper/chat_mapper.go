package mapper

import (
	"support-chat-be/internal/entity"
	"support-chat-be/internal/model"
)

type ChatMapper struct{}

func NewChatMapper() *ChatMapper {
	return &ChatMapper{}
}

func (m *ChatMapper) RoomToEntity(r *model.Room) *entity.Room {
	if r == nil {
		return nil
	}
	return &entity.Room{
		Id:             r.Id,
		ConnectionId:   r.ConnectionId,
		VisitorLabel:   r.VisitorLabel,
		UnreadCount:    r.UnreadCount,
		MessageCount:   r.MessageCount,
		Active:         r.Active,
		CreatedAt:      r.CreatedAt,
		LastActivityAt: r.LastActivityAt,
	}
}

func (m *ChatMapper) RoomToModel(r *entity.Room) *model.Room {
	if r == nil {
		return nil
	}
	return &model.Room{
		Id:             r.Id,
		ConnectionId:   r.ConnectionId,
		VisitorLabel:   r.VisitorLabel,
		UnreadCount:    r.UnreadCount,
		MessageCount:   r.MessageCount,
		Active:         r.Active,
		CreatedAt:      r.CreatedAt,
		LastActivityAt: r.LastActivityAt,
	}
}

func (m *ChatMapper) MessageToEntity(msg *model.Message) *entity.Message {
	if msg == nil {
		return nil
	}
	return &entity.Message{
		Id:     msg.Id,
		RoomId: msg.RoomId,
		Sender: msg.Sender,
		Body:   msg.Body,
		Read:   msg.Read,
		SentAt: msg.SentAt,
	}
}

func (m *ChatMapper) MessageToModel(msg *entity.Message) *model.Message {
	if msg == nil {
		return nil
	}
	return &model.Message{
		Id:     msg.Id,
		RoomId: msg.RoomId,
		Sender: msg.Sender,
		Body:   msg.Body,
		Read:   msg.Read,
		SentAt: msg.SentAt,
	}
}
