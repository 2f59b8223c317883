package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"support-chat-be/internal/entity"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// ErrRoomNotFound reports an operation against a room this store never saw.
var ErrRoomNotFound = errors.New("memory: room not found")

// ChatStore is the dev-mode persistence collaborator. Rooms live in a go-cache
// instance with no expiration (rooms are never deleted, only deactivated), message
// logs in a mutex-guarded map. Bootstrap selects it when no database is configured; the
// chat package tests run on it.
type ChatStore struct {
	rooms *cache.Cache

	mu       sync.RWMutex
	messages map[uuid.UUID][]*entity.Message
}

func NewChatStore() *ChatStore {
	return &ChatStore{
		rooms:    cache.New(cache.NoExpiration, cache.NoExpiration),
		messages: make(map[uuid.UUID][]*entity.Message),
	}
}

func (s *ChatStore) CreateRoom(ctx context.Context, room *entity.Room) error {
	c := *room
	s.rooms.Set(room.Id.String(), &c, cache.NoExpiration)
	return nil
}

func (s *ChatStore) GetRoom(ctx context.Context, id uuid.UUID) (*entity.Room, error) {
	room, ok := s.getRoom(id)
	if !ok {
		return nil, nil
	}
	s.mu.RLock()
	c := *room
	s.mu.RUnlock()
	return &c, nil
}

func (s *ChatStore) ListActiveRoomsWithMessages(ctx context.Context) ([]*entity.Room, error) {
	var rooms []*entity.Room
	s.mu.RLock()
	for _, item := range s.rooms.Items() {
		room := item.Object.(*entity.Room)
		if room.Active && len(s.messages[room.Id]) > 0 {
			c := *room
			rooms = append(rooms, &c)
		}
	}
	s.mu.RUnlock()
	sort.Slice(rooms, func(i, j int) bool {
		return rooms[i].CreatedAt.Before(rooms[j].CreatedAt)
	})
	return rooms, nil
}

func (s *ChatStore) AppendMessage(ctx context.Context, roomId uuid.UUID, sender, body string) (*entity.Message, error) {
	room, ok := s.getRoom(roomId)
	if !ok {
		return nil, ErrRoomNotFound
	}

	msg := &entity.Message{
		Id:     uuid.New(),
		RoomId: roomId,
		Sender: sender,
		Body:   body,
		SentAt: time.Now(),
	}

	s.mu.Lock()
	s.messages[roomId] = append(s.messages[roomId], msg)
	room.UnreadCount++
	room.MessageCount++
	room.LastActivityAt = msg.SentAt
	s.mu.Unlock()

	c := *msg
	return &c, nil
}

func (s *ChatStore) GetMessages(ctx context.Context, roomId uuid.UUID) ([]*entity.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	log := s.messages[roomId]
	out := make([]*entity.Message, len(log))
	for i, m := range log {
		c := *m
		out[i] = &c
	}
	return out, nil
}

func (s *ChatStore) CountUnread(ctx context.Context, roomId uuid.UUID) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var count int64
	for _, m := range s.messages[roomId] {
		if !m.Read {
			count++
		}
	}
	return count, nil
}

func (s *ChatStore) SetUnreadCount(ctx context.Context, roomId uuid.UUID, n int) error {
	room, ok := s.getRoom(roomId)
	if !ok {
		return ErrRoomNotFound
	}
	s.mu.Lock()
	room.UnreadCount = n
	s.mu.Unlock()
	return nil
}

func (s *ChatStore) MarkRead(ctx context.Context, roomId uuid.UUID) error {
	room, ok := s.getRoom(roomId)
	if !ok {
		return ErrRoomNotFound
	}
	s.mu.Lock()
	for _, m := range s.messages[roomId] {
		m.Read = true
	}
	room.UnreadCount = 0
	s.mu.Unlock()
	return nil
}

func (s *ChatStore) DeactivateRoom(ctx context.Context, roomId uuid.UUID) error {
	room, ok := s.getRoom(roomId)
	if !ok {
		return ErrRoomNotFound
	}
	s.mu.Lock()
	room.Active = false
	s.mu.Unlock()
	return nil
}

func (s *ChatStore) TouchRoom(ctx context.Context, roomId uuid.UUID) error {
	room, ok := s.getRoom(roomId)
	if !ok {
		return ErrRoomNotFound
	}
	s.mu.Lock()
	room.LastActivityAt = time.Now()
	s.mu.Unlock()
	return nil
}

func (s *ChatStore) getRoom(id uuid.UUID) (*entity.Room, bool) {
	if x, found := s.rooms.Get(id.String()); found {
		return x.(*entity.Room), true
	}
	return nil, false
}
