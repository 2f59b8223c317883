package chat

import (
	"context"
	"sort"
	"sync"
	"time"

	"support-chat-be/internal/entity"
	"support-chat-be/internal/pkg/logger"

	"github.com/google/uuid"
)

// Registry is the single source of truth for room existence and live group membership.
// Rooms are persisted through the store at creation; membership is process-local state
// keyed by connection id and is gone after a restart.
type Registry struct {
	mu      sync.RWMutex
	rooms   map[uuid.UUID]*entity.Room
	byConn  map[string]uuid.UUID // visitor connection -> its room
	members map[uuid.UUID]map[string]Conn

	store  MessageStore
	logger logger.ILogger
}

func NewRegistry(store MessageStore, log logger.ILogger) *Registry {
	return &Registry{
		rooms:   make(map[uuid.UUID]*entity.Room),
		byConn:  make(map[string]uuid.UUID),
		members: make(map[uuid.UUID]map[string]Conn),
		store:   store,
		logger:  log,
	}
}

// CreateRoom allocates a room for a freshly connected visitor and registers the
// connection as its sole group member. Each call is independent; two visitors
// connecting concurrently get two disjoint rooms.
func (r *Registry) CreateRoom(ctx context.Context, conn Conn, visitorLabel string) (*entity.Room, error) {
	now := time.Now()
	room := &entity.Room{
		Id:             uuid.New(),
		ConnectionId:   conn.ID(),
		VisitorLabel:   visitorLabel,
		Active:         true,
		CreatedAt:      now,
		LastActivityAt: now,
	}

	if err := r.store.CreateRoom(ctx, room); err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.rooms[room.Id] = room
	r.byConn[conn.ID()] = room.Id
	r.members[room.Id] = map[string]Conn{conn.ID(): conn}
	r.mu.Unlock()

	r.logger.Info("Registry", "Room created", map[string]interface{}{
		"room_id":       room.Id,
		"connection_id": conn.ID(),
		"visitor":       visitorLabel,
	})
	return copyRoom(room), nil
}

// RoomForConnection resolves the room owned by a visitor connection.
func (r *Registry) RoomForConnection(connectionId string) (*entity.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	roomId, ok := r.byConn[connectionId]
	if !ok {
		return nil, ErrRoomNotFound
	}
	room, ok := r.rooms[roomId]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return copyRoom(room), nil
}

func (r *Registry) RoomById(id uuid.UUID) (*entity.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.rooms[id]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return copyRoom(room), nil
}

// ActiveRooms lists rooms that are still active and hold at least one persisted
// message. Connect-without-message visitors stay invisible to agents.
func (r *Registry) ActiveRooms() []*entity.Room {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rooms := make([]*entity.Room, 0, len(r.rooms))
	for _, room := range r.rooms {
		if room.Active && room.MessageCount > 0 {
			rooms = append(rooms, copyRoom(room))
		}
	}
	sort.Slice(rooms, func(i, j int) bool {
		return rooms[i].CreatedAt.Before(rooms[j].CreatedAt)
	})
	return rooms
}

// AddMember adds an agent connection to a room's broadcast group.
func (r *Registry) AddMember(roomId uuid.UUID, conn Conn) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rooms[roomId]; !ok {
		return ErrRoomNotFound
	}
	group, ok := r.members[roomId]
	if !ok {
		group = make(map[string]Conn)
		r.members[roomId] = group
	}
	group[conn.ID()] = conn
	return nil
}

func (r *Registry) RemoveMember(roomId uuid.UUID, connectionId string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if group, ok := r.members[roomId]; ok {
		delete(group, connectionId)
	}
}

// Members snapshots the room's current group for broadcast. Taken at send time, not
// earlier, so a member joining mid-flight sees every message after its join.
func (r *Registry) Members(roomId uuid.UUID) []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	group := r.members[roomId]
	conns := make([]Conn, 0, len(group))
	for _, c := range group {
		conns = append(conns, c)
	}
	return conns
}

// DeactivateByConnection terminates the room owned by a visitor connection. The group
// is cleared (agents still joined get no further broadcasts), history stays queryable.
// Safe to call twice; the second call is a no-op and reports deactivated=false.
func (r *Registry) DeactivateByConnection(ctx context.Context, connectionId string) (*entity.Room, bool) {
	r.mu.Lock()
	roomId, ok := r.byConn[connectionId]
	if !ok {
		r.mu.Unlock()
		return nil, false
	}
	delete(r.byConn, connectionId)
	room := r.rooms[roomId]
	room.Active = false
	delete(r.members, roomId)
	snapshot := copyRoom(room)
	r.mu.Unlock()

	if err := r.store.DeactivateRoom(ctx, roomId); err != nil {
		r.logger.Error("Registry", "Failed to persist room deactivation", map[string]interface{}{
			"room_id": roomId,
			"error":   err,
		})
	}

	r.logger.Info("Registry", "Room deactivated", map[string]interface{}{
		"room_id":       roomId,
		"connection_id": connectionId,
	})
	return snapshot, true
}

// RecordMessage mirrors the store's counters into the in-memory room after a persisted
// message, so ActiveRooms reflects unread state without a store round trip.
func (r *Registry) RecordMessage(roomId uuid.UUID, unread int, at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if room, ok := r.rooms[roomId]; ok {
		room.MessageCount++
		room.UnreadCount = unread
		room.LastActivityAt = at
	}
}

// Touch refreshes last-activity without a message (explicit activity ping).
func (r *Registry) Touch(roomId uuid.UUID, at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if room, ok := r.rooms[roomId]; ok {
		room.LastActivityAt = at
	}
}

// SetUnread overrides the mirrored unread counter, used after a bulk mark-read.
func (r *Registry) SetUnread(roomId uuid.UUID, unread int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if room, ok := r.rooms[roomId]; ok {
		room.UnreadCount = unread
	}
}

func copyRoom(room *entity.Room) *entity.Room {
	c := *room
	return &c
}
