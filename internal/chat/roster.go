package chat

import (
	"context"
	"sync"

	"support-chat-be/internal/constant"
	"support-chat-be/internal/dto"
	"support-chat-be/internal/entity"
	"support-chat-be/internal/pkg/logger"

	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// RoomsChangedTopic carries the lightweight "room list changed" signal from the router
// to the roster. The payload is the room id, for logging only; agents re-fetch.
const RoomsChangedTopic = "rooms.changed"

// Roster tracks which connections belong to agents. It deliberately knows nothing about
// individual rooms: the roster is who may see the room list, the registry is what the
// room list is.
type Roster struct {
	mu      sync.RWMutex
	members map[string]Conn

	registry *Registry
	pubSub   *gochannel.GoChannel
	logger   logger.ILogger
}

func NewRoster(registry *Registry, pubSub *gochannel.GoChannel, log logger.ILogger) *Roster {
	return &Roster{
		members:  make(map[string]Conn),
		registry: registry,
		pubSub:   pubSub,
		logger:   log,
	}
}

// Start subscribes to room-list change signals and fans them out to roster members.
func (r *Roster) Start(ctx context.Context) error {
	messages, err := r.pubSub.Subscribe(ctx, RoomsChangedTopic)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			r.NotifyRosterRoomsChanged()
			msg.Ack()
		}
	}()

	return nil
}

func (r *Roster) JoinRoster(conn Conn) {
	r.mu.Lock()
	r.members[conn.ID()] = conn
	r.mu.Unlock()
	r.logger.Info("Roster", "Agent joined roster", map[string]interface{}{"connection_id": conn.ID()})
}

// LeaveRoster is idempotent; disconnect handlers may fire more than once upstream.
func (r *Roster) LeaveRoster(connectionId string) {
	r.mu.Lock()
	_, ok := r.members[connectionId]
	delete(r.members, connectionId)
	r.mu.Unlock()
	if ok {
		r.logger.Info("Roster", "Agent left roster", map[string]interface{}{"connection_id": connectionId})
	}
}

func (r *Roster) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members)
}

// NotifyRosterRoomsChanged pushes an update signal (no payload) to every roster member.
// A member whose buffer is full is logged and skipped.
func (r *Roster) NotifyRosterRoomsChanged() {
	r.mu.RLock()
	conns := make([]Conn, 0, len(r.members))
	for _, c := range r.members {
		conns = append(conns, c)
	}
	r.mu.RUnlock()

	for _, c := range conns {
		if err := c.SendEvent(constant.EventUpdateRoomList, nil); err != nil {
			r.logger.Warn("Roster", "Failed to push room list signal", map[string]interface{}{
				"connection_id": c.ID(),
				"error":         err.Error(),
			})
		}
	}
}

// SnapshotRooms builds the room list an agent sees, delegating to the registry.
func (r *Roster) SnapshotRooms() []dto.RoomSummary {
	rooms := r.registry.ActiveRooms()
	summaries := make([]dto.RoomSummary, 0, len(rooms))
	for _, room := range rooms {
		summaries = append(summaries, RoomToSummary(room))
	}
	return summaries
}

func RoomToSummary(room *entity.Room) dto.RoomSummary {
	return dto.RoomSummary{
		Id:             room.Id,
		VisitorLabel:   room.VisitorLabel,
		UnreadCount:    room.UnreadCount,
		CreatedAt:      room.CreatedAt,
		LastActivityAt: room.LastActivityAt,
	}
}
