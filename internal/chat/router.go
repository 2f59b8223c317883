package chat

import (
	"context"
	"sync"

	"support-chat-be/internal/constant"
	"support-chat-be/internal/dto"
	"support-chat-be/internal/entity"
	"support-chat-be/internal/pkg/logger"
	"support-chat-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

// EventSink receives chat lifecycle events for external consumers (NATS, dashboards).
// Delivery is best effort; the router logs failures and moves on.
type EventSink interface {
	Publish(ctx context.Context, event events.Event) error
}

// Router is the only place that couples persistence, unread accounting and broadcast,
// so the three cannot reorder relative to each other for a given room. A per-room mutex
// serializes RouteMessage per room without stalling unrelated rooms.
type Router struct {
	store    MessageStore
	registry *Registry
	pubSub   *gochannel.GoChannel
	events   EventSink
	logger   logger.ILogger

	mu        sync.Mutex
	roomLocks map[uuid.UUID]*sync.Mutex
}

func NewRouter(store MessageStore, registry *Registry, pubSub *gochannel.GoChannel, sink EventSink, log logger.ILogger) *Router {
	return &Router{
		store:     store,
		registry:  registry,
		pubSub:    pubSub,
		events:    sink,
		logger:    log,
		roomLocks: make(map[uuid.UUID]*sync.Mutex),
	}
}

// RouteMessage persists the message, updates the unread counter in the same step,
// broadcasts it to the room's current group, and signals the roster that the room list
// changed. Persistence failure aborts before any broadcast. A single group member
// failing to receive does not abort delivery to the rest.
func (rt *Router) RouteMessage(ctx context.Context, roomId uuid.UUID, sender, body string) (*entity.Message, error) {
	// Cheap pre-check before touching the lock map, so sends to a terminal room do
	// not resurrect its lock entry.
	room, err := rt.registry.RoomById(roomId)
	if err != nil {
		return nil, err
	}
	if !room.Active {
		return nil, ErrRoomInactive
	}

	lock := rt.roomLock(roomId)
	lock.Lock()
	defer lock.Unlock()

	// Re-check under the lock; DeactivateRoom takes the same lock.
	room, err = rt.registry.RoomById(roomId)
	if err != nil {
		return nil, err
	}
	if !room.Active {
		return nil, ErrRoomInactive
	}

	msg, err := rt.store.AppendMessage(ctx, roomId, sender, body)
	if err != nil {
		rt.logger.Error("Router", "Message persistence failed, broadcast aborted", map[string]interface{}{
			"room_id": roomId,
			"sender":  sender,
			"error":   err,
		})
		return nil, err
	}

	unread, err := rt.store.CountUnread(ctx, roomId)
	if err != nil {
		rt.logger.Warn("Router", "Unread re-query failed, using local increment", map[string]interface{}{
			"room_id": roomId,
			"error":   err.Error(),
		})
		unread = int64(room.UnreadCount + 1)
	}
	rt.registry.RecordMessage(roomId, int(unread), msg.SentAt)

	view := dto.MessageView{
		Id:     msg.Id,
		RoomId: msg.RoomId,
		Sender: msg.Sender,
		Body:   msg.Body,
		SentAt: msg.SentAt,
	}
	// Membership is looked up at broadcast time, not snapshotted earlier.
	for _, member := range rt.registry.Members(roomId) {
		if err := member.SendEvent(constant.EventReceiveMessage, view); err != nil {
			rt.logger.Warn("Router", "Dropping broadcast to unreachable member", map[string]interface{}{
				"room_id":       roomId,
				"connection_id": member.ID(),
				"error":         err.Error(),
			})
		}
	}

	rt.PublishRoomsChanged(roomId)
	rt.emit(ctx, events.NewMessagePosted(msg.RoomId, msg.Id, sender))

	return msg, nil
}

// DeactivateRoom terminates a visitor's room under the same lock RouteMessage holds,
// so an in-flight send either lands before the room goes terminal or fails the Active
// check after it. The lock entry is dropped once the room is terminal; a late routing
// call allocates a fresh lock and then fails the Active check, so lock identity does
// not matter past this point.
func (rt *Router) DeactivateRoom(ctx context.Context, connectionId string, roomId uuid.UUID) (*entity.Room, bool) {
	lock := rt.roomLock(roomId)
	lock.Lock()
	room, deactivated := rt.registry.DeactivateByConnection(ctx, connectionId)
	lock.Unlock()

	if deactivated {
		rt.mu.Lock()
		delete(rt.roomLocks, roomId)
		rt.mu.Unlock()
	}
	return room, deactivated
}

// PublishRoomsChanged signals the roster via the in-process bus. Also called by the
// gateways when a room appears, closes, or is read.
func (rt *Router) PublishRoomsChanged(roomId uuid.UUID) {
	msg := message.NewMessage(watermill.NewUUID(), []byte(roomId.String()))
	if err := rt.pubSub.Publish(RoomsChangedTopic, msg); err != nil {
		rt.logger.Warn("Router", "Failed to publish room list change", map[string]interface{}{
			"room_id": roomId,
			"error":   err.Error(),
		})
	}
}

func (rt *Router) emit(ctx context.Context, event events.Event) {
	if rt.events == nil {
		return
	}
	if err := rt.events.Publish(ctx, event); err != nil {
		rt.logger.Warn("Router", "Event export failed", map[string]interface{}{
			"type":  event.EventType(),
			"error": err.Error(),
		})
	}
}

// Emit exposes best-effort event export to the gateways sharing this router.
func (rt *Router) Emit(ctx context.Context, event events.Event) {
	rt.emit(ctx, event)
}

func (rt *Router) roomLock(roomId uuid.UUID) *sync.Mutex {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	lock, ok := rt.roomLocks[roomId]
	if !ok {
		lock = &sync.Mutex{}
		rt.roomLocks[roomId] = lock
	}
	return lock
}
