package chat

import (
	"context"
	"time"

	"support-chat-be/internal/constant"
	"support-chat-be/internal/dto"
	"support-chat-be/internal/entity"
	"support-chat-be/internal/pkg/logger"
	"support-chat-be/pkg/events"
)

// VisitorGateway drives the visitor side of a conversation. One connection, one room,
// created at connect time and terminated at disconnect. A reconnecting visitor gets a
// fresh room; identity reconciliation across reconnects is out of scope here.
type VisitorGateway struct {
	registry *Registry
	router   *Router
	logger   logger.ILogger
}

func NewVisitorGateway(registry *Registry, router *Router, log logger.ILogger) *VisitorGateway {
	return &VisitorGateway{
		registry: registry,
		router:   router,
		logger:   log,
	}
}

// HandleConnect creates the visitor's room and pushes a System welcome. The welcome is
// a courtesy event only; it is never persisted, so the store stays free of synthetic
// chatter and the room stays invisible to agents until a real message arrives.
func (g *VisitorGateway) HandleConnect(ctx context.Context, conn Conn, visitorLabel string) (*entity.Room, error) {
	if visitorLabel == "" {
		visitorLabel = conn.ID()
	}

	room, err := g.registry.CreateRoom(ctx, conn, visitorLabel)
	if err != nil {
		g.logger.Error("VisitorGateway", "Failed to create room", map[string]interface{}{
			"connection_id": conn.ID(),
			"error":         err,
		})
		return nil, err
	}

	welcome := dto.WelcomePayload{
		RoomId: room.Id,
		Sender: constant.SenderSystem,
		Body:   constant.WelcomeMessage,
		SentAt: time.Now(),
	}
	if err := conn.SendEvent(constant.EventWelcome, welcome); err != nil {
		g.logger.Warn("VisitorGateway", "Failed to push welcome", map[string]interface{}{
			"connection_id": conn.ID(),
			"error":         err.Error(),
		})
	}

	g.router.Emit(ctx, events.NewRoomOpened(room.Id, visitorLabel))
	return room, nil
}

// HandleMessage routes an inbound visitor message through the room the connection owns.
// If the room is gone the message is dropped and the sender gets an error event.
func (g *VisitorGateway) HandleMessage(ctx context.Context, conn Conn, body string) error {
	room, err := g.registry.RoomForConnection(conn.ID())
	if err != nil {
		g.sendError(conn, "Your conversation is no longer active")
		return err
	}

	if _, err := g.router.RouteMessage(ctx, room.Id, constant.SenderVisitor, body); err != nil {
		g.sendError(conn, "Message could not be delivered")
		return err
	}
	return nil
}

// HandleActivity refreshes the room's last-activity timestamp without a message.
func (g *VisitorGateway) HandleActivity(ctx context.Context, conn Conn) error {
	room, err := g.registry.RoomForConnection(conn.ID())
	if err != nil {
		return err
	}
	g.registry.Touch(room.Id, time.Now())
	return g.router.store.TouchRoom(ctx, room.Id)
}

// HandleDisconnect terminates the room. Idempotent; a double disconnect is a no-op.
// Deactivation goes through the router so it serializes with in-flight sends to the
// same room.
func (g *VisitorGateway) HandleDisconnect(ctx context.Context, connectionId string) {
	owned, err := g.registry.RoomForConnection(connectionId)
	if err != nil {
		return
	}
	room, deactivated := g.router.DeactivateRoom(ctx, connectionId, owned.Id)
	if !deactivated {
		return
	}
	if room.MessageCount > 0 {
		// The room just dropped out of the active listing.
		g.router.PublishRoomsChanged(room.Id)
	}
	g.router.Emit(ctx, events.NewRoomClosed(room.Id))
}

func (g *VisitorGateway) sendError(conn Conn, message string) {
	if err := conn.SendEvent(constant.EventError, dto.ErrorPayload{Message: message}); err != nil {
		g.logger.Warn("VisitorGateway", "Failed to push error event", map[string]interface{}{
			"connection_id": conn.ID(),
			"error":         err.Error(),
		})
	}
}
