package chat

import (
	"context"
	"sync"

	"support-chat-be/internal/constant"
	"support-chat-be/internal/dto"
	"support-chat-be/internal/pkg/logger"

	"github.com/google/uuid"
)

// AgentIdentity carries the verified claims of an agent connection. Verification
// happens at the websocket handshake; the gateway trusts what it is handed.
type AgentIdentity struct {
	Id          uuid.UUID
	DisplayName string
}

// AgentGateway drives agent connections: roster membership, room join/leave, sends and
// room-list refreshes. An agent views at most one room at a time; joining another room
// leaves the previous one first.
type AgentGateway struct {
	registry *Registry
	roster   *Roster
	router   *Router
	store    MessageStore
	logger   logger.ILogger

	mu     sync.Mutex
	joined map[string]uuid.UUID // connection -> room currently viewed
}

func NewAgentGateway(registry *Registry, roster *Roster, router *Router, store MessageStore, log logger.ILogger) *AgentGateway {
	return &AgentGateway{
		registry: registry,
		roster:   roster,
		router:   router,
		store:    store,
		logger:   log,
		joined:   make(map[string]uuid.UUID),
	}
}

// HandleConnect adds the agent to the roster and pushes the current room list to the
// caller only.
func (g *AgentGateway) HandleConnect(ctx context.Context, conn Conn, agent AgentIdentity) {
	g.roster.JoinRoster(conn)
	g.pushRooms(conn)
	g.logger.Info("AgentGateway", "Agent connected", map[string]interface{}{
		"connection_id": conn.ID(),
		"agent_id":      agent.Id,
		"display_name":  agent.DisplayName,
	})
}

// JoinRoom adds the connection to the room's group, pushes the full history, and marks
// everything read. Reading replaces unread.
func (g *AgentGateway) JoinRoom(ctx context.Context, conn Conn, roomId uuid.UUID) error {
	g.mu.Lock()
	prev, viewing := g.joined[conn.ID()]
	g.mu.Unlock()
	if viewing && prev != roomId {
		g.registry.RemoveMember(prev, conn.ID())
	}

	if err := g.registry.AddMember(roomId, conn); err != nil {
		g.sendError(conn, "Room not found")
		return err
	}

	g.mu.Lock()
	g.joined[conn.ID()] = roomId
	g.mu.Unlock()

	messages, err := g.store.GetMessages(ctx, roomId)
	if err != nil {
		g.sendError(conn, "Could not load conversation history")
		return err
	}
	views := make([]dto.MessageView, 0, len(messages))
	for _, m := range messages {
		views = append(views, dto.MessageView{
			Id:     m.Id,
			RoomId: m.RoomId,
			Sender: m.Sender,
			Body:   m.Body,
			SentAt: m.SentAt,
		})
	}
	if err := conn.SendEvent(constant.EventLoadMessages, views); err != nil {
		g.logger.Warn("AgentGateway", "Failed to push history", map[string]interface{}{
			"connection_id": conn.ID(),
			"room_id":       roomId,
			"error":         err.Error(),
		})
	}

	if err := g.store.MarkRead(ctx, roomId); err != nil {
		g.logger.Error("AgentGateway", "Failed to mark room read", map[string]interface{}{
			"room_id": roomId,
			"error":   err,
		})
		return nil
	}
	g.registry.SetUnread(roomId, 0)
	g.router.PublishRoomsChanged(roomId)
	return nil
}

func (g *AgentGateway) LeaveRoom(conn Conn, roomId uuid.UUID) {
	g.registry.RemoveMember(roomId, conn.ID())
	g.mu.Lock()
	if g.joined[conn.ID()] == roomId {
		delete(g.joined, conn.ID())
	}
	g.mu.Unlock()
}

// SendMessage routes an agent reply under the agent's display name.
func (g *AgentGateway) SendMessage(ctx context.Context, conn Conn, agent AgentIdentity, roomId uuid.UUID, body string) error {
	if _, err := g.router.RouteMessage(ctx, roomId, agent.DisplayName, body); err != nil {
		g.sendError(conn, "Message could not be delivered")
		return err
	}
	return nil
}

// RefreshRooms re-pushes the room list to the caller, the pull-based complement to the
// roster's push signal.
func (g *AgentGateway) RefreshRooms(conn Conn) {
	g.pushRooms(conn)
}

// HandleDisconnect removes the agent from its room view and the roster. Agents leaving
// never ends a visitor's session.
func (g *AgentGateway) HandleDisconnect(connectionId string) {
	g.mu.Lock()
	roomId, viewing := g.joined[connectionId]
	delete(g.joined, connectionId)
	g.mu.Unlock()
	if viewing {
		g.registry.RemoveMember(roomId, connectionId)
	}
	g.roster.LeaveRoster(connectionId)
}

func (g *AgentGateway) pushRooms(conn Conn) {
	if err := conn.SendEvent(constant.EventLoadRooms, g.roster.SnapshotRooms()); err != nil {
		g.logger.Warn("AgentGateway", "Failed to push room list", map[string]interface{}{
			"connection_id": conn.ID(),
			"error":         err.Error(),
		})
	}
}

func (g *AgentGateway) sendError(conn Conn, message string) {
	if err := conn.SendEvent(constant.EventError, dto.ErrorPayload{Message: message}); err != nil {
		g.logger.Warn("AgentGateway", "Failed to push error event", map[string]interface{}{
			"connection_id": conn.ID(),
			"error":         err.Error(),
		})
	}
}
