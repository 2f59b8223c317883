package handler

import (
	"context"
	"encoding/json"
	"os"

	"support-chat-be/internal/chat"
	"support-chat-be/internal/constant"
	"support-chat-be/internal/dto"
	"support-chat-be/internal/pkg/logger"
	"support-chat-be/internal/pkg/serverutils"
	internalWS "support-chat-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ChatHandler owns the two websocket endpoints. Visitors connect anonymously and get a
// room; agents must present a valid JWT at the handshake, before any gateway operation
// can be reached.
type ChatHandler struct {
	visitors *chat.VisitorGateway
	agents   *chat.AgentGateway
	logger   logger.ILogger
}

func NewChatHandler(visitors *chat.VisitorGateway, agents *chat.AgentGateway, log logger.ILogger) *ChatHandler {
	return &ChatHandler{
		visitors: visitors,
		agents:   agents,
		logger:   log,
	}
}

// ServeVisitorWs upgrades an anonymous visitor connection.
func (h *ChatHandler) ServeVisitorWs(c *fiber.Ctx) error {
	// Read the fiber context before the upgrade hijacks it.
	visitorLabel := c.Query("visitor")

	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	return websocket.New(func(conn *websocket.Conn) {
		ctx := context.Background()
		client := internalWS.NewClient(conn, uuid.NewString(), h.logger)

		if _, err := h.visitors.HandleConnect(ctx, client, visitorLabel); err != nil {
			conn.Close()
			return
		}

		client.Run(func(action string, data json.RawMessage) {
			h.handleVisitorCommand(ctx, client, action, data)
		}, func() {
			h.visitors.HandleDisconnect(ctx, client.ID())
		})
	})(c)
}

// ServeAgentWs verifies the agent token and upgrades the connection. The token travels
// as a query param (browser standard) or an Authorization header (tooling).
func (h *ChatHandler) ServeAgentWs(c *fiber.Ctx) error {
	tokenStr := c.Query("token")
	if tokenStr == "" {
		authHeader := c.Get("Authorization")
		if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
			tokenStr = authHeader[7:]
		}
	}
	if tokenStr == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(401, "Missing token (Query 'token' or Header 'Authorization')"))
	}

	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.ErrUnauthorized
		}
		return []byte(os.Getenv("JWT_SECRET")), nil
	})
	if err != nil || !token.Valid {
		h.logger.Warn("ChatHandler", "Invalid token in agent handshake", map[string]interface{}{"error": err})
		return c.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(401, "Invalid token"))
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(401, "Invalid token claims"))
	}
	agentIdStr, ok := claims["agent_id"].(string)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(401, "Token missing agent_id"))
	}
	agentId, err := uuid.Parse(agentIdStr)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(401, "Invalid agent ID format in token"))
	}
	displayName, _ := claims["display_name"].(string)
	if displayName == "" {
		displayName = "Agent"
	}
	agent := chat.AgentIdentity{Id: agentId, DisplayName: displayName}

	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	return websocket.New(func(conn *websocket.Conn) {
		ctx := context.Background()
		client := internalWS.NewClient(conn, uuid.NewString(), h.logger)

		h.agents.HandleConnect(ctx, client, agent)

		client.Run(func(action string, data json.RawMessage) {
			h.handleAgentCommand(ctx, client, agent, action, data)
		}, func() {
			h.agents.HandleDisconnect(client.ID())
		})
	})(c)
}

func (h *ChatHandler) handleVisitorCommand(ctx context.Context, client *internalWS.Client, action string, data json.RawMessage) {
	switch action {
	case constant.ActionSendMessage:
		var cmd dto.SendMessageCommand
		if !h.decode(client, data, &cmd) {
			return
		}
		h.visitors.HandleMessage(ctx, client, cmd.Body)
	case constant.ActionPing:
		h.visitors.HandleActivity(ctx, client)
	default:
		h.pushError(client, "Unknown action: "+action)
	}
}

func (h *ChatHandler) handleAgentCommand(ctx context.Context, client *internalWS.Client, agent chat.AgentIdentity, action string, data json.RawMessage) {
	switch action {
	case constant.ActionJoinRoom:
		var cmd dto.JoinRoomCommand
		if !h.decode(client, data, &cmd) {
			return
		}
		h.agents.JoinRoom(ctx, client, cmd.RoomId)
	case constant.ActionLeaveRoom:
		var cmd dto.LeaveRoomCommand
		if !h.decode(client, data, &cmd) {
			return
		}
		h.agents.LeaveRoom(client, cmd.RoomId)
	case constant.ActionSendMessage:
		var cmd dto.AgentSendMessageCommand
		if !h.decode(client, data, &cmd) {
			return
		}
		h.agents.SendMessage(ctx, client, agent, cmd.RoomId, cmd.Body)
	case constant.ActionRefreshRooms:
		h.agents.RefreshRooms(client)
	default:
		h.pushError(client, "Unknown action: "+action)
	}
}

// decode unmarshals and validates a command payload; on failure the client gets an
// error event and the command is dropped.
func (h *ChatHandler) decode(client *internalWS.Client, data json.RawMessage, out interface{}) bool {
	if err := json.Unmarshal(data, out); err != nil {
		h.pushError(client, "Malformed payload")
		return false
	}
	if err := serverutils.ValidateRequest(out); err != nil {
		h.pushError(client, err.Error())
		return false
	}
	return true
}

func (h *ChatHandler) pushError(client *internalWS.Client, message string) {
	if err := client.SendEvent(constant.EventError, dto.ErrorPayload{Message: message}); err != nil {
		h.logger.Warn("ChatHandler", "Failed to push error event", map[string]interface{}{
			"connection_id": client.ID(),
			"error":         err.Error(),
		})
	}
}

// RegisterRoutes registers the websocket endpoints.
func (h *ChatHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/ws/visitor", h.ServeVisitorWs)
	router.Get("/ws/agent", h.ServeAgentWs)
}
