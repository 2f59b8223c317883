package controller

import (
	"support-chat-be/internal/chat"
	"support-chat-be/internal/dto"
	"support-chat-be/internal/pkg/serverutils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// IChatController is the REST read surface for agent dashboards: the same room list
// and history the websocket pushes, fetchable out of band (initial load, reconnect
// catch-up).
type IChatController interface {
	RegisterRoutes(r fiber.Router)
	GetActiveRooms(ctx *fiber.Ctx) error
	GetRoomMessages(ctx *fiber.Ctx) error
}

type chatController struct {
	store chat.MessageStore
}

func NewChatController(store chat.MessageStore) IChatController {
	return &chatController{store: store}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chat/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Get("/rooms", c.GetActiveRooms)
	h.Get("/rooms/:id/messages", c.GetRoomMessages)
}

func (c *chatController) GetActiveRooms(ctx *fiber.Ctx) error {
	rooms, err := c.store.ListActiveRoomsWithMessages(ctx.Context())
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}

	summaries := make([]dto.RoomSummary, 0, len(rooms))
	for _, room := range rooms {
		summaries = append(summaries, chat.RoomToSummary(room))
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get active rooms", summaries))
}

func (c *chatController) GetRoomMessages(ctx *fiber.Ctx) error {
	idParam := ctx.Params("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid room ID"))
	}

	room, err := c.store.GetRoom(ctx.Context(), id)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}
	if room == nil {
		return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(404, "Room not found"))
	}

	messages, err := c.store.GetMessages(ctx.Context(), id)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
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
	return ctx.JSON(serverutils.SuccessResponse("Success get room messages", views))
}
