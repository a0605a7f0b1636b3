package handler

import (
	"strconv"

	"learnera-be/internal/pkg/apperrors"
	"learnera-be/internal/pkg/serverutils"
	"learnera-be/internal/service"
	"learnera-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
)

// ChatHandler exposes the REST companion surface of the chat gateway:
// profile, contact list, conversation history and delivery/read receipts.
type ChatHandler struct {
	chat    service.IChatService
	gateway *websocket.Gateway
}

func NewChatHandler(chat service.IChatService, gateway *websocket.Gateway) *ChatHandler {
	return &ChatHandler{chat: chat, gateway: gateway}
}

func (h *ChatHandler) RegisterRoutes(router fiber.Router) {
	chat := router.Group("/chat")

	chat.Get("/ws/:token", h.gateway.Handler())

	chat.Get("/users/me", serverutils.JwtMiddleware, h.GetMe)
	chat.Get("/contacts", serverutils.JwtMiddleware, h.GetContacts)
	chat.Get("/messages/:receiver_id", serverutils.JwtMiddleware, h.GetConversation)
	chat.Patch("/messages/:sender_id/received", serverutils.JwtMiddleware, h.MarkReceived)
	chat.Patch("/messages/:sender_id/read", serverutils.JwtMiddleware, h.MarkRead)
}

func (h *ChatHandler) GetMe(c *fiber.Ctx) error {
	userId := c.Locals("user_id").(uint)

	user, err := h.chat.CurrentUser(c.Context(), userId)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(serverutils.OK(user))
}

func (h *ChatHandler) GetContacts(c *fiber.Ctx) error {
	userId := c.Locals("user_id").(uint)

	contacts, err := h.chat.GetContacts(c.Context(), userId)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(serverutils.OK(contacts))
}

func (h *ChatHandler) GetConversation(c *fiber.Ctx) error {
	userId := c.Locals("user_id").(uint)

	otherId, err := parseIdParam(c, "receiver_id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(serverutils.Fail("Invalid receiver id"))
	}

	messages, err := h.chat.GetConversation(c.Context(), userId, otherId)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(serverutils.OK(messages))
}

func (h *ChatHandler) MarkReceived(c *fiber.Ctx) error {
	userId := c.Locals("user_id").(uint)

	senderId, err := parseIdParam(c, "sender_id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(serverutils.Fail("Invalid sender id"))
	}

	if err := h.chat.MarkConversationReceived(c.Context(), userId, senderId); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(serverutils.OK(fiber.Map{"status": "received"}))
}

func (h *ChatHandler) MarkRead(c *fiber.Ctx) error {
	userId := c.Locals("user_id").(uint)

	senderId, err := parseIdParam(c, "sender_id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(serverutils.Fail("Invalid sender id"))
	}

	if err := h.chat.MarkConversationRead(c.Context(), userId, senderId); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(serverutils.OK(fiber.Map{"status": "read"}))
}

func (h *ChatHandler) fail(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch apperrors.KindOf(err) {
	case apperrors.KindValidation, apperrors.KindProtocol:
		status = fiber.StatusBadRequest
	case apperrors.KindUserNotFound:
		status = fiber.StatusNotFound
	case apperrors.KindAuth:
		status = fiber.StatusUnauthorized
	}
	return c.Status(status).JSON(serverutils.Fail(apperrors.UserMessage(err)))
}

func parseIdParam(c *fiber.Ctx, name string) (uint, error) {
	raw, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil || raw == 0 {
		return 0, fiber.ErrBadRequest
	}
	return uint(raw), nil
}
