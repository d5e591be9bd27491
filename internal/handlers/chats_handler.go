package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"alfredoptarigan/careerforge/internal/models"
	"alfredoptarigan/careerforge/internal/repositories"
	"alfredoptarigan/careerforge/internal/services"
)

const (
	defaultChatTitle = "New Chat"
	chatListLimit    = 50
)

type ChatsHandler struct {
	chatRepo repositories.ChatRepository
}

func NewChatsHandler(chatRepo repositories.ChatRepository) *ChatsHandler {
	return &ChatsHandler{chatRepo: chatRepo}
}

func (h *ChatsHandler) HandleList(c *fiber.Ctx) error {
	chats, err := h.chatRepo.List(chatListLimit)
	if err != nil {
		log.Printf("❌ Failed to list chats: %v\n", err)
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to fetch chats", "", CodeInternal)
	}

	summaries := make([]models.ChatSummary, 0, len(chats))
	for _, chat := range chats {
		summaries = append(summaries, models.ChatSummary{ID: chat.ID.String(), Title: chat.Title})
	}
	return c.JSON(summaries)
}

func (h *ChatsHandler) HandleCreate(c *fiber.Ctx) error {
	var req models.CreateChatRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid request body", "", CodeInvalidRequest)
	}

	messages, err := toMessages(req.Messages)
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid message", err.Error(), CodeInvalidRequest)
	}

	chat := &models.Chat{
		Title:    defaultChatTitle,
		Messages: messages,
	}
	if req.Title != nil {
		chat.Title = *req.Title
	}

	if err := h.chatRepo.Create(chat); err != nil {
		log.Printf("❌ Failed to create chat: %v\n", err)
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to create chat", "", CodeInternal)
	}

	return c.JSON(chat)
}

func (h *ChatsHandler) HandleGet(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid chat ID format", "", CodeInvalidRequest)
	}

	chat, err := h.chatRepo.FindByID(id)
	if err != nil {
		return h.repoError(c, err, "Failed to fetch chat")
	}
	return c.JSON(chat)
}

func (h *ChatsHandler) HandleUpdate(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid chat ID format", "", CodeInvalidRequest)
	}

	var req models.UpdateChatRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid request body", "", CodeInvalidRequest)
	}

	var messages *[]models.Message
	if req.Messages != nil {
		converted, err := toMessages(*req.Messages)
		if err != nil {
			return errorJSON(c, fiber.StatusBadRequest, "Invalid message", err.Error(), CodeInvalidRequest)
		}
		messages = &converted
	}

	chat, err := h.chatRepo.Update(id, req.Title, messages)
	if err != nil {
		return h.repoError(c, err, "Failed to update chat")
	}
	return c.JSON(chat)
}

func (h *ChatsHandler) HandleDelete(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid chat ID format", "", CodeInvalidRequest)
	}

	if err := h.chatRepo.Delete(id); err != nil {
		return h.repoError(c, err, "Failed to delete chat")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *ChatsHandler) repoError(c *fiber.Ctx, err error, message string) error {
	if errors.Is(err, repositories.ErrChatNotFound) {
		return errorJSON(c, fiber.StatusNotFound, "Chat not found", "", CodeNotFound)
	}
	log.Printf("❌ %s: %v\n", message, err)
	return errorJSON(c, fiber.StatusInternalServerError, message, "", CodeInternal)
}

func toMessages(inputs []models.ChatMessageInput) ([]models.Message, error) {
	messages := make([]models.Message, 0, len(inputs))
	for _, in := range inputs {
		role := services.ChatRole(in.Role)
		if role != services.ChatRoleUser && role != services.ChatRoleAssistant {
			return nil, errors.New("role must be user or assistant")
		}

		msg := models.Message{Role: in.Role, Content: in.Content}
		if id, err := uuid.Parse(in.ID); err == nil {
			msg.ID = id
		}
		messages = append(messages, msg)
	}
	return messages, nil
}
