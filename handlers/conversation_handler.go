package handlers

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/hirebridge/hirebridge/models"
	"github.com/hirebridge/hirebridge/services"
)

var validate = validator.New()

// ConversationHandler serves the REST chat surface. The requester principal is
// placed in Locals by the auth middleware; every call re-verifies.
type ConversationHandler struct {
	conversations *services.ConversationService
}

func NewConversationHandler(conversations *services.ConversationService) *ConversationHandler {
	return &ConversationHandler{conversations: conversations}
}

type participantDTO struct {
	PrincipalID string `json:"principal_id" validate:"required,uuid"`
	Kind        string `json:"kind" validate:"required,oneof=job_seeker recruiter"`
}

type createConversationRequest struct {
	Participants []participantDTO `json:"participants" validate:"required,len=2,dive"`
}

type sendMessageRequest struct {
	Content string `json:"content" validate:"required"`
}

func (h *ConversationHandler) CreateConversation(c *fiber.Ctx) error {
	requester := requesterRef(c)

	var req createConversationRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, fiber.StatusBadRequest, "validation_error", "Cannot parse JSON")
	}
	if err := validate.Struct(req); err != nil {
		return respondError(c, fiber.StatusBadRequest, "invalid_participants", err.Error())
	}

	participants := make([]models.PrincipalRef, 0, len(req.Participants))
	for _, p := range req.Participants {
		id, err := uuid.Parse(p.PrincipalID)
		if err != nil {
			return respondError(c, fiber.StatusBadRequest, "invalid_participants", "Invalid participant id")
		}
		participants = append(participants, models.PrincipalRef{ID: id, Kind: models.Kind(p.Kind)})
	}

	view, err := h.conversations.CreateConversation(c.UserContext(), requester, participants)
	if err != nil {
		return h.respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(view)
}

func (h *ConversationHandler) ListConversations(c *fiber.Ctx) error {
	views, err := h.conversations.ListConversations(c.UserContext(), requesterRef(c))
	if err != nil {
		return h.respondServiceError(c, err)
	}
	return c.JSON(views)
}

func (h *ConversationHandler) GetConversation(c *fiber.Ctx) error {
	conversationID, err := uuid.Parse(c.Params("conversationId"))
	if err != nil {
		return respondError(c, fiber.StatusNotFound, "not_found", "Conversation not found")
	}

	view, err := h.conversations.GetConversation(c.UserContext(), requesterRef(c), conversationID)
	if err != nil {
		return h.respondServiceError(c, err)
	}
	return c.JSON(view)
}

func (h *ConversationHandler) SendMessage(c *fiber.Ctx) error {
	conversationID, err := uuid.Parse(c.Params("conversationId"))
	if err != nil {
		return respondError(c, fiber.StatusNotFound, "not_found", "Conversation not found")
	}

	var req sendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, fiber.StatusBadRequest, "validation_error", "Cannot parse JSON")
	}

	conv, msg, err := h.conversations.SendMessage(c.UserContext(), requesterRef(c), conversationID, req.Content)
	if err != nil {
		return h.respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"conversation": conv, "message": msg})
}

func requesterRef(c *fiber.Ctx) models.PrincipalRef {
	principal := c.Locals("principal").(*models.Principal)
	return principal.Ref()
}

func (h *ConversationHandler) respondServiceError(c *fiber.Ctx, err error) error {
	var conflict *services.ConflictError
	var invalid *services.ValidationError
	switch {
	case errors.As(err, &conflict):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":           fiber.Map{"kind": "conflict", "message": conflict.Error()},
			"conversation_id": conflict.ConversationID,
		})
	case errors.As(err, &invalid):
		return respondError(c, fiber.StatusBadRequest, "validation_error", invalid.Reason)
	case errors.Is(err, services.ErrNotFound):
		return respondError(c, fiber.StatusNotFound, "not_found", "Conversation not found")
	case errors.Is(err, services.ErrForbidden):
		return respondError(c, fiber.StatusForbidden, "forbidden", "You are not a participant of this conversation")
	default:
		return respondError(c, fiber.StatusInternalServerError, "internal_error", "Something went wrong")
	}
}

func respondError(c *fiber.Ctx, status int, kind, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": fiber.Map{"kind": kind, "message": message},
	})
}
