package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/jadwal-api/internal/middleware"
	"github.com/noah-isme/jadwal-api/internal/models"
	"github.com/noah-isme/jadwal-api/internal/service"
	"github.com/noah-isme/jadwal-api/internal/utils"
)

// InquiryHandler serves inquiry threads.
type InquiryHandler struct {
	service service.InquiryService
	logger  zerolog.Logger
}

// NewInquiryHandler constructs the handler.
func NewInquiryHandler(service service.InquiryService, logger zerolog.Logger) *InquiryHandler {
	return &InquiryHandler{
		service: service,
		logger:  logger.With().Str("component", "inquiry_handler").Logger(),
	}
}

// Register wires the inquiry routes.
func (h *InquiryHandler) Register(router fiber.Router) {
	router.Get("/", h.list)
	router.Post("/", h.create)
	router.Get("/:id", h.get)
	router.Patch("/:id/status", middleware.WithAuth(h.updateStatus, middleware.AuthOptions{Role: middleware.AuthRoleTeacher}))
	router.Delete("/:id", h.remove)
	router.Get("/:id/messages", h.listMessages)
	router.Post("/:id/messages", h.addMessage)
	router.Delete("/:id/messages/:messageId", h.removeMessage)
}

type inquiryStatusRequest struct {
	Status string `json:"status"`
}

type inquiryMessageRequest struct {
	Body string `json:"body"`
}

func (h *InquiryHandler) list(c *fiber.Ctx) error {
	items, err := h.service.List(requestContext(c), classIDFromParams(c), c.Query("status"))
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to list inquiries")
	}
	return utils.SendSuccess(c, "inquiries", items)
}

func (h *InquiryHandler) get(c *fiber.Ctx) error {
	item, err := h.service.Get(requestContext(c), classIDFromParams(c), c.Params("id"))
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to load inquiry")
	}
	return utils.SendSuccess(c, "inquiry", item)
}

func (h *InquiryHandler) create(c *fiber.Ctx) error {
	var payload models.Inquiry
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	item, err := h.service.Create(requestContext(c), classIDFromParams(c), actorFromContext(c), payload)
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to create inquiry")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "inquiry created", item)
}

func (h *InquiryHandler) updateStatus(c *fiber.Ctx) error {
	var payload inquiryStatusRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	item, err := h.service.UpdateStatus(requestContext(c), classIDFromParams(c), actorFromContext(c), c.Params("id"), payload.Status)
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to update inquiry")
	}
	return utils.SendSuccess(c, "inquiry updated", item)
}

func (h *InquiryHandler) remove(c *fiber.Ctx) error {
	if err := h.service.Delete(requestContext(c), classIDFromParams(c), actorFromContext(c), c.Params("id")); err != nil {
		return sendServiceError(c, h.logger, err, "failed to delete inquiry")
	}
	return utils.SendSuccess(c, "inquiry deleted", nil)
}

func (h *InquiryHandler) listMessages(c *fiber.Ctx) error {
	items, err := h.service.ListMessages(requestContext(c), classIDFromParams(c), c.Params("id"))
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to list messages")
	}
	return utils.SendSuccess(c, "inquiry messages", items)
}

func (h *InquiryHandler) addMessage(c *fiber.Ctx) error {
	var payload inquiryMessageRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	item, err := h.service.AddMessage(requestContext(c), classIDFromParams(c), actorFromContext(c), c.Params("id"), payload.Body)
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to add message")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "message added", item)
}

func (h *InquiryHandler) removeMessage(c *fiber.Ctx) error {
	err := h.service.DeleteMessage(requestContext(c), classIDFromParams(c), actorFromContext(c), c.Params("id"), c.Params("messageId"))
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to delete message")
	}
	return utils.SendSuccess(c, "message deleted", nil)
}
