package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/jadwal-api/internal/audit"
	"github.com/noah-isme/jadwal-api/internal/service"
	"github.com/noah-isme/jadwal-api/internal/utils"
)

// RecordHandler exposes CRUD routes for one collection of class records.
type RecordHandler[T audit.Record] struct {
	service service.RecordService[T]
	noun    string
	logger  zerolog.Logger
}

// NewRecordHandler constructs the handler. noun is used in response messages.
func NewRecordHandler[T audit.Record](svc service.RecordService[T], noun string, logger zerolog.Logger) *RecordHandler[T] {
	return &RecordHandler[T]{
		service: svc,
		noun:    noun,
		logger:  logger.With().Str("component", strings.ReplaceAll(noun, " ", "_")+"_handler").Logger(),
	}
}

// Register wires the record routes.
func (h *RecordHandler[T]) Register(router fiber.Router) {
	router.Get("/", h.list)
	router.Post("/", h.create)
	router.Get("/:id", h.get)
	router.Put("/:id", h.update)
	router.Delete("/:id", h.remove)
}

func (h *RecordHandler[T]) list(c *fiber.Ctx) error {
	items, err := h.service.List(requestContext(c), classIDFromParams(c))
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to list "+h.noun+"s")
	}
	return utils.SendSuccess(c, h.noun+"s", items)
}

func (h *RecordHandler[T]) get(c *fiber.Ctx) error {
	item, err := h.service.Get(requestContext(c), classIDFromParams(c), c.Params("id"))
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to load "+h.noun)
	}
	return utils.SendSuccess(c, h.noun, item)
}

func (h *RecordHandler[T]) create(c *fiber.Ctx) error {
	var payload T
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	item, err := h.service.Create(requestContext(c), classIDFromParams(c), actorFromContext(c), payload)
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to create "+h.noun)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, h.noun+" created", item)
}

func (h *RecordHandler[T]) update(c *fiber.Ctx) error {
	var payload T
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	item, err := h.service.Update(requestContext(c), classIDFromParams(c), actorFromContext(c), c.Params("id"), payload)
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to update "+h.noun)
	}
	return utils.SendSuccess(c, h.noun+" updated", item)
}

func (h *RecordHandler[T]) remove(c *fiber.Ctx) error {
	if err := h.service.Delete(requestContext(c), classIDFromParams(c), actorFromContext(c), c.Params("id")); err != nil {
		return sendServiceError(c, h.logger, err, "failed to delete "+h.noun)
	}
	return utils.SendSuccess(c, h.noun+" deleted", nil)
}
