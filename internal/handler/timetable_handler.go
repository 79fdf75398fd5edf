package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/jadwal-api/internal/models"
	"github.com/noah-isme/jadwal-api/internal/service"
	"github.com/noah-isme/jadwal-api/internal/utils"
)

// TimetableHandler serves the weekly base timetable.
type TimetableHandler struct {
	service service.TimetableService
	logger  zerolog.Logger
}

// NewTimetableHandler constructs the handler.
func NewTimetableHandler(service service.TimetableService, logger zerolog.Logger) *TimetableHandler {
	return &TimetableHandler{
		service: service,
		logger:  logger.With().Str("component", "timetable_handler").Logger(),
	}
}

// Register wires the timetable routes.
func (h *TimetableHandler) Register(router fiber.Router) {
	router.Get("/fixed", h.list)
	router.Put("/fixed", h.batchUpdate)
}

type fixedSlotsRequest struct {
	Slots []models.FixedSlot `json:"slots"`
}

func (h *TimetableHandler) list(c *fiber.Ctx) error {
	slots, err := h.service.List(requestContext(c), classIDFromParams(c))
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to load timetable")
	}
	return utils.SendSuccess(c, "timetable", slots)
}

func (h *TimetableHandler) batchUpdate(c *fiber.Ctx) error {
	var payload fixedSlotsRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	slots, err := h.service.BatchUpdate(requestContext(c), classIDFromParams(c), actorFromContext(c), payload.Slots)
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to update timetable")
	}
	return utils.SendSuccess(c, "timetable updated", slots)
}
