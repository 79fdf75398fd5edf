package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/jadwal-api/internal/middleware"
	"github.com/noah-isme/jadwal-api/internal/models"
	"github.com/noah-isme/jadwal-api/internal/service"
	"github.com/noah-isme/jadwal-api/internal/utils"
)

// DailyAnnouncementHandler serves per-date schedules and the forward propagation actions.
type DailyAnnouncementHandler struct {
	service service.DailyAnnouncementService
	logger  zerolog.Logger
}

// NewDailyAnnouncementHandler constructs the handler.
func NewDailyAnnouncementHandler(service service.DailyAnnouncementService, logger zerolog.Logger) *DailyAnnouncementHandler {
	return &DailyAnnouncementHandler{
		service: service,
		logger:  logger.With().Str("component", "daily_announcement_handler").Logger(),
	}
}

// Register wires the daily announcement routes.
func (h *DailyAnnouncementHandler) Register(router fiber.Router) {
	teacherOnly := middleware.AuthOptions{Role: middleware.AuthRoleTeacher}

	router.Get("/", h.list)
	router.Put("/", h.batchUpsert)
	router.Post("/apply-schedule", middleware.WithAuth(h.applySchedule, teacherOnly))
	router.Post("/reset", middleware.WithAuth(h.reset, teacherOnly))
	router.Put("/:date", h.upsert)
}

type dailyAnnouncementsRequest struct {
	Announcements []models.DailyAnnouncement `json:"announcements"`
}

type propagationRequest struct {
	From string `json:"from"`
	Days int    `json:"days"`
}

func (h *DailyAnnouncementHandler) list(c *fiber.Ctx) error {
	items, err := h.service.List(requestContext(c), classIDFromParams(c), c.Query("from"), c.Query("to"))
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to list daily announcements")
	}
	return utils.SendSuccess(c, "daily announcements", items)
}

func (h *DailyAnnouncementHandler) upsert(c *fiber.Ctx) error {
	var payload models.DailyAnnouncement
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	item, err := h.service.Upsert(requestContext(c), classIDFromParams(c), actorFromContext(c), c.Params("date"), payload)
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to save daily announcement")
	}
	return utils.SendSuccess(c, "daily announcement saved", item)
}

func (h *DailyAnnouncementHandler) batchUpsert(c *fiber.Ctx) error {
	var payload dailyAnnouncementsRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	items, err := h.service.BatchUpsert(requestContext(c), classIDFromParams(c), actorFromContext(c), payload.Announcements)
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to save daily announcements")
	}
	return utils.SendSuccess(c, "daily announcements saved", items)
}

func (h *DailyAnnouncementHandler) applySchedule(c *fiber.Ctx) error {
	var payload propagationRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&payload); err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
		}
	}

	result, err := h.service.ApplyScheduleToFuture(requestContext(c), classIDFromParams(c), actorFromContext(c), payload.From, payload.Days)
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to apply schedule")
	}
	return utils.SendSuccess(c, "schedule applied", result)
}

func (h *DailyAnnouncementHandler) reset(c *fiber.Ctx) error {
	var payload propagationRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&payload); err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
		}
	}

	result, err := h.service.ResetFuture(requestContext(c), classIDFromParams(c), actorFromContext(c), payload.From)
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to reset announcements")
	}
	return utils.SendSuccess(c, "announcements reset", result)
}
