package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/jadwal-api/internal/middleware"
	"github.com/noah-isme/jadwal-api/internal/models"
	"github.com/noah-isme/jadwal-api/internal/service"
	"github.com/noah-isme/jadwal-api/internal/utils"
)

// SettingsHandler serves the class settings record.
type SettingsHandler struct {
	service service.SettingsService
	logger  zerolog.Logger
}

// NewSettingsHandler constructs the handler.
func NewSettingsHandler(service service.SettingsService, logger zerolog.Logger) *SettingsHandler {
	return &SettingsHandler{
		service: service,
		logger:  logger.With().Str("component", "settings_handler").Logger(),
	}
}

// Register wires the settings routes.
func (h *SettingsHandler) Register(router fiber.Router) {
	router.Get("/", h.get)
	router.Put("/", middleware.WithAuth(h.update, middleware.AuthOptions{Role: middleware.AuthRoleTeacher}))
}

func (h *SettingsHandler) get(c *fiber.Ctx) error {
	settings, err := h.service.Get(requestContext(c), classIDFromParams(c))
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to load settings")
	}
	return utils.SendSuccess(c, "settings", settings)
}

func (h *SettingsHandler) update(c *fiber.Ctx) error {
	var payload models.ClassSettings
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	settings, err := h.service.Update(requestContext(c), classIDFromParams(c), actorFromContext(c), payload)
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to update settings")
	}
	return utils.SendSuccess(c, "settings updated", settings)
}
