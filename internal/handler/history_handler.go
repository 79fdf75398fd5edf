package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/jadwal-api/internal/dto"
	"github.com/noah-isme/jadwal-api/internal/middleware"
	"github.com/noah-isme/jadwal-api/internal/service"
	"github.com/noah-isme/jadwal-api/internal/utils"
)

// HistoryHandler serves the class action log and the undo endpoint.
type HistoryHandler struct {
	logs     service.ActionLogService
	rollback service.RollbackService
	logger   zerolog.Logger
}

// NewHistoryHandler constructs the handler.
func NewHistoryHandler(logs service.ActionLogService, rollback service.RollbackService, logger zerolog.Logger) *HistoryHandler {
	return &HistoryHandler{
		logs:     logs,
		rollback: rollback,
		logger:   logger.With().Str("component", "history_handler").Logger(),
	}
}

// Register attaches history routes to the class router group.
func (h *HistoryHandler) Register(router fiber.Router) {
	router.Get("/", h.list)
	router.Get("/:logId", h.get)
	router.Post("/:logId/rollback", middleware.WithAuth(h.undo, middleware.AuthOptions{Role: middleware.AuthRoleTeacher}))
}

func (h *HistoryHandler) list(c *fiber.Ctx) error {
	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}
	page, err := parseQueryInt(c, "page")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page")
	}

	actor := strings.TrimSpace(c.Query("actor_id"))
	action := strings.TrimSpace(c.Query("action"))

	var result dto.ActionLogListResponse
	if page <= 1 && actor == "" && action == "" {
		result, err = h.logs.ListRecent(requestContext(c), classIDFromParams(c), limit)
	} else {
		result, err = h.logs.List(requestContext(c), classIDFromParams(c), dto.ActionLogListRequest{
			Page:     page,
			PageSize: limit,
			ActorID:  actor,
			Action:   action,
		})
	}
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to load history")
	}

	if result.CacheHit {
		c.Set("X-Cache-Hit", "true")
	} else {
		c.Set("X-Cache-Hit", "false")
	}
	return utils.OK(c, result.Items, "history", result.Pagination)
}

func (h *HistoryHandler) get(c *fiber.Ctx) error {
	entry, err := h.logs.GetByID(requestContext(c), classIDFromParams(c), c.Params("logId"))
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to load history entry")
	}
	return utils.SendSuccess(c, "history entry", entry)
}

func (h *HistoryHandler) undo(c *fiber.Ctx) error {
	result, err := h.rollback.Rollback(requestContext(c), classIDFromParams(c), c.Params("logId"), actorFromContext(c))
	if err != nil {
		return sendServiceError(c, h.logger, err, "undo failed")
	}

	requestLogger(h.logger, c).Info().
		Str("log_id", result.LogID).
		Str("original_log_id", result.OriginalLogID).
		Str("action", string(result.Action)).
		Msg("action rolled back")
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "action rolled back", result)
}
