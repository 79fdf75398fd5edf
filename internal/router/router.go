package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/jadwal-api/internal/config"
	"github.com/noah-isme/jadwal-api/internal/handler"
	"github.com/noah-isme/jadwal-api/internal/middleware"
	"github.com/noah-isme/jadwal-api/internal/models"
	"github.com/noah-isme/jadwal-api/internal/observability"
	"github.com/noah-isme/jadwal-api/internal/utils"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	HistoryHandler             *handler.HistoryHandler
	HistoryStreamHandler       *handler.HistoryStreamHandler
	SubjectHandler             *handler.RecordHandler[models.Subject]
	EventHandler               *handler.RecordHandler[models.Event]
	GeneralAnnouncementHandler *handler.RecordHandler[models.GeneralAnnouncement]
	AssignmentHandler          *handler.RecordHandler[models.Assignment]
	SettingsHandler            *handler.SettingsHandler
	TimetableHandler           *handler.TimetableHandler
	DailyAnnouncementHandler   *handler.DailyAnnouncementHandler
	InquiryHandler             *handler.InquiryHandler
	HealthProbes               map[string]handler.HealthProbe
	JWTMiddleware              fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.HealthProbes))

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error {
			return utils.SendError(c, fiber.StatusUnauthorized, "authentication is not configured")
		}
	}

	window := cfg.RateLimitWindow
	if window <= 0 {
		window = time.Minute
	}
	class := api.Group("/classes/:classId",
		jwtMiddleware,
		middleware.RequireClassMember("classId"),
		middleware.RateLimit("class", cfg.RateLimitMax, window),
	)

	history := class.Group("/history")
	if deps.HistoryStreamHandler != nil {
		deps.HistoryStreamHandler.Register(history)
	}
	if deps.HistoryHandler != nil {
		deps.HistoryHandler.Register(history)
	}

	if deps.SubjectHandler != nil {
		deps.SubjectHandler.Register(class.Group("/subjects"))
	}
	if deps.EventHandler != nil {
		deps.EventHandler.Register(class.Group("/events"))
	}
	if deps.GeneralAnnouncementHandler != nil {
		deps.GeneralAnnouncementHandler.Register(class.Group("/general-announcements"))
	}
	if deps.AssignmentHandler != nil {
		deps.AssignmentHandler.Register(class.Group("/assignments"))
	}
	if deps.SettingsHandler != nil {
		deps.SettingsHandler.Register(class.Group("/settings"))
	}
	if deps.TimetableHandler != nil {
		deps.TimetableHandler.Register(class.Group("/timetable"))
	}
	if deps.DailyAnnouncementHandler != nil {
		deps.DailyAnnouncementHandler.Register(class.Group("/daily-announcements"))
	}
	if deps.InquiryHandler != nil {
		deps.InquiryHandler.Register(class.Group("/inquiries"))
	}
}
